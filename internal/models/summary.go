package models

// DashboardSummary is the aggregate view served to the overview page.
type DashboardSummary struct {
	TotalData       int     `json:"totalData"`
	ProcessedData   int     `json:"processedData"`
	PendingData     int     `json:"pendingData"`
	PublishedData   int     `json:"publishedData"`
	LastUpdate      string  `json:"lastUpdate"` // RFC 3339
	ActivePlatforms string  `json:"activePlatforms"`
	AvgProcessTime  float64 `json:"avgProcessTime"` // seconds
	AccuracyRate    float64 `json:"accuracyRate"`   // percent
}

// SourceSummary is the per-platform drill-down view.
type SourceSummary struct {
	Source          Source `json:"source"`
	Total           int    `json:"total"`
	DiscountItems   int    `json:"discountItems"`
	HighCredibility int    `json:"highCredibility"` // credibility >= 80
	RecentItems     int    `json:"recentItems"`     // published within 24h
	Items           []Post `json:"items"`           // newest first, capped
}

// SystemMetrics is a synthetic health snapshot recomputed every monitoring
// tick, independent of the pipeline.
type SystemMetrics struct {
	CPU       int    `json:"cpu"`     // percent
	Memory    int    `json:"memory"`  // percent
	Disk      int    `json:"disk"`    // percent
	Network   int    `json:"network"` // Mbps
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"` // RFC 3339
}

// ReportDetails carries the three pipeline stage snapshots in a report.
type ReportDetails struct {
	Raw        []Post `json:"raw"`
	Cleaned    []Post `json:"cleaned"`
	Classified []Post `json:"classified"`
}

// Report is the canonical JSON export representation.
type Report struct {
	GeneratedAt string           `json:"generatedAt"`
	DateRange   string           `json:"dateRange"`
	Summary     DashboardSummary `json:"summary"`
	Details     ReportDetails    `json:"details"`
}

// OpResult is the structured outcome of non-idempotent operations (manual
// collection, review submission, report export). A failed operation carries a
// user-facing message instead of an error so the UI can render a retry
// affordance.
type OpResult struct {
	Success   bool   `json:"success"`
	Collected int    `json:"collected,omitempty"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
}
