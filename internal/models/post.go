package models

import "time"

// Source identifies the platform a post was collected from.
type Source string

const (
	SourceXiaohongshu Source = "xiaohongshu"
	SourceWeibo       Source = "weibo"
	SourceDouyin      Source = "douyin"
)

// DisplayName returns the platform name shown in the reviewer UI.
func (s Source) DisplayName() string {
	switch s {
	case SourceXiaohongshu:
		return "小红书"
	case SourceWeibo:
		return "微博"
	case SourceDouyin:
		return "抖音"
	default:
		return string(s)
	}
}

// Valid reports whether s is a known platform identifier.
func (s Source) Valid() bool {
	switch s {
	case SourceXiaohongshu, SourceWeibo, SourceDouyin:
		return true
	}
	return false
}

// ContentType is the derived category of a post's content.
type ContentType string

const (
	ContentDiscount         ContentType = "discount"
	ContentInternalPurchase ContentType = "internal_purchase"
	ContentFlashSale        ContentType = "flash_sale"
	ContentProduct          ContentType = "product"
)

// ReviewStatus tracks a post through the review workflow.
type ReviewStatus string

const (
	StatusPending   ReviewStatus = "pending"
	StatusApproved  ReviewStatus = "approved"
	StatusRejected  ReviewStatus = "rejected"
	StatusPublished ReviewStatus = "published"
)

// CanTransition reports whether a status change is allowed. Transitions are
// forward-only: pending may move to approved, rejected or published; nothing
// moves back.
func (s ReviewStatus) CanTransition(to ReviewStatus) bool {
	if s != StatusPending {
		return false
	}
	switch to {
	case StatusApproved, StatusRejected, StatusPublished:
		return true
	}
	return false
}

// DiscountType classifies the textual form a discount was expressed in.
type DiscountType string

const (
	DiscountPercentage    DiscountType = "percentage"
	DiscountPercentageOff DiscountType = "percentage_off"
	DiscountInstant       DiscountType = "instant_discount"
	DiscountThreshold     DiscountType = "threshold_discount"
	DiscountOther         DiscountType = "other"
)

// Author is the account that published a post. All fields are optional.
type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	// Type is "official" for verified brand/merchant accounts.
	Type      string `json:"type,omitempty"`
	FansCount int    `json:"fansCount,omitempty"`
}

// PostStats holds engagement counters. All values are non-negative.
type PostStats struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Shares   int `json:"shares"`
	Collects int `json:"collects"`
}

// DiscountInfo describes a discount extracted from post text.
type DiscountInfo struct {
	Type       DiscountType `json:"type"`
	RawValue   string       `json:"value"` // the matched text, e.g. "9折"
	Confidence float64      `json:"confidence"`
}

// BrandInfo describes a brand mention extracted from post text.
type BrandInfo struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Post is the canonical unit flowing through the pipeline: produced by a
// source client (or its synthetic fallback), filtered by the cleaner,
// enriched by the classifier and optionally annotated by the validator.
type Post struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Author      Author    `json:"author"`
	Images      []string  `json:"images"`
	Tags        []string  `json:"tags"`
	Stats       PostStats `json:"stats"`
	PublishTime int64     `json:"publishTime"` // epoch milliseconds
	Source      Source    `json:"source"`

	// Derived signals, filled at collection time.
	ContentType  ContentType   `json:"type"`
	Credibility  int           `json:"credibility"` // [0,100]
	DiscountInfo *DiscountInfo `json:"discountInfo,omitempty"`
	BrandInfo    *BrandInfo    `json:"brandInfo,omitempty"`

	// Synthetic marks fallback-generated data so tests and operators can
	// tell it apart from real platform output.
	Synthetic bool `json:"synthetic,omitempty"`

	// Set by the cleaner.
	Cleaned   bool  `json:"cleaned,omitempty"`
	CleanedAt int64 `json:"cleanedAt,omitempty"`

	// Set by the classifier.
	Category     string       `json:"category,omitempty"`
	Priority     int          `json:"priority,omitempty"` // [1,10]
	Status       ReviewStatus `json:"status,omitempty"`
	ClassifiedAt int64        `json:"classifiedAt,omitempty"`

	// Set by the validator.
	IsValid         bool  `json:"isValid"`
	ValidationScore int   `json:"validationScore,omitempty"` // [0,100]
	ValidatedAt     int64 `json:"validatedAt,omitempty"`

	// Set by the review workflow.
	ReviewComment string `json:"reviewComment,omitempty"`
	ReviewTime    string `json:"reviewTime,omitempty"`
}

// PublishedAt converts the epoch-millisecond publish time to a time.Time.
func (p *Post) PublishedAt() time.Time {
	return time.UnixMilli(p.PublishTime)
}
