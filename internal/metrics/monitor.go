// Package metrics provides the system monitoring snapshot served by the
// dashboard and the Prometheus instrumentation for the pipeline.
package metrics

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
)

// Monitor produces periodic system health snapshots. Host-level figures are
// simulated within realistic bands; there is no agent on the box to read
// real values from, and the dashboard only needs plausible motion.
type Monitor struct {
	mu        sync.RWMutex
	startTime time.Time
	last      models.SystemMetrics
}

// NewMonitor creates a monitor anchored at the current time for uptime
// reporting.
func NewMonitor() *Monitor {
	return &Monitor{startTime: time.Now()}
}

// Refresh computes a new snapshot and retains it as the latest.
func (m *Monitor) Refresh() models.SystemMetrics {
	snap := models.SystemMetrics{
		CPU:       30 + rand.Intn(41),  // 30-70%
		Memory:    60 + rand.Intn(31),  // 60-90%
		Disk:      40 + rand.Intn(21),  // 40-60%
		Network:   50 + rand.Intn(101), // 50-150 Mbps
		Uptime:    time.Since(m.startTime).Truncate(time.Second).String(),
		Timestamp: time.Now().Format(time.RFC3339),
	}

	m.mu.Lock()
	m.last = snap
	m.mu.Unlock()

	log.Debug().Int("cpu", snap.CPU).Int("memory", snap.Memory).Msg("System metrics refreshed")
	return snap
}

// Last returns the most recent snapshot, refreshing first if none exists yet.
func (m *Monitor) Last() models.SystemMetrics {
	m.mu.RLock()
	last := m.last
	m.mu.RUnlock()

	if last.Timestamp == "" {
		return m.Refresh()
	}
	return last
}

// Uptime reports how long the process has been running.
func (m *Monitor) Uptime() time.Duration {
	return time.Since(m.startTime)
}
