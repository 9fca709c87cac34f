// Package sources holds the per-platform collectors. Each client owns its
// own request throttle, circuit breaker and synthetic fallback: a network
// failure never propagates to the caller, it degrades to locally generated
// data tagged like real output.
package sources

import (
	"context"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
)

// Client is one platform integration. New platforms are added by adding
// implementations, not by branching on platform names.
type Client interface {
	// FetchByKeyword searches the platform and returns up to limit posts.
	// Never fails outward: on any error it returns synthetic posts marked
	// with Synthetic=true.
	FetchByKeyword(ctx context.Context, keyword string, limit int) []models.Post

	// FetchTrending returns up to limit posts from the platform's trending
	// feed for a category, with the same fallback behavior.
	FetchTrending(ctx context.Context, category string, limit int) []models.Post

	// IsActive reports whether this platform integration is enabled. This
	// is a static capability flag, not a liveness probe; inactive clients
	// are skipped by the scheduler entirely.
	IsActive() bool

	// Source identifies the platform.
	Source() models.Source
}
