// Package pipeline contains the staged batch transforms run over collected
// posts: clean, classify, validate. Stages produce new collections; they do
// not mutate the store in place.
package pipeline

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/config"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
)

// Cleaner drops low-quality posts according to the configured content
// filters. It is a stable filter: survivors keep their input order.
type Cleaner struct {
	filters config.FiltersConfig
}

// NewCleaner creates a cleaner applying the given filters verbatim.
func NewCleaner(filters config.FiltersConfig) *Cleaner {
	return &Cleaner{filters: filters}
}

// Clean filters a batch. A post survives when its title and content are
// non-empty and long enough, no excluded keyword appears, and the
// required-images rule (if enabled) is satisfied. Survivors are stamped with
// a cleaning timestamp.
func (c *Cleaner) Clean(posts []models.Post) []models.Post {
	now := time.Now().UnixMilli()
	cleaned := make([]models.Post, 0, len(posts))
	dropped := 0

	for _, post := range posts {
		if !c.keep(post) {
			dropped++
			continue
		}

		post.Title = strings.TrimSpace(post.Title)
		post.Content = strings.TrimSpace(post.Content)
		post.Cleaned = true
		post.CleanedAt = now
		cleaned = append(cleaned, post)
	}

	log.Info().Int("input", len(posts)).Int("kept", len(cleaned)).Int("dropped", dropped).
		Msg("Cleaning completed")
	return cleaned
}

func (c *Cleaner) keep(post models.Post) bool {
	if post.Title == "" || post.Content == "" {
		return false
	}
	if len([]rune(post.Title)) < c.filters.MinTitleLength {
		return false
	}
	if len([]rune(post.Content)) < c.filters.MinContentLength {
		return false
	}
	if c.filters.RequireImages && len(post.Images) == 0 {
		return false
	}

	text := post.Title + " " + post.Content
	for _, kw := range c.filters.ExcludeKeywords {
		if strings.Contains(text, kw) {
			return false
		}
	}
	return true
}
