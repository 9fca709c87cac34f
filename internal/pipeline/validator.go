package pipeline

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/config"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
)

// Validator annotates posts with a validity verdict and a quality score. It
// runs after classification and never removes items: rejection is the review
// workflow's call.
type Validator struct {
	filters config.FiltersConfig
}

// NewValidator creates a validator applying the configured length and
// credibility bounds.
func NewValidator(filters config.FiltersConfig) *Validator {
	return &Validator{filters: filters}
}

// Validate annotates every post with IsValid and ValidationScore.
func (v *Validator) Validate(posts []models.Post) []models.Post {
	now := time.Now().UnixMilli()
	validated := make([]models.Post, 0, len(posts))
	invalid := 0

	for _, post := range posts {
		post.IsValid = v.isValid(post)
		post.ValidationScore = validationScore(post)
		post.ValidatedAt = now
		if !post.IsValid {
			invalid++
		}
		validated = append(validated, post)
	}

	log.Info().Int("count", len(validated)).Int("invalid", invalid).Msg("Validation completed")
	return validated
}

func (v *Validator) isValid(post models.Post) bool {
	if post.Title == "" || post.Content == "" {
		return false
	}
	if len([]rune(post.Title)) > v.filters.MaxTitleLength {
		return false
	}
	if len([]rune(post.Content)) > v.filters.MaxContentLength {
		return false
	}
	if post.Credibility < v.filters.MinCredibility {
		return false
	}
	return true
}

// validationScore is a weighted sum of presence and threshold checks,
// clamped to 100.
func validationScore(post models.Post) int {
	score := 0

	if len([]rune(post.Title)) >= 10 {
		score += 20
	}
	if len([]rune(post.Content)) >= 50 {
		score += 20
	}
	if len(post.Images) > 0 {
		score += 15
	}
	if post.Credibility >= 80 {
		score += 25
	}
	if post.Stats.Likes > 100 {
		score += 10
	}
	if post.DiscountInfo != nil {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}
