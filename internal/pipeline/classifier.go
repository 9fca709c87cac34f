package pipeline

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
)

// Classifier assigns a review category and a priority to every cleaned
// post. Re-running it over already-classified posts recomputes both
// deterministically from the unchanged derived fields; only the timestamp
// moves.
type Classifier struct{}

// NewClassifier creates a classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify maps content types to categories, computes priorities and
// initializes the review status to pending.
func (c *Classifier) Classify(posts []models.Post) []models.Post {
	now := time.Now().UnixMilli()
	classified := make([]models.Post, 0, len(posts))

	for _, post := range posts {
		post.Category = categoryFor(post.ContentType)
		post.Priority = priorityFor(post)
		post.Status = models.StatusPending
		post.ClassifiedAt = now
		classified = append(classified, post)
	}

	log.Info().Int("count", len(classified)).Msg("Classification completed")
	return classified
}

func categoryFor(ct models.ContentType) string {
	switch ct {
	case models.ContentDiscount, models.ContentFlashSale:
		return "promotion"
	case models.ContentInternalPurchase:
		return "internal"
	default:
		return "general"
	}
}

// priorityFor starts at a base of 5 and adds fixed bonuses: +2 for
// credibility above 85, +3 for an extracted discount, +1 for more than 500
// likes, +1 for a brand mention. Clamped to [1,10].
func priorityFor(post models.Post) int {
	priority := 5

	if post.Credibility > 85 {
		priority += 2
	}
	if post.DiscountInfo != nil {
		priority += 3
	}
	if post.Stats.Likes > 500 {
		priority += 1
	}
	if post.BrandInfo != nil {
		priority += 1
	}

	if priority > 10 {
		priority = 10
	}
	if priority < 1 {
		priority = 1
	}
	return priority
}
