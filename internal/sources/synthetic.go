package sources

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/signals"
)

// SyntheticPosts generates limit fallback posts for a source. The shape is
// deterministic (always exactly limit posts, tagged with the source and
// Synthetic=true) while the engagement figures vary, so downstream stages
// see the same structure as real platform output.
func SyntheticPosts(source models.Source, keyword string, limit int) []models.Post {
	now := time.Now()
	posts := make([]models.Post, 0, limit)

	for i := 0; i < limit; i++ {
		post := models.Post{
			ID:      fmt.Sprintf("mock_%s_%s", source, uuid.NewString()),
			Title:   fmt.Sprintf("%s相关商品%d", keyword, i+1),
			Content: fmt.Sprintf("这是一个关于%s的优质商品，性价比很高，值得购买！", keyword),
			Author: models.Author{
				ID:     fmt.Sprintf("user_%d", i),
				Name:   fmt.Sprintf("用户%d", i+1),
				Avatar: fmt.Sprintf("https://picsum.photos/seed/avatar%d/100/100.jpg", i),
			},
			Images: []string{
				fmt.Sprintf("https://picsum.photos/seed/product%d/400/300.jpg", i),
			},
			Tags: []string{keyword, "好物推荐", "性价比"},
			Stats: models.PostStats{
				Likes:    rand.Intn(1000),
				Comments: rand.Intn(100),
				Shares:   rand.Intn(50),
				Collects: rand.Intn(200),
			},
			PublishTime: now.Add(-time.Duration(rand.Int63n(int64(7 * 24 * time.Hour)))).UnixMilli(),
			Source:      source,
			Synthetic:   true,
		}
		signals.Enrich(&post)
		posts = append(posts, post)
	}

	log.Warn().
		Str("source", string(source)).
		Str("keyword", keyword).
		Int("count", len(posts)).
		Msg("Serving synthetic fallback data")

	return posts
}
