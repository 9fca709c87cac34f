package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/config"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/signals"
)

const xiaohongshuBaseURL = "https://www.xiaohongshu.com/fe_api/burdock/weixin/v2"

// The weixin burdock endpoints only answer to a mobile WeChat user agent.
var xiaohongshuHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148 MicroMessenger/8.0.42(0x18002a2c) NetType/WIFI Language/zh_CN",
	"Referer":         "https://www.xiaohongshu.com/",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
}

// HTTPDoer is the HTTP transport surface, narrowed for mocking.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// XiaohongshuClient collects posts from the xiaohongshu search and explore
// feeds. Failures never escape: any error path falls back to synthetic data.
type XiaohongshuClient struct {
	cfg        config.SourceConfig
	baseURL    string
	httpClient HTTPDoer
	throttle   *Throttle
	breaker    *gobreaker.CircuitBreaker
}

// NewXiaohongshuClient creates a client from its configuration. Pass nil to
// use a default HTTP client with the configured timeout.
func NewXiaohongshuClient(cfg config.SourceConfig, httpClient HTTPDoer) *XiaohongshuClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout()}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "xiaohongshu",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return &XiaohongshuClient{
		cfg:        cfg,
		baseURL:    xiaohongshuBaseURL,
		httpClient: httpClient,
		throttle:   NewThrottle(cfg.RateLimit()),
		breaker:    breaker,
	}
}

// Source identifies the platform.
func (c *XiaohongshuClient) Source() models.Source { return models.SourceXiaohongshu }

// IsActive reports the static capability flag from configuration.
func (c *XiaohongshuClient) IsActive() bool { return c.cfg.Enabled }

// FetchByKeyword searches notes for a keyword. On any failure (throttle
// cancellation, open breaker, HTTP error, malformed body) it logs and
// returns exactly limit synthetic posts tagged with this source.
func (c *XiaohongshuClient) FetchByKeyword(ctx context.Context, keyword string, limit int) []models.Post {
	if err := c.throttle.Wait(ctx); err != nil {
		log.Warn().Err(err).Str("keyword", keyword).Msg("Throttle wait aborted")
		return SyntheticPosts(c.Source(), keyword, limit)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.search(ctx, keyword, limit)
	})
	if err != nil {
		log.Warn().Err(err).Str("keyword", keyword).Msg("Xiaohongshu search failed, falling back")
		return SyntheticPosts(c.Source(), keyword, limit)
	}

	posts := result.([]models.Post)
	log.Debug().Str("keyword", keyword).Int("count", len(posts)).Msg("Xiaohongshu search completed")
	return posts
}

// FetchTrending pulls the explore feed for a category, with the same
// fallback behavior as FetchByKeyword.
func (c *XiaohongshuClient) FetchTrending(ctx context.Context, category string, limit int) []models.Post {
	if err := c.throttle.Wait(ctx); err != nil {
		log.Warn().Err(err).Str("category", category).Msg("Throttle wait aborted")
		return SyntheticPosts(c.Source(), "热门商品", limit)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.trending(ctx, category, limit)
	})
	if err != nil {
		log.Warn().Err(err).Str("category", category).Msg("Xiaohongshu feed failed, falling back")
		return SyntheticPosts(c.Source(), "热门商品", limit)
	}

	return result.([]models.Post)
}

func (c *XiaohongshuClient) search(ctx context.Context, keyword string, limit int) ([]models.Post, error) {
	params := url.Values{
		"keyword":   {keyword},
		"page":      {"1"},
		"page_size": {strconv.Itoa(limit)},
		"sort":      {"general"},
		"note_type": {"0"},
	}
	return c.get(ctx, c.baseURL+"/search/notes?"+params.Encode())
}

func (c *XiaohongshuClient) trending(ctx context.Context, category string, limit int) ([]models.Post, error) {
	params := url.Values{
		"source":    {"explore"},
		"category":  {category},
		"page":      {"1"},
		"page_size": {strconv.Itoa(limit)},
	}
	return c.get(ctx, c.baseURL+"/feed?"+params.Encode())
}

func (c *XiaohongshuClient) get(ctx context.Context, rawURL string) ([]models.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range xiaohongshuHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	return mapNoteItems(payload.Data.Items), nil
}

// searchResponse mirrors the burdock API envelope for both the search and
// feed endpoints.
type searchResponse struct {
	Data struct {
		Items []noteItem `json:"items"`
	} `json:"data"`
}

type noteItem struct {
	ID     string `json:"id"`
	NoteID string `json:"note_id"`
	Title  string `json:"title"`
	Desc   string `json:"desc"`
	Time   int64  `json:"time"`
	User   struct {
		UserID    string `json:"user_id"`
		Nickname  string `json:"nickname"`
		Avatar    string `json:"avatar"`
		Type      string `json:"type"`
		FansCount int    `json:"fans_count"`
	} `json:"user"`
	ImageList []struct {
		URL string `json:"url"`
	} `json:"image_list"`
	TagList []struct {
		Name string `json:"name"`
	} `json:"tag_list"`
	InteractionInfo struct {
		LikedCount     int `json:"liked_count"`
		CommentCount   int `json:"comment_count"`
		ShareCount     int `json:"share_count"`
		CollectedCount int `json:"collected_count"`
	} `json:"interaction_info"`
}

func mapNoteItems(items []noteItem) []models.Post {
	posts := make([]models.Post, 0, len(items))

	for _, item := range items {
		id := item.ID
		if id == "" {
			id = item.NoteID
		}

		publishTime := item.Time
		if publishTime == 0 {
			publishTime = time.Now().UnixMilli()
		}

		images := make([]string, 0, len(item.ImageList))
		for _, img := range item.ImageList {
			images = append(images, img.URL)
		}
		tags := make([]string, 0, len(item.TagList))
		for _, tag := range item.TagList {
			tags = append(tags, tag.Name)
		}

		post := models.Post{
			ID:      id,
			Title:   item.Title,
			Content: item.Desc,
			Author: models.Author{
				ID:        item.User.UserID,
				Name:      item.User.Nickname,
				Avatar:    item.User.Avatar,
				Type:      item.User.Type,
				FansCount: item.User.FansCount,
			},
			Images: images,
			Tags:   tags,
			Stats: models.PostStats{
				Likes:    item.InteractionInfo.LikedCount,
				Comments: item.InteractionInfo.CommentCount,
				Shares:   item.InteractionInfo.ShareCount,
				Collects: item.InteractionInfo.CollectedCount,
			},
			PublishTime: publishTime,
			Source:      models.SourceXiaohongshu,
		}
		signals.Enrich(&post)
		posts = append(posts, post)
	}

	return posts
}
