package sources

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/config"
	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
)

// doerFunc adapts a function to HTTPDoer.
type doerFunc func(req *http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func testSourceConfig() config.SourceConfig {
	return config.SourceConfig{
		Enabled:     true,
		MaxResults:  20,
		RateLimitMs: 1, // keep tests fast
		TimeoutSec:  2,
	}
}

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestXiaohongshuClient_FetchByKeyword_MapsNotes(t *testing.T) {
	var gotURL string
	client := NewXiaohongshuClient(testSourceConfig(), doerFunc(func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		assert.Contains(t, req.Header.Get("User-Agent"), "MicroMessenger")
		return jsonResponse(`{
			"data": {
				"items": [
					{
						"id": "note-1",
						"title": "华为手机8折员工专享",
						"desc": "内购渠道，数量有限，先到先得，这是一条足够长的描述",
						"time": 1700000000000,
						"user": {"user_id": "u1", "nickname": "小助手", "type": "official", "fans_count": 20000},
						"image_list": [{"url": "https://img.example.com/1.jpg"}],
						"tag_list": [{"name": "内购"}],
						"interaction_info": {"liked_count": 1200, "comment_count": 150, "share_count": 30, "collected_count": 80}
					},
					{
						"note_id": "note-2",
						"title": "普通好物分享",
						"desc": "没有促销信息的日常分享内容",
						"user": {"user_id": "u2", "nickname": "路人"},
						"interaction_info": {"liked_count": 5}
					}
				]
			}
		}`), nil
	}))

	posts := client.FetchByKeyword(context.Background(), "内购", 10)
	require.Len(t, posts, 2)

	assert.Contains(t, gotURL, "/search/notes")
	assert.Contains(t, gotURL, "keyword=%E5%86%85%E8%B4%AD")
	assert.Contains(t, gotURL, "page_size=10")

	first := posts[0]
	assert.Equal(t, "note-1", first.ID)
	assert.Equal(t, models.SourceXiaohongshu, first.Source)
	assert.False(t, first.Synthetic)
	assert.Equal(t, "official", first.Author.Type)
	assert.Equal(t, []string{"https://img.example.com/1.jpg"}, first.Images)
	assert.Equal(t, []string{"内购"}, first.Tags)
	assert.Equal(t, 1200, first.Stats.Likes)
	assert.Equal(t, int64(1700000000000), first.PublishTime)
	// Enrichment ran: 8折 yields a discount descriptor.
	require.NotNil(t, first.DiscountInfo)
	assert.Equal(t, models.DiscountPercentage, first.DiscountInfo.Type)

	second := posts[1]
	assert.Equal(t, "note-2", second.ID, "note_id is the id fallback")
	assert.NotZero(t, second.PublishTime, "missing time defaults to now")
}

func TestXiaohongshuClient_FetchByKeyword_FallsBackOnError(t *testing.T) {
	client := NewXiaohongshuClient(testSourceConfig(), doerFunc(func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}))

	posts := client.FetchByKeyword(context.Background(), "员工折扣", 5)
	require.Len(t, posts, 5, "fallback serves exactly limit posts")
	for _, p := range posts {
		assert.True(t, p.Synthetic)
		assert.Equal(t, models.SourceXiaohongshu, p.Source)
	}
}

func TestXiaohongshuClient_FetchByKeyword_FallsBackOnBadStatus(t *testing.T) {
	client := NewXiaohongshuClient(testSourceConfig(), doerFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusTooManyRequests,
			Body:       io.NopCloser(bytes.NewBufferString("slow down")),
		}, nil
	}))

	posts := client.FetchByKeyword(context.Background(), "内购", 3)
	require.Len(t, posts, 3)
	assert.True(t, posts[0].Synthetic)
}

func TestXiaohongshuClient_FetchByKeyword_FallsBackOnMalformedBody(t *testing.T) {
	client := NewXiaohongshuClient(testSourceConfig(), doerFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(`{"data": "not an object`), nil
	}))

	posts := client.FetchByKeyword(context.Background(), "内购", 2)
	require.Len(t, posts, 2)
	assert.True(t, posts[0].Synthetic)
}

func TestXiaohongshuClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	client := NewXiaohongshuClient(testSourceConfig(), doerFunc(func(req *http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("boom")
	}))

	for i := 0; i < 8; i++ {
		posts := client.FetchByKeyword(context.Background(), "内购", 1)
		require.Len(t, posts, 1, "every call still serves fallback data")
	}
	assert.Equal(t, 5, calls, "breaker stops hitting the transport after five consecutive failures")
}

func TestXiaohongshuClient_FetchTrending(t *testing.T) {
	var gotURL string
	client := NewXiaohongshuClient(testSourceConfig(), doerFunc(func(req *http.Request) (*http.Response, error) {
		gotURL = req.URL.String()
		return jsonResponse(`{"data": {"items": []}}`), nil
	}))

	posts := client.FetchTrending(context.Background(), "shopping", 5)
	assert.Empty(t, posts)
	assert.Contains(t, gotURL, "/feed")
	assert.Contains(t, gotURL, "category=shopping")
	assert.Contains(t, gotURL, "source=explore")
}

func TestXiaohongshuClient_IsActive(t *testing.T) {
	cfg := testSourceConfig()
	assert.True(t, NewXiaohongshuClient(cfg, nil).IsActive())

	cfg.Enabled = false
	assert.False(t, NewXiaohongshuClient(cfg, nil).IsActive())
}
