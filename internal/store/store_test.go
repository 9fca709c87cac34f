package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
)

func makePosts(source models.Source, n int) []models.Post {
	out := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Post{
			ID:     fmt.Sprintf("%s_%d", source, i),
			Source: source,
			Title:  fmt.Sprintf("post %d", i),
		})
	}
	return out
}

func TestStore_PostsReturnsIsolatedCopy(t *testing.T) {
	s := New()
	s.ReplacePosts(KeyRaw, makePosts(models.SourceXiaohongshu, 3))

	got := s.Posts(KeyRaw)
	require.Len(t, got, 3)
	got[0].Title = "mutated"

	again := s.Posts(KeyRaw)
	assert.Equal(t, "post 0", again[0].Title, "caller mutations must not leak into the store")
}

func TestStore_ReplacePostsCopiesInput(t *testing.T) {
	s := New()
	in := makePosts(models.SourceXiaohongshu, 2)
	s.ReplacePosts(KeyCleaned, in)

	in[1].Title = "mutated after replace"
	got := s.Posts(KeyCleaned)
	assert.Equal(t, "post 1", got[1].Title)
}

func TestStore_UpdatePostsMergeLosesNoWrites(t *testing.T) {
	s := New()

	// Concurrent per-source merges: each goroutine replaces its own
	// source's posts and appends them back. Every source must survive.
	sources := []models.Source{models.SourceXiaohongshu, models.SourceWeibo, models.SourceDouyin}
	var wg sync.WaitGroup
	for _, src := range sources {
		src := src
		wg.Add(1)
		go func() {
			defer wg.Done()
			fresh := makePosts(src, 5)
			s.UpdatePosts(KeyRaw, func(cur []models.Post) []models.Post {
				kept := make([]models.Post, 0, len(cur))
				for _, p := range cur {
					if p.Source != src {
						kept = append(kept, p)
					}
				}
				return append(kept, fresh...)
			})
		}()
	}
	wg.Wait()

	got := s.Posts(KeyRaw)
	require.Len(t, got, 15)

	bySource := make(map[models.Source]int)
	for _, p := range got {
		bySource[p.Source]++
	}
	for _, src := range sources {
		assert.Equal(t, 5, bySource[src], "source %s lost posts in concurrent merge", src)
	}
}

func TestStore_Values(t *testing.T) {
	s := New()

	_, ok := s.Value("system_metrics")
	assert.False(t, ok)

	s.SetValue("system_metrics", models.SystemMetrics{CPU: 42})
	v, ok := s.Value("system_metrics")
	require.True(t, ok)
	assert.Equal(t, 42, v.(models.SystemMetrics).CPU)
}

func TestStore_LenAndClear(t *testing.T) {
	s := New()
	s.ReplacePosts(KeyRaw, makePosts(models.SourceWeibo, 4))
	s.SetValue("k", "v")

	assert.Equal(t, 4, s.Len(KeyRaw))
	assert.Equal(t, 0, s.Len(KeyClassified))

	s.Clear()
	assert.Equal(t, 0, s.Len(KeyRaw))
	_, ok := s.Value("k")
	assert.False(t, ok)
}
