package texted

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/texted/cache"
	"github.com/eringen/texted/content"
	"github.com/eringen/texted/markdown"
	"github.com/eringen/texted/views"
)

func newTestCache(t *testing.T, s testSite, enabled bool) *PostCache {
	t.Helper()
	store, err := NewStore(s.posts, s.pages, "index")
	require.NoError(t, err)
	settings := CacheSettingsFrom(testConfig(s))
	settings.Enabled = enabled
	return NewPostCache(store, markdown.New(), settings, nil)
}

func TestListPreviewsOrderAndTags(t *testing.T) {
	pc := newTestCache(t, newTestSite(t), true)

	list, err := pc.ListPreviews("")
	require.NoError(t, err)
	var links []string
	for _, p := range list.Posts {
		links = append(links, p.Link)
	}
	assert.Equal(t, []string{"20240105_pics", "hello", "old"}, links)
	assert.Equal(t, []views.TagCount{{Name: "go", Count: 2}, {Name: "blog", Count: 1}, {Name: "web", Count: 1}}, list.Tags)

	web, err := pc.ListPreviews("web")
	require.NoError(t, err)
	require.Len(t, web.Posts, 1)
	assert.Equal(t, "old", web.Posts[0].Link)
	assert.Equal(t, list.Tags, web.Tags, "tags are counted over every post")
}

func TestPreviewStopsAtBreakAndPrefixesImages(t *testing.T) {
	pc := newTestCache(t, newTestSite(t), true)

	hello, err := pc.Preview("hello")
	require.NoError(t, err)
	assert.Contains(t, hello.Rendered, "first paragraph")
	assert.NotContains(t, hello.Rendered, "the rest")

	pics, err := pc.Preview("20240105_pics")
	require.NoError(t, err)
	assert.Contains(t, pics.Rendered, `src="/view/20240105_pics/pic.png"`)

	full, err := pc.Post("hello")
	require.NoError(t, err)
	assert.Contains(t, full.Rendered, "the rest")
}

func TestCachedRenderHitsAndInvalidate(t *testing.T) {
	s := newTestSite(t)
	pc := newTestCache(t, s, true)

	first, err := pc.Post("hello")
	require.NoError(t, err)
	second, err := pc.Post("hello")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, uint64(1), pc.Cache().Stats().Hits)

	s.write(t, "posts/hello.md", "[DATE]: # (2024-01-02 12:00:00)\n# Hello again\n")
	stale, err := pc.Post("hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", stale.Title)

	pc.Invalidate("hello")
	fresh, err := pc.Post("hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello again", fresh.Title)
}

func TestCachingDisabledAlwaysRenders(t *testing.T) {
	pc := newTestCache(t, newTestSite(t), false)

	first, err := pc.Page("about")
	require.NoError(t, err)
	second, err := pc.Page("about")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, first, second)
	assert.Equal(t, 0, pc.Cache().Len())
}

func TestPageUsesFallbackHeader(t *testing.T) {
	pc := newTestCache(t, newTestSite(t), true)

	about, err := pc.Page("about")
	require.NoError(t, err)
	assert.Equal(t, "About", about.Title)
	assert.Equal(t, content.PostID("about"), about.Header.ID)
	assert.Contains(t, about.Rendered, "about me")
}

func TestRenderErrorsAreNotCached(t *testing.T) {
	s := newTestSite(t)
	s.write(t, "posts/broken.md", "[DATE]: # (2024-01-01 00:00:00)\n# Broken\nopen <!-- never closed\n")
	pc := newTestCache(t, s, true)

	_, err := pc.Post("broken")
	require.Error(t, err)
	assert.True(t, errors.Is(err, content.ErrUnterminatedComment))
	assert.Equal(t, 0, pc.Cache().Len())

	_, err = pc.ListPreviews("")
	assert.True(t, errors.Is(err, content.ErrUnterminatedComment), "listing reports the broken post")

	_, err = pc.Post("missing")
	assert.True(t, errors.Is(err, content.ErrNotFound))
}

func TestWarmRendersEveryPreview(t *testing.T) {
	pc := newTestCache(t, newTestSite(t), true)

	require.NoError(t, pc.Warm(context.Background()))
	assert.Equal(t, 3, pc.Cache().Len())
	for _, link := range []string{"hello", "old", "20240105_pics"} {
		_, ok := pc.Cache().Get("preview-" + link)
		assert.True(t, ok, link)
	}

	pc.Purge()
	assert.Equal(t, 0, pc.Cache().Len())
}

func TestCacheSettingsFrom(t *testing.T) {
	cfg := testConfig(newTestSite(t))
	cfg.Defaults.PostTTL = time.Minute

	s := CacheSettingsFrom(cfg)
	assert.True(t, s.Enabled)
	assert.True(t, s.PreviewTTL.IsNever(), "zero TTL never expires")
	assert.Equal(t, cache.After(time.Minute), s.PostTTL)
	assert.Equal(t, "<!-- more -->", s.Preview.BreakTag)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "preview-x", cacheKey(KindPost, "x", true))
	assert.Equal(t, "post-x", cacheKey(KindPost, "x", false))
	assert.Equal(t, "page-x", cacheKey(KindPage, "x", false))
}

func TestPreviewOptionsAreKeyed(t *testing.T) {
	pc := newTestCache(t, newTestSite(t), true)
	assert.Equal(t, "preview-hello", pc.keyFor(KindPost, "hello", content.PreviewOnly(pc.previewOptions("hello"))))

	configured, err := pc.Preview("hello")
	require.NoError(t, err)
	assert.NotContains(t, configured.Rendered, "the rest")

	opts := content.PreviewOnly(content.PreviewOptions{BreakTag: "no-such-tag"})
	wide, err := pc.CachedRender(KindPost, "hello", opts, cache.Never)
	require.NoError(t, err)
	assert.Contains(t, wide.Rendered, "the rest")

	again, err := pc.Preview("hello")
	require.NoError(t, err)
	assert.Same(t, configured, again)
	assert.Equal(t, 2, pc.Cache().Len())

	pc.Invalidate("hello")
	assert.Equal(t, 0, pc.Cache().Len())
}

func TestHeaderTypoStillLists(t *testing.T) {
	s := newTestSite(t)
	s.write(t, "posts/typo.md", "[ID]: # (typo)\n[DATE]: # (2024-13-45 99:00:00)\n\n# Typo\nstill here\n")
	pc := newTestCache(t, s, true)

	list, err := pc.ListPreviews("")
	require.NoError(t, err)
	var titles []string
	for _, p := range list.Posts {
		titles = append(titles, p.Title)
	}
	assert.Contains(t, titles, "Typo")
}
