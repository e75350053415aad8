package texted

import (
	"context"
	"log/slog"
	"net/url"
	"runtime"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/texted/cache"
	"github.com/eringen/texted/content"
	"github.com/eringen/texted/metrics"
	"github.com/eringen/texted/views"
)

// CacheSettings controls what PostCache renders and for how long it keeps it.
type CacheSettings struct {
	Enabled    bool
	Preview    content.PreviewOptions
	PreviewTTL cache.Expire
	PostTTL    cache.Expire
	PageTTL    cache.Expire
}

// CacheSettingsFrom derives cache settings from the defaults section.
func CacheSettingsFrom(cfg SiteConfig) CacheSettings {
	return CacheSettings{
		Enabled: cfg.RenderingCacheEnabled(),
		Preview: content.PreviewOptions{
			MaxLines: cfg.Defaults.SummaryLineCount,
			BreakTag: cfg.Defaults.SummaryLineTag,
		},
		PreviewTTL: expireFor(cfg.Defaults.PreviewTTL),
		PostTTL:    expireFor(cfg.Defaults.PostTTL),
		PageTTL:    expireFor(cfg.Defaults.PageTTL),
	}
}

func expireFor(d time.Duration) cache.Expire {
	if d <= 0 {
		return cache.Never
	}
	return cache.After(d)
}

// PostCache renders posts and pages from the Store and keeps the results in
// a cache.Cache keyed by "preview-<link>", "post-<link>" or "page-<link>".
type PostCache struct {
	store    *Store
	conv     content.Converter
	settings CacheSettings
	rendered *cache.Cache[content.Content]
	rec      *metrics.Recorder
}

// NewPostCache creates a PostCache over s. rec may be nil.
func NewPostCache(s *Store, conv content.Converter, settings CacheSettings, rec *metrics.Recorder) *PostCache {
	opts := []cache.Option{cache.WithObserver(rec.CacheObserver("content"))}
	c := cache.NonCaching[content.Content](opts...)
	if settings.Enabled {
		c = cache.New[content.Content](opts...)
	}
	return &PostCache{store: s, conv: conv, settings: settings, rendered: c, rec: rec}
}

// Cache exposes the underlying content cache for the admin dashboard.
func (c *PostCache) Cache() *cache.Cache[content.Content] {
	return c.rendered
}

func cacheKey(kind Kind, link string, preview bool) string {
	switch {
	case preview:
		return "preview-" + link
	case kind == KindPage:
		return "page-" + link
	default:
		return "post-" + link
	}
}

// previewOptions are the options Preview renders link with.
func (c *PostCache) previewOptions(link string) content.PreviewOptions {
	p := c.settings.Preview
	p.ImagePrefix = "/view/" + link
	return p
}

// keyFor returns the cache key of a rendering. Previews rendered with other
// than the configured options get a key of their own.
func (c *PostCache) keyFor(kind Kind, link string, opts content.RenderOptions) string {
	key := cacheKey(kind, link, opts.IsPreview())
	if p, ok := opts.Preview(); ok && p != c.previewOptions(link) {
		v := url.Values{}
		v.Set("lines", strconv.Itoa(p.MaxLines))
		v.Set("break", p.BreakTag)
		v.Set("prefix", p.ImagePrefix)
		key += "?" + v.Encode()
	}
	return key
}

// RenderContent loads and renders link without touching the cache.
func (c *PostCache) RenderContent(kind Kind, link string, opts content.RenderOptions) (*content.Content, error) {
	f, err := c.store.Load(kind, link)
	if err != nil {
		return nil, err
	}
	return content.Render(f, opts, c.conv)
}

// CachedRender returns the cached rendering of link, rendering it on a miss.
// Failed renders are not cached.
func (c *PostCache) CachedRender(kind Kind, link string, opts content.RenderOptions, exp cache.Expire) (*content.Content, error) {
	key := c.keyFor(kind, link, opts)
	return c.rendered.GetOr(key, exp, func() (content.Content, error) {
		if opts.IsPreview() {
			slog.Debug("rendering post preview from file", "link", link)
		} else {
			slog.Debug("rendering "+kind.String()+" from file", "link", link)
		}
		start := time.Now()
		out, err := c.RenderContent(kind, link, opts)
		c.rec.ObserveRender(renderKind(kind, opts), time.Since(start), err)
		if err != nil {
			return content.Content{}, err
		}
		return *out, nil
	})
}

func renderKind(kind Kind, opts content.RenderOptions) string {
	if opts.IsPreview() {
		return "preview"
	}
	return kind.String()
}

// Preview returns the preview of a post. Relative images point at the post.
func (c *PostCache) Preview(link string) (*content.Content, error) {
	return c.CachedRender(KindPost, link, content.PreviewOnly(c.previewOptions(link)), c.settings.PreviewTTL)
}

// Post returns the full rendering of a post.
func (c *PostCache) Post(link string) (*content.Content, error) {
	return c.CachedRender(KindPost, link, content.FullContent(), c.settings.PostTTL)
}

// Page returns the full rendering of a page.
func (c *PostCache) Page(link string) (*content.Content, error) {
	return c.CachedRender(KindPage, link, content.FullContent(), c.settings.PageTTL)
}

// ListPreviews returns the previews of every post, newest first, optionally
// filtered by tag. Tags are always counted over all posts.
func (c *PostCache) ListPreviews(tag string) (PostList, error) {
	links := c.store.Links(KindPost)
	all := make([]*content.Content, 0, len(links))
	for _, link := range links {
		p, err := c.Preview(link)
		if err != nil {
			return PostList{}, err
		}
		all = append(all, p)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].Header.Date.Equal(all[j].Header.Date) {
			return all[i].Header.Date.After(all[j].Header.Date)
		}
		return all[i].Link < all[j].Link
	})

	list := PostList{Tags: countTags(all)}
	if tag == "" {
		list.Posts = all
		return list, nil
	}
	for _, p := range all {
		if p.Header.HasTag(tag) {
			list.Posts = append(list.Posts, p)
		}
	}
	return list, nil
}

func countTags(posts []*content.Content) []views.TagCount {
	counts := make(map[string]int)
	for _, p := range posts {
		for _, t := range p.Header.Tags {
			counts[t]++
		}
	}
	out := make([]views.TagCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, views.TagCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Invalidate drops every cached rendering of link.
func (c *PostCache) Invalidate(link string) {
	for _, k := range []string{cacheKey(KindPost, link, true), cacheKey(KindPost, link, false), cacheKey(KindPage, link, false)} {
		c.rendered.Remove(k)
	}
	c.rendered.RemovePrefix(cacheKey(KindPost, link, true) + "?")
}

// Purge drops every cached rendering.
func (c *PostCache) Purge() {
	c.rendered.Purge()
}

// Warm renders every post preview concurrently. It stops at the first error.
func (c *PostCache) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, link := range c.store.Links(KindPost) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := c.Preview(link)
			return err
		})
	}
	return g.Wait()
}
