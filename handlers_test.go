package texted

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/texted/metrics"
)

type recordingEmitter struct {
	mu     sync.Mutex
	events []metrics.Event
}

func (r *recordingEmitter) Emit(ev metrics.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingEmitter) apis() []metrics.API {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]metrics.API, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.API)
	}
	return out
}

func newTestApp(t *testing.T, mutate func(*SiteConfig), opts ...Option) *App {
	t.Helper()
	cfg := testConfig(newTestSite(t))
	if mutate != nil {
		mutate(&cfg)
	}
	a := New(cfg, ViewFuncs{}, opts...)
	require.NoError(t, a.Setup())
	t.Cleanup(func() { a.Close() })
	return a
}

func serve(a *App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func get(a *App, target string) *httptest.ResponseRecorder {
	return serve(a, httptest.NewRequest(http.MethodGet, target, nil))
}

func TestIndex(t *testing.T) {
	events := &recordingEmitter{}
	a := newTestApp(t, func(c *SiteConfig) { c.Defaults.IndexPosts = 2 }, WithEmitter(events))

	rec := get(a, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Less(t, strings.Index(body, "Pics"), strings.Index(body, "Hello"), "newest first")
	assert.NotContains(t, body, "old body", "index shows IndexPosts previews")
	assert.Contains(t, body, `href="/list"`)
	assert.Equal(t, []metrics.API{metrics.APIIndex}, events.apis())
}

func TestListPaginates(t *testing.T) {
	a := newTestApp(t, func(c *SiteConfig) { c.Defaults.PageSize = 1 })

	rec := get(a, "/list?page=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "first paragraph")
	assert.NotContains(t, rec.Body.String(), "old body")

	rec = get(a, "/list?page=9")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/list?page=3", rec.Header().Get("Location"))

	rec = get(a, "/list?page=abc")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/list", rec.Header().Get("Location"))
}

func TestListByTag(t *testing.T) {
	a := newTestApp(t, nil)

	rec := get(a, "/list?tag=web")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "old body")
	assert.NotContains(t, rec.Body.String(), "first paragraph")

	rec = get(a, "/list?tag=none")
	assert.Equal(t, http.StatusOK, rec.Code, "an empty listing is a page, not a redirect")
}

func TestViewPost(t *testing.T) {
	events := &recordingEmitter{}
	a := newTestApp(t, nil, WithEmitter(events))

	rec := get(a, "/view/hello")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "the rest")
	assert.Contains(t, rec.Body.String(), `"@type":"BlogPosting"`)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/view/hello", nil)
	req.Header.Set("If-None-Match", etag)
	rec = serve(a, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())

	assert.Equal(t, []metrics.API{metrics.APIView, metrics.APIView}, events.apis())
}

func TestViewMissingIs404(t *testing.T) {
	a := newTestApp(t, nil)

	for _, target := range []string{"/view/missing", "/page/missing", "/view/hello/pic.png", "/view/20240105_pics/missing.png", "/nowhere"} {
		rec := get(a, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "Not found", target)
	}
}

func TestTrailingSlashRedirect(t *testing.T) {
	a := newTestApp(t, nil)

	rec := get(a, "/view/hello/")
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/view/hello", rec.Header().Get("Location"))
}

func TestBrokenPostIs500(t *testing.T) {
	a := newTestApp(t, nil)
	site := testSite{root: a.Config.Paths.Posts}
	site.write(t, "broken.md", "[DATE]: # (2024-01-01 00:00:00)\n# Broken\nopen <!-- never closed\n")
	require.NoError(t, a.Store.Rescan())

	rec := get(a, "/view/broken")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPage(t *testing.T) {
	events := &recordingEmitter{}
	a := newTestApp(t, nil, WithEmitter(events))

	rec := get(a, "/page/about")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "about me")
	assert.Equal(t, []metrics.API{metrics.APIPage}, events.apis())
}

func TestAsset(t *testing.T) {
	a := newTestApp(t, nil)

	rec := get(a, "/view/20240105_pics/pic.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = get(a, "/view/20240105_pics/pic.png?w=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	rec = get(a, "/view/20240105_pics/pic.png?w=10")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(1), a.images.Stats().Hits)

	rec = get(a, "/view/20240105_pics/pic.png?w=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRSS(t *testing.T) {
	events := &recordingEmitter{}
	a := newTestApp(t, func(c *SiteConfig) { c.RSS.PageSize = 2 }, WithEmitter(events))

	rec := get(a, "/rss")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/rss+xml")
	body := rec.Body.String()
	assert.Equal(t, 2, strings.Count(body, "<item>"))
	assert.Contains(t, body, "https://example.com/view/hello")
	assert.Contains(t, body, "a63bd715-a3fe-4788-b0e1-2a3153778544")
	assert.Equal(t, []metrics.API{metrics.APIRss}, events.apis())
}

func TestSitemapAndRobots(t *testing.T) {
	a := newTestApp(t, nil)

	rec := get(a, "/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<loc>https://example.com/view/hello</loc>")
	assert.Contains(t, body, "<lastmod>2024-01-02</lastmod>")
	assert.Contains(t, body, "<loc>https://example.com/page/about</loc>")

	rec = get(a, "/robots.txt")
	assert.Contains(t, rec.Body.String(), "Sitemap: https://example.com/sitemap.xml")
}

func TestPrometheusEndpoint(t *testing.T) {
	a := newTestApp(t, func(c *SiteConfig) { c.Metrics.Prometheus = true })
	get(a, "/view/hello")
	get(a, "/view/hello")

	rec := get(a, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `texted_cache_lookups_total{cache="content",result="hit"}`)
	assert.Contains(t, body, `texted_access_total{api="view"} 2`)
	assert.Contains(t, body, "texted_render_duration_seconds")
}

func TestMetricsDisabledByDefault(t *testing.T) {
	a := newTestApp(t, nil)
	assert.Equal(t, http.StatusNotFound, get(a, "/metrics").Code)
	assert.Nil(t, a.MetricsStore)
}

func TestAccessMetricsStored(t *testing.T) {
	a := newTestApp(t, func(c *SiteConfig) { c.Metrics.Enabled = true })
	require.NotNil(t, a.MetricsStore)

	get(a, "/view/hello")
	get(a, "/view/hello")
	require.NoError(t, a.access.Close())

	total, _, err := a.MetricsStore.Totals(t.Context(), a.startedAt.Add(-a.Config.Metrics.TimeSlot))
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestAdminDisabledWithoutPassword(t *testing.T) {
	a := newTestApp(t, func(c *SiteConfig) { c.Admin.Password = "" })
	assert.Equal(t, http.StatusNotFound, get(a, "/admin/").Code)
}

// adminClient keeps cookies between requests and sends the CSRF token.
type adminClient struct {
	t       *testing.T
	a       *App
	cookies map[string]*http.Cookie
}

func (c *adminClient) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if form != nil {
		if tok, ok := c.cookies["_csrf"]; ok {
			form.Set("_csrf", tok.Value)
		}
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	rec := serve(c.a, req)
	for _, ck := range rec.Result().Cookies() {
		c.cookies[ck.Name] = ck
	}
	return rec
}

func TestAdminFlow(t *testing.T) {
	a := newTestApp(t, nil)
	c := &adminClient{t: t, a: a, cookies: map[string]*http.Cookie{}}

	rec := c.do(http.MethodGet, "/admin/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="password"`)
	require.Contains(t, c.cookies, "_csrf")

	rec = c.do(http.MethodPost, "/admin/login/", url.Values{"password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Wrong password")

	rec = c.do(http.MethodPost, "/admin/login/", url.Values{"password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	get(a, "/view/hello")
	rec = c.do(http.MethodGet, "/admin/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "post-hello")
	assert.Contains(t, rec.Body.String(), "/admin/cache/invalidate/hello/")

	rec = c.do(http.MethodPost, "/admin/cache/invalidate/hello/", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	_, ok := a.Cache.Cache().Get("post-hello")
	assert.False(t, ok)

	get(a, "/view/hello")
	rec = c.do(http.MethodPost, "/admin/cache/purge/", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 0, a.Cache.Cache().Len())

	rec = c.do(http.MethodPost, "/admin/rescan/", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "Rescanned")

	rec = c.do(http.MethodPost, "/admin/logout/", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = c.do(http.MethodGet, "/admin/", nil)
	assert.Contains(t, rec.Body.String(), `name="password"`)
}

func TestAdminRequiresCSRF(t *testing.T) {
	a := newTestApp(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader("password=secret"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusForbidden, serve(a, req).Code)
}

func TestAdminActionsNeedSession(t *testing.T) {
	a := newTestApp(t, nil)
	c := &adminClient{t: t, a: a, cookies: map[string]*http.Cookie{}}
	c.do(http.MethodGet, "/admin/", nil)

	get(a, "/view/hello")
	before := a.Cache.Cache().Len()
	require.NotZero(t, before)
	rec := c.do(http.MethodPost, "/admin/cache/purge/", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, before, a.Cache.Cache().Len(), "purge without a session does nothing")
}

func TestCustomViewsAndRoutes(t *testing.T) {
	called := false
	a := newTestApp(t, nil, WithCustomRoutes(func(a *App) {
		a.Echo.GET("/hello", func(c echo.Context) error { called = true; return c.String(http.StatusOK, "hi") })
	}))
	rec := get(a, "/hello")
	assert.Equal(t, "hi", rec.Body.String())
	assert.True(t, called)
}
