package texted

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eringen/texted/content"
	"github.com/eringen/texted/metrics"
	"github.com/eringen/texted/paginator"
	"github.com/eringen/texted/views"
)

func (a *App) setupRoutes() {
	e := a.Echo

	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/public/texted.css", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS)))))
	e.Static("/public", a.Config.Paths.Public)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/", a.handleIndex)
	e.GET("/list", a.handleList)
	e.GET("/view/:post", a.handleView)
	e.GET("/view/:post/:file", a.handleAsset)
	e.GET("/page/:page", a.handlePage)
	e.GET("/rss", a.handleRSS)
	e.GET("/sitemap.xml", a.handleSitemap)

	if a.Recorder != nil {
		e.GET("/metrics", echo.WrapHandler(a.Recorder.Handler()))
	}

	if a.Config.AdminEnabled() {
		e.GET("/admin/", a.handleAdmin)
		e.POST("/admin/login/", a.handleAdminLogin)
		e.POST("/admin/logout/", handleAdminLogout)
		e.POST("/admin/cache/purge/", a.handleCachePurge)
		e.POST("/admin/cache/invalidate/:post/", a.handleCacheInvalidate)
		e.POST("/admin/rescan/", a.handleRescan)
	}
}

func (a *App) emit(ev metrics.Event) {
	a.emitter.Emit(ev)
}

func (a *App) handleIndex(c echo.Context) error {
	list, err := a.Cache.ListPreviews("")
	if err != nil {
		return err
	}
	a.emit(metrics.Index(c.RealIP()))

	n := a.Config.Defaults.IndexPosts
	data := views.IndexData{
		Site:  a.Site(),
		Meta:  views.PageMeta{Title: a.Config.Site.Name, URL: BuildURL(a.Config.Site.URL)},
		Posts: list.Posts,
		Tags:  list.Tags,
	}
	if len(list.Posts) > n {
		data.Posts = list.Posts[:n]
		data.MoreAt = views.ListURL(1, "")
	}
	return RenderETag(c, a.Views.Index(data))
}

func (a *App) handleList(c echo.Context) error {
	tag := c.QueryParam("tag")
	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.Redirect(http.StatusSeeOther, views.ListURL(1, tag))
		}
		page = n
	}

	list, err := a.Cache.ListPreviews(tag)
	if err != nil {
		return err
	}
	a.emit(metrics.List(tag, c.RealIP()))

	p := paginator.New(list.Posts, a.Config.Defaults.PageSize)
	var posts []*content.Content
	if p.PageCount() > 0 {
		posts, err = p.Page(page)
		if errors.Is(err, paginator.ErrInvalidPage) {
			return c.Redirect(http.StatusSeeOther, views.ListURL(p.Clamp(page), tag))
		}
		if err != nil {
			return err
		}
	} else {
		page = 1
	}

	title := "Posts"
	if tag != "" {
		title = "Posts tagged " + tag
	}
	return RenderETag(c, a.Views.List(views.ListData{
		Site:      a.Site(),
		Meta:      views.PageMeta{Title: title, URL: BuildURL(a.Config.Site.URL, "list")},
		Posts:     posts,
		Tags:      list.Tags,
		ActiveTag: tag,
		Page:      page,
		PageCount: p.PageCount(),
	}))
}

func (a *App) handleView(c echo.Context) error {
	link := c.Param("post")
	post, err := a.Cache.Post(link)
	if err != nil {
		return err
	}
	a.emit(metrics.View(link, c.RealIP()))

	var related []*content.Content
	if list, err := a.Cache.ListPreviews(""); err == nil {
		related = views.FilterRelatedPosts(post, list.Posts)
	} else {
		slog.Warn("listing related posts", "link", link, "error", err)
	}

	site := a.Site()
	return RenderETag(c, a.Views.Post(views.PostData{
		Site:    site,
		Meta:    views.PageMeta{Title: post.Title, URL: views.PostURL(site, link), OGType: "article"},
		Post:    post,
		Related: related,
		JSONLD:  views.BlogPostingJsonLD(site, post),
	}))
}

func (a *App) handlePage(c echo.Context) error {
	link := c.Param("page")
	page, err := a.Cache.Page(link)
	if err != nil {
		return err
	}
	a.emit(metrics.Page(link, c.RealIP()))

	return RenderETag(c, a.Views.Page(views.PostData{
		Site: a.Site(),
		Meta: views.PageMeta{Title: page.Title, URL: BuildURL(a.Config.Site.URL, "page", link)},
		Post: page,
	}))
}

func (a *App) handleRSS(c echo.Context) error {
	list, err := a.Cache.ListPreviews("")
	if err != nil {
		return err
	}
	a.emit(metrics.Rss(c.RealIP()))
	return a.renderRSS(c, list.Posts)
}

func (a *App) handleSitemap(c echo.Context) error {
	list, err := a.Cache.ListPreviews("")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, list.Posts, a.Store.Links(KindPage))
}

func (a *App) handleRobots(c echo.Context) error {
	return c.String(http.StatusOK, "User-agent: *\nAllow: /\nSitemap: "+BuildURL(a.Config.Site.URL, "sitemap.xml")+"\n")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if errors.Is(err, content.ErrNotFound) {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.Site()))
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.Site()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		slog.Error("server error", "method", c.Request().Method, "uri", c.Request().RequestURI, "error", err)
		_ = RenderStatus(c, code, a.Views.ServerError(a.Site()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
