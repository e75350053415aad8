package texted

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/texted/views"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(a.Site(), false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.Admin.Password)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(a.Site(), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleCachePurge(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.Cache.Purge()
	a.images.Purge()
	return redirectWithMessage(c, "Caches purged.")
}

func (a *App) handleCacheInvalidate(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	link := c.Param("post")
	a.Cache.Invalidate(link)
	return redirectWithMessage(c, "Invalidated "+link+".")
}

func (a *App) handleRescan(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := a.Store.Rescan(); err != nil {
		return err
	}
	a.Cache.Purge()
	n := len(a.Store.Links(KindPost))
	return redirectWithMessage(c, "Rescanned, "+strconv.Itoa(n)+" posts.")
}

func redirectWithMessage(c echo.Context, msg string) error {
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	content := a.Cache.Cache()
	data := views.DashboardData{
		Site:      a.Site(),
		CSRF:      CsrfToken(c),
		Message:   msg,
		StartedAt: a.startedAt,
		Caches: []views.CacheStats{
			{Name: "Rendered content", Enabled: content.Caching(), Stats: content.Stats(), Entries: content.Entries()},
			{Name: "Resized images", Enabled: a.images.Caching(), Stats: a.images.Stats()},
		},
	}
	if a.MetricsStore != nil {
		ctx := c.Request().Context()
		since := time.Now().AddDate(0, 0, -7)
		top, err := a.MetricsStore.Top(ctx, since, 10)
		if err != nil {
			return err
		}
		data.Top = top
		if data.Views7d, data.Unique7d, err = a.MetricsStore.Totals(ctx, since); err != nil {
			return err
		}
	}
	return Render(c, a.Views.AdminDashboard(data))
}
