package views

import (
	"sort"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/dustin/go-humanize"
)

// AdminLogin renders the login form.
func AdminLogin(site Site, showError bool, csrfToken string) templ.Component {
	return layout(site, PageMeta{Title: "Admin"}, "", func(h *htmlWriter) {
		h.raw(`<h1>Admin</h1>`)
		if showError {
			h.raw(`<p class="error">Wrong password.</p>`)
		}
		h.raw(`<form method="post" action="/admin/login/"><input type="hidden" name="_csrf"`)
		h.attr("value", csrfToken)
		h.raw(`><label>Password <input type="password" name="password" autofocus></label> <button type="submit">Log in</button></form>`)
	})
}

func writeForm(h *htmlWriter, action, label, csrf string) {
	h.raw(`<form class="inline" method="post"`)
	h.attr("action", action)
	h.raw(`><input type="hidden" name="_csrf"`)
	h.attr("value", csrf)
	h.raw(`><button type="submit">`)
	h.text(label)
	h.raw("</button></form>")
}

// AdminDashboard renders cache and access statistics.
func AdminDashboard(d DashboardData) templ.Component {
	return layout(d.Site, PageMeta{Title: "Dashboard"}, "", func(h *htmlWriter) {
		h.raw(`<h1>Dashboard</h1>`)
		if d.Message != "" {
			h.raw(`<p class="message">`)
			h.text(d.Message)
			h.raw("</p>")
		}
		if !d.StartedAt.IsZero() {
			h.raw("<p>Up since ")
			h.text(humanize.Time(d.StartedAt))
			h.raw("</p>")
		}
		writeForm(h, "/admin/cache/purge/", "Purge caches", d.CSRF)
		writeForm(h, "/admin/logout/", "Log out", d.CSRF)

		for _, c := range d.Caches {
			h.raw("<section><h2>")
			h.text(c.Name)
			if !c.Enabled {
				h.raw(" (disabled)")
			}
			h.raw("</h2><p>")
			h.text(humanize.Comma(int64(c.Stats.Hits)) + " hits, " +
				humanize.Comma(int64(c.Stats.Misses)) + " misses, " +
				strconv.Itoa(c.Stats.Entries) + " entries (" + strconv.Itoa(c.Stats.Expired) + " expired)")
			h.raw("</p>")
			if len(c.Entries) > 0 {
				entries := rows(c)
				h.raw("<table><thead><tr><th>Key</th><th>Added</th><th>Expires</th><th></th></tr></thead><tbody>")
				for _, e := range entries {
					h.raw("<tr><td>")
					h.text(e.Key)
					h.raw("</td><td>")
					h.text(e.Added)
					h.raw("</td><td>")
					h.text(e.Expires)
					h.raw("</td><td>")
					if e.Link != "" {
						writeForm(h, "/admin/cache/invalidate/"+PathEscape(e.Link)+"/", "Invalidate", d.CSRF)
					}
					h.raw("</td></tr>")
				}
				h.raw("</tbody></table>")
			}
			h.raw("</section>")
		}

		h.raw("<section><h2>Access, last 7 days</h2><p>")
		h.text(humanize.Comma(int64(d.Views7d)) + " requests, " + humanize.Comma(int64(d.Unique7d)) + " unique per slot")
		h.raw("</p>")
		if len(d.Top) > 0 {
			h.raw("<table><thead><tr><th>API</th><th>Name</th><th>Total</th><th>Unique</th></tr></thead><tbody>")
			for _, t := range d.Top {
				h.raw("<tr><td>")
				h.text(string(t.API))
				h.raw("</td><td>")
				h.text(t.Name)
				h.raw("</td><td>")
				h.text(humanize.Comma(int64(t.Total)))
				h.raw("</td><td>")
				h.text(humanize.Comma(int64(t.Unique)))
				h.raw("</td></tr>")
			}
			h.raw("</tbody></table>")
		}
		h.raw("</section>")
	})
}

// EntryRow is a cache entry formatted for the dashboard.
type EntryRow struct {
	Key     string
	Link    string
	Added   string
	Expires string
}

var entryPrefixes = []string{"preview-", "post-", "page-"}

func rows(c CacheStats) []EntryRow {
	out := make([]EntryRow, 0, len(c.Entries))
	for _, e := range c.Entries {
		row := EntryRow{Key: e.Key, Added: humanize.Time(e.Added)}
		switch {
		case e.Never:
			row.Expires = "never"
		case e.Expired:
			row.Expires = "expired " + humanize.Time(e.ExpireAt)
		default:
			row.Expires = humanize.Time(e.ExpireAt)
		}
		for _, p := range entryPrefixes {
			if link, ok := strings.CutPrefix(e.Key, p); ok && link != "" {
				row.Link = link
				break
			}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
