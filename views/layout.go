// Package views holds the default page chrome. Every component is a
// templ.Component, so a site can replace any of them with generated templ code.
package views

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/texted/markdown"
)

type htmlWriter struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) attr(name, value string) {
	h.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// urlAttr writes a URL attribute. Unsafe schemes drop the attribute value.
func (h *htmlWriter) urlAttr(name, value string) {
	h.raw(" " + name + `="` + markdown.SafeURL(value) + `"`)
}

func (h *htmlWriter) component(c templ.Component) {
	if h.err != nil || c == nil {
		return
	}
	h.err = c.Render(h.ctx, h.w)
}

// layout wraps body in the site shell.
func layout(site Site, meta PageMeta, jsonLD string, body func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{ctx: ctx, w: w}
		title := site.Name
		if meta.Title != "" && meta.Title != site.Name {
			title = meta.Title + " | " + site.Name
		}
		description := meta.Description
		if description == "" {
			description = site.Description
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}

		h.raw("<!DOCTYPE html>\n<html lang=\"en\"><head><meta charset=\"utf-8\">")
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw("<title>")
		h.text(title)
		h.raw("</title><meta name=\"description\"")
		h.attr("content", description)
		h.raw(">")
		if markdown.SafeURL(meta.URL) != "" {
			h.raw(`<link rel="canonical"`)
			h.urlAttr("href", meta.URL)
			h.raw(`><meta property="og:url"`)
			h.urlAttr("content", meta.URL)
			h.raw(">")
		}
		h.raw(`<meta property="og:title"`)
		h.attr("content", title)
		h.raw(`><meta property="og:type"`)
		h.attr("content", ogType)
		h.raw(`><link rel="stylesheet" href="/public/texted.css">`)
		h.raw(`<link rel="alternate" type="application/rss+xml" href="/rss"`)
		h.attr("title", site.Name)
		h.raw(">")
		if jsonLD != "" {
			h.raw(`<script type="application/ld+json">`)
			h.raw(jsonLD)
			h.raw("</script>")
		}
		h.raw(`</head><body><header class="site-header"><a class="site-name" href="/">`)
		h.text(site.Name)
		h.raw(`</a><nav><a href="/list">Posts</a> <a href="/rss">RSS</a></nav></header><main>`)
		body(h)
		h.raw(`</main><footer class="site-footer">`)
		if site.Author != "" {
			h.raw("&copy; ")
			h.text(copyrightYears(site.StartYear, time.Now().Year()) + " " + site.Author)
		}
		h.raw("</footer></body></html>")
		return h.err
	})
}

func copyrightYears(start, now int) string {
	if start <= 0 || start >= now {
		return strconv.Itoa(now)
	}
	return strconv.Itoa(start) + "-" + strconv.Itoa(now)
}
