package views

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/texted/content"
	"github.com/eringen/texted/markdown"
)

func writeTags(h *htmlWriter, tags []string, active string) {
	if len(tags) == 0 {
		return
	}
	h.raw(`<ul class="tags">`)
	for _, t := range tags {
		h.raw(`<li><a`)
		h.attr("class", TagClass(t == active))
		h.attr("href", ListURL(1, t))
		h.raw(">")
		h.text(t)
		h.raw("</a></li>")
	}
	h.raw("</ul>")
}

func writeTagCounts(h *htmlWriter, tags []TagCount, active string) {
	if len(tags) == 0 {
		return
	}
	h.raw(`<ul class="tag-cloud">`)
	for _, t := range tags {
		h.raw(`<li><a`)
		h.attr("class", TagClass(t.Name == active))
		h.attr("href", ListURL(1, t.Name))
		h.raw(">")
		h.text(t.Name)
		h.raw(" <span>")
		h.raw(strconv.Itoa(t.Count))
		h.raw("</span></a></li>")
	}
	h.raw("</ul>")
}

func writePreview(h *htmlWriter, p *content.Content) {
	h.raw(`<article class="preview"><h2><a`)
	h.attr("href", "/view/"+PathEscape(p.Link))
	h.raw(">")
	h.text(p.Title)
	h.raw(`</a></h2><time`)
	h.attr("datetime", p.Header.DateString())
	h.raw(">")
	h.text(p.Header.DateString())
	h.raw("</time>")
	h.component(markdown.HTML(p.Rendered))
	h.raw(`<a class="more"`)
	h.attr("href", "/view/"+PathEscape(p.Link))
	h.raw(">Read more</a>")
	writeTags(h, p.Header.Tags, "")
	h.raw("</article>")
}

// Index renders the landing page with the latest previews.
func Index(d IndexData) templ.Component {
	return layout(d.Site, d.Meta, WebsiteJsonLD(d.Site), func(h *htmlWriter) {
		writeTagCounts(h, d.Tags, "")
		if len(d.Posts) == 0 {
			h.raw(`<p class="empty">Nothing published yet.</p>`)
		}
		for _, p := range d.Posts {
			writePreview(h, p)
		}
		if d.MoreAt != "" {
			h.raw(`<p class="pager"><a`)
			h.attr("href", d.MoreAt)
			h.raw(">Older posts</a></p>")
		}
	})
}

// List renders one page of previews, optionally filtered by tag.
func List(d ListData) templ.Component {
	return layout(d.Site, d.Meta, "", func(h *htmlWriter) {
		if d.ActiveTag != "" {
			h.raw(`<h1 class="list-title">Tagged `)
			h.text(d.ActiveTag)
			h.raw("</h1>")
		}
		writeTagCounts(h, d.Tags, d.ActiveTag)
		for _, p := range d.Posts {
			writePreview(h, p)
		}
		h.raw(`<nav class="pager">`)
		if d.Page > 1 {
			h.raw(`<a rel="prev"`)
			h.attr("href", ListURL(d.Page-1, d.ActiveTag))
			h.raw(">Newer</a> ")
		}
		if d.PageCount > 0 {
			h.raw("<span>Page " + strconv.Itoa(d.Page) + " of " + strconv.Itoa(d.PageCount) + "</span>")
		}
		if d.Page < d.PageCount {
			h.raw(` <a rel="next"`)
			h.attr("href", ListURL(d.Page+1, d.ActiveTag))
			h.raw(">Older</a>")
		}
		h.raw("</nav>")
	})
}

// Post renders a full post.
func Post(d PostData) templ.Component {
	return layout(d.Site, d.Meta, d.JSONLD, func(h *htmlWriter) {
		p := d.Post
		h.raw(`<article class="post"><h1>`)
		h.text(p.Title)
		h.raw(`</h1><p class="byline"><time`)
		h.attr("datetime", p.Header.DateString())
		h.raw(">")
		h.text(p.Header.DateString())
		h.raw("</time>")
		if p.Header.Author != "" {
			h.raw(" by ")
			h.text(p.Header.Author)
		}
		h.raw("</p>")
		h.component(markdown.HTML(p.Rendered))
		writeTags(h, p.Header.Tags, "")
		h.raw("</article>")
		if len(d.Related) > 0 {
			h.raw(`<aside class="related"><h2>Related</h2><ul>`)
			for _, r := range d.Related {
				h.raw("<li><a")
				h.attr("href", "/view/"+PathEscape(r.Link))
				h.raw(">")
				h.text(r.Title)
				h.raw("</a></li>")
			}
			h.raw("</ul></aside>")
		}
	})
}

// Page renders a standalone page without post chrome.
func Page(d PostData) templ.Component {
	return layout(d.Site, d.Meta, "", func(h *htmlWriter) {
		h.raw(`<article class="page"><h1>`)
		h.text(d.Post.Title)
		h.raw("</h1>")
		h.component(markdown.HTML(d.Post.Rendered))
		h.raw("</article>")
	})
}

// NotFound renders the 404 page.
func NotFound(site Site) templ.Component {
	return layout(site, PageMeta{Title: "Not found"}, "", func(h *htmlWriter) {
		h.raw(`<h1>Not found</h1><p>The page you asked for does not exist. <a href="/">Back home</a></p>`)
	})
}

// ServerError renders the 500 page.
func ServerError(site Site) templ.Component {
	return layout(site, PageMeta{Title: "Error"}, "", func(h *htmlWriter) {
		h.raw(`<h1>Something went wrong</h1><p>Please try again later.</p>`)
	})
}
