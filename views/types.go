package views

import (
	"time"

	"github.com/eringen/texted/cache"
	"github.com/eringen/texted/content"
	"github.com/eringen/texted/metrics"
)

// Site holds the site-wide settings every page needs.
type Site struct {
	Name        string
	URL         string
	Description string
	Author      string
	// StartYear is the first year in the footer copyright range.
	StartYear int
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

// TagCount is a tag and how many posts carry it.
type TagCount struct {
	Name  string
	Count int
}

// IndexData feeds the index page.
type IndexData struct {
	Site   Site
	Meta   PageMeta
	Posts  []*content.Content
	Tags   []TagCount
	MoreAt string
}

// ListData feeds one page of the post listing.
type ListData struct {
	Site      Site
	Meta      PageMeta
	Posts     []*content.Content
	Tags      []TagCount
	ActiveTag string
	Page      int
	PageCount int
}

// PostData feeds a full post or a page.
type PostData struct {
	Site    Site
	Meta    PageMeta
	Post    *content.Content
	Related []*content.Content
	JSONLD  string
}

// DashboardData feeds the admin cache dashboard.
type DashboardData struct {
	Site      Site
	CSRF      string
	Message   string
	StartedAt time.Time
	Caches    []CacheStats
	Top       []metrics.NameStat
	Views7d   int
	Unique7d  int
}

// CacheStats describes one cache on the dashboard.
type CacheStats struct {
	Name    string
	Enabled bool
	Stats   cache.Stats
	Entries []cache.EntryInfo
}
