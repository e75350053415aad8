package texted

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/texted/content"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	Author      string   `xml:"author,omitempty"`
	Categories  []string `xml:"category"`
	PubDate     string   `xml:"pubDate"`
	GUID        rssGUID  `xml:"guid"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// buildRSS turns the newest previews into a feed. Item descriptions carry the
// rendered preview HTML.
func buildRSS(cfg RSSSection, posts []*content.Content) rssXML {
	if len(posts) > cfg.PageSize {
		posts = posts[:cfg.PageSize]
	}
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		postURL := BuildURL(cfg.SiteURL, "view", p.Link)
		guid := rssGUID{Value: postURL, IsPermaLink: true}
		if p.Header.ID != "" && string(p.Header.ID) != p.Link {
			guid = rssGUID{Value: string(p.Header.ID)}
		}
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: p.Rendered,
			Author:      p.Header.Author,
			Categories:  p.Header.Tags,
			PubDate:     p.Header.Date.Format(time.RFC1123Z),
			GUID:        guid,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       cfg.Title,
			Link:        BuildURL(cfg.SiteURL),
			Description: cfg.Description,
			Items:       items,
		},
	}
	if len(posts) > 0 {
		feed.Channel.LastBuildDate = posts[0].Header.Date.Format(time.RFC1123Z)
	}
	return feed
}

func (a *App) renderRSS(c echo.Context, posts []*content.Content) error {
	body, err := xml.Marshal(buildRSS(a.Config.RSS, posts))
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	_, err = c.Response().Write(body)
	return err
}
