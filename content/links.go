package content

import (
	"regexp"
	"strings"
)

var (
	reMarkdownImage = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]*)\)`)
	reImgSrc        = regexp.MustCompile(`<img[^>]*?\ssrc="([^"]*)"[^>]*>`)
)

// PrefixLink joins prefix and a relative url with a single "/".
// URLs containing "://" are absolute and returned unchanged.
func PrefixLink(prefix, url string) string {
	if prefix == "" || url == "" || strings.Contains(url, "://") {
		return url
	}
	if strings.HasSuffix(prefix, "/") {
		return prefix + url
	}
	return prefix + "/" + url
}

// RewriteMarkdownImages prefixes the url of every ![label](url) in src.
func RewriteMarkdownImages(prefix, src string) string {
	if prefix == "" {
		return src
	}
	return reMarkdownImage.ReplaceAllStringFunc(src, func(m string) string {
		sub := reMarkdownImage.FindStringSubmatch(m)
		return "![" + sub[1] + "](" + PrefixLink(prefix, sub[2]) + ")"
	})
}

// RewriteHTMLImages prefixes the src attribute of every <img> tag in src.
// Only the attribute value is touched; the rest of the tag is kept as is.
func RewriteHTMLImages(prefix, src string) string {
	if prefix == "" {
		return src
	}
	matches := reImgSrc.FindAllStringSubmatchIndex(src, -1)
	if matches == nil {
		return src
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(src[last:m[2]])
		b.WriteString(PrefixLink(prefix, src[m[2]:m[3]]))
		last = m[3]
	}
	b.WriteString(src[last:])
	return b.String()
}
