package content

import (
	"regexp"
	"strings"
)

var reHTMLTitle = regexp.MustCompile(`<h[12]>(.+)</h[12]>`)

// ExtractTitle consumes lines until it finds the title line: "# Title" for
// Texted, "<h1>Title</h1>" or "<h2>Title</h2>" for HTML. Lines before the
// title are dropped. If input ends first, the title is empty and the cursor
// is exhausted.
func ExtractTitle(format Format, cur Cursor) (string, Cursor) {
	for {
		line, ok := cur.Next()
		if !ok {
			return "", cur
		}
		if title, ok := matchTitle(format, line); ok {
			return title, cur
		}
	}
}

func matchTitle(format Format, line string) (string, bool) {
	switch format {
	case FormatTexted:
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:]), true
		}
	case FormatHTML:
		if m := reHTMLTitle.FindStringSubmatch(line); m != nil {
			return m[1], true
		}
	}
	return "", false
}
