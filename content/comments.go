package content

import "strings"

// RemoveComments drops every "<!--" ... "-->" span. Markers are matched
// literally and comments do not nest.
func RemoveComments(src string) (string, error) {
	var b strings.Builder
	for {
		start := strings.Index(src, commentOpen)
		if start < 0 {
			b.WriteString(src)
			return b.String(), nil
		}
		b.WriteString(src[:start])
		rest := src[start+len(commentOpen):]
		end := strings.Index(rest, commentClose)
		if end < 0 {
			return "", ErrUnterminatedComment
		}
		src = rest[end+len(commentClose):]
	}
}
