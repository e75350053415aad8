package content

import "strings"

// ExtractBody returns the remaining lines, each terminated by "\n".
// A preview stops before the first line containing the break tag, or after
// MaxLines lines when MaxLines is set, whichever happens first.
func ExtractBody(cur Cursor, opts RenderOptions) string {
	preview, isPreview := opts.Preview()
	breakTag := preview.breakTag()

	var b strings.Builder
	emitted := 0
	for {
		if isPreview && preview.MaxLines > 0 && emitted >= preview.MaxLines {
			break
		}
		line, ok := cur.Next()
		if !ok {
			break
		}
		if isPreview && strings.Contains(line, breakTag) {
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
		emitted++
	}
	return b.String()
}
