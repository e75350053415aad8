package content

import "strings"

// Cursor walks the lines of a string without splitting it up front.
// A Cursor is a small value: copying it saves a position to restart from.
type Cursor struct {
	src string
	pos int
}

// NewCursor returns a Cursor at the first line of src.
func NewCursor(src string) Cursor {
	return Cursor{src: src}
}

// Done reports whether every line has been consumed.
func (c Cursor) Done() bool {
	return c.pos >= len(c.src)
}

// Peek returns the current line without consuming it. Trailing "\r" is dropped.
func (c Cursor) Peek() (string, bool) {
	if c.Done() {
		return "", false
	}
	line := c.src[c.pos:]
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSuffix(line, "\r"), true
}

// Next consumes and returns the current line.
func (c *Cursor) Next() (string, bool) {
	line, ok := c.Peek()
	if !ok {
		return "", false
	}
	if i := strings.IndexByte(c.src[c.pos:], '\n'); i >= 0 {
		c.pos += i + 1
	} else {
		c.pos = len(c.src)
	}
	return line, true
}

// Rest returns the unconsumed input.
func (c Cursor) Rest() string {
	if c.Done() {
		return ""
	}
	return c.src[c.pos:]
}
