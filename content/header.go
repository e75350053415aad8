package content

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	commentOpen  = "<!--"
	commentClose = "-->"
)

var (
	reHeaderLine = regexp.MustCompile(`\[(\w+)\]: # \((.+)\)`)
	reDate       = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[ _](\d{2}:\d{2}:\d{2})(\.\d+)?$`)
)

// ParseHeader reads the metadata header from cur and returns it together with
// a cursor positioned at the first line after the header.
//
// Leading blank lines are skipped and the header may be wrapped in an HTML
// comment. Key lines look like "[KEY]: # (value)"; ID, DATE, AUTHOR and TAGS
// are recognized and other keys are ignored. The first line that is neither
// blank nor a key line ends the header and is left unconsumed.
func ParseHeader(path string, cur Cursor) (Header, Cursor, error) {
	var id, date, author, tags string

	startedWithComment := false
	for {
		line, ok := cur.Peek()
		if !ok {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			cur.Next()
			continue
		}
		if trimmed == commentOpen {
			cur.Next()
			startedWithComment = true
		}
		break
	}

	for {
		line, ok := cur.Peek()
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			cur.Next()
			continue
		}
		key, val, ok := splitHeaderLine(line)
		if !ok {
			break
		}
		switch key {
		case "ID":
			id = val
		case "DATE":
			date = val
		case "AUTHOR":
			author = val
		case "TAGS":
			tags = val
		}
		cur.Next()
	}

	if startedWithComment {
		for {
			line, ok := cur.Next()
			if !ok {
				return Header{}, cur, &FileError{Path: path, Err: ErrMissingCommentTerminator}
			}
			if strings.TrimSpace(line) == commentClose {
				break
			}
		}
	}

	if id == "" && date == "" && author == "" && tags == "" {
		return Header{}, cur, &FileError{Path: path, Err: ErrInvalidHeader}
	}

	parsed, err := ParseDate(date)
	if err != nil {
		return Header{}, cur, &FileError{Path: path, Err: err}
	}

	return Header{
		Path:   path,
		ID:     PostID(id),
		Date:   parsed,
		Author: author,
		Tags:   SplitTags(tags),
	}, cur, nil
}

func splitHeaderLine(line string) (key, val string, ok bool) {
	m := reHeaderLine.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ParseDate parses "YYYY-MM-DD HH:MM:SS[.fff]" as UTC. An underscore may
// replace the space between date and time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	m := reDate.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05", m[1]+" "+m[2]+m[3], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, s, err)
	}
	return t, nil
}

// SplitTags splits a space separated tag list. Empty tokens are dropped and
// duplicates are kept, since tag frequency matters to listings.
func SplitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, " ") {
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// FallbackHeader builds the header used when a file has none: the ID is the
// link (or the file stem), the date is the file modification time in UTC
// truncated to the second, and author and tags are empty.
func FallbackHeader(f *File) Header {
	id := f.Link
	if id == "" {
		base := filepath.Base(f.Path)
		id = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return Header{
		Path: f.Path,
		ID:   PostID(id),
		Date: f.ModTime.UTC().Truncate(time.Second),
	}
}

// headerOrFallback parses the header of f. When parsing fails for any reason
// it returns the fallback header and a cursor at the start of the file.
// Errors other than a missing header are logged, since they usually mean a
// typo in the header.
func headerOrFallback(f *File) (Header, Cursor) {
	start := NewCursor(f.Raw)
	header, cur, err := ParseHeader(f.Path, start)
	if err == nil {
		return header, cur
	}
	if !errors.Is(err, ErrInvalidHeader) {
		slog.Warn("unreadable header, using file defaults", "path", f.Path, "error", err)
	}
	return FallbackHeader(f), start
}
