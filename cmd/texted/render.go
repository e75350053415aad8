package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/eringen/texted/content"
	"github.com/eringen/texted/markdown"
)

type renderOptions struct {
	Path     string
	Preview  bool
	MaxLines int
	BreakTag string
	Prefix   string
	Unsafe   bool
}

// runRender writes the rendered HTML to out and the parsed header to info.
func runRender(out, info io.Writer, o renderOptions) error {
	link := linkForPath(o.Path)
	f, err := content.LoadFile(link, o.Path)
	if err != nil {
		return err
	}
	opts := content.FullContent()
	if o.Preview {
		opts = content.PreviewOnly(content.PreviewOptions{
			MaxLines:    o.MaxLines,
			BreakTag:    o.BreakTag,
			ImagePrefix: o.Prefix,
		})
	}
	c, err := content.Render(f, opts, markdown.New(markdown.WithUnsafe(o.Unsafe)))
	if err != nil {
		return err
	}
	fmt.Fprintf(info, "link:   %s\ntitle:  %s\nid:     %s\ndate:   %s %s\nauthor: %s\ntags:   %s\n",
		c.Link, c.Title, c.Header.ID, c.Header.DateString(), c.Header.TimeString(),
		c.Header.Author, strings.Join(c.Header.Tags, " "))
	_, err = io.WriteString(out, c.Rendered)
	return err
}

// linkForPath names a file the way the store would: index files take the
// name of their directory.
func linkForPath(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "index" {
		return filepath.Base(filepath.Dir(path))
	}
	return stem
}
