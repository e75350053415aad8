// Package markdown converts post bodies from GitHub Flavored Markdown to HTML
// and wraps rendered HTML as templ components.
package markdown

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// DefaultStyle is the chroma style used for fenced code blocks.
const DefaultStyle = "github"

// Option configures a Converter.
type Option func(*options)

type options struct {
	unsafe    bool
	highlight bool
	style     string
	hardWraps bool
}

// WithUnsafe lets raw HTML in the Markdown through to the output.
func WithUnsafe(unsafe bool) Option {
	return func(o *options) { o.unsafe = unsafe }
}

// WithHighlighting toggles chroma highlighting of fenced code blocks.
func WithHighlighting(enabled bool) Option {
	return func(o *options) { o.highlight = enabled }
}

// WithStyle selects the chroma style. Unknown names fall back to DefaultStyle.
func WithStyle(style string) Option {
	return func(o *options) {
		if style != "" {
			o.style = style
		}
	}
}

// WithHardWraps renders single newlines inside paragraphs as <br>.
func WithHardWraps(enabled bool) Option {
	return func(o *options) { o.hardWraps = enabled }
}

// Converter renders GFM to HTML. It is safe for concurrent use; goldmark
// keeps per-call state in the parse context.
type Converter struct {
	md goldmark.Markdown
}

// New builds a Converter with GFM enabled and code highlighting on.
func New(opts ...Option) *Converter {
	o := options{highlight: true, style: DefaultStyle}
	for _, opt := range opts {
		opt(&o)
	}

	var rendererOpts []renderer.Option
	if o.unsafe {
		rendererOpts = append(rendererOpts, goldmarkhtml.WithUnsafe())
	}
	if o.hardWraps {
		rendererOpts = append(rendererOpts, goldmarkhtml.WithHardWraps())
	}
	if o.highlight {
		rendererOpts = append(rendererOpts, renderer.WithNodeRenderers(
			util.Prioritized(newCodeBlockRenderer(o.style), 200),
		))
	}

	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(rendererOpts...),
		),
	}
}

// Convert renders src to HTML.
func (c *Converter) Convert(src string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("markdown: convert: %w", err)
	}
	return buf.String(), nil
}

// HTML returns a templ.Component that writes already rendered HTML as is.
func HTML(rendered string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, rendered)
		return err
	})
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
