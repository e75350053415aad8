// Package content turns post and page files into rendered HTML.
//
// A content file starts with an optional metadata header, followed by a title
// line and the body:
//
//	<!--
//	[ID]: # (a63bd715-a3fe-4788-b0e1-2a3153778544)
//	[DATE]: # (2022-04-02 12:05:00.000)
//	[AUTHOR]: # (thiago)
//	[TAGS]: # (go blog)
//	-->
//
//	# What I learned after 20+ years of software development
//	Body text...
//
// Two formats are supported: Texted (Markdown, ".md") and HTML (".html", ".htm").
// Each has its own Renderer; the format is chosen once, from the file extension.
package content

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Format identifies how a content file is written.
type Format int

const (
	// FormatTexted is Markdown with the texted header.
	FormatTexted Format = iota + 1
	// FormatHTML is raw HTML with the texted header.
	FormatHTML
)

func (f Format) String() string {
	switch f {
	case FormatTexted:
		return "texted"
	case FormatHTML:
		return "html"
	default:
		return "unknown"
	}
}

// Extensions lists the file extensions that map to a Format, in lookup order.
var Extensions = []string{".md", ".html", ".htm"}

// FormatFromPath derives the Format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		return FormatTexted, nil
	case ".html", ".htm":
		return FormatHTML, nil
	default:
		return 0, &FileError{Path: path, Err: ErrUnsupportedFormat}
	}
}

// PostID is an opaque identifier for a post, independent of its link.
type PostID string

// File is the raw content of one post or page, loaded once per render.
type File struct {
	Link    string
	Path    string
	Format  Format
	Raw     string
	ModTime time.Time
}

// LoadFile reads the file at path. The format is checked before any I/O.
func LoadFile(link, path string) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &FileError{Path: path, Err: ErrNotFound}
		}
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &File{
		Link:    link,
		Path:    path,
		Format:  format,
		Raw:     string(raw),
		ModTime: info.ModTime(),
	}, nil
}

// NewFile builds a File from in-memory data. The format comes from path.
func NewFile(link, path, raw string, modTime time.Time) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return &File{Link: link, Path: path, Format: format, Raw: raw, ModTime: modTime}, nil
}

// Header is the metadata block at the top of a content file.
type Header struct {
	Path   string
	ID     PostID
	Date   time.Time
	Author string
	Tags   []string
}

// DateString returns the date part of the header date, e.g. "2024-02-12".
func (h Header) DateString() string {
	return h.Date.Format("2006-01-02")
}

// TimeString returns the time part of the header date, e.g. "22:54:00".
func (h Header) TimeString() string {
	return h.Date.Format("15:04:05")
}

// HasTag reports whether tag is one of the header tags.
func (h Header) HasTag(tag string) bool {
	for _, t := range h.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Content is the rendered form of a post or page. It is never modified after
// a Renderer returns it, so a single value can be shared between readers.
type Content struct {
	Header   Header
	Link     string
	Title    string
	Rendered string
}

// DefaultBreakTag marks where a preview ends.
const DefaultBreakTag = "<!-- more -->"

// PreviewOptions controls truncation and image rewriting for previews.
type PreviewOptions struct {
	// MaxLines stops the preview after that many body lines. Zero disables it.
	MaxLines int
	// BreakTag stops the preview before the first line containing it.
	BreakTag string
	// ImagePrefix is prepended to relative image links.
	ImagePrefix string
}

func (p PreviewOptions) breakTag() string {
	if p.BreakTag == "" {
		return DefaultBreakTag
	}
	return p.BreakTag
}

// RenderOptions selects full content or a preview. The zero value is full content.
type RenderOptions struct {
	preview *PreviewOptions
}

// FullContent renders the whole body.
func FullContent() RenderOptions {
	return RenderOptions{}
}

// PreviewOnly renders the body up to the limits in p.
func PreviewOnly(p PreviewOptions) RenderOptions {
	return RenderOptions{preview: &p}
}

// Preview returns the preview options, if this is a preview.
func (o RenderOptions) Preview() (PreviewOptions, bool) {
	if o.preview == nil {
		return PreviewOptions{}, false
	}
	return *o.preview, true
}

// IsPreview reports whether o renders a preview.
func (o RenderOptions) IsPreview() bool {
	return o.preview != nil
}
