package content_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/texted/content"
	"github.com/eringen/texted/markdown"
)

const textedPost = `<!--
[ID]: # (a63bd715-a3fe-4788-b0e1-2a3153778544)
[DATE]: # (2022-04-02 12:05:00.000)
[AUTHOR]: # (thiago)
[TAGS]: # (go blog)
-->

# What I learned

First paragraph with ![pic](pic.png).
<!-- a private note -->
Second line.

<!-- more -->

Hidden from previews.
`

type failingConverter struct{}

func (failingConverter) Convert(string) (string, error) { return "", errors.New("boom") }

func mustFile(t *testing.T, link, path, raw string) *content.File {
	t.Helper()
	f, err := content.NewFile(link, path, raw, time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	return f
}

func TestRenderTextedFull(t *testing.T) {
	f := mustFile(t, "learned", "posts/learned/index.md", textedPost)
	c, err := content.Render(f, content.FullContent(), markdown.New())
	require.NoError(t, err)

	assert.Equal(t, "What I learned", c.Title)
	assert.Equal(t, "learned", c.Link)
	assert.Equal(t, content.PostID("a63bd715-a3fe-4788-b0e1-2a3153778544"), c.Header.ID)
	assert.Equal(t, []string{"go", "blog"}, c.Header.Tags)
	assert.Contains(t, c.Rendered, `<img src="pic.png" alt="pic">`)
	assert.Contains(t, c.Rendered, "Hidden from previews.")
	assert.NotContains(t, c.Rendered, "private note")
}

func TestRenderTextedPreview(t *testing.T) {
	f := mustFile(t, "learned", "posts/learned/index.md", textedPost)
	opts := content.PreviewOnly(content.PreviewOptions{ImagePrefix: "/view/learned"})
	c, err := content.Render(f, opts, markdown.New())
	require.NoError(t, err)

	assert.Contains(t, c.Rendered, `<img src="/view/learned/pic.png" alt="pic">`)
	assert.Contains(t, c.Rendered, "Second line.")
	assert.NotContains(t, c.Rendered, "Hidden from previews.")
}

func TestRenderFullContentIsIdempotent(t *testing.T) {
	f := mustFile(t, "learned", "posts/learned/index.md", textedPost)
	conv := markdown.New()
	first, err := content.Render(f, content.FullContent(), conv)
	require.NoError(t, err)
	second, err := content.Render(f, content.FullContent(), conv)
	require.NoError(t, err)
	assert.Equal(t, first.Rendered, second.Rendered)
	assert.Equal(t, first.Title, second.Title)
}

func TestRenderHTML(t *testing.T) {
	raw := "[DATE]: # (2022-04-02 12:05:00)\n<h1>Hi</h1>\n<p><img class=\"w\" src=\"a.jpg\"></p>\n<!-- more -->\n<p>rest</p>\n"
	f := mustFile(t, "hi", "posts/hi.html", raw)

	full, err := content.Render(f, content.FullContent(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Hi", full.Title)
	assert.Equal(t, "<p><img class=\"w\" src=\"a.jpg\"></p>\n<!-- more -->\n<p>rest</p>\n", full.Rendered)

	preview, err := content.Render(f, content.PreviewOnly(content.PreviewOptions{ImagePrefix: "/view/hi"}), nil)
	require.NoError(t, err)
	assert.Equal(t, "<p><img class=\"w\" src=\"/view/hi/a.jpg\"></p>\n", preview.Rendered)
}

func TestRenderFallbackHeader(t *testing.T) {
	f := mustFile(t, "plain", "pages/plain.md", "# About\nJust text.\n")
	c, err := content.Render(f, content.FullContent(), markdown.New())
	require.NoError(t, err)
	assert.Equal(t, content.PostID("plain"), c.Header.ID)
	assert.Equal(t, time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC), c.Header.Date)
	assert.Equal(t, "About", c.Title)
	assert.Equal(t, "<p>Just text.</p>\n", c.Rendered)
}

func TestRenderBrokenHeaderFallsBack(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bad date", "[ID]: # (x)\n[DATE]: # (yesterday)\n\n# Title\nbody\n"},
		{"unclosed comment", "<!--\n[ID]: # (x)\n\n# Title\nbody\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustFile(t, "broken", "posts/broken.md", tt.raw)
			c, err := content.Render(f, content.FullContent(), markdown.New())
			require.NoError(t, err)
			assert.Equal(t, content.PostID("broken"), c.Header.ID)
			assert.Equal(t, time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC), c.Header.Date)
			assert.Equal(t, "Title", c.Title)
			assert.Equal(t, "<p>body</p>\n", c.Rendered)
		})
	}
}

func TestRenderTitleAfterIntro(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		raw      string
		title    string
		rendered string
	}{
		{"texted with header", "posts/a.md", "[ID]: # (x)\n[DATE]: # (2024-02-12 22:54:00)\n\nintro line\n# Title\nbody\n", "Title", "<p>body</p>\n"},
		{"texted without header", "posts/a.md", "Some intro\n\n# Title\nbody\n", "Title", "<p>body</p>\n"},
		{"html without header", "posts/a.html", "<p>lead</p>\n<h1>Later</h1>\n<p>x</p>\n", "Later", "<p>x</p>\n"},
		{"html with header", "posts/a.html", "[DATE]: # (2024-02-12 22:54:00)\n<p>lead</p>\n<h2>Sub</h2>\n<p>x</p>\n", "Sub", "<p>x</p>\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustFile(t, "a", tt.path, tt.raw)
			c, err := content.Render(f, content.FullContent(), markdown.New())
			require.NoError(t, err)
			assert.Equal(t, tt.title, c.Title)
			assert.Equal(t, tt.rendered, c.Rendered)
		})
	}
}

func TestRenderErrors(t *testing.T) {
	f := mustFile(t, "x", "posts/x.md", "[DATE]: # (2022-04-02 12:05:00)\n# T\nopen <!-- comment\n")
	_, err := content.Render(f, content.FullContent(), markdown.New())
	assert.ErrorIs(t, err, content.ErrUnterminatedComment)

	f = mustFile(t, "x", "posts/x.md", "[DATE]: # (2022-04-02 12:05:00)\n# T\nbody\n")
	_, err = content.Render(f, content.FullContent(), failingConverter{})
	assert.ErrorIs(t, err, content.ErrRender)
	var fe *content.FileError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "posts/x.md", fe.Path)
}

func TestRendererRejectsOtherFormat(t *testing.T) {
	f := mustFile(t, "x", "posts/x.html", "<h1>T</h1>\n")
	_, err := (&content.TextedRenderer{Converter: markdown.New()}).Render(f, content.FullContent())
	assert.ErrorIs(t, err, content.ErrUnsupportedFormat)

	f = mustFile(t, "x", "posts/x.md", "# T\n")
	_, err = (&content.HTMLRenderer{}).Render(f, content.FullContent())
	assert.ErrorIs(t, err, content.ErrUnsupportedFormat)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want content.Format
	}{
		{"a.md", content.FormatTexted},
		{"a.MD", content.FormatTexted},
		{"a/index.html", content.FormatHTML},
		{"a.htm", content.FormatHTML},
	}
	for _, tt := range tests {
		got, err := content.FormatFromPath(tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := content.FormatFromPath("a.txt")
	assert.ErrorIs(t, err, content.ErrUnsupportedFormat)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "post.md")
	require.NoError(t, os.WriteFile(path, []byte("# T\n"), 0o644))

	f, err := content.LoadFile("post", path)
	require.NoError(t, err)
	assert.Equal(t, content.FormatTexted, f.Format)
	assert.Equal(t, "# T\n", f.Raw)
	assert.False(t, f.ModTime.IsZero())

	_, err = content.LoadFile("missing", filepath.Join(dir, "missing.md"))
	assert.ErrorIs(t, err, content.ErrNotFound)
}
