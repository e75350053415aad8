package markdown

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertInline(t *testing.T) {
	c := New()
	tests := []struct {
		input    string
		expected string
	}{
		{"**bold**", "<p><strong>bold</strong></p>\n"},
		{"*italic*", "<p><em>italic</em></p>\n"},
		{"~~gone~~", "<p><del>gone</del></p>\n"},
		{"`code`", "<p><code>code</code></p>\n"},
		{"[link](/view/x)", "<p><a href=\"/view/x\">link</a></p>\n"},
	}
	for _, tt := range tests {
		got, err := c.Convert(tt.input)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got, "Convert(%q)", tt.input)
	}
}

func TestConvertHeadingsHaveNoIDs(t *testing.T) {
	got, err := New().Convert("## Section\n")
	require.NoError(t, err)
	assert.Equal(t, "<h2>Section</h2>\n", got)
}

func TestConvertTable(t *testing.T) {
	got, err := New().Convert("| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.Contains(t, got, "<table>")
	assert.Contains(t, got, "<th>a</th>")
	assert.Contains(t, got, "<td>2</td>")
}

func TestConvertRawHTML(t *testing.T) {
	src := "<div class=\"x\">hi</div>\n"

	safe, err := New().Convert(src)
	require.NoError(t, err)
	assert.NotContains(t, safe, "<div")

	unsafe, err := New(WithUnsafe(true)).Convert(src)
	require.NoError(t, err)
	assert.Contains(t, unsafe, "<div class=\"x\">hi</div>")
}

func TestConvertHighlightsKnownLanguage(t *testing.T) {
	got, err := New().Convert("```go\nfunc main() {}\n```\n")
	require.NoError(t, err)
	assert.Contains(t, got, "<pre")
	assert.Contains(t, got, "style=")
	assert.Contains(t, got, "main")
}

func TestConvertUnknownLanguageIsEscaped(t *testing.T) {
	got, err := New().Convert("```nosuchlang\n<b>x</b>\n```\n")
	require.NoError(t, err)
	assert.Equal(t, "<pre><code class=\"language-nosuchlang\">&lt;b&gt;x&lt;/b&gt;\n</code></pre>\n", got)
}

func TestConvertWithoutHighlighting(t *testing.T) {
	got, err := New(WithHighlighting(false)).Convert("```go\nx := 1\n```\n")
	require.NoError(t, err)
	assert.Equal(t, "<pre><code class=\"language-go\">x := 1\n</code></pre>\n", got)
}

func TestHTMLComponent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML("<p>hi</p>").Render(context.Background(), &buf))
	assert.Equal(t, "<p>hi</p>", buf.String())
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://example.com", "https://example.com"},
		{"http://example.com", "http://example.com"},
		{"mailto:a@b.com", "mailto:a@b.com"},
		{"/relative/path", "/relative/path"},
		{"#anchor", "#anchor"},
		{"javascript:alert(1)", ""},
		{"data:text/html,hi", ""},
		{"", ""},
		{"  ", ""},
		{"no-scheme", ""},
	}
	for _, tt := range tests {
		got := SafeURL(tt.input)
		if got != tt.expected {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSafeURLEscapesQuotes(t *testing.T) {
	got := SafeURL(`/path?a="b"`)
	if strings.Contains(got, `"`) {
		t.Errorf("SafeURL did not escape quotes: %q", got)
	}
}
