package texted

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type testSite struct {
	root  string
	posts string
	pages string
}

func (s testSite) write(t *testing.T, rel, body string) string {
	t.Helper()
	path := filepath.Join(s.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// newTestSite lays out three posts (loose Markdown, directory post with an
// image, loose HTML) and one header-less page.
func newTestSite(t *testing.T) testSite {
	t.Helper()
	root := t.TempDir()
	s := testSite{root: root, posts: filepath.Join(root, "posts"), pages: filepath.Join(root, "pages")}

	s.write(t, "posts/hello.md", strings.Join([]string{
		"<!--",
		"[ID]: # (a63bd715-a3fe-4788-b0e1-2a3153778544)",
		"[DATE]: # (2024-01-02 12:00:00.000)",
		"[AUTHOR]: # (thiago)",
		"[TAGS]: # (go blog)",
		"-->",
		"",
		"# Hello",
		"",
		"first paragraph",
		"",
		"<!-- more -->",
		"",
		"the rest",
		"",
	}, "\n"))
	s.write(t, "posts/20240105_pics/index.md", strings.Join([]string{
		"[DATE]: # (2024-01-05 08:30:00)",
		"[TAGS]: # (go)",
		"# Pics",
		"",
		"![a picture](pic.png)",
		"",
	}, "\n"))
	writePNG(t, filepath.Join(s.posts, "20240105_pics", "pic.png"), 40, 20)
	s.write(t, "posts/old.html", strings.Join([]string{
		"[DATE]: # (2023-05-01 09:00:00)",
		"[TAGS]: # (web)",
		"<h1>Old</h1>",
		"<p>old body</p>",
		"",
	}, "\n"))
	s.write(t, "pages/about.md", "# About\n\nabout me\n")
	return s
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 12), B: 200, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func testConfig(s testSite) SiteConfig {
	cfg := SiteConfig{
		Site:  SiteSection{Name: "Test Blog", URL: "https://example.com", Author: "thiago"},
		Paths: PathsSection{Posts: s.posts, Pages: s.pages, Public: filepath.Join(s.root, "public"), Data: filepath.Join(s.root, "data")},
		Admin: AdminSection{Password: "secret", SessionSecret: strings.Repeat("s", 32)},
	}
	cfg.setDefaults()
	return cfg
}
