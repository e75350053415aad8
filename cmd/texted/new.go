package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eringen/texted"
)

type newOptions struct {
	Title  string
	Dir    string
	Author string
	Tags   []string
	HTML   bool
	Now    time.Time
}

func runNew(configPath string, o newOptions) error {
	if o.Dir == "" {
		o.Dir = "posts"
		if cfg, err := texted.LoadConfig(configPath); err == nil {
			o.Dir = cfg.Paths.Posts
		}
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	path, err := createPost(o)
	if err != nil {
		return err
	}
	fmt.Printf("created %s\n", path)
	return nil
}

// createPost writes <dir>/<YYYYMMDD>_<slug>/index.{md,html} with a new header
// and returns its path.
func createPost(o newOptions) (string, error) {
	slug := texted.Slugify(o.Title)
	if slug == "" {
		return "", errors.New("title must contain at least one letter or digit")
	}
	postDir := filepath.Join(o.Dir, o.Now.Format("20060102")+"_"+slug)
	if _, err := os.Stat(postDir); err == nil {
		return "", fmt.Errorf("%s already exists", postDir)
	}
	if err := os.MkdirAll(postDir, 0o755); err != nil {
		return "", err
	}

	ext, body := ".md", "# "+o.Title+"\n\n"
	if o.HTML {
		ext, body = ".html", "<h1>"+o.Title+"</h1>\n\n"
	}
	path := filepath.Join(postDir, "index"+ext)
	if err := os.WriteFile(path, []byte(postHeader(o)+"\n"+body), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func postHeader(o newOptions) string {
	var b strings.Builder
	b.WriteString("<!--\n")
	fmt.Fprintf(&b, "[ID]: # (%s)\n", uuid.NewString())
	fmt.Fprintf(&b, "[DATE]: # (%s)\n", o.Now.UTC().Format("2006-01-02 15:04:05.000"))
	if o.Author != "" {
		fmt.Fprintf(&b, "[AUTHOR]: # (%s)\n", o.Author)
	}
	if len(o.Tags) > 0 {
		fmt.Fprintf(&b, "[TAGS]: # (%s)\n", strings.Join(o.Tags, " "))
	}
	b.WriteString("-->\n")
	return b.String()
}
