package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/eringen/texted/scaffold"
)

// scaffoldData holds the template variables passed to every scaffold template.
type scaffoldData struct {
	SiteName      string
	Year          int
	Date          string
	WelcomeID     string
	SessionSecret string
}

func runInit(dir, name string, force bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if name == "" {
		name = toTitle(filepath.Base(abs))
	}
	now := time.Now().UTC()
	data := scaffoldData{
		SiteName:      name,
		Year:          now.Year(),
		Date:          now.Format("2006-01-02 15:04:05.000"),
		WelcomeID:     uuid.NewString(),
		SessionSecret: strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", ""),
	}
	created, err := writeScaffold(dir, data, force)
	if err != nil {
		return err
	}
	for _, p := range created {
		fmt.Printf("  created %s\n", p)
	}
	fmt.Println()
	fmt.Println("Done! Next steps:")
	fmt.Printf("  cd %s\n", dir)
	fmt.Println("  cp .env.example .env   # set TEXTED_ADMIN_PASSWORD to enable /admin/")
	fmt.Println("  texted serve")
	return nil
}

// writeScaffold renders the embedded templates into dir and returns the
// files it wrote.
func writeScaffold(dir string, data scaffoldData, force bool) ([]string, error) {
	const root = "templates"
	var created []string
	err := fs.WalkDir(scaffold.Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		outPath := strings.TrimSuffix(filepath.Join(dir, relPath), ".tmpl")
		if filepath.Base(outPath) == "dotenv" {
			outPath = filepath.Join(filepath.Dir(outPath), ".env.example")
		}
		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}
		if _, err := os.Stat(outPath); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
		}

		raw, err := scaffold.Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Parse(string(raw))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()
		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}
		created = append(created, outPath)
		return nil
	})
	return created, err
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-blog" -> "My Blog", "myblog" -> "Myblog"
func toTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
