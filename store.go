package texted

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/eringen/texted/content"
)

// Store maps links to content files on disk. A link is the file stem of a
// loose file ("hello.md" -> "hello") or the name of a directory holding an
// index file ("hello/index.md" -> "hello").
type Store struct {
	mu        sync.RWMutex
	dirs      map[Kind]string
	indexBase string
	links     map[Kind]map[string]string
	scanned   time.Time
}

// NewStore scans postsDir and pagesDir. A missing directory is treated as empty.
func NewStore(postsDir, pagesDir, indexBase string) (*Store, error) {
	if indexBase == "" {
		indexBase = "index"
	}
	s := &Store{
		dirs:      map[Kind]string{KindPost: postsDir, KindPage: pagesDir},
		indexBase: indexBase,
	}
	if err := s.Rescan(); err != nil {
		return nil, err
	}
	return s, nil
}

// Rescan rebuilds the link tables from disk.
func (s *Store) Rescan() error {
	links := make(map[Kind]map[string]string, len(s.dirs))
	for kind, dir := range s.dirs {
		m, err := scanDir(dir, s.indexBase)
		if err != nil {
			return fmt.Errorf("texted: scan %s dir %s: %w", kind, dir, err)
		}
		links[kind] = m
	}
	s.mu.Lock()
	s.links = links
	s.scanned = time.Now()
	s.mu.Unlock()
	return nil
}

func scanDir(dir, indexBase string) (map[string]string, error) {
	links := make(map[string]string)
	if dir == "" {
		return links, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return links, nil
		}
		return nil, err
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		var link, path string
		if e.IsDir() {
			path = findIndex(filepath.Join(dir, name), indexBase)
			link = name
		} else if isContentFile(name) {
			path = filepath.Join(dir, name)
			link = strings.TrimSuffix(name, filepath.Ext(name))
		}
		if path == "" {
			continue
		}
		if prev, ok := links[link]; ok {
			slog.Warn("duplicate content link, keeping first", "link", link, "kept", prev, "ignored", path)
			continue
		}
		links[link] = path
	}
	return links, nil
}

func findIndex(dir, indexBase string) string {
	for _, ext := range content.Extensions {
		p := filepath.Join(dir, indexBase+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func isContentFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range content.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Dir returns the directory scanned for kind.
func (s *Store) Dir(kind Kind) string {
	return s.dirs[kind]
}

// ScannedAt returns the time of the last successful scan.
func (s *Store) ScannedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanned
}

// Resolve returns the file path behind link.
func (s *Store) Resolve(kind Kind, link string) (string, error) {
	s.mu.RLock()
	path, ok := s.links[kind][link]
	s.mu.RUnlock()
	if !ok {
		return "", &content.FileError{Path: link, Err: content.ErrNotFound}
	}
	return path, nil
}

// Links returns every link of kind, sorted.
func (s *Store) Links(kind Kind) []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.links[kind]))
	for link := range s.links[kind] {
		out = append(out, link)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Load reads the file behind link.
func (s *Store) Load(kind Kind, link string) (*content.File, error) {
	path, err := s.Resolve(kind, link)
	if err != nil {
		return nil, err
	}
	return content.LoadFile(link, path)
}

// AssetPath returns the path of a file stored next to the index file of a
// directory post. Loose posts have no assets, and names that leave the post
// directory are rejected.
func (s *Store) AssetPath(link, name string) (string, error) {
	path, err := s.Resolve(KindPost, link)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	if dir == filepath.Clean(s.dirs[KindPost]) || !filepath.IsLocal(name) {
		return "", &content.FileError{Path: name, Err: content.ErrNotFound}
	}
	asset := filepath.Join(dir, name)
	if asset == path {
		return "", &content.FileError{Path: name, Err: content.ErrNotFound}
	}
	info, err := os.Stat(asset)
	if err != nil || info.IsDir() {
		return "", &content.FileError{Path: asset, Err: content.ErrNotFound}
	}
	return asset, nil
}

// LinkFor maps a path inside a content directory to its kind and link. It is
// used to turn file system events into cache invalidations.
func (s *Store) LinkFor(path string) (Kind, string, bool) {
	for kind, dir := range s.dirs {
		if dir == "" {
			continue
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil || !filepath.IsLocal(rel) {
			continue
		}
		first, rest, nested := strings.Cut(filepath.ToSlash(rel), "/")
		if nested && rest != "" {
			return kind, first, true
		}
		if isContentFile(first) {
			return kind, strings.TrimSuffix(first, filepath.Ext(first)), true
		}
		return kind, first, true
	}
	return 0, "", false
}
