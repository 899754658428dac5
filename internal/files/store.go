// Package files stores uploaded files in the downloads directory.
package files

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store writes uploads into one directory. Existing files are never
// overwritten: a colliding name gets a _HHMMSS suffix before its extension.
type Store struct {
	dir string
	now func() time.Time
}

// Saved describes a stored upload.
type Saved struct {
	Name string
	Path string
	Size int64
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// DefaultDir returns ~/Downloads/hostwarden.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "hostwarden")
	}
	return filepath.Join(home, "Downloads", "hostwarden")
}

// Dir returns the downloads directory.
func (s *Store) Dir() string { return s.dir }

// Save copies r into the store under name.
func (s *Store) Save(ctx context.Context, name string, r io.Reader) (*Saved, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create downloads dir: %w", err)
	}

	base := CleanName(name)
	f, path, err := s.create(base)
	if err != nil {
		return nil, err
	}

	n, err := io.Copy(f, readerWithContext(ctx, r))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return &Saved{Name: filepath.Base(path), Path: path, Size: n}, nil
}

// create opens a new file for base, suffixing on collision.
func (s *Store) create(base string) (*os.File, string, error) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	ts := s.now().Format("150405")

	candidates := []string{
		base,
		stem + "_" + ts + ext,
	}
	for i := 2; i <= 100; i++ {
		candidates = append(candidates, fmt.Sprintf("%s_%s_%d%s", stem, ts, i, ext))
	}

	for _, name := range candidates {
		path := filepath.Join(s.dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !os.IsExist(err) {
			return nil, "", fmt.Errorf("create %s: %w", name, err)
		}
	}
	return nil, "", fmt.Errorf("no free name for %s", base)
}

// CleanName reduces a sender-supplied name to the bare filename the store
// writes. Both separators count, and trailing separators are dropped, so
// `a\b.exe\` becomes "b.exe". Classification must see this name.
func CleanName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == "/" || name == ".." || name == "" {
		return "file"
	}
	return name
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
