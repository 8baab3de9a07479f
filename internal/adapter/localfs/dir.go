// Package localfs serves source spreadsheets from a local directory, used in
// development in place of S3.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/crossroads-etl-service/internal/domain"
)

// ErrInvalidName is returned for names that would escape the directory.
var ErrInvalidName = errors.New("invalid file name")

// DirSource reads and writes files inside one directory.
type DirSource struct {
	dir string
}

// NewDirSource creates a DirSource rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (d *DirSource) path(name string) (string, error) {
	if name == "" || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(d.dir, name), nil
}

// Fetch reads a file by name. A missing file returns domain.ErrObjectNotFound.
func (d *DirSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := d.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrObjectNotFound, p)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

// Upload writes body under name. The original name and upload time are not
// persisted locally. It returns name as the key.
func (d *DirSource) Upload(ctx context.Context, name string, body []byte, _ string, _ string, _ time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := d.path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", d.dir, err)
	}
	if err := os.WriteFile(p, body, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	return name, nil
}

// PublicURL returns a file:// URL for a key.
func (d *DirSource) PublicURL(key string) string {
	abs, err := filepath.Abs(filepath.Join(d.dir, key))
	if err != nil {
		return key
	}
	return "file://" + filepath.ToSlash(abs)
}
