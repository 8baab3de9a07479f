// Package geocache provides durable stores for the geocode cache: a JSON
// file, a Redis hash, and a DynamoDB table.
package geocache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/couchcryptid/crossroads-etl-service/internal/geocode"
)

// FileStore keeps the cache in a single JSON object file of the form
// {"<address>": {"lat": .., "lng": .., "timestamp": ..}}.
//
// Saves rewrite the file through a temporary file and a rename, so a crash
// mid-write leaves the previous version intact. A file that no longer decodes
// is moved aside to "<path>.corrupt" on the next save.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// ErrCorruptFile is returned by Load when the cache file is not valid JSON.
var ErrCorruptFile = errors.New("corrupt geocode cache file")

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the file. A missing file is an empty cache.
func (s *FileStore) Load(_ context.Context) (map[string]geocode.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// Save merges entries into the file.
func (s *FileStore) Save(_ context.Context, entries map[string]geocode.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.read()
	if errors.Is(err, ErrCorruptFile) {
		if err := os.Rename(s.path, s.path+".corrupt"); err != nil {
			return fmt.Errorf("move aside %s: %w", s.path, err)
		}
		current, err = make(map[string]geocode.Entry), nil
	}
	if err != nil {
		return err
	}
	for k, v := range entries {
		current[k] = v
	}
	data, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return fmt.Errorf("encode geocode cache: %w", err)
	}
	return s.writeAtomic(data)
}

func (s *FileStore) read() (map[string]geocode.Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]geocode.Entry), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	entries := make(map[string]geocode.Entry)
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptFile, s.path, err)
	}
	return entries, nil
}

func (s *FileStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
