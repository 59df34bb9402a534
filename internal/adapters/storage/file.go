// Package storage implements the key-value ports backing the durable
// collection snapshot and the session-scoped state.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jsamuelsen/quotevault/internal/domain"
)

// FileStore is a durable key-value store keeping one file per key under
// a data directory. Writes replace the whole value (last write wins),
// staged through a temp file and renamed so readers never observe a
// partial write.
type FileStore struct {
	dir string
}

// NewFileStore creates the data directory if needed and returns a store
// rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

// Get implements ports.KeyValue.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewNotFoundError("key", key)
		}

		return nil, fmt.Errorf("reading key %q: %w", key, err)
	}

	return data, nil
}

// Set implements ports.KeyValue.
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	target := s.path(key)

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("staging key %q: %w", key, err)
	}

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("writing key %q: %w", key, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("closing staged key %q: %w", key, err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("committing key %q: %w", key, err)
	}

	return nil
}

// path maps a well-known key to its file. Keys come from the
// application layer, never from user input.
func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Name implements ports.HealthChecker.
func (s *FileStore) Name() string {
	return "storage"
}

// Check implements ports.HealthChecker by probing that the data
// directory is still writable.
func (s *FileStore) Check(_ context.Context) error {
	probe, err := os.CreateTemp(s.dir, "health.*.tmp")
	if err != nil {
		return fmt.Errorf("data dir not writable: %w", err)
	}

	_ = probe.Close()

	return os.Remove(probe.Name())
}
