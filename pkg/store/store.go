// Package store persists document snapshots between inspector runs.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/vango-dev/observe/pkg/observe"
)

// ErrNotFound is returned by Load when no snapshot exists under the name.
var ErrNotFound = errors.New("store: snapshot not found")

// ErrInvalidName is returned for names that are not usable as keys.
var ErrInvalidName = errors.New("store: invalid snapshot name")

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Store saves and loads raw document snapshots by name.
type Store interface {
	Load(ctx context.Context, name string) (*observe.Object, error)
	Save(ctx context.Context, name string, doc *observe.Object) error
	Delete(ctx context.Context, name string) error
	Close() error
}

// ValidateName reports whether name can be used as a snapshot name.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Decode parses a snapshot. The top level must be an object or array.
func Decode(data []byte) (*observe.Object, error) {
	v, err := observe.FromJSON(data)
	if err != nil {
		return nil, err
	}
	doc, ok := v.(*observe.Object)
	if !ok {
		return nil, fmt.Errorf("store: snapshot is not an object or array")
	}
	return doc, nil
}

// FileStore keeps one JSON file per snapshot in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("store: create %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Load reads the snapshot saved under name.
func (s *FileStore) Load(_ context.Context, name string) (*observe.Object, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: read %s: %w", name, err)
	}
	return Decode(data)
}

// Save writes doc under name. The file is replaced atomically.
func (s *FileStore) Save(_ context.Context, name string, doc *observe.Object) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	data, err := doc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	return nil
}

// Delete removes the snapshot saved under name. Deleting a missing
// snapshot is not an error.
func (s *FileStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store: delete %s: %w", name, err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
