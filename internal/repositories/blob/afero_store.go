// Package blob stores audit artifacts on a filesystem abstraction.
// Production uses the OS filesystem rooted at the configured artifact
// directory; tests swap in an in-memory filesystem.
package blob

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/luminapos/corrispettivi/internal/apperrors"
	portsrepo "github.com/luminapos/corrispettivi/internal/core/ports/repositories"
	"github.com/spf13/afero"
)

// AferoStore is a BlobStore over an afero filesystem. Blob names map
// to file paths; the jobID/artifact convention becomes one directory
// per job.
type AferoStore struct {
	fs afero.Fs
}

var _ portsrepo.BlobStore = (*AferoStore)(nil)

// NewOSStore creates a store rooted at dir on the OS filesystem,
// creating the directory when missing.
func NewOSStore(dir string) (*AferoStore, error) {
	base := afero.NewOsFs()
	if err := base.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir %s: %w", dir, err)
	}
	return &AferoStore{fs: afero.NewBasePathFs(base, dir)}, nil
}

// NewMemStore creates a store over an in-memory filesystem.
func NewMemStore() *AferoStore {
	return &AferoStore{fs: afero.NewMemMapFs()}
}

// Store writes a named blob, replacing any previous content.
func (s *AferoStore) Store(_ context.Context, name string, data []byte) error {
	if dir := path.Dir(name); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create blob dir %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(s.fs, name, data, 0o644); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	return nil
}

// Retrieve reads a named blob.
func (s *AferoStore) Retrieve(_ context.Context, name string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: blob %s", apperrors.ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", name, err)
	}
	return data, nil
}

// Exists reports whether a named blob is present.
func (s *AferoStore) Exists(_ context.Context, name string) (bool, error) {
	ok, err := afero.Exists(s.fs, name)
	if err != nil {
		return false, fmt.Errorf("failed to stat blob %s: %w", name, err)
	}
	return ok, nil
}

// Delete removes a named blob. Deleting an absent blob is not an error.
func (s *AferoStore) Delete(_ context.Context, name string) error {
	if err := s.fs.Remove(name); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", name, err)
	}
	return nil
}

// List returns the names of all blobs under the given prefix.
func (s *AferoStore) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := afero.Walk(s.fs, ".", func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasPrefix(p, prefix) {
			names = append(names, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs under %s: %w", prefix, err)
	}
	return names, nil
}
