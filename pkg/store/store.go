// Package store locates implementations that have already been downloaded.
//
// Implementations are kept in directories named after their manifest digest
// (e.g. "sha256new_ABC..."). A [DirStore] searches one or more such
// directories; the first directory is writable and receives new entries via
// [DirStore.Add].
package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/model"
)

// Store answers whether an implementation is present locally.
type Store interface {
	Contains(digest model.ManifestDigest) bool
	GetPath(digest model.ManifestDigest) (string, bool)
}

// ErrExists is returned by Add when the implementation is already stored.
var ErrExists = errors.New("implementation already stored")

// DirStore is a Store backed by directories on the local filesystem.
type DirStore struct {
	dirs []string
}

// NewDirStore creates a store searching dirs in order. The first directory
// is created if missing and receives new implementations.
func NewDirStore(dirs ...string) (*DirStore, error) {
	if len(dirs) == 0 {
		return nil, errs.New(errs.ErrCodeStore, "no store directories configured")
	}
	if err := os.MkdirAll(dirs[0], 0755); err != nil {
		return nil, errs.Wrap(errs.ErrCodeStore, err, "create store %s", dirs[0])
	}
	return &DirStore{dirs: dirs}, nil
}

// Dirs returns the searched directories.
func (s *DirStore) Dirs() []string { return s.dirs }

// Contains reports whether any directory holds the implementation.
func (s *DirStore) Contains(digest model.ManifestDigest) bool {
	_, ok := s.GetPath(digest)
	return ok
}

// GetPath returns the directory holding the implementation.
func (s *DirStore) GetPath(digest model.ManifestDigest) (string, bool) {
	for _, id := range digest.IDs() {
		for _, dir := range s.dirs {
			path := filepath.Join(dir, id)
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				return path, true
			}
		}
	}
	return "", false
}

// Add copies the directory tree at src into the store under digest.Best().
// The tree is first materialized under a unique temporary name and then
// renamed into place, so concurrent readers never see a partial entry.
// The manifest of src is not verified.
func (s *DirStore) Add(ctx context.Context, digest model.ManifestDigest, src string) (string, error) {
	id := digest.Best()
	if id == "" {
		return "", errs.New(errs.ErrCodeStore, "cannot store implementation without digest")
	}
	if path, ok := s.GetPath(digest); ok {
		return path, ErrExists
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp := filepath.Join(s.dirs[0], ".tmp-"+uuid.NewString())
	if err := os.CopyFS(tmp, os.DirFS(src)); err != nil {
		_ = os.RemoveAll(tmp)
		return "", errs.Wrap(errs.ErrCodeStore, err, "copy %s", src)
	}
	if err := ctx.Err(); err != nil {
		_ = os.RemoveAll(tmp)
		return "", err
	}

	dest := filepath.Join(s.dirs[0], id)
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.RemoveAll(tmp)
		if _, statErr := os.Stat(dest); statErr == nil {
			return dest, ErrExists
		}
		return "", errs.Wrap(errs.ErrCodeStore, err, "install %s", id)
	}
	return dest, nil
}

// Remove deletes the implementation from the writable directory.
func (s *DirStore) Remove(digest model.ManifestDigest) error {
	for _, id := range digest.IDs() {
		path := filepath.Join(s.dirs[0], id)
		if _, err := os.Stat(path); err == nil {
			if err := os.RemoveAll(path); err != nil {
				return errs.Wrap(errs.ErrCodeStore, err, "remove %s", id)
			}
			return nil
		}
	}
	return errs.New(errs.ErrCodeNotFound, "implementation %s not stored", digest.Best())
}

// List returns the digests of all stored implementations, sorted by ID.
func (s *DirStore) List() ([]model.ManifestDigest, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, dir := range s.dirs {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeStore, err, "list %s", dir)
		}
		for _, e := range entries {
			name := e.Name()
			if !e.IsDir() || strings.HasPrefix(name, ".") || seen[name] {
				continue
			}
			if _, ok := model.ParseDigestID(name); ok {
				seen[name] = true
				ids = append(ids, name)
			}
		}
	}
	sort.Strings(ids)
	digests := make([]model.ManifestDigest, len(ids))
	for i, id := range ids {
		digests[i], _ = model.ParseDigestID(id)
	}
	return digests, nil
}

// Ensure DirStore implements Store.
var _ Store = (*DirStore)(nil)

// Memory is an in-memory Store keyed by digest ID, for tests and dry runs.
type Memory map[string]string

// Contains reports whether any ID of digest is present.
func (m Memory) Contains(digest model.ManifestDigest) bool {
	_, ok := m.GetPath(digest)
	return ok
}

// GetPath returns the path registered for the digest.
func (m Memory) GetPath(digest model.ManifestDigest) (string, bool) {
	for _, id := range digest.IDs() {
		if p, ok := m[id]; ok {
			return p, true
		}
	}
	return "", false
}
