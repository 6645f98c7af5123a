package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/feedsolve/pkg/model"
)

func writeTree(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "bin"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "bin", "prog"), []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return src
}

func TestDirStoreAdd(t *testing.T) {
	ctx := context.Background()
	s, err := NewDirStore(filepath.Join(t.TempDir(), "impls"))
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}
	digest := model.ManifestDigest{Sha256New: "ABC"}

	if s.Contains(digest) {
		t.Fatal("empty store should not contain digest")
	}

	path, err := s.Add(ctx, digest, writeTree(t))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if filepath.Base(path) != "sha256new_ABC" {
		t.Errorf("path = %s", path)
	}
	if _, err := os.Stat(filepath.Join(path, "bin", "prog")); err != nil {
		t.Errorf("copied file missing: %v", err)
	}
	if got, ok := s.GetPath(digest); !ok || got != path {
		t.Errorf("GetPath = %q, %v", got, ok)
	}

	if _, err := s.Add(ctx, digest, writeTree(t)); !errors.Is(err, ErrExists) {
		t.Errorf("second Add = %v, want ErrExists", err)
	}

	entries, _ := os.ReadDir(s.Dirs()[0])
	for _, e := range entries {
		if e.Name() != "sha256new_ABC" {
			t.Errorf("leftover entry %s", e.Name())
		}
	}
}

func TestDirStoreSearchesAllDirs(t *testing.T) {
	ro := t.TempDir()
	if err := os.Mkdir(filepath.Join(ro, "sha1new=123"), 0755); err != nil {
		t.Fatal(err)
	}
	s, err := NewDirStore(t.TempDir(), ro)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Contains(model.ManifestDigest{Sha1New: "123", Sha256New: "other"}) {
		t.Error("expected digest found via secondary ID in read-only dir")
	}

	list, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Sha1New != "123" {
		t.Errorf("List = %+v", list)
	}
}

func TestDirStoreRemove(t *testing.T) {
	s, _ := NewDirStore(t.TempDir())
	digest := model.ManifestDigest{Sha256: "x"}
	if _, err := s.Add(context.Background(), digest, writeTree(t)); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(digest); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if s.Contains(digest) {
		t.Error("still contained after Remove")
	}
	if err := s.Remove(digest); err == nil {
		t.Error("second Remove should fail")
	}
}

func TestDirStoreAddCanceled(t *testing.T) {
	s, _ := NewDirStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Add(ctx, model.ManifestDigest{Sha256New: "y"}, writeTree(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Add = %v, want context.Canceled", err)
	}
}

func TestMemoryStore(t *testing.T) {
	m := Memory{"sha256new_a": "/impls/a"}
	if !m.Contains(model.ManifestDigest{Sha256New: "a"}) {
		t.Error("expected hit")
	}
	if m.Contains(model.ManifestDigest{Sha1New: "a"}) {
		t.Error("unexpected hit")
	}
}

func TestNewDirStoreRequiresDir(t *testing.T) {
	if _, err := NewDirStore(); err == nil {
		t.Error("expected error")
	}
}
