package selection

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/feedsolve/pkg/distro"
	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/store"
	"github.com/matzehuels/feedsolve/pkg/version"
)

func sel(uri, ver string) *Selection {
	return &Selection{
		InterfaceURI: uri,
		ID:           "sha256new_" + ver,
		Version:      version.MustParse(ver),
		Digest:       model.ManifestDigest{Sha256New: ver},
	}
}

func doc(sels ...*Selection) *Selections {
	s := New(sels[0].InterfaceURI, "run")
	for _, x := range sels {
		s.Add(x)
	}
	return s
}

func TestGetDiff(t *testing.T) {
	before := doc(sel("http://a", "1.0"), sel("http://b", "2.0"))
	after := doc(sel("http://a", "1.0"), sel("http://c", "3.0"))

	changes := GetDiff(before, after)
	require.Len(t, changes, 2)
	assert.Equal(t, Removed, changes[0].Kind)
	assert.Equal(t, "http://b", changes[0].InterfaceURI)
	assert.Equal(t, "2.0", changes[0].OldVersion.String())
	assert.Equal(t, Added, changes[1].Kind)
	assert.Equal(t, "http://c", changes[1].InterfaceURI)
	assert.Equal(t, "3.0", changes[1].NewVersion.String())
}

func TestGetDiffUpdated(t *testing.T) {
	before := doc(sel("http://a", "1.0"), sel("http://b", "2.0"))
	after := doc(sel("http://a", "1.1"), sel("http://b", "2.0"))

	changes := GetDiff(before, after)
	require.Len(t, changes, 1)
	assert.Equal(t, Updated, changes[0].Kind)
	assert.Equal(t, "1.0", changes[0].OldVersion.String())
	assert.Equal(t, "1.1", changes[0].NewVersion.String())

	assert.Empty(t, GetDiff(after, after))
}

func TestGetUncached(t *testing.T) {
	ctx := context.Background()
	quick := filepath.Join(t.TempDir(), "installed")
	require.NoError(t, os.WriteFile(quick, nil, 0644))

	pm := distro.NewMemory("Debian")
	installed := pm.Add("gcc", "12", model.Architecture{OS: model.OSLinux, CPU: model.CPUX86_64}, true)
	notInstalled := pm.Add("make", "4.3", model.Architecture{OS: model.OSLinux, CPU: model.CPUX86_64}, false)

	local := &Selection{InterfaceURI: "http://local", ID: "/src", LocalPath: "/src", Version: version.MustParse("1")}
	stored := sel("http://stored", "1.0")
	missing := sel("http://missing", "2.0")
	quickTest := &Selection{InterfaceURI: "http://quick", ID: "package:deb:x:1:*-*", Package: "x",
		QuickTestFile: quick, Version: version.MustParse("1")}
	pkgInstalled := &Selection{InterfaceURI: "http://gcc", ID: installed.ID, Package: "gcc", Version: installed.Version}
	pkgMissing := &Selection{InterfaceURI: "http://make", ID: notInstalled.ID, Package: "make", Version: notInstalled.Version}

	sels := doc(local, stored, missing, quickTest, pkgInstalled, pkgMissing)
	st := store.Memory{"sha256new_1.0": "/store/x"}

	uncached, err := GetUncached(ctx, sels, st, pm)
	require.NoError(t, err)

	var uris []string
	for _, u := range uncached {
		uris = append(uris, u.InterfaceURI)
	}
	assert.Equal(t, []string{"http://missing", "http://make"}, uris)
}

func TestGetUncachedNilCollaborators(t *testing.T) {
	sels := doc(sel("http://a", "1.0"))
	uncached, err := GetUncached(context.Background(), sels, nil, nil)
	require.NoError(t, err)
	assert.Len(t, uncached, 1)
}

func TestGetTree(t *testing.T) {
	root := sel("http://root", "1.0")
	root.Dependencies = []model.Dependency{{InterfaceURI: "http://lib"}, {InterfaceURI: "http://missing"}}
	root.Commands = []model.Command{{
		Name:         "run",
		Runner:       &model.Runner{Dependency: model.Dependency{InterfaceURI: "http://python"}},
		Dependencies: []model.Dependency{{InterfaceURI: "http://lib"}},
	}}
	lib := sel("http://lib", "2.0")
	lib.Dependencies = []model.Dependency{{InterfaceURI: "http://root"}} // cycle
	python := sel("http://python", "3.11")
	python.LocalPath = "/usr/lib/python"

	nodes := GetTree(doc(root, lib, python), store.Memory{"sha256new_2.0": "/store/lib"})
	require.Len(t, nodes, 4)

	assert.Equal(t, "http://root", nodes[0].InterfaceURI)
	assert.Nil(t, nodes[0].Parent)
	assert.Equal(t, "http://lib", nodes[1].InterfaceURI)
	assert.Equal(t, "/store/lib", nodes[1].Path)
	assert.Equal(t, 1, nodes[1].Depth())
	assert.Equal(t, "http://missing", nodes[2].InterfaceURI)
	assert.Nil(t, nodes[2].Selection)
	assert.Equal(t, "http://python", nodes[3].InterfaceURI)
	assert.Equal(t, "/usr/lib/python", nodes[3].Path)
	assert.Len(t, nodes[0].Children, 3)
	assert.Empty(t, nodes[1].Children)
}

func TestSelectionsAddKeepsOrder(t *testing.T) {
	s := doc(sel("http://a", "1"), sel("http://b", "1"))
	s.Add(sel("http://a", "2"))
	assert.Equal(t, []string{"http://a", "http://b"}, s.URIs())
	assert.Equal(t, "2", s.Get("http://a").Version.String())
	assert.Equal(t, "http://a", s.Root().InterfaceURI)
}

func TestFromImplementation(t *testing.T) {
	impl := &model.Implementation{
		ID:           "sha1new=x",
		InterfaceURI: "http://a",
		FromFeed:     "http://a",
		Version:      version.MustParse("1.0"),
		Digest:       model.ManifestDigest{Sha1New: "x"},
		Commands:     []model.Command{{Name: "run"}, {Name: "test"}},
	}
	s := FromImplementation(impl, "run", "compile")
	assert.Empty(t, s.FromFeed)
	require.Len(t, s.Commands, 1)
	assert.Equal(t, "run", s.Commands[0].Name)
	assert.Equal(t, model.IdentityDigest, s.Identity())
}
