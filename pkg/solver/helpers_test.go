package solver

import (
	"context"
	"testing"

	"github.com/matzehuels/feedsolve/pkg/config"
	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/feed"
	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/version"
)

const (
	appURI    = "http://example.com/app.xml"
	libURI    = "http://example.com/lib.xml"
	utilURI   = "http://example.com/util.xml"
	baseURI   = "http://example.com/base.xml"
	pythonURI = "http://example.com/python.xml"
	extraURI  = "http://example.com/extra.xml"
)

var testHost = model.Architecture{OS: model.OSLinux, CPU: model.CPUX86_64}

type implOption func(*model.Implementation)

// impl builds a stable implementation with a "run" command whose identity
// is a digest derived from the version.
func impl(ver string, opts ...implOption) *model.Implementation {
	i := &model.Implementation{
		ID:        "sha256new_" + ver,
		Version:   version.MustParse(ver),
		Stability: model.StabilityStable,
		Digest:    model.ManifestDigest{Sha256New: ver},
		Commands:  []model.Command{{Name: model.CommandRun, Path: "bin/run"}},
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

func withStability(s model.Stability) implOption {
	return func(i *model.Implementation) { i.Stability = s }
}

func withArch(arch string) implOption {
	return func(i *model.Implementation) {
		a, err := model.ParseArchitecture(arch)
		if err != nil {
			panic(err)
		}
		i.Architecture = a
	}
}

func requires(uri, rng string) implOption {
	return func(i *model.Implementation) {
		i.Dependencies = append(i.Dependencies, model.Dependency{InterfaceURI: uri, Versions: parseRange(rng)})
	}
}

func recommends(uri, rng string) implOption {
	return func(i *model.Implementation) {
		i.Dependencies = append(i.Dependencies, model.Dependency{
			InterfaceURI: uri, Versions: parseRange(rng), Importance: model.Recommended,
		})
	}
}

func restricts(uri, rng string) implOption {
	return func(i *model.Implementation) {
		i.Restrictions = append(i.Restrictions, model.Restriction{InterfaceURI: uri, Versions: parseRange(rng)})
	}
}

func runsWith(uri string) implOption {
	return func(i *model.Implementation) {
		i.Commands[0].Runner = &model.Runner{Dependency: model.Dependency{InterfaceURI: uri}}
	}
}

func withCommand(name string) implOption {
	return func(i *model.Implementation) {
		i.Commands = append(i.Commands, model.Command{Name: name, Path: "bin/" + name})
	}
}

func parseRange(s string) version.Range {
	if s == "" {
		return version.Any()
	}
	return version.MustParseRange(s)
}

func feedOf(uri string, impls ...*model.Implementation) *model.Feed {
	for _, i := range impls {
		i.InterfaceURI = uri
		i.FromFeed = uri
	}
	return &model.Feed{URI: uri, Implementations: impls}
}

func newTestSolver(p feed.Provider, cfg *config.Config, opts ...func(*Options)) *Solver {
	o := Options{Host: testHost, Config: cfg}
	for _, fn := range opts {
		fn(&o)
	}
	return New(p, o)
}

func testConfig() *config.Config {
	c := config.Config{NetworkUse: feed.NetworkFull}
	return &c
}

// selectedVersion returns the version selected for uri, or "" if none.
func selectedVersion(t *testing.T, res *Result, uri string) string {
	t.Helper()
	if res == nil || res.Selections == nil {
		t.Fatalf("no selections for %s", uri)
	}
	sel := res.Selections.Get(uri)
	if sel == nil {
		return ""
	}
	return sel.Version.String()
}

// brokenManager is a package manager whose queries always fail.
type brokenManager struct{}

func (brokenManager) Name() string { return "Debian" }

func (brokenManager) Query(context.Context, string) ([]*model.Implementation, error) {
	return nil, errs.New(errs.ErrCodePackageManager, "dpkg-query: database locked")
}

func (brokenManager) Lookup(context.Context, string) (*model.Implementation, error) {
	return nil, errs.New(errs.ErrCodePackageManager, "dpkg-query: database locked")
}

// packageOnlyFeed is a feed whose only implementation comes from pkg.
func packageOnlyFeed(uri, pkg string) *model.Feed {
	f := feedOf(uri)
	f.PackageImplementations = []model.PackageImplementation{{
		Package:  pkg,
		Commands: []model.Command{{Name: model.CommandRun, Path: "/usr/bin/" + pkg}},
	}}
	return f
}
