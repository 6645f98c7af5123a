package distro

import (
	"context"

	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/version"
)

// Memory is a Manager over a fixed package list.
type Memory struct {
	name     string
	packages map[string][]*model.Implementation
}

// NewMemory creates an empty in-memory package manager for distribution name.
func NewMemory(name string) *Memory {
	return &Memory{name: name, packages: make(map[string][]*model.Implementation)}
}

// Add registers a package version. The implementation is marked installed
// when installed is true.
func (m *Memory) Add(pkg, ver string, arch model.Architecture, installed bool) *model.Implementation {
	impl := &model.Implementation{
		ID:           PackageID(m.name, pkg, ver, arch.String()),
		Version:      version.MustParse(ver),
		Stability:    model.StabilityPackaged,
		Architecture: arch,
		Package:      pkg,
		Distribution: m.name,
		Installed:    installed,
	}
	m.packages[pkg] = append(m.packages[pkg], impl)
	return impl
}

// Name returns the distribution name.
func (m *Memory) Name() string { return m.name }

// Query returns copies of the registered versions of pkg.
func (m *Memory) Query(ctx context.Context, pkg string) ([]*model.Implementation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*model.Implementation
	for _, impl := range m.packages[pkg] {
		c := *impl
		out = append(out, &c)
	}
	return out, nil
}

// Lookup finds a registered implementation by ID.
func (m *Memory) Lookup(ctx context.Context, id string) (*model.Implementation, error) {
	for _, impls := range m.packages {
		for _, impl := range impls {
			if impl.ID == id {
				c := *impl
				return &c, nil
			}
		}
	}
	return nil, nil
}

// Ensure Memory implements Manager.
var _ Manager = (*Memory)(nil)
