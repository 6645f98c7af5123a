// Package distro queries native package managers for implementations.
//
// A feed may declare that an interface is also provided by a distribution
// package (e.g. Debian's "python3"). The solver asks a [Manager] which
// versions of that package are installed and treats each as a candidate
// implementation with a synthetic "package:" ID.
//
// Variants exist per package-manager family ([Dpkg], [RPM]) plus [Memory]
// for tests; [Composite] combines several in priority order and [Detect]
// picks the right set for the running system.
package distro

import (
	"context"
	"os/exec"
	"runtime"
	"strings"

	"github.com/matzehuels/feedsolve/pkg/model"
)

// Manager is a native package manager.
type Manager interface {
	// Name returns the distribution name used in feed "distributions"
	// attributes, e.g. "Debian" or "RPM".
	Name() string
	// Query lists known versions of the named package. An empty result
	// means the package is unknown; it is not an error.
	Query(ctx context.Context, pkg string) ([]*model.Implementation, error)
	// Lookup returns the implementation with the given ID, or nil if the
	// package manager does not know it.
	Lookup(ctx context.Context, id string) (*model.Implementation, error)
}

// Runner executes an external command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PackageID builds the synthetic implementation ID of a native package.
func PackageID(short, pkg, version, arch string) string {
	return model.PackagePrefix + strings.Join([]string{short, pkg, version, arch}, ":")
}

// ParsePackageID splits an ID built by PackageID.
func ParsePackageID(id string) (short, pkg, version, arch string, ok bool) {
	rest, found := strings.CutPrefix(id, model.PackagePrefix)
	if !found {
		return "", "", "", "", false
	}
	parts := strings.SplitN(rest, ":", 4)
	if len(parts) != 4 {
		return "", "", "", "", false
	}
	return parts[0], parts[1], parts[2], parts[3], true
}

// QueryAllowed queries m for pkg unless distributions excludes it.
func QueryAllowed(ctx context.Context, m Manager, pkg string, distributions []string) ([]*model.Implementation, error) {
	if c, ok := m.(*Composite); ok {
		return c.queryAllowed(ctx, pkg, distributions)
	}
	if !allowed(m.Name(), distributions) {
		return nil, nil
	}
	return m.Query(ctx, pkg)
}

func allowed(name string, distributions []string) bool {
	if len(distributions) == 0 {
		return true
	}
	for _, d := range distributions {
		if d == name {
			return true
		}
	}
	return false
}

// Composite combines managers. Query returns the union in priority order;
// Lookup returns the first match.
type Composite struct {
	Managers []Manager
}

// NewComposite returns a Composite over managers, highest priority first.
func NewComposite(managers ...Manager) *Composite {
	return &Composite{Managers: managers}
}

// Name joins the member names.
func (c *Composite) Name() string {
	names := make([]string, len(c.Managers))
	for i, m := range c.Managers {
		names[i] = m.Name()
	}
	return strings.Join(names, "+")
}

// Query returns the union of all members' results.
func (c *Composite) Query(ctx context.Context, pkg string) ([]*model.Implementation, error) {
	return c.queryAllowed(ctx, pkg, nil)
}

func (c *Composite) queryAllowed(ctx context.Context, pkg string, distributions []string) ([]*model.Implementation, error) {
	var out []*model.Implementation
	seen := make(map[string]bool)
	for _, m := range c.Managers {
		impls, err := QueryAllowed(ctx, m, pkg, distributions)
		if err != nil {
			return nil, err
		}
		for _, impl := range impls {
			if !seen[impl.ID] {
				seen[impl.ID] = true
				out = append(out, impl)
			}
		}
	}
	return out, nil
}

// Lookup asks each member in turn.
func (c *Composite) Lookup(ctx context.Context, id string) (*model.Implementation, error) {
	for _, m := range c.Managers {
		impl, err := m.Lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		if impl != nil {
			return impl, nil
		}
	}
	return nil, nil
}

// Detect returns the package managers available on the running system.
// The result may be an empty Composite.
func Detect() *Composite {
	return detect(runtime.GOOS, exec.LookPath)
}

func detect(goos string, lookPath func(string) (string, error)) *Composite {
	c := NewComposite()
	if goos != "linux" && goos != "freebsd" {
		return c
	}
	if _, err := lookPath("dpkg-query"); err == nil {
		c.Managers = append(c.Managers, NewDpkg(ExecRunner))
	}
	if _, err := lookPath("rpm"); err == nil {
		c.Managers = append(c.Managers, NewRPM(ExecRunner))
	}
	return c
}

// Ensure Composite implements Manager.
var _ Manager = (*Composite)(nil)
