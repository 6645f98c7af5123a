// Package selection holds the output of a solve: one chosen implementation
// per interface, in the order the solver discovered them.
//
// Besides the document model this package provides the XML codec for the
// selections format and the post-solve utilities used by launchers and
// updaters: [GetUncached], [GetTree] and [GetDiff].
package selection

import (
	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/version"
)

// Selection is the implementation chosen for one interface.
type Selection struct {
	InterfaceURI string
	FromFeed     string
	ID           string
	Version      version.Version
	Stability    model.Stability
	Architecture model.Architecture
	Released     string
	License      string

	Digest        model.ManifestDigest
	LocalPath     string
	Package       string
	Distribution  string
	QuickTestFile string

	Dependencies []model.Dependency
	Restrictions []model.Restriction
	Bindings     []model.Binding
	// Commands holds only the commands the solve actually selected.
	Commands []model.Command
}

// FromImplementation copies impl into a Selection carrying the named commands.
// Unknown command names are ignored.
func FromImplementation(impl *model.Implementation, commands ...string) *Selection {
	sel := &Selection{
		InterfaceURI:  impl.InterfaceURI,
		FromFeed:      impl.FromFeed,
		ID:            impl.ID,
		Version:       impl.Version,
		Stability:     impl.Stability,
		Architecture:  impl.Architecture,
		Released:      impl.Released,
		License:       impl.License,
		Digest:        impl.Digest,
		LocalPath:     impl.LocalPath,
		Package:       impl.Package,
		Distribution:  impl.Distribution,
		QuickTestFile: impl.QuickTestFile,
		Dependencies:  impl.Dependencies,
		Restrictions:  impl.Restrictions,
		Bindings:      impl.Bindings,
	}
	if sel.FromFeed == sel.InterfaceURI {
		sel.FromFeed = ""
	}
	for _, name := range commands {
		if c := impl.Command(name); c != nil {
			sel.Commands = append(sel.Commands, *c)
		}
	}
	return sel
}

// Identity reports where the selected implementation's files come from.
func (s *Selection) Identity() model.IdentityKind {
	impl := model.Implementation{ID: s.ID, LocalPath: s.LocalPath, Package: s.Package, Digest: s.Digest}
	return impl.Identity()
}

// IsPackage reports whether the selection is a native package.
func (s *Selection) IsPackage() bool {
	impl := model.Implementation{ID: s.ID, Package: s.Package}
	return impl.IsPackage()
}

// Command returns the selected command with the given name, or nil.
func (s *Selection) Command(name string) *model.Command {
	for i := range s.Commands {
		if s.Commands[i].Name == name {
			return &s.Commands[i]
		}
	}
	return nil
}

// Selections is the result of a successful solve.
type Selections struct {
	// InterfaceURI is the root interface.
	InterfaceURI string
	// Command is the command selected on the root; "" if none.
	Command string
	// Source is set when source implementations were requested.
	Source bool
	// Implementations holds one entry per interface in discovery order.
	Implementations []*Selection
}

// New creates an empty Selections document for root.
func New(root, command string) *Selections {
	return &Selections{InterfaceURI: root, Command: command}
}

// Get returns the selection for uri, or nil.
func (s *Selections) Get(uri string) *Selection {
	for _, sel := range s.Implementations {
		if sel.InterfaceURI == uri {
			return sel
		}
	}
	return nil
}

// Contains reports whether uri has a selection.
func (s *Selections) Contains(uri string) bool { return s.Get(uri) != nil }

// Root returns the selection of the root interface, or nil.
func (s *Selections) Root() *Selection { return s.Get(s.InterfaceURI) }

// Add appends sel, replacing any existing selection for the same interface
// in place so discovery order is preserved.
func (s *Selections) Add(sel *Selection) {
	for i, existing := range s.Implementations {
		if existing.InterfaceURI == sel.InterfaceURI {
			s.Implementations[i] = sel
			return
		}
	}
	s.Implementations = append(s.Implementations, sel)
}

// URIs returns the selected interfaces in order.
func (s *Selections) URIs() []string {
	uris := make([]string, len(s.Implementations))
	for i, sel := range s.Implementations {
		uris[i] = sel.InterfaceURI
	}
	return uris
}
