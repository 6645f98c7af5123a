package model

import (
	"strings"

	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/version"
)

// Well-known command names.
const (
	CommandRun     = "run"
	CommandCompile = "compile"
)

// Importance of a dependency.
type Importance int

const (
	// Essential dependencies must be satisfied for a selection to be valid.
	Essential Importance = iota
	// Recommended dependencies are selected when possible and skipped otherwise.
	Recommended
)

func (i Importance) String() string {
	if i == Recommended {
		return "recommended"
	}
	return "essential"
}

// Dependency requires some implementation of another interface.
type Dependency struct {
	InterfaceURI string
	Versions     version.Range
	Importance   Importance
	Bindings     []Binding
	// OS limits the dependency to systems running a compatible OS.
	// Empty means the dependency always applies.
	OS OS
}

// IsEssential reports whether the dependency must be satisfied.
func (d Dependency) IsEssential() bool { return d.Importance == Essential }

// AppliesTo reports whether the dependency is relevant on sys.
func (d Dependency) AppliesTo(sys OS) bool {
	return d.OS == "" || d.OS.RunsOn(sys)
}

// Restriction constrains the versions of another interface without requiring
// it to be selected. An empty Versions range forbids the interface entirely.
type Restriction struct {
	InterfaceURI  string
	Versions      version.Range
	Distributions []string
}

// Allows reports whether impl satisfies the restriction.
func (r Restriction) Allows(impl *Implementation) bool {
	if !r.Versions.Contains(impl.Version) {
		return false
	}
	if len(r.Distributions) == 0 {
		return true
	}
	dist := impl.DistributionName()
	for _, d := range r.Distributions {
		if d == dist {
			return true
		}
	}
	return false
}

// Runner is the dependency on an interpreter needed to execute a command.
type Runner struct {
	Dependency
	// Command is the runner's command to use; empty means "run".
	Command string
	Args    []string
}

// CommandName returns the runner command, defaulting to "run".
func (r Runner) CommandName() string {
	if r.Command == "" {
		return CommandRun
	}
	return r.Command
}

// Command is a named entry point of an implementation.
type Command struct {
	Name         string
	Path         string
	Args         []string
	Dependencies []Dependency
	Restrictions []Restriction
	Bindings     []Binding
	Runner       *Runner
}

// IdentityKind says where an implementation's files come from.
type IdentityKind int

const (
	IdentityNone IdentityKind = iota
	IdentityLocalPath
	IdentityPackage
	IdentityDigest
)

func (k IdentityKind) String() string {
	switch k {
	case IdentityLocalPath:
		return "local-path"
	case IdentityPackage:
		return "package"
	case IdentityDigest:
		return "digest"
	}
	return "none"
}

// PackagePrefix marks implementation IDs provided by a native package manager.
const PackagePrefix = "package:"

// Implementation is one concrete, versioned realization of an interface.
type Implementation struct {
	ID           string
	InterfaceURI string
	// FromFeed is the feed the implementation was read from; it differs from
	// InterfaceURI for supplementary feeds.
	FromFeed     string
	Version      version.Version
	Released     string
	Stability    Stability
	Architecture Architecture
	Langs        []string
	License      string

	Commands     []Command
	Dependencies []Dependency
	Restrictions []Restriction
	Bindings     []Binding

	Digest    ManifestDigest
	LocalPath string

	// Native package identity.
	Package       string
	Distribution  string
	Installed     bool
	QuickTestFile string
}

// IsPackage reports whether the implementation is a native package.
func (i *Implementation) IsPackage() bool {
	return i.Package != "" || strings.HasPrefix(i.ID, PackagePrefix)
}

// DistributionName returns the distribution providing the implementation;
// "0install" for implementations that are not native packages.
func (i *Implementation) DistributionName() string {
	if i.IsPackage() {
		return i.Distribution
	}
	return "0install"
}

// Command returns the named command, or nil.
func (i *Implementation) Command(name string) *Command {
	for k := range i.Commands {
		if i.Commands[k].Name == name {
			return &i.Commands[k]
		}
	}
	return nil
}

// Identity reports the single identity source of the implementation, or
// IdentityNone when zero or several are present.
func (i *Implementation) Identity() IdentityKind {
	kind, n := IdentityNone, 0
	if i.LocalPath != "" {
		kind, n = IdentityLocalPath, n+1
	}
	if i.IsPackage() {
		kind, n = IdentityPackage, n+1
	}
	if !i.Digest.IsZero() {
		kind, n = IdentityDigest, n+1
	}
	if n != 1 {
		return IdentityNone
	}
	return kind
}

// Validate checks the structural invariants of an implementation.
func (i *Implementation) Validate() error {
	if i.ID == "" {
		return errs.New(errs.ErrCodeInvalidFeed, "implementation of %s has no id", i.InterfaceURI)
	}
	if i.Version.IsZero() {
		return errs.New(errs.ErrCodeInvalidFeed, "implementation %s has no version", i.ID)
	}
	if i.Identity() == IdentityNone {
		return errs.New(errs.ErrCodeInvalidFeed,
			"implementation %s needs exactly one of local-path, package or manifest digest", i.ID)
	}
	return nil
}
