package model

import (
	"path/filepath"
	"strings"

	errs "github.com/matzehuels/feedsolve/pkg/errors"
)

// Feed is the parsed description of the implementations of one interface.
type Feed struct {
	URI     string
	Name    string
	Summary string

	Implementations        []*Implementation
	PackageImplementations []PackageImplementation

	// Feeds lists supplementary feeds for the same interface.
	Feeds []FeedReference
	// FeedFor lists interfaces this feed provides implementations for.
	FeedFor      []string
	Capabilities []Capability
}

// FeedReference points at a supplementary feed. The reference is only
// followed when its architecture and languages match the request.
type FeedReference struct {
	Source       string
	Architecture Architecture
	Langs        []string
}

// PackageImplementation describes how to obtain an interface from a native
// package manager. Versions come from the package manager, not the feed.
type PackageImplementation struct {
	Package       string
	Distributions []string
	Commands      []Command
	Dependencies  []Dependency
	Restrictions  []Restriction
	Bindings      []Binding
}

// MatchesDistribution reports whether the entry applies to the named
// distribution. An empty list matches every distribution.
func (p PackageImplementation) MatchesDistribution(name string) bool {
	if len(p.Distributions) == 0 {
		return true
	}
	for _, d := range p.Distributions {
		if d == name {
			return true
		}
	}
	return false
}

// Capability is an opaque desktop-integration capability declared by a feed.
type Capability struct {
	ID   string
	Type string
}

// IsLocalURI reports whether uri names a feed on the local filesystem.
func IsLocalURI(uri string) bool {
	return filepath.IsAbs(uri) || strings.HasPrefix(uri, "file://")
}

// LocalPath converts a local feed URI to a filesystem path.
func LocalPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

// ValidateURI checks that uri is an http(s) URL or an absolute path.
func ValidateURI(uri string) error {
	if uri == "" {
		return errs.New(errs.ErrCodeInvalidInput, "interface URI cannot be empty")
	}
	if strings.ContainsAny(uri, " \t\n") {
		return errs.New(errs.ErrCodeInvalidInput, "interface URI %q contains whitespace", uri)
	}
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		_, rest, _ := strings.Cut(uri, "://")
		if host, _, _ := strings.Cut(rest, "/"); host == "" {
			return errs.New(errs.ErrCodeInvalidInput, "interface URI %q has no host", uri)
		}
		return nil
	}
	if IsLocalURI(uri) {
		return nil
	}
	return errs.New(errs.ErrCodeInvalidInput,
		"interface URI %q must be an http(s) URL or an absolute path", uri)
}
