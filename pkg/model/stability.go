package model

import (
	"fmt"
	"strings"
)

// Stability is a quality rating. Higher values are preferred.
//
// Buggy < Developer < Testing < Stable < Packaged are published in feeds.
// Preferred and Insecure are user overrides and bracket the scale.
type Stability int

const (
	StabilityUnset Stability = iota
	StabilityInsecure
	StabilityBuggy
	StabilityDeveloper
	StabilityTesting
	StabilityStable
	StabilityPackaged
	StabilityPreferred
)

var stabilityNames = map[Stability]string{
	StabilityUnset:     "",
	StabilityInsecure:  "insecure",
	StabilityBuggy:     "buggy",
	StabilityDeveloper: "developer",
	StabilityTesting:   "testing",
	StabilityStable:    "stable",
	StabilityPackaged:  "packaged",
	StabilityPreferred: "preferred",
}

// ParseStability parses a stability name as used in feeds ("stable", ...).
func ParseStability(s string) (Stability, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for st, name := range stabilityNames {
		if name == s {
			return st, nil
		}
	}
	return StabilityUnset, fmt.Errorf("unknown stability %q", s)
}

// String returns the feed name of the stability rating.
func (s Stability) String() string { return stabilityNames[s] }

// IsUsable reports whether implementations with this rating may be selected.
func (s Stability) IsUsable() bool {
	return s != StabilityBuggy && s != StabilityInsecure
}

// MarshalText implements encoding.TextMarshaler.
func (s Stability) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stability) UnmarshalText(b []byte) error {
	parsed, err := ParseStability(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
