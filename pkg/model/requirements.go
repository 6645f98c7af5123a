package model

import (
	"maps"
	"slices"
	"strings"

	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/version"
)

// Requirements is the input to a solve.
type Requirements struct {
	// InterfaceURI is the root interface to select.
	InterfaceURI string
	// Command is the command to select on the root. Nil means the default
	// ("run", or "compile" when Source is set); a pointer to "" means no
	// command is needed.
	Command *string
	// Architecture overrides the host platform. Empty fields use the host.
	Architecture Architecture
	// Source requests source implementations of the root interface.
	Source bool
	// Languages lists preferred locales, e.g. "en_GB", "fr".
	Languages []string
	// ExtraRestrictions adds version restrictions keyed by interface URI.
	ExtraRestrictions map[string]version.Range
	// Distributions limits which native package managers may provide
	// implementations. Empty allows all. Not carried by ToArgs.
	Distributions []string
}

// NewRequirements returns requirements for running uri with defaults.
func NewRequirements(uri string) Requirements {
	return Requirements{InterfaceURI: uri}
}

// CommandPtr is a helper for setting Requirements.Command.
func CommandPtr(name string) *string { return &name }

// EffectiveCommand returns the command to select on the root, or "" when
// no command is needed.
func (r Requirements) EffectiveCommand() string {
	if r.Command != nil {
		return *r.Command
	}
	if r.Source {
		return CommandCompile
	}
	return CommandRun
}

// ForHost returns the architecture to solve for, filling unset fields from
// host. Source requests always solve for the "src" CPU at the root.
func (r Requirements) ForHost(host Architecture) Architecture {
	arch := r.Architecture
	if arch.OS == "" {
		arch.OS = host.OS
	}
	if arch.CPU == "" {
		arch.CPU = host.CPU
	}
	if r.Source {
		arch.CPU = CPUSource
	}
	return arch
}

// Restriction returns the extra version restriction for uri (Any if none).
func (r Requirements) Restriction(uri string) version.Range {
	if rng, ok := r.ExtraRestrictions[uri]; ok {
		return rng
	}
	return version.Any()
}

// Validate checks the requirements before a solve starts.
func (r Requirements) Validate() error {
	if err := ValidateURI(r.InterfaceURI); err != nil {
		return err
	}
	for uri := range r.ExtraRestrictions {
		if err := ValidateURI(uri); err != nil {
			return errs.Wrap(errs.ErrCodeInvalidInput, err, "version restriction")
		}
	}
	if r.Command != nil && strings.ContainsAny(*r.Command, " \t\n") {
		return errs.New(errs.ErrCodeInvalidInput, "invalid command name %q", *r.Command)
	}
	if r.Source && r.Architecture.CPU != "" && r.Architecture.CPU != CPUSource && r.Architecture.CPU != CPUAll {
		return errs.New(errs.ErrCodeInvalidInput, "--source conflicts with cpu %s", r.Architecture.CPU)
	}
	if !r.Source && r.Architecture.CPU == CPUSource {
		return errs.New(errs.ErrCodeInvalidInput, "cpu %s requires --source", CPUSource)
	}
	return nil
}

// ToArgs serializes the requirements as an argument vector for external
// solver processes. Version restrictions are emitted in URI order so the
// output is deterministic.
func (r Requirements) ToArgs() []string {
	var args []string
	if r.Command != nil {
		args = append(args, "--command", *r.Command)
	}
	if r.Architecture.OS != "" {
		args = append(args, "--os", string(r.Architecture.OS))
	}
	if r.Architecture.CPU != "" {
		args = append(args, "--cpu", string(r.Architecture.CPU))
	}
	if r.Source {
		args = append(args, "--source")
	}
	for _, lang := range r.Languages {
		args = append(args, "--language", lang)
	}
	for _, uri := range slices.Sorted(maps.Keys(r.ExtraRestrictions)) {
		args = append(args, "--version-for", uri, r.ExtraRestrictions[uri].String())
	}
	return append(args, r.InterfaceURI)
}

// ParseArgs is the inverse of ToArgs. Options may use "--opt value" or
// "--opt=value"; "--version-for" always takes two separate values.
func ParseArgs(args []string) (Requirements, error) {
	var r Requirements
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "--") {
			positional = append(positional, arg)
			continue
		}

		name, inline, hasInline := strings.Cut(arg[2:], "=")
		value := func() (string, error) {
			if hasInline {
				return inline, nil
			}
			if i+1 >= len(args) {
				return "", errs.New(errs.ErrCodeInvalidInput, "missing value for --%s", name)
			}
			i++
			return args[i], nil
		}

		switch name {
		case "command":
			v, err := value()
			if err != nil {
				return Requirements{}, err
			}
			r.Command = CommandPtr(v)
		case "os":
			v, err := value()
			if err != nil {
				return Requirements{}, err
			}
			r.Architecture.OS = OS(v)
		case "cpu":
			v, err := value()
			if err != nil {
				return Requirements{}, err
			}
			r.Architecture.CPU = CPU(v)
		case "source":
			if hasInline {
				return Requirements{}, errs.New(errs.ErrCodeInvalidInput, "--source takes no value")
			}
			r.Source = true
		case "language":
			v, err := value()
			if err != nil {
				return Requirements{}, err
			}
			r.Languages = append(r.Languages, v)
		case "version-for":
			if hasInline || i+2 >= len(args) {
				return Requirements{}, errs.New(errs.ErrCodeInvalidInput, "--version-for needs URI and RANGE")
			}
			uri, raw := args[i+1], args[i+2]
			i += 2
			rng, err := version.ParseRange(raw)
			if err != nil {
				return Requirements{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "--version-for %s", uri)
			}
			if r.ExtraRestrictions == nil {
				r.ExtraRestrictions = make(map[string]version.Range)
			}
			if prev, ok := r.ExtraRestrictions[uri]; ok {
				rng = prev.Intersect(rng)
			}
			r.ExtraRestrictions[uri] = rng
		default:
			return Requirements{}, errs.New(errs.ErrCodeInvalidInput, "unknown option --%s", name)
		}
	}

	if len(positional) != 1 {
		return Requirements{}, errs.New(errs.ErrCodeInvalidInput,
			"expected exactly one interface URI, got %d", len(positional))
	}
	r.InterfaceURI = positional[0]
	return r, r.Validate()
}
