package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/feedsolve/pkg/config"
	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/feed"
	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/version"
)

// reqFlags holds the flags that build model.Requirements.
type reqFlags struct {
	command       string
	os            string
	cpu           string
	source        bool
	languages     []string
	version       string
	versionFor    []string
	distributions []string
	networkUse    string
}

func (f *reqFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.command, "command", "", `command to select on the root ("" for none; default run, or compile with --source)`)
	fs.StringVar(&f.os, "os", "", "target operating system (default: host)")
	fs.StringVar(&f.cpu, "cpu", "", "target CPU (default: host)")
	fs.BoolVar(&f.source, "source", false, "select source code for the root interface")
	fs.StringArrayVar(&f.languages, "language", nil, "preferred language, e.g. en_GB (repeatable; default from config)")
	fs.StringVar(&f.version, "version", "", "version range for the root interface, e.g. 2.0..!3.0")
	fs.StringArrayVar(&f.versionFor, "version-for", nil, "version range for another interface as URI=RANGE (repeatable)")
	fs.StringArrayVar(&f.distributions, "distribution", nil, "allow native packages only from this distribution (repeatable)")
	fs.StringVar(&f.networkUse, "network-use", "", "override network use: full, minimal or offline")
}

// requirements builds the solve input for uri. Only flags the user set
// override the defaults.
func (f *reqFlags) requirements(cmd *cobra.Command, uri string, cfg config.Config) (model.Requirements, error) {
	req := model.NewRequirements(uri)
	if cmd.Flags().Changed("command") {
		req.Command = model.CommandPtr(f.command)
	}
	req.Architecture = model.Architecture{OS: model.OS(f.os), CPU: model.CPU(f.cpu)}
	req.Source = f.source
	req.Languages = f.languages
	if len(req.Languages) == 0 {
		req.Languages = cfg.Languages
	}
	req.Distributions = f.distributions

	if f.version != "" {
		if err := addRestriction(&req, uri, f.version); err != nil {
			return model.Requirements{}, err
		}
	}
	for _, arg := range f.versionFor {
		i := strings.LastIndex(arg, "=")
		if i <= 0 || i == len(arg)-1 {
			return model.Requirements{}, errs.New(errs.ErrCodeInvalidInput, "--version-for %q: want URI=RANGE", arg)
		}
		if err := addRestriction(&req, arg[:i], arg[i+1:]); err != nil {
			return model.Requirements{}, err
		}
	}
	return req, req.Validate()
}

// apply copies flag overrides onto cfg.
func (f *reqFlags) apply(cfg *config.Config) error {
	if f.networkUse == "" {
		return nil
	}
	nu, err := feed.ParseNetworkUse(f.networkUse)
	if err != nil {
		return err
	}
	cfg.NetworkUse = nu
	return nil
}

func addRestriction(req *model.Requirements, uri, raw string) error {
	rng, err := version.ParseRange(raw)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "version range for %s", uri)
	}
	if req.ExtraRestrictions == nil {
		req.ExtraRestrictions = make(map[string]version.Range)
	}
	if prev, ok := req.ExtraRestrictions[uri]; ok {
		rng = prev.Intersect(rng)
	}
	req.ExtraRestrictions[uri] = rng
	return nil
}
