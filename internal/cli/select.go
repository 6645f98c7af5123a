package cli

import (
	"context"
	"fmt"
	"io"
	"maps"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/feedsolve/pkg/config"
	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/render"
	"github.com/matzehuels/feedsolve/pkg/solver"
	"github.com/matzehuels/feedsolve/pkg/version"
)

// Output formats of the select command.
const (
	formatText = "text"
	formatXML  = "xml"
	formatYAML = "yaml"
)

type selectOptions struct {
	req      reqFlags
	format   string
	xml      bool
	output   string
	external string
	pick     bool
}

// selectCommand creates the select command.
func (c *CLI) selectCommand() *cobra.Command {
	var opts selectOptions

	cmd := &cobra.Command{
		Use:   "select URI",
		Short: "Select implementations of URI and all its dependencies",
		Long: `Select one implementation of URI and of every interface it depends on.

URI is a feed URL or the absolute path of a local feed. The result is
printed as a summary, or as a selections document with --xml.`,
		Example: `  feedsolve select http://example.com/app.xml
  feedsolve select --source --version '2.0..!3.0' http://example.com/app.xml
  feedsolve select --xml -o app.sels.xml /home/me/feeds/app.xml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.xml {
				opts.format = formatXML
			}
			return c.runSelect(cmd, args[0], &opts)
		},
	}

	opts.req.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format: text, xml or yaml")
	cmd.Flags().BoolVar(&opts.xml, "xml", false, "print the selections document (same as --format xml)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the result to a file instead of stdout")
	cmd.Flags().StringVar(&opts.external, "external", "", `external solver command tried when the built-in solvers fail with an error, e.g. "feedsolve solve-external"`)
	cmd.Flags().BoolVar(&opts.pick, "pick", false, "choose the root version interactively")

	return cmd
}

func (c *CLI) runSelect(cmd *cobra.Command, uri string, opts *selectOptions) error {
	switch opts.format {
	case formatText, formatXML, formatYAML:
	default:
		return errs.New(errs.ErrCodeInvalidInput, "unknown format %q (want text, xml or yaml)", opts.format)
	}

	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if err := opts.req.apply(&cfg); err != nil {
		return err
	}
	req, err := opts.req.requirements(cmd, uri, cfg)
	if err != nil {
		return err
	}

	e, err := c.newEnv(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	if opts.pick {
		if req, err = pickRoot(ctx, cmd, e, req); err != nil {
			return err
		}
	}

	engine, err := e.engine(opts.external)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	spinner := newSpinner(ctx, cmd.ErrOrStderr(), "Solving "+shortURI(uri))
	spinner.Start()
	res, err := engine.TrySolve(ctx, req)
	spinner.Stop()
	if err != nil {
		return err
	}
	if !res.Solved() {
		printFailure(cmd.ErrOrStderr(), res.Failure)
		return reported(ExitNoSolution, errs.Wrap(errs.ErrCodeNoSolution, res.Failure, "cannot select %s", uri))
	}
	prog.done(fmt.Sprintf("Solved %s", shortURI(uri)))

	err = writeOutput(opts.output, cmd.OutOrStdout(), func(out io.Writer) error {
		switch opts.format {
		case formatXML:
			return res.Selections.Encode(out)
		case formatYAML:
			return writeSummary(out, res)
		}
		printResult(out, res)
		return nil
	})
	if err != nil {
		return err
	}
	if opts.output != "" {
		printFile(cmd.ErrOrStderr(), opts.output)
	}
	return nil
}

// pickRoot lets the user choose the root implementation. The choice is
// pinned by an exact version restriction and marked preferred so that the
// chosen implementation wins among builds of the same version.
func pickRoot(ctx context.Context, cmd *cobra.Command, e *env, req model.Requirements) (model.Requirements, error) {
	cands, err := e.solver(0).Candidates(ctx, req, req.InterfaceURI)
	if err != nil {
		return req, err
	}
	p := tea.NewProgram(NewCandidateListModel(req.InterfaceURI, cands),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.ErrOrStderr()),
	)
	final, err := p.Run()
	if err != nil {
		return req, fmt.Errorf("version picker: %w", err)
	}
	chosen := final.(CandidateListModel).Selected
	if chosen == nil {
		return req, fmt.Errorf("no version chosen: %w", context.Canceled)
	}
	return pin(req, &e.cfg, chosen), nil
}

func pin(req model.Requirements, cfg *config.Config, c *solver.Candidate) model.Requirements {
	rng := version.Exact(c.Impl.Version)
	restrictions := maps.Clone(req.ExtraRestrictions)
	if restrictions == nil {
		restrictions = make(map[string]version.Range)
	}
	if prev, ok := restrictions[req.InterfaceURI]; ok {
		rng = prev.Intersect(rng)
	}
	restrictions[req.InterfaceURI] = rng
	req.ExtraRestrictions = restrictions

	impls := maps.Clone(cfg.Implementations)
	if impls == nil {
		impls = make(map[string]config.ImplementationPreferences)
	}
	prefs := impls[c.Impl.ID]
	prefs.UserStability = model.StabilityPreferred
	impls[c.Impl.ID] = prefs
	cfg.Implementations = impls
	return req
}

// =============================================================================
// Result Output
// =============================================================================

func printResult(w io.Writer, res *solver.Result) {
	sels := res.Selections
	root := sels.Root()
	printSuccess(w, "Selected %s %s", StyleHighlight.Render(shortURI(sels.InterfaceURI)), StyleValue.Render(root.Version.String()))
	if sels.Command != "" {
		printKeyValue(w, "command", sels.Command)
	}
	for _, sel := range sels.Implementations {
		fmt.Fprintf(w, "  %-40s %-12s %s\n",
			StyleHighlight.Render(shortURI(sel.InterfaceURI)),
			StyleValue.Render(sel.Version.String()),
			StyleDim.Render(render.Source(sel)))
	}
	for _, o := range res.Omitted {
		printWarning(w, "omitted %s (recommended by %s): %s", shortURI(o.InterfaceURI), o.RequiredBy, o.Reason)
	}
	printStats(w, len(sels.Implementations), len(res.Omitted), res.Backtracks)
	printNextStep(w, "Save the selections", fmt.Sprintf("%s select --xml -o sels.xml %s", appName, sels.InterfaceURI))
}

func writeSummary(w io.Writer, res *solver.Result) error {
	s := render.NewSummary(res.Selections)
	for _, o := range res.Omitted {
		s.Omitted = append(s.Omitted, render.OmittedEntry{Interface: o.InterfaceURI, RequiredBy: o.RequiredBy, Reason: o.Reason})
	}
	data, err := s.YAML()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// printFailure explains a failed solve, one block per interface with
// rejected candidates.
func printFailure(w io.Writer, f *solver.Failure) {
	printError(w, "%s", f.Error())
	for _, r := range f.Interfaces {
		if len(r.Rejected) == 0 && r.FeedError == "" {
			continue
		}
		printInfo(w, "%s %s", StyleHighlight.Render(shortURI(r.InterfaceURI)), StyleDim.Render(fmt.Sprintf("(%d candidates)", r.Candidates)))
		if r.FeedError != "" {
			printDetail(w, "feed: %s", r.FeedError)
		}
		for _, rej := range r.Rejected {
			line := fmt.Sprintf("%s (%s): %s", rej.Version, rej.ID, rej.Reason)
			if rej.Detail != "" {
				line += ": " + rej.Detail
			}
			printDetail(w, "%s", line)
		}
	}
}
