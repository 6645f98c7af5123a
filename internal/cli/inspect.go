package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/feedsolve/pkg/config"
	"github.com/matzehuels/feedsolve/pkg/distro"
	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/render"
	"github.com/matzehuels/feedsolve/pkg/selection"
	"github.com/matzehuels/feedsolve/pkg/store"
)

// readSelections loads a selections document from path, or stdin for "-".
func readSelections(cmd *cobra.Command, path string) (*selection.Selections, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeNotFound, err, "open selections")
		}
		defer f.Close()
		r = f
	}
	sels, err := selection.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sels, nil
}

// openStore opens the configured implementation store. A store that cannot
// be opened is treated as empty.
func openStore(ctx context.Context, cfg config.Config) store.Store {
	st, err := store.NewDirStore(cfg.StoreDirs...)
	if err != nil {
		loggerFromContext(ctx).Warn("implementation store unavailable", "err", err)
		return nil
	}
	return st
}

// createOutput opens an output file; tests replace it.
var createOutput = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// writeOutput runs write against path, or against stdout when path is
// empty. A file that fails to close is reported as an error.
func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := createOutput(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// diff
// =============================================================================

func (c *CLI) diffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "Show how two selections documents differ",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := readSelections(cmd, args[0])
			if err != nil {
				return err
			}
			after, err := readSelections(cmd, args[1])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			changes := selection.GetDiff(before, after)
			if len(changes) == 0 {
				printInfo(w, "No changes")
				return nil
			}
			for _, ch := range changes {
				switch ch.Kind {
				case selection.Added:
					fmt.Fprintf(w, "%s %s %s\n", styleAdded.Render("+"), ch.InterfaceURI, ch.NewVersion)
				case selection.Removed:
					fmt.Fprintf(w, "%s %s %s\n", styleRemoved.Render("-"), ch.InterfaceURI, ch.OldVersion)
				default:
					fmt.Fprintf(w, "%s %s %s %s %s\n", styleUpdated.Render("~"), ch.InterfaceURI, ch.OldVersion, iconArrow, ch.NewVersion)
				}
			}
			return nil
		},
	}
}

// =============================================================================
// tree
// =============================================================================

func (c *CLI) treeCommand() *cobra.Command {
	var format, output string
	var detailed bool

	cmd := &cobra.Command{
		Use:   "tree FILE",
		Short: "Show the dependency tree of a selections document",
		Long: `Show the dependency tree of a selections document (use - for stdin).

The text format prints one interface per line with the location of cached
implementations. The dot and svg formats draw the full dependency graph
including runner and recommended edges.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "text", "dot", "svg":
			default:
				return errs.New(errs.ErrCodeInvalidInput, "unknown format %q (want text, dot or svg)", format)
			}
			ctx := cmd.Context()
			sels, err := readSelections(cmd, args[0])
			if err != nil {
				return err
			}

			var st store.Store
			if format == "text" {
				cfg, err := c.loadConfig()
				if err != nil {
					return err
				}
				st = openStore(ctx, cfg)
			}
			err = writeOutput(output, cmd.OutOrStdout(), func(out io.Writer) error {
				switch format {
				case "text":
					return render.WriteTree(out, selection.GetTree(sels, st))
				case "dot":
					_, err := io.WriteString(out, render.ToDOT(sels, render.Options{Detailed: detailed}))
					return err
				case "svg":
					svg, err := render.RenderSVG(ctx, render.ToDOT(sels, render.Options{Detailed: detailed}))
					if err != nil {
						return err
					}
					_, err = out.Write(svg)
					return err
				}
				return nil
			})
			if err != nil {
				return err
			}
			if output != "" {
				printFile(cmd.ErrOrStderr(), output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, dot or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include implementation IDs and sources in graph labels")

	return cmd
}

// =============================================================================
// uncached
// =============================================================================

func (c *CLI) uncachedCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "uncached FILE",
		Short: "List selections that still need to be downloaded",
		Long: `List the selections of a document (use - for stdin) that are not yet
available locally. Exits with status 1 when anything is missing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sels, err := readSelections(cmd, args[0])
			if err != nil {
				return err
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			st := openStore(ctx, cfg)
			pm := distro.Detect()

			w := cmd.OutOrStdout()
			if all {
				for _, sel := range sels.Implementations {
					cached, err := selection.IsCached(ctx, sel, st, pm)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%s %s %s\n", sel.InterfaceURI, sel.Version, cachedTag(cached))
				}
			}

			missing, err := selection.GetUncached(ctx, sels, st, pm)
			if err != nil {
				return err
			}
			if len(missing) == 0 {
				printSuccess(w, "All %d selections are cached", len(sels.Implementations))
				return nil
			}
			if !all {
				for _, sel := range missing {
					fmt.Fprintf(w, "%s %s %s\n", sel.InterfaceURI, sel.Version, StyleDim.Render(render.Source(sel)))
				}
			}
			return reported(ExitFailure, errs.New(errs.ErrCodeNotFound, "%d of %d selections need downloading", len(missing), len(sels.Implementations)))
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "show the cache status of every selection")

	return cmd
}
