package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/feedsolve/pkg/render"
	"github.com/matzehuels/feedsolve/pkg/selection"
)

// candidatesCommand creates the candidates command.
func (c *CLI) candidatesCommand() *cobra.Command {
	var rf reqFlags
	var iface string

	cmd := &cobra.Command{
		Use:   "candidates URI",
		Short: "List the ranked candidates for an interface",
		Long: `List every implementation considered for URI (or for --interface when
solving URI), best first, with the reason each unusable one is excluded.

The ranking ignores dependencies: the first usable candidate is not
necessarily the one select will choose.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := rf.apply(&cfg); err != nil {
				return err
			}
			req, err := rf.requirements(cmd, args[0], cfg)
			if err != nil {
				return err
			}
			e, err := c.newEnv(ctx, cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			uri := iface
			if uri == "" {
				uri = req.InterfaceURI
			}
			cands, err := e.solver(0).Candidates(ctx, req, uri)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(cands) == 0 {
				printWarning(w, "No implementations of %s", uri)
				return nil
			}
			suitable := 0
			rows := make([][]string, 0, len(cands))
			for _, cand := range cands {
				status := cand.Reason.String()
				if cand.Suitable() {
					suitable++
					status = cachedTag(cand.Cached)
				}
				rows = append(rows, []string{
					cand.Impl.Version.String(),
					cand.Stability.String(),
					cand.Impl.Architecture.String(),
					render.Source(selection.FromImplementation(cand.Impl)),
					status,
				})
			}

			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("Version", "Stability", "Arch", "Source", "Status").
				Rows(rows...)

			fmt.Fprintln(w, StyleTitle.Render(shortURI(uri)))
			fmt.Fprintln(w, t.Render())
			printDetail(w, "%d of %d usable", suitable, len(cands))
			return nil
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVar(&iface, "interface", "", "list candidates of this dependency instead of the root")

	return cmd
}
