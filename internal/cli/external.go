package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/feedsolve/pkg/model"
)

// solveExternalCommand creates the solve-external command. It speaks the
// external solver protocol: requirements as arguments, a selections
// document on stdout, exit status 1 when no selection exists and 2 on
// any other error.
func (c *CLI) solveExternalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "solve-external [--command NAME] [--os OS] [--cpu CPU] [--source] [--language L] [--version-for URI RANGE] URI",
		Short: "Solve requirements given in the external solver argument format",
		Long: `Solve requirements given in the argument format used between solvers and
print the selections document on stdout. Another feedsolve (or any tool
that speaks the same protocol) can use this command via select --external.`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			req, err := model.ParseArgs(args)
			if err != nil {
				return withExitCode(ExitUsage, err)
			}
			cfg, err := c.loadConfig()
			if err != nil {
				return withExitCode(ExitUsage, err)
			}
			e, err := c.newEnv(ctx, cfg)
			if err != nil {
				return withExitCode(ExitUsage, err)
			}
			defer e.Close()

			res, err := e.solver(0).TrySolve(ctx, req)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				return withExitCode(ExitUsage, err)
			}
			if !res.Solved() {
				fmt.Fprintln(cmd.ErrOrStderr(), res.Failure.String())
				return reported(ExitNoSolution, res.Failure)
			}
			return res.Selections.Encode(cmd.OutOrStdout())
		},
	}
}
