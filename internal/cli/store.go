package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/feedsolve/pkg/errors"
	"github.com/matzehuels/feedsolve/pkg/model"
	"github.com/matzehuels/feedsolve/pkg/store"
)

// storeCommand creates the implementation store command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect and prune the implementation store",
	}

	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeRemoveCommand())

	return cmd
}

func (c *CLI) openDirStore() (*store.DirStore, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return store.NewDirStore(cfg.StoreDirs...)
}

// storeListCommand creates the "store list" subcommand.
func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored implementations",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openDirStore()
			if err != nil {
				return err
			}
			digests, err := st.List()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(digests) == 0 {
				printInfo(w, "Store is empty")
				return nil
			}
			for _, d := range digests {
				path, _ := st.GetPath(d)
				fmt.Fprintf(w, "%s %s\n", d.Best(), StyleDim.Render(path))
			}
			return nil
		},
	}
}

// storeRemoveCommand creates the "store remove" subcommand.
func (c *CLI) storeRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID...",
		Short: "Delete implementations from the writable store directory",
		Long: `Delete implementations from the first store directory. IDs are digest
identifiers as printed by "store list", e.g. sha256new_ABC.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digests := make([]model.ManifestDigest, len(args))
			for i, id := range args {
				d, ok := model.ParseDigestID(id)
				if !ok {
					return errs.New(errs.ErrCodeInvalidInput, "%q is not an implementation digest", id)
				}
				digests[i] = d
			}

			st, err := c.openDirStore()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i, d := range digests {
				if err := st.Remove(d); err != nil {
					return err
				}
				printSuccess(w, "Removed %s", args[i])
			}
			return nil
		},
	}
}
