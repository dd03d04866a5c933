package main

import (
	"path/filepath"

	"github.com/spf13/cobra"
)

func newCheckPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-path <path>",
		Short: "report which installed package, if any, owns a filesystem path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if resolved, err := filepath.EvalSymlinks(abs); err == nil {
				abs = resolved
			}

			owners, err := app.ctx.Store.FindPathOwners(cmd.Context(), abs)
			if err != nil {
				return err
			}

			if len(owners) == 0 {
				app.ctx.Log.Infof("is not owned by any package")
				return nil
			}
			app.ctx.Log.Infof("%q is currently owned by the following packages:", abs)
			for _, name := range owners {
				app.ctx.Log.Infof("  - %s", name)
			}
			return nil
		},
	}
}
