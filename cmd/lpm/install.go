package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
)

func newInstallCmd() *cobra.Command {
	var localPath string

	cmd := &cobra.Command{
		Use:   "install [name@constraint]",
		Short: "install a package from a repository, or a local blob with --local",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if localPath != "" {
				return app.engine.InstallFromFile(cmd.Context(), localPath, "", sql.NullInt64{})
			}
			if len(args) != 1 {
				return fmt.Errorf("install requires a name@constraint argument, or --local <path>")
			}
			return app.engine.InstallFromRepository(cmd.Context(), args[0], sql.NullInt64{})
		},
	}

	cmd.Flags().StringVar(&localPath, "local", "", "install from a .lod file already on disk, ignoring the repository index")
	return cmd
}
