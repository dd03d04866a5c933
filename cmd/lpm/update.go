package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUpdateCmd() *cobra.Command {
	var localPath string

	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "upgrade or downgrade an installed package to the version in --local",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if localPath == "" {
				return fmt.Errorf("update requires --local <path>; fetching an update directly from a repository index is not yet wired")
			}
			return app.engine.Update(cmd.Context(), args[0], localPath)
		},
	}

	cmd.Flags().StringVar(&localPath, "local", "", "the .lod file to update to")
	return cmd
}
