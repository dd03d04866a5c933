package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lodosgroup/lpm/internal/catalog"
)

func newRepositoryCmd() *cobra.Command {
	var add []string
	var del string
	var list bool

	cmd := &cobra.Command{
		Use:   "repository",
		Short: "register, remove, or list package repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			switch {
			case len(add) > 0:
				if len(add) != 2 {
					return fmt.Errorf("repository --add requires exactly <name> <address>")
				}
				name, address := add[0], add[1]
				r := catalog.Repository{
					Name:        name,
					Address:     address,
					IndexDBPath: filepath.Join(repoDBRoot, name),
					IsActive:    true,
				}
				if _, err := app.ctx.Store.InsertRepository(ctx, r); err != nil {
					return err
				}
				app.ctx.Log.Okf("registered repository %s (%s)", name, address)
				return nil

			case del != "":
				if err := app.ctx.Store.DeleteRepository(ctx, del); err != nil {
					return err
				}
				app.ctx.Log.Okf("deleted repository %s", del)
				return nil

			case list:
				repos, err := app.ctx.Store.ListActiveRepositories(ctx)
				if err != nil {
					return err
				}
				for _, r := range repos {
					app.ctx.Log.Infof("%s\t%s", r.Name, r.Address)
				}
				return nil

			default:
				return cmd.Help()
			}
		},
	}

	cmd.Flags().StringSliceVar(&add, "add", nil, "register a repository: --add <name>,<address>")
	cmd.Flags().StringVar(&del, "delete", "", "remove a repository by name")
	cmd.Flags().BoolVar(&list, "list", false, "list active repositories")
	return cmd
}
