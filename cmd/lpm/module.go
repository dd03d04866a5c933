package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lodosgroup/lpm/internal/config"
	"github.com/lodosgroup/lpm/internal/module"
)

func newModuleCmd() *cobra.Command {
	var add, dylibPath string
	var del []string
	var list bool

	cmd := &cobra.Command{
		Use:   "module [name] [-- argv...]",
		Short: "register, remove, list, or trigger dynamic-library extension modules",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			switch {
			case add != "":
				if dylibPath == "" {
					return fmt.Errorf("module --add requires --dylib <path>")
				}
				if _, err := module.AddModule(ctx, app.ctx.Store, add, dylibPath); err != nil {
					return err
				}
				app.ctx.Log.Okf("registered module %s", add)
				return nil

			case len(del) > 0:
				if err := module.DeleteModules(ctx, app.ctx.Store, del); err != nil {
					return err
				}
				app.ctx.Log.Okf("deleted %d module(s)", len(del))
				return nil

			case list:
				mods, err := module.PrintModules(ctx, app.ctx.Store)
				if err != nil {
					return err
				}
				for _, m := range mods {
					app.ctx.Log.Infof("%s\t%s", m.Name, m.DylibPath)
				}
				return nil

			case len(args) >= 1:
				return module.TriggerModule(ctx, app.ctx.Store, config.DefaultPath, corePath, args[0], args[1:])

			default:
				return cmd.Help()
			}
		},
	}

	cmd.Flags().StringVar(&add, "add", "", "register a module under this name")
	cmd.Flags().StringVar(&dylibPath, "dylib", "", "path to the module's shared library, used with --add")
	cmd.Flags().StringSliceVar(&del, "delete", nil, "remove one or more modules by name")
	cmd.Flags().BoolVar(&list, "list", false, "list registered modules")
	return cmd
}
