package main

import (
	"context"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/lodosgroup/lpm/internal/catalog"
	"github.com/lodosgroup/lpm/internal/config"
	"github.com/lodosgroup/lpm/internal/lifecycle"
	"github.com/lodosgroup/lpm/internal/lock"
	"github.com/lodosgroup/lpm/internal/lpmctx"
	"github.com/lodosgroup/lpm/internal/termui"
	"github.com/lodosgroup/lpm/internal/version"
)

const (
	corePath   = "/var/lib/lpm/db/core-db"
	repoDBRoot = "/var/lib/lpm/db/repositories"
	locksRoot  = "/var/lib/lpm/pkg/.locks"
)

var forceYes bool

// application bundles the handles every subcommand needs, opened once
// in the root command's PersistentPreRunE and shared by every verb.
type application struct {
	ctx    *lpmctx.Ctx
	engine *lifecycle.Engine
	cfg    config.Config
}

var app *application

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lpm",
		Short:         "Linux package manager",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApplication(cmd.Context())
			if err != nil {
				return err
			}
			app = a
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&forceYes, "yes", "y", false, "suppress confirmation prompts")

	root.AddCommand(
		newInstallCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newModuleCmd(),
		newRepositoryCmd(),
		newCheckPathCmd(),
	)
	return root
}

func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		cfg = config.Config{CacheRoot: config.DefaultCacheRoot}
	}

	store, err := catalog.Open(ctx, corePath)
	if err != nil {
		return nil, err
	}

	log := termui.New(os.Stdout, os.Stderr)
	log.ForceYes = forceYes

	lpmCtx := &lpmctx.Ctx{
		Store:    store,
		Locks:    lock.NewTable(locksRoot),
		Log:      log,
		ForceYes: forceYes,
	}

	selfVersion, err := version.Parse(engineVersion)
	if err != nil {
		return nil, err
	}

	engine := &lifecycle.Engine{
		Ctx:         lpmCtx,
		CorePath:    corePath,
		HostArch:    runtime.GOARCH,
		SelfVersion: selfVersion,
		CacheRoot:   cfg.CacheRoot,
	}

	return &application{ctx: lpmCtx, engine: engine, cfg: cfg}, nil
}
