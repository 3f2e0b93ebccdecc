package main

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/dshills/epicenter/internal/app"
	"github.com/dshills/epicenter/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type rootFlags struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "epicenter",
		Short:         "Dispatch typed events through configured listeners",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a TOML or YAML config file")

	rootCmd.AddCommand(newDispatchCmd(flags))
	rootCmd.AddCommand(newJournalCmd(flags))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// loadApp loads the configuration and builds the application. The caller
// must call closeApp.
func loadApp(ctx context.Context, cmd *cobra.Command, flags *rootFlags) (*app.Application, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg, app.Options{LogOutput: cmd.ErrOrStderr()})
}

// closeApp shuts the application down, logging a failure since the command
// result is already decided.
func closeApp(ctx context.Context, a *app.Application) {
	if err := a.Shutdown(ctx); err != nil {
		a.Logger().Warn("shutdown failed", "error", err)
	}
}
