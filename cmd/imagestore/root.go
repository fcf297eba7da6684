package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alexjoedt/imagestore/internal/config"
	"github.com/alexjoedt/imagestore/internal/logging"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	v          *viper.Viper
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:           "imagestore",
		Short:         "Stores uploaded images by type and serves them back as a base64 catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	flags.String("root", "", "Storage root directory (default \"transferred_images\")")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text or json")

	for key, name := range map[string]string{
		"storage.root": "root",
		"log.level":    "log-level",
		"log.format":   "log-format",
	} {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Errorf("failed to bind flag %q: %w", name, err))
		}
	}

	root.AddCommand(
		newServeCmd(a),
		newCatalogCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger, err := logging.CreateLogger(cmd.ErrOrStderr(), level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}
