package cmd

import (
	"errors"
	"fmt"
	"os"
	"rewatch/internal/config"
	"rewatch/internal/daemon"
	"rewatch/internal/logger"

	"github.com/spf13/cobra"
)

const (
	exitError       = 1
	exitConfigError = 2
	exitWatchError  = 3
)

var (
	cfg   *config.Config
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "rewatch",
	Short: "Rerun a command whenever watched files change",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		logger.Init(debug)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return &daemon.ConfigError{Err: err}
		}

		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var configErr *daemon.ConfigError
	if errors.As(err, &configErr) {
		return exitConfigError
	}
	var watchErr *daemon.WatchSetupError
	if errors.As(err, &watchErr) {
		return exitWatchError
	}
	return exitError
}

func daemonURL(path string) string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", cfg.DaemonPort, path)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
}
