package cmd

import (
	"context"
	"maps"
	"os/signal"
	"rewatch/internal/daemon"
	"rewatch/internal/db"
	"rewatch/internal/logger"
	"rewatch/internal/repository"
	"rewatch/internal/runner"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	watchEnv       map[string]string
	watchNoServer  bool
	watchNoHistory bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] -- <command> [args...]",
	Short: "Watch files and rerun a command on every change",
	Example: `  rewatch -p '*.rs' -p '*.py' -- cargo test
  rewatch -p 'src/**/*.go' -d 250ms -e GOFLAGS=-count=1 -- go test ./...`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return &daemon.ConfigError{Err: err}
	}

	argv := cfg.Command
	if len(args) > 0 {
		argv = args
	}

	env := maps.Clone(cfg.Env)
	if env == nil {
		env = make(map[string]string)
	}
	maps.Copy(env, watchEnv)

	opts := daemon.Options{
		Root:     cfg.Root,
		Patterns: cfg.Patterns,
		Ignore:   cfg.IgnoreList,
		Command: runner.Command{
			Argv: argv,
			Env:  env,
		},
		Debounce:     cfg.Debounce,
		Grace:        cfg.GracePeriod,
		BufferSize:   cfg.BufferSize,
		Poll:         cfg.Poll,
		PollInterval: cfg.PollInterval,
		InitialRun:   cfg.InitialRun,
	}

	var history daemon.History
	if !watchNoHistory && cfg.DBPath != "" {
		if err := db.Init(cfg.DBPath); err != nil {
			logger.Log.Warn("run history disabled",
				zap.String("db_path", cfg.DBPath),
				zap.Error(err))
		} else {
			defer func() {
				_ = db.Close()
			}()
			repo := repository.NewRunRepository()
			opts.Recorder = repo
			history = repo
		}
	}

	loop, err := daemon.NewLoop(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !watchNoServer && cfg.DaemonPort > 0 {
		srv := daemon.NewServer(loop, history, cfg.DaemonPort)
		srv.Start()

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(shutdownCtx)
		}()

		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()

		go func() {
			select {
			case <-srv.StopCh():
				logger.Log.Info("stop requested via API")
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	if err := loop.Run(ctx); err != nil {
		return err
	}

	logger.Log.Info("rewatch stopped",
		zap.Int("runs", loop.Snapshot().Runs))
	return nil
}

func init() {
	f := watchCmd.Flags()
	f.StringSliceP("pattern", "p", nil, "glob of files to watch, repeatable (e.g. '*.rs', 'src/**/*.go')")
	f.StringSliceP("ignore", "i", nil, "glob of paths to ignore, replaces the default ignore list")
	f.DurationP("debounce", "d", 0, "quiet period before a burst of changes triggers a run (0 runs on every change)")
	f.Duration("grace", 0, "time a cancelled run gets to exit before it is killed")
	f.String("root", "", "directory to watch")
	f.Bool("poll", false, "poll the filesystem instead of using change notifications")
	f.Duration("poll-interval", 0, "interval between polls when --poll is set")
	f.Bool("initial-run", false, "run the command once at startup")
	f.StringToStringVarP(&watchEnv, "env", "e", nil, "extra environment for the command, KEY=VALUE, repeatable")
	f.BoolVar(&watchNoServer, "no-server", false, "do not start the control server")
	f.BoolVar(&watchNoHistory, "no-history", false, "do not record runs")

	_ = viper.BindPFlag("patterns", f.Lookup("pattern"))
	_ = viper.BindPFlag("ignore_list", f.Lookup("ignore"))
	_ = viper.BindPFlag("debounce", f.Lookup("debounce"))
	_ = viper.BindPFlag("grace_period", f.Lookup("grace"))
	_ = viper.BindPFlag("root", f.Lookup("root"))
	_ = viper.BindPFlag("poll", f.Lookup("poll"))
	_ = viper.BindPFlag("poll_interval", f.Lookup("poll-interval"))
	_ = viper.BindPFlag("initial_run", f.Lookup("initial-run"))

	rootCmd.AddCommand(watchCmd)
}
