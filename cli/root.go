// Package cli holds the propadmin commands: the HTTP API server and the
// operator tools that page through collections from a terminal.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/supakorn-kn/propadmin/env"
	"github.com/supakorn-kn/propadmin/logger"
	"go.uber.org/zap"
)

type appKey struct{}

// app is what every command gets from the root pre-run.
type app struct {
	cfg    *env.Env
	logger *zap.Logger
}

func appFrom(ctx context.Context) *app {
	return ctx.Value(appKey{}).(*app)
}

func NewRootCmd() *cobra.Command {

	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "propadmin",
		Short: "Property management admin API and console",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {

			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := env.Load(env.Options{ConfigFile: cfgFile, Flags: cmd.Flags()})
			if err != nil {
				return err
			}

			log, err := logger.Install(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}

			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, &app{cfg: cfg, logger: log}))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, ok := cmd.Context().Value(appKey{}).(*app); ok {
				_ = a.logger.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./propadmin.yaml)")
	rootCmd.PersistentFlags().String("backend", env.MongoDriver, "backend driver (mongo|postgres|postgrest|memory)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json|console)")
	rootCmd.PersistentFlags().String("mongo-uri", "", "mongodb connection uri")

	_ = rootCmd.RegisterFlagCompletionFunc("backend", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return env.Drivers, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newConsoleCommand())
	rootCmd.AddCommand(newSeedCommand())

	return rootCmd
}

func Execute() {

	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
