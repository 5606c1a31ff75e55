package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/victorarias/todos/internal/config"
	"github.com/victorarias/todos/internal/logging"
	"github.com/victorarias/todos/internal/session"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "todos",
	Short:         "Session-backed todo lists web app",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "todos %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
	},
}

func init() {
	defaultPath, err := config.Path()
	if err != nil {
		defaultPath = "config.toml"
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultPath, "Config file path")
	rootCmd.AddCommand(serveCmd, migrateCmd, sessionsCmd, configCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, then applies environment overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := config.ApplyEnv(&cfg, os.Getenv); err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config, component string) *slog.Logger {
	return logging.New(cfg.Server.LogLevel, cfg.Server.LogFormat, os.Stdout).With("component", component)
}

// openStore opens the configured session store and, for SQL stores, applies
// migrations when migrate is set.
func openStore(ctx context.Context, cfg config.Config, migrate bool) (session.Store, error) {
	store, err := session.Open(ctx, cfg.Session.Store, cfg.Session.DSN)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	sqlStore, ok := store.(*session.SQLStore)
	if !ok || !migrate {
		return store, nil
	}
	if err := session.RunMigrations(ctx, sqlStore.DB(), sqlStore.Dialect()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return store, nil
}
