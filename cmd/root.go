package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/levelup/internal/config"
	"github.com/abhisek/levelup/internal/logging"
	"github.com/abhisek/levelup/internal/store"
)

var rootCmd = &cobra.Command{
	Use:          "levelup",
	Short:        "English placement test bot",
	Long:         "levelup runs an English placement quiz over Telegram or the console and tracks each learner's level and weak topics.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ./levelup.yaml if present)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides LEVELUP_DB env var)")
	rootCmd.PersistentFlags().String("bank", "", "Path to the question bank JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(bankCmd)
	rootCmd.AddCommand(versionCmd)
}

// runtime is the configuration and logger shared by every command.
type runtime struct {
	cfg *config.Config
	log *zap.Logger
}

// loadRuntime reads .env, the config file and the persistent flags, in
// increasing priority, and builds the logger.
func loadRuntime(cmd *cobra.Command) (*runtime, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if p, _ := cmd.Flags().GetString("bank"); p != "" {
		cfg.Bank.Path = p
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		cfg.Log.Level = l
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &runtime{cfg: cfg, log: log}, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then store.sqlite_path / LEVELUP_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.Store.SQLitePath != "" {
		return cfg.Store.SQLitePath, store.EnsureDir(cfg.Store.SQLitePath)
	}
	return store.DefaultDBPath()
}
