// Package main provides the entry point for the form autofill agent.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/cv-autofill/internal/config"
	"github.com/jonathan/cv-autofill/internal/observability"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what every subcommand shares once flags are parsed.
type app struct {
	cfg        *config.Config
	configPath string
	debug      bool
	logger     *zap.Logger
	level      zap.AtomicLevel
}

var (
	cli            app
	rootConfigPath string
	rootDebug      bool
)

var rootCmd = &cobra.Command{
	Use:   "autofill_agent",
	Short: "Form autofill agent",
	Long: "Autofill agent scores the inputs of a job application form, fills them from a candidate profile " +
		"and reports what it did. It works on saved HTML files or live pages in a headless browser.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if cli.logger != nil {
			_ = cli.logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "Path to config file (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVar(&rootDebug, "debug", false, "Enable debug logging and the debug report")
}

// setup loads the config and builds the logger for the invoked subcommand.
func setup(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig(rootConfigPath)
	if err != nil {
		return err
	}

	debug := rootDebug || cfg.Debug
	logger, level, err := observability.NewLogger(debug)
	if err != nil {
		return err
	}

	cli = app{
		cfg:        cfg,
		configPath: rootConfigPath,
		debug:      debug,
		logger:     logger,
		level:      level,
	}
	return nil
}

// loadConfig reads path, or starts from an empty config with environment
// overrides applied when no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	cfg := &config.Config{}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("invalid environment override: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
