// Package cli holds the start-up shared by the command line tools.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nothsreports/internal/config"
	"nothsreports/internal/logging"
)

// Common are the flags every tool accepts.
type Common struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
}

func (c *Common) Register(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&c.ConfigPath, "config", "", "YAML config file")
	f.StringVar(&c.EnvFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	f.StringVar(&c.LogLevel, "log-level", "", "override the configured log level")
}

// Load reads the dotenv file (if present), the config and builds the
// logger.
func (c *Common) Load() (*config.Config, *zap.Logger, error) {
	if c.EnvFile != "" {
		if _, err := os.Stat(c.EnvFile); err == nil {
			if err := godotenv.Load(c.EnvFile); err != nil {
				return nil, nil, fmt.Errorf("load %s: %w", c.EnvFile, err)
			}
		}
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if c.LogLevel != "" {
		cfg.Logger.Level = c.LogLevel
	}
	log, err := logging.New(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// Execute runs cmd and exits 1 with the error on failure.
func Execute(cmd *cobra.Command) {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
