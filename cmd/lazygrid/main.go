package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazygrid/internal/config"
	"github.com/rebeliceyang/lazygrid/internal/logger"
)

var (
	configPath string
	logLevel   string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "lazygrid",
	Short:         "Query local rows, OData endpoints and SQL tables page by page",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		out, err := logOutput(cmd)
		if err != nil {
			return err
		}
		logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: out})
		return nil
	},
}

// logOutput picks the log destination. The grid browser owns the terminal,
// so it logs nowhere unless a log file is configured.
func logOutput(cmd *cobra.Command) (io.Writer, error) {
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return f, nil
	}
	if cmd.Name() == "browse" {
		return io.Discard, nil
	}
	return os.Stderr, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: search lazygrid/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(newURLCmd(), newQueryCmd(), newServeCmd(), newBrowseCmd(), newFavoritesCmd(), newHistoryCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
