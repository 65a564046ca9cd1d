// Package cmd provides the CLI commands for rankfuse.
package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rankfuse/rankfuse/internal/config"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
	corpusPath string
	table      string
	logLevel   string
}

// NewRootCmd creates the root command for the rankfuse CLI.
func NewRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "rankfuse",
		Short: "Hybrid retrieval over a passage corpus",
		Long: `rankfuse ranks the passages of a corpus against a query by
combining BM25 keyword scoring and embedding similarity with
Reciprocal Rank Fusion, optionally refined by a cross-encoder
reranking stage.

Corpora load from a YAML file or a SQLite database.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(opts.logLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file")
	cmd.PersistentFlags().StringVar(&opts.corpusPath, "corpus", "", "Path to corpus (.yaml or .db/.sqlite)")
	cmd.PersistentFlags().StringVar(&opts.table, "table", "passages", "Table name for SQLite corpora")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(newSearchCmd(&opts))
	cmd.AddCommand(newCompareCmd(&opts))
	cmd.AddCommand(newConfigCmd(&opts))

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// setupLogging installs a text slog handler on stderr at the requested
// level. The config file's log_level applies unless the flag overrides it.
func setupLogging(level string) {
	slogLevel := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(handler))
}

// loadConfig reads the config file and lets the --log-level flag win
// over the configured level.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.logLevel == "" {
		setupLogging(cfg.LogLevel)
	}
	return cfg, nil
}
