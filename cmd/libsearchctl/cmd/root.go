// Package cmd provides the libsearchctl CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/libarea/search/internal/config"
	"github.com/libarea/search/internal/logging"
	"github.com/libarea/search/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()

	dataDir     string
	backendName string
)

// NewRootCmd creates the root command for libsearchctl.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "libsearchctl",
		Short:   "Full-text index and query over a directory of documents",
		Version: version.Version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate("libsearchctl version {{.Version}}\n")

	root.PersistentFlags().StringVar(&dataDir, "data", ".libsearch", "directory holding the index database")
	root.PersistentFlags().StringVar(&backendName, "backend", "sqlite", "storage backend: sqlite (pure Go) or sqlite3 (cgo)")
	root.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to ~/.libsearch/logs/")

	root.PersistentPreRunE = startLogging
	root.PersistentPostRunE = stopLogging

	root.AddCommand(newIndexCmd())
	root.AddCommand(newQueryCmd())
	root.AddCommand(newEraseCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", logging.DefaultLogPath()))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// loadConfig loads layered configuration for the current working
// directory and overlays the --data/--backend flags, which take
// precedence over any config file. It also ensures the data directory
// exists, since opening the sqlite file fails if its parent doesn't.
func loadConfig(wd string) (*config.Config, error) {
	cfg, err := config.Load(wd)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	cfg.Storage.Path = dataDir + "/index.db"
	if backendName != "" {
		cfg.Storage.Backend = backendName
	}
	return cfg, nil
}
