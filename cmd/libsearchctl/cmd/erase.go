package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/libarea/search/internal/output"
	"github.com/libarea/search/internal/store"
	"github.com/libarea/search/internal/writerlock"
)

func newEraseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "erase",
		Short: "Drop and recreate the index schema, discarding all indexed documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runErase(cmd)
		},
	}
}

func runErase(cmd *cobra.Command) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(wd)
	if err != nil {
		return err
	}

	lock := writerlock.New(cfg.Storage.Path)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire writer lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	s, err := store.NewWithBackend(cfg.Storage.Backend, store.Config{
		Path:                 cfg.Storage.Path,
		TablePrefix:          cfg.Storage.TablePrefix,
		ExcludeWordThreshold: cfg.Storage.ExcludeWordThreshold,
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { _ = s.Close() }()

	if err := s.Erase(cmd.Context()); err != nil {
		return err
	}
	output.New(cmd.OutOrStdout()).Success("index erased")
	return nil
}
