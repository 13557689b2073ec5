package cmd

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/libarea/search/internal/extract"
	"github.com/libarea/search/internal/index"
	"github.com/libarea/search/internal/model"
	"github.com/libarea/search/internal/output"
	"github.com/libarea/search/internal/stem"
	"github.com/libarea/search/internal/store"
	"github.com/libarea/search/internal/writerlock"
)

type indexOptions struct {
	title string
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index <file>...",
		Short: "Index one or more plain-text documents",
		Long: `Index reads each file, computes its content hash, and writes or
updates its entry in the full-text index. A file whose hash is unchanged
since the last run is skipped.

The external id is the file's base name without its extension.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "title for the single indexed document (ignored for multiple files)")

	return cmd
}

func runIndex(cmd *cobra.Command, paths []string, opts indexOptions) error {
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

	ix := index.New(s, extract.PlainTextExtractor{}, stem.Identity{}, nil)
	ix.MaxTokenLength = cfg.Index.MaxTokenLength
	ix.AutoErase = cfg.Index.AutoErase

	ctx := cmd.Context()
	out := output.New(cmd.OutOrStdout())

	for _, path := range paths {
		doc, err := readIndexable(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if len(paths) == 1 && opts.title != "" {
			doc.Title = opts.title
		}
		if err := ix.Index(ctx, doc); err != nil {
			return fmt.Errorf("index %s: %w", path, err)
		}
		out.Successf("indexed %s (%s)", path, doc.ExternalID.String())
	}

	return nil
}

func readIndexable(path string) (model.Indexable, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return model.Indexable{}, err
	}
	sum := sha256.Sum256(content)
	return model.Indexable{
		ExternalID: model.New(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))),
		Title:      filepath.Base(path),
		Content:    string(content),
		Hash:       hex.EncodeToString(sum[:]),
	}, nil
}
