package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/libarea/search/internal/engine"
	"github.com/libarea/search/internal/snippet"
	"github.com/libarea/search/internal/stem"
	"github.com/libarea/search/internal/store"
)

type queryOptions struct {
	limit  int
	offset int
}

func newQueryCmd() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <words...>",
		Short: "Search the index and print ranked results with snippets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "number of leading results to skip")

	return cmd
}

func runQuery(cmd *cobra.Command, queryText string, opts queryOptions) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(wd)
	if err != nil {
		return err
	}

	s, err := store.NewWithBackend(cfg.Storage.Backend, store.Config{
		Path:                 cfg.Storage.Path,
		TablePrefix:          cfg.Storage.TablePrefix,
		ExcludeWordThreshold: cfg.Storage.ExcludeWordThreshold,
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { _ = s.Close() }()

	snipCfg := snippet.DefaultConfig()
	if cfg.Snippet.HighlightTemplate != "" {
		snipCfg.HighlightTemplate = cfg.Snippet.HighlightTemplate
	}
	if cfg.Snippet.LineSeparator != "" {
		snipCfg.LineSeparator = cfg.Snippet.LineSeparator
	}
	if len(cfg.Snippet.MaskRegexArray) > 0 {
		maskRegexes, err := cfg.CompileMaskRegexArray()
		if err != nil {
			return err
		}
		snipCfg.HighlightMaskRegexArray = maskRegexes
	}

	eng := engine.New(s, stem.Identity{}, snippet.New(snipCfg, stem.Identity{}))

	resp, err := eng.Query(cmd.Context(), queryText, opts.limit, opts.offset, 0)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d result(s) of %d total\n", len(resp.Results), resp.Total)
	for i, r := range resp.Results {
		fmt.Fprintf(out, "%d. %s  (score %.3f)\n", opts.offset+i+1, r.Toc.Title, r.Score)
		if r.Snippet != "" {
			fmt.Fprintf(out, "   %s\n", r.Snippet)
		}
	}

	return nil
}
