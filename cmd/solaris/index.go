// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/solaris/internal/knowledge"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index the corpus into the passage store",
	Long: `Index walks corpus_root for Markdown and text documents, splits them into
passages on headings and page markers (<!-- page N -->), and stores them in
the SQLite index or the pgvector database. Unchanged documents are skipped
on subsequent runs; documents removed from the corpus are dropped.`,
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	store, err := openStore(ctx, cfg, embedder, true)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := knowledge.Ingest(ctx, store, embedder, cfg.CorpusRoot, os.Stdout)
	if err != nil {
		return err
	}
	logger.Info("index complete",
		zap.Int("indexed", summary.Indexed),
		zap.Int("updated", summary.Updated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("removed", summary.Removed),
		zap.Int("failed", summary.Failed),
		zap.Int("passages", summary.Passages))
	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed indexing", summary.Failed)
	}
	return nil
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show document and passage counts of the SQLite index",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.UsesPostgres() {
			return fmt.Errorf("stats is only available for the SQLite index")
		}
		store, err := knowledge.OpenExisting(cfg.StoreLocation)
		if err != nil {
			return err
		}
		defer store.Close()

		st, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d documents, %d passages, %d embedded\n",
			cfg.StoreLocation, st.Documents, st.Passages, st.Embedded)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(statsCmd)
}
