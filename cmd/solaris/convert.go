// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/solaris/internal/container"
	"github.com/pdiddy/solaris/internal/convert"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert PDF documents into corpus Markdown",
	Long: `Convert pipes every PDF under --raw through the markitdown container
(docker or podman) and writes Markdown with <!-- page N --> markers to the
same relative path under corpus_root, so that index can cite pages.
Up-to-date outputs are skipped unless --force is given.`,
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rawDir, _ := cmd.Flags().GetString("raw")
	image, _ := cmd.Flags().GetString("image")
	force, _ := cmd.Flags().GetBool("force")

	rt, err := container.Detect(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Using container runtime: %s\n", rt.Name())

	conv, err := convert.NewMarkitdown(ctx, rt, image)
	if err != nil {
		return err
	}

	summary, err := convert.Tree(ctx, conv, rawDir, cfg.CorpusRoot, force, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d document(s) failed conversion", summary.Failed)
	}
	return nil
}

func init() {
	convertCmd.Flags().String("raw", "raw", "directory of source PDFs")
	convertCmd.Flags().String("image", convert.DefaultImage, "markitdown container image")
	convertCmd.Flags().Bool("force", false, "convert even when the Markdown is up to date")
	rootCmd.AddCommand(convertCmd)
}
