// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/solaris/internal/knowledge"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the SQLite index to YAML or JSON",
	Long: `Export writes every stored passage (or those of one document with
--source) with its id, path, page and heading to a YAML or JSON file.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")
	source, _ := cmd.Flags().GetString("source")

	if cfg.UsesPostgres() {
		return fmt.Errorf("export is only available for the SQLite index")
	}
	store, err := knowledge.OpenExisting(cfg.StoreLocation)
	if err != nil {
		return err
	}
	defer store.Close()

	switch format {
	case "yaml", "":
		if out == "" {
			out = "index/export.yaml"
		}
		err = store.ExportYAML(cmd.Context(), out, source)
	case "json":
		if out == "" {
			out = "index/export.json"
		}
		err = store.ExportJSON(cmd.Context(), out, source)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Println("Exported to", out)
	return nil
}

func init() {
	exportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	exportCmd.Flags().String("out", "", "output file (default: index/export.<format>)")
	exportCmd.Flags().String("source", "", "export only passages of this source path")
	rootCmd.AddCommand(exportCmd)
}
