// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/solaris/internal/draft"
	"github.com/pdiddy/solaris/pkg/types"
)

// nowFunc is replaced in tests.
var nowFunc = time.Now

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Generate a two-section consultation notice draft",
	Long: `Draft runs two answer cycles, siting then environmental impact, spaced by
draft.inter_call_delay, and writes the result as Markdown to
draft.output_dir/Application_<project>.md. Each section lists its own
references numbered from 1.

Project fields come from --fields (a YAML file) and the individual flags;
anything left empty takes the example project's value.`,
	RunE: runDraft,
}

func runDraft(cmd *cobra.Command, args []string) error {
	fields, err := draftFields(cmd)
	if err != nil {
		return err
	}

	deps, err := buildEngine(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	fmt.Fprintf(os.Stderr, "Drafting %s (1/2 siting, 2/2 environmental)...\n", fields.ProjectName)
	d, err := deps.pipeline.Generate(cmd.Context(), fields)
	if err != nil {
		return err
	}
	doc := draft.Render(d, deps.texts)

	stdout, _ := cmd.Flags().GetBool("stdout")
	if stdout {
		fmt.Print(doc)
		return nil
	}

	outDir, _ := cmd.Flags().GetString("output-dir")
	if outDir == "" {
		outDir = cfg.Draft.OutputDir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(outDir, draft.FileName(fields.ProjectName))
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing draft: %w", err)
	}
	logger.Info("draft written", zap.String("path", path))
	fmt.Println("Wrote", path)
	return nil
}

func draftFields(cmd *cobra.Command) (types.ProjectFields, error) {
	var fields types.ProjectFields
	if path, _ := cmd.Flags().GetString("fields"); path != "" {
		f, err := draft.LoadFields(path)
		if err != nil {
			return types.ProjectFields{}, err
		}
		fields = f
	}
	overrides := []struct {
		flag string
		dst  *string
	}{
		{"project", &fields.ProjectName},
		{"municipality", &fields.Municipality},
		{"size", &fields.Size},
		{"land-type", &fields.LandType},
		{"nature-values", &fields.NatureValues},
	}
	for _, o := range overrides {
		if v, _ := cmd.Flags().GetString(o.flag); v != "" {
			*o.dst = v
		}
	}
	return fields.WithDefaults(), nil
}

func init() {
	draftCmd.Flags().String("fields", "", "YAML file with project fields")
	draftCmd.Flags().String("project", "", "project name")
	draftCmd.Flags().String("municipality", "", "municipality and county")
	draftCmd.Flags().String("size", "", "area and capacity")
	draftCmd.Flags().String("land-type", "", "current land use")
	draftCmd.Flags().String("nature-values", "", "nature values and protected areas nearby")
	draftCmd.Flags().String("output-dir", "", "directory for the rendered draft (default: draft.output_dir)")
	draftCmd.Flags().Bool("stdout", false, "print the draft instead of writing a file")
	rootCmd.AddCommand(draftCmd)
}
