// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/solaris/internal/answer"
	"github.com/pdiddy/solaris/internal/session"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question with cited sources",
	Long: `Ask retrieves the top passages for the question, prompts the model, and
prints the answer followed by its numbered sources. A refusal prints no
sources. Use --open N to show the full text of source N.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	deps, err := buildEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	loc := deps.engine.Composer().Locale()
	svc := session.NewService(session.NewMemoryStore(cfg.Session.TTL), deps.engine, deps.engine.Gate(), nil,
		session.WithInstruction(qaInstruction(cfg, loc)),
		session.WithTopK(cfg.Answer.TopK),
		session.WithLogger(logger.Named("session")))

	sess := session.New(nowFunc())
	reply, err := svc.Ask(ctx, sess, strings.Join(args, " "))
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reply)
	}

	printReply(os.Stdout, reply, loc)

	open, _ := cmd.Flags().GetInt("open")
	if open > 0 {
		p, err := sess.OpenCitation(open)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "\n--- [%d] %s (%s %d) ---\n%s\n", open, p.SourcePath, loc.PageLabel, sess.Selection.OpenPage, p.Text)
	}
	return nil
}

func printReply(w io.Writer, reply session.Reply, loc answer.Locale) {
	fmt.Fprintln(w, reply.Answer.Text)
	if len(reply.Sources) == 0 {
		return
	}
	fmt.Fprintln(w)
	for i, p := range reply.Sources {
		fmt.Fprintf(w, "[%d] %s (%s %s)\n", i+1, p.SourcePath, loc.PageLabel, p.PageLabel())
	}
}

func init() {
	askCmd.Flags().Int("open", 0, "print the full text of source N after the answer")
	askCmd.Flags().Bool("json", false, "output the reply as JSON")
	rootCmd.AddCommand(askCmd)
}
