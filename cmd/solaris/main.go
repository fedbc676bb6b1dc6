// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the solaris CLI: cited question
// answering and permit application drafts over a permitting corpus.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/solaris/internal/logging"
	"github.com/pdiddy/solaris/internal/secrets"
	"github.com/pdiddy/solaris/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds API keys loaded from .secrets/ at startup.
	loadedSecrets map[string]string

	// cfg is resolved once in PersistentPreRunE and read by every command.
	cfg types.Config

	logger   = zap.NewNop()
	closeLog = func() {}
)

// rootCmd is the base command for the solaris CLI.
var rootCmd = &cobra.Command{
	Use:   "solaris",
	Short: "Cited answers and permit drafts from a permitting corpus",
	Long: `solaris answers questions about permitting and environmental law from an
indexed corpus of documents. Every answer cites the passages it was given as
**[Source: N]**; when the passages do not cover the question the model replies
with a fixed refusal and no sources are shown.

Use index to build the passage store, ask for one-off questions, draft for a
two-section consultation notice, and serve for the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", func(name string, err error) {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
		})
		if err != nil {
			return err
		}
		loadedSecrets = s

		cfg, err = loadConfig(viper.GetViper(), loadedSecrets)
		if err != nil {
			return err
		}

		debug, _ := cmd.Flags().GetBool("debug")
		logger, closeLog = logging.New(logging.Options{
			File:       cfg.Log.File,
			Production: cfg.Log.Production,
			Debug:      debug,
		})
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", zap.Strings("keys", keys))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./solaris.yaml or ~/.config/solaris/solaris.yaml)")
	pf.String("store", "", "SQLite index file or postgres:// DSN")
	pf.String("corpus", "", "corpus root directory")
	pf.String("locale", "", "prompt locale: en or sv")
	pf.String("provider", "", "model provider: gemini, claude, or ollama")
	pf.String("model", "", "model name")
	pf.Bool("debug", false, "log at debug level on the console")

	mustBind("store_location", pf.Lookup("store"))
	mustBind("corpus_root", pf.Lookup("corpus"))
	mustBind("answer.locale", pf.Lookup("locale"))
	mustBind("model.provider", pf.Lookup("provider"))
	mustBind("model.name", pf.Lookup("model"))
}

func initConfig() {
	// .env values become environment variables; real environment wins.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("solaris")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "solaris"))
		}
	}

	viper.SetEnvPrefix("SOLARIS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	err := rootCmd.Execute()
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}
