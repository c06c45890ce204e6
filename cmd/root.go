// Package cmd provides the reverie CLI.
package cmd

import (
	"log/slog"
	"os"

	"github.com/adalundhe/reverie/core/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "reverie",
	Short: "Reverie - context assembly and retrieval routing for conversational memory",
	Long: `Reverie routes conversational queries to retrieval strategies, reconciles
temporal knowledge about a subject, and assembles budgeted prompts from
persona, facts, session history, and retrieved memories.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to yaml config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// loadConfig loads the configured (or default) settings.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func Execute() error {
	return rootCmd.Execute()
}
