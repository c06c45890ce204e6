package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/adalundhe/reverie/core/assemble"
	"github.com/spf13/cobra"
)

var (
	assembleMaxTokens int
	assembleStatsOnly bool
)

var assembleCmd = &cobra.Command{
	Use:   "assemble <fragments.json>",
	Short: "Dry-run an assembly from a fragment file",
	Long: `Assemble a prompt from a JSON array of fragments and print the result
with packing stats.

Fragment file format:
  [
    {"type": "persona", "priority": 10, "required": true, "content": "..."},
    {"type": "retrieval", "priority": 40, "content": "..."}
  ]`,
	Args: cobra.ExactArgs(1),
	RunE: runAssemble,
}

func init() {
	rootCmd.AddCommand(assembleCmd)

	assembleCmd.Flags().IntVar(&assembleMaxTokens, "max-tokens", 0, "Override the configured token ceiling")
	assembleCmd.Flags().BoolVar(&assembleStatsOnly, "stats", false, "Print stats without the assembled prompt")
}

func runAssemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read fragment file: %w", err)
	}
	var fragments []assemble.Fragment
	if err := json.Unmarshal(data, &fragments); err != nil {
		return fmt.Errorf("failed to parse fragment file: %w", err)
	}

	maxTokens := assembleMaxTokens
	if maxTokens <= 0 {
		maxTokens = cfg.Assembly.MaxTokens
	}
	assembler := assemble.New(assemble.Config{
		MaxTokens:         maxTokens,
		MinFragmentTokens: cfg.Assembly.MinFragmentTokens,
	})
	result := assembler.Assemble(fragments)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Fragments: %d (%d dropped)\n", len(fragments), len(result.Dropped))
	fmt.Fprintf(out, "Tokens:    %d / %d (truncated=%v)\n", result.TotalTokens, maxTokens, result.Truncated)
	for _, d := range result.Dropped {
		fmt.Fprintf(out, "Dropped:   %s\n", d)
	}
	if !assembleStatsOnly {
		fmt.Fprintf(out, "\n%s\n", result.Prompt)
	}
	return nil
}
