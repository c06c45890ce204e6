package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adalundhe/reverie/core/classify"
	"github.com/spf13/cobra"
)

var classifyJSON bool

var classifyCmd = &cobra.Command{
	Use:   "classify <query>",
	Short: "Classify a query into an intent and retrieval strategy",
	Long: `Classify a query and print the routed intent, strategy, and confidence.

Examples:
  reverie classify "what did we talk about yesterday"
  reverie classify --json "who is sarah"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Output as JSON")
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	classifier := classify.NewClassifier(classify.ClassifierConfig{
		FuzzyThreshold: cfg.Classifier.FuzzyThreshold,
	})
	result := classifier.Classify(strings.Join(args, " "))

	out := cmd.OutOrStdout()
	if classifyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "Intent:     %s\n", result.Intent)
	fmt.Fprintf(out, "Strategy:   %s\n", result.Strategy)
	fmt.Fprintf(out, "Confidence: %.2f\n", result.Confidence)
	if result.IsTemporal {
		fmt.Fprintf(out, "Temporal:   %s\n", result.TemporalDirection)
	}
	if len(result.MatchedPatterns) > 0 {
		fmt.Fprintf(out, "Patterns:   %s\n", strings.Join(result.MatchedPatterns, ", "))
	}
	if result.Entity != nil {
		fmt.Fprintf(out, "Relation:   %s\n", result.Entity.Relation)
	}
	fmt.Fprintf(out, "Reasoning:  %s\n", result.Reasoning)
	return nil
}
