package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adalundhe/reverie/core/knowledge"
	"github.com/spf13/cobra"
)

// FactsDefaultDBPath is where the fact database lives unless configured.
const FactsDefaultDBPath = ".reverie/facts.db"

var (
	factsDBPath     string
	factsConfidence float64
	factsSourceTag  string
	factsShowAll    bool
)

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Store and inspect subject facts",
}

var factsAddCmd = &cobra.Command{
	Use:   "add <subject> <relation> <object>",
	Short: "Store a fact, resolving contradictions",
	Long: `Store a subject-relation-object fact. A directly opposing fact on the
same object is resolved by confidence at write time.

Examples:
  reverie facts add alice likes pizza --confidence 0.9
  reverie facts add alice works_at "Initech Corp"`,
	Args: cobra.ExactArgs(3),
	RunE: runFactsAdd,
}

var factsListCmd = &cobra.Command{
	Use:   "list <subject>",
	Short: "List a subject's facts with temporal relevance",
	Args:  cobra.ExactArgs(1),
	RunE:  runFactsList,
}

var factsImportCmd = &cobra.Command{
	Use:   "import <subject> <file>",
	Short: "Import facts from a legacy fact-line export",
	Long: `Import facts from a text export with one fact per line:

  alice likes pizza (confidence: 0.8)
  - alice works_at "Initech Corp" (confidence: 0.95)

The subject column in the file is ignored in favor of the given subject.`,
	Args: cobra.ExactArgs(2),
	RunE: runFactsImport,
}

func init() {
	rootCmd.AddCommand(factsCmd)
	factsCmd.AddCommand(factsAddCmd, factsListCmd, factsImportCmd)

	factsCmd.PersistentFlags().StringVar(&factsDBPath, "db", "", "Path to fact database")
	factsAddCmd.Flags().Float64Var(&factsConfidence, "confidence", 1.0, "Confidence in [0,1]")
	factsAddCmd.Flags().StringVar(&factsSourceTag, "source", "cli", "Source tag recorded with the fact")
	factsListCmd.Flags().BoolVar(&factsShowAll, "all", false, "Include stale and low-confidence facts")
}

func openResolver() (*knowledge.Resolver, *knowledge.SQLiteStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	path := factsDBPath
	if path == "" {
		path = cfg.Knowledge.Path
	}
	if path == "" {
		path = FactsDefaultDBPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create fact database directory: %w", err)
		}
	}

	store, err := knowledge.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, err
	}
	resolver := knowledge.NewResolver(store, knowledge.ResolverConfig{
		ConfidenceFloor:     cfg.Knowledge.ConfidenceFloor,
		StalenessThresholds: stalenessFromConfig(cfg.Knowledge.StalenessDays),
		Opposing:            opposingFromConfig(cfg.Knowledge.OpposingPairs),
	})
	return resolver, store, nil
}

func stalenessFromConfig(overrides map[string]int) map[string]int {
	if len(overrides) == 0 {
		return nil
	}
	thresholds := knowledge.DefaultStalenessThresholds()
	for relation, days := range overrides {
		thresholds[relation] = days
	}
	return thresholds
}

func opposingFromConfig(extra map[string]string) *knowledge.OpposingPairs {
	if len(extra) == 0 {
		return nil
	}
	pairs := knowledge.DefaultOpposingPairs()
	for a, b := range extra {
		pairs.Add(a, b)
	}
	return pairs
}

func runFactsAdd(cmd *cobra.Command, args []string) error {
	resolver, store, err := openResolver()
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := resolver.StoreFact(context.Background(), args[0], args[1], args[2], factsConfidence, factsSourceTag)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case result.Superseded:
		fmt.Fprintf(out, "Kept existing fact: %s %s %s (confidence %.2f)\n",
			result.Stored.SubjectID, result.Stored.RelationType, result.Stored.ObjectEntity, result.Stored.Confidence)
	case result.Replaced != nil:
		fmt.Fprintf(out, "Replaced %s %s with %s %s\n",
			result.Replaced.RelationType, result.Replaced.ObjectEntity,
			result.Stored.RelationType, result.Stored.ObjectEntity)
	default:
		fmt.Fprintf(out, "Stored: %s %s %s (confidence %.2f)\n",
			result.Stored.SubjectID, result.Stored.RelationType, result.Stored.ObjectEntity, result.Stored.Confidence)
	}
	return nil
}

func runFactsList(cmd *cobra.Command, args []string) error {
	resolver, store, err := openResolver()
	if err != nil {
		return err
	}
	defer store.Close()

	scored, err := resolver.RelevantFacts(context.Background(), args[0], time.Now())
	if err != nil {
		return err
	}
	if !factsShowAll {
		scored = resolver.UsableFacts(scored, 0)
	}

	out := cmd.OutOrStdout()
	if len(scored) == 0 {
		fmt.Fprintln(out, "No facts stored.")
		return nil
	}
	for _, s := range scored {
		marker := ""
		if s.PotentiallyOutdated {
			marker = "  [possibly outdated]"
		}
		fmt.Fprintf(out, "%s %s %s  (weighted %.2f, stored %s)%s\n",
			s.Fact.SubjectID, s.Fact.RelationType, s.Fact.ObjectEntity,
			s.WeightedConfidence, s.Fact.UpdatedAt.Format("2006-01-02"), marker)
	}
	return nil
}

func runFactsImport(cmd *cobra.Command, args []string) error {
	resolver, store, err := openResolver()
	if err != nil {
		return err
	}
	defer store.Close()

	data, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("failed to read fact export: %w", err)
	}

	facts, parseErrs := knowledge.ParseFactLines(string(data))
	stored := 0
	for _, f := range facts {
		if _, err := resolver.StoreFact(context.Background(), args[0], f.RelationType, f.ObjectEntity, f.Confidence, f.SourceTag); err != nil {
			return err
		}
		stored++
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported %d facts.\n", stored)
	for _, perr := range parseErrs {
		fmt.Fprintf(out, "skipped: %v\n", perr)
	}
	return nil
}
