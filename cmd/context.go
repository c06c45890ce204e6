package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/adalundhe/reverie/core/assemble"
	"github.com/adalundhe/reverie/core/classify"
	"github.com/adalundhe/reverie/core/engine"
	"github.com/adalundhe/reverie/core/gate"
	"github.com/adalundhe/reverie/core/knowledge"
	"github.com/adalundhe/reverie/core/search"
	"github.com/adalundhe/reverie/core/session"
	"github.com/spf13/cobra"
)

var (
	contextSubject   string
	contextHistory   string
	contextPersona   string
	contextIndexPath string
	contextJSON      bool
)

var contextCmd = &cobra.Command{
	Use:   "context <conversation-id> <query>",
	Short: "Run a query through the full turn pipeline",
	Long: `Classify the query, decide whether to retrieve, gather facts and
memories, and print the assembled prompt.

History can be preloaded from a file of "role: content" lines; each line is
indexed as a retrievable memory and recorded in the session window.

Examples:
  reverie context c1 "what did we talk about yesterday"
  reverie context c1 --subject alice --history chat.log "how was I feeling"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runContext,
}

func init() {
	rootCmd.AddCommand(contextCmd)

	contextCmd.Flags().StringVar(&contextSubject, "subject", "", "Subject whose facts apply")
	contextCmd.Flags().StringVar(&contextHistory, "history", "", "Path to a role: content history file")
	contextCmd.Flags().StringVar(&contextPersona, "persona", "", "Persona text for the prompt")
	contextCmd.Flags().StringVar(&contextIndexPath, "index", "", "Path to the memory index (default in-memory)")
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "Output the full turn result as JSON")
}

func runContext(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	conversationID := args[0]
	query := strings.Join(args[1:], " ")

	sessions, err := session.New(session.Config{
		WindowSize:       cfg.Session.WindowSize,
		MaxConversations: cfg.Session.MaxConversations,
	})
	if err != nil {
		return err
	}

	indexPath := contextIndexPath
	if indexPath == "" {
		indexPath = cfg.Search.IndexPath
	}
	index, err := search.NewMemoryIndex(search.IndexConfig{
		Path:         indexPath,
		DocCacheSize: cfg.Search.DocCacheSize,
	})
	if err != nil {
		return err
	}
	defer index.Close()

	var resolver *knowledge.Resolver
	if contextSubject != "" {
		var store *knowledge.SQLiteStore
		resolver, store, err = openResolver()
		if err != nil {
			return err
		}
		defer store.Close()
	}

	e, err := engine.New(engine.Config{
		Classifier: classify.NewClassifier(classify.ClassifierConfig{
			FuzzyThreshold: cfg.Classifier.FuzzyThreshold,
		}),
		Gate:     gate.New(gate.Config{RecallKeywords: gateKeywords(cfg.Gate.RecallKeywords)}),
		Resolver: resolver,
		Searcher: index,
		Sessions: sessions,
		Assembler: assemble.New(assemble.Config{
			MaxTokens:         cfg.Assembly.MaxTokens,
			MinFragmentTokens: cfg.Assembly.MinFragmentTokens,
		}),
		Persona:        engine.StaticPersona(contextPersona),
		SearchTimeout:  cfg.Engine.SearchTimeout,
		RetrievalLimit: cfg.Engine.RetrievalLimit,
	})
	if err != nil {
		return err
	}

	if contextHistory != "" {
		if err := loadHistory(e, conversationID, contextHistory); err != nil {
			return err
		}
	}

	result, err := e.ProcessTurn(context.Background(), engine.TurnRequest{
		ConversationID: conversationID,
		SubjectID:      contextSubject,
		Query:          query,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if contextJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "Intent:    %s (%s, confidence %.2f)\n",
		result.Classification.Intent, result.Classification.Strategy, result.Classification.Confidence)
	fmt.Fprintf(out, "Retrieval: searched=%v reason=%s retrieved=%d degraded=%v\n",
		result.Retrieval.ShouldSearch, result.Retrieval.Reason, len(result.Retrieved), result.Degraded)
	fmt.Fprintf(out, "Tokens:    %d (truncated=%v)\n\n", result.TotalTokens, result.Truncated)
	fmt.Fprintln(out, result.Prompt)
	return nil
}

// gateKeywords appends configured recall keywords to the defaults.
func gateKeywords(extra []string) []string {
	if len(extra) == 0 {
		return nil
	}
	return append(gate.DefaultRecallKeywords(), extra...)
}

// loadHistory replays a "role: content" file into the session window and the
// memory index.
func loadHistory(e *engine.Engine, conversationID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		role, content, found := strings.Cut(line, ":")
		if !found {
			role, content = "user", line
		}
		if err := e.ObserveTurn(conversationID, strings.TrimSpace(role), strings.TrimSpace(content)); err != nil {
			return err
		}
	}
	return scanner.Err()
}
