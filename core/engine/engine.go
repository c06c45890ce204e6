// Package engine wires the classifier, retrieval gate, knowledge resolver,
// searcher, and assembler into a per-turn pipeline. Retrieval collaborators
// are external systems behind interfaces; the engine owns routing decisions,
// degradation, and prompt composition.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/adalundhe/reverie/core/assemble"
	"github.com/adalundhe/reverie/core/classify"
	"github.com/adalundhe/reverie/core/gate"
	"github.com/adalundhe/reverie/core/knowledge"
	"github.com/adalundhe/reverie/core/search"
	"github.com/adalundhe/reverie/core/session"
	"github.com/google/uuid"
)

// =============================================================================
// Configuration
// =============================================================================

const (
	// DefaultSearchTimeout bounds one retrieval dispatch. A turn degrades
	// to no retrieved context rather than stalling on a slow backend.
	DefaultSearchTimeout = 300 * time.Millisecond

	// DefaultRetrievalLimit caps items fetched per turn.
	DefaultRetrievalLimit = 8

	// DefaultGateWindow is how many recent turns the gate inspects for
	// prior entity mentions.
	DefaultGateWindow = 10
)

// Fragment priorities, ascending. Persona frames everything, facts anchor
// identity, recent turns carry the live thread, retrieved memories enrich.
const (
	priorityPersona   = 10
	priorityFacts     = 20
	priorityRecent    = 30
	priorityRetrieval = 40
)

// PersonaProvider supplies the companion's persona text for a subject.
type PersonaProvider interface {
	Persona(subjectID string) string
}

// NullPersona provides no persona text.
type NullPersona struct{}

func (NullPersona) Persona(subjectID string) string { return "" }

// StaticPersona provides the same persona text for every subject.
type StaticPersona string

func (p StaticPersona) Persona(subjectID string) string { return string(p) }

// FusedSearcher is the optional searcher capability for fusion strategies.
// Backends without it are dispatched through plain Search.
type FusedSearcher interface {
	SearchFused(ctx context.Context, query string, filters search.Filters, limit int) ([]search.ScoredItem, error)
}

// Config assembles an Engine. Searcher, Resolver, and Persona may be nil;
// the engine substitutes null collaborators.
type Config struct {
	Classifier *classify.Classifier
	Gate       *gate.Gate
	Resolver   *knowledge.Resolver
	Searcher   search.Searcher
	Sessions   *session.Store
	Assembler  *assemble.Assembler
	Persona    PersonaProvider

	// SearchTimeout bounds one retrieval dispatch. Zero selects the
	// default.
	SearchTimeout time.Duration

	// RetrievalLimit caps items per dispatch. Zero selects the default.
	RetrievalLimit int

	// QueryCache caches retrieval results per conversation and query.
	// Nil disables caching.
	QueryCache *QueryCache

	Logger *slog.Logger
}

// Engine is the turn pipeline. Safe for concurrent use.
type Engine struct {
	classifier *classify.Classifier
	gate       *gate.Gate
	resolver   *knowledge.Resolver
	searcher   search.Searcher
	sessions   *session.Store
	assembler  *assemble.Assembler
	persona    PersonaProvider
	cache      *QueryCache

	searchTimeout  time.Duration
	retrievalLimit int
	logger         *slog.Logger
}

// New creates an Engine. Classifier, Gate, Sessions, and Assembler are
// required.
func New(cfg Config) (*Engine, error) {
	if cfg.Classifier == nil || cfg.Gate == nil || cfg.Sessions == nil || cfg.Assembler == nil {
		return nil, errors.New("engine: classifier, gate, sessions, and assembler are required")
	}

	searcher := cfg.Searcher
	if searcher == nil {
		searcher = search.NullSearcher{}
	}
	persona := cfg.Persona
	if persona == nil {
		persona = NullPersona{}
	}
	searchTimeout := cfg.SearchTimeout
	if searchTimeout <= 0 {
		searchTimeout = DefaultSearchTimeout
	}
	retrievalLimit := cfg.RetrievalLimit
	if retrievalLimit <= 0 {
		retrievalLimit = DefaultRetrievalLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		classifier:     cfg.Classifier,
		gate:           cfg.Gate,
		resolver:       cfg.Resolver,
		searcher:       searcher,
		sessions:       cfg.Sessions,
		assembler:      cfg.Assembler,
		persona:        persona,
		cache:          cfg.QueryCache,
		searchTimeout:  searchTimeout,
		retrievalLimit: retrievalLimit,
		logger:         logger,
	}, nil
}

// =============================================================================
// Turn Pipeline
// =============================================================================

// TurnRequest is one incoming user utterance.
type TurnRequest struct {
	// ConversationID scopes session history and retrieval.
	ConversationID string

	// SubjectID identifies whose facts apply. Empty skips fact lookup.
	SubjectID string

	// Query is the user's utterance.
	Query string

	// MaxRecentTurns overrides how many recent turns render into the
	// prompt. Zero selects the gate window.
	MaxRecentTurns int
}

// TurnResult reports one assembled turn.
type TurnResult struct {
	Prompt         string
	TotalTokens    int
	Truncated      bool
	Classification classify.Classification
	Retrieval      gate.Decision
	Retrieved      []search.ScoredItem
	Facts          []*knowledge.ScoredFact

	// Degraded reports that retrieval failed or timed out and the turn
	// proceeded without retrieved context.
	Degraded bool
}

// ProcessTurn classifies the query, decides whether to retrieve, gathers
// facts and memories, and assembles the prompt. Retrieval failure degrades
// the turn instead of failing it; only fact-store write paths surface errors.
func (e *Engine) ProcessTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if strings.TrimSpace(req.ConversationID) == "" {
		return nil, errors.New("engine: conversation id is required")
	}

	classification := e.classifier.Classify(req.Query)
	recent := e.sessions.RecentContents(req.ConversationID, DefaultGateWindow)
	decision := e.gate.ShouldRetrieve(req.Query, classification, recent)

	result := &TurnResult{
		Classification: classification,
		Retrieval:      decision,
	}

	if decision.ShouldSearch {
		result.Retrieved, result.Degraded = e.retrieve(ctx, req, classification)
	}
	if e.resolver != nil && req.SubjectID != "" {
		facts, err := e.lookupFacts(ctx, req.SubjectID)
		if err != nil {
			e.logger.Warn("fact lookup degraded",
				"subject", req.SubjectID, "error", err)
			result.Degraded = true
		}
		result.Facts = facts
	}

	maxTurns := req.MaxRecentTurns
	if maxTurns <= 0 {
		maxTurns = DefaultGateWindow
	}
	turns := e.sessions.Recent(req.ConversationID, maxTurns)

	assembled := e.assembler.Assemble(e.buildFragments(req, turns, result))
	result.Prompt = assembled.Prompt
	result.TotalTokens = assembled.TotalTokens
	result.Truncated = assembled.Truncated

	e.logger.Info("turn processed",
		"conversation", req.ConversationID,
		"intent", classification.Intent,
		"strategy", classification.Strategy,
		"searched", decision.ShouldSearch,
		"reason", decision.Reason,
		"retrieved", len(result.Retrieved),
		"facts", len(result.Facts),
		"tokens", result.TotalTokens,
		"degraded", result.Degraded)

	return result, nil
}

// ObserveTurn records an utterance into the conversation window and, when
// the searcher also indexes, into durable memory.
func (e *Engine) ObserveTurn(conversationID, role, content string) error {
	turn := session.Turn{Role: role, Content: content, At: time.Now()}
	e.sessions.Append(conversationID, turn)

	indexer, ok := e.searcher.(interface{ Index(item search.Item) error })
	if !ok {
		return nil
	}
	item := search.Item{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Kind:           search.KindMessage,
		Content:        content,
		At:             turn.At,
	}
	if err := indexer.Index(item); err != nil {
		return fmt.Errorf("failed to index turn: %w", err)
	}
	return nil
}

// RememberFact stores a subject fact through the resolver.
func (e *Engine) RememberFact(ctx context.Context, subjectID, relation, object string, confidence float64, sourceTag string) (*knowledge.StoreResult, error) {
	if e.resolver == nil {
		return nil, errors.New("engine: no fact resolver configured")
	}
	return e.resolver.StoreFact(ctx, subjectID, relation, object, confidence, sourceTag)
}

// lookupFacts returns the subject's usable facts as of now. Read failures
// degrade to an empty fact set.
func (e *Engine) lookupFacts(ctx context.Context, subjectID string) ([]*knowledge.ScoredFact, error) {
	scored, err := e.resolver.RelevantFacts(ctx, subjectID, time.Now())
	if err != nil {
		return nil, err
	}
	return e.resolver.UsableFacts(scored, 0), nil
}

// =============================================================================
// Retrieval Dispatch
// =============================================================================

// retrieve dispatches the search strategy under the search timeout. Failures
// and timeouts log and return an empty, degraded result set.
func (e *Engine) retrieve(ctx context.Context, req TurnRequest, c classify.Classification) (items []search.ScoredItem, degraded bool) {
	filters := filtersFor(c, req.ConversationID)

	if e.cache != nil {
		if cached, ok := e.cache.Get(req.ConversationID, req.Query, c.Strategy); ok {
			return cached, false
		}
	}

	searchCtx, cancel := context.WithTimeout(ctx, e.searchTimeout)
	defer cancel()

	var err error
	if fused, ok := e.searcher.(FusedSearcher); ok && usesFusion(c.Strategy) {
		items, err = fused.SearchFused(searchCtx, req.Query, filters, e.retrievalLimit)
	} else {
		items, err = e.searcher.Search(searchCtx, req.Query, filters, e.retrievalLimit)
	}
	if err != nil {
		e.logger.Warn("retrieval degraded",
			"conversation", req.ConversationID,
			"strategy", c.Strategy,
			"error", err)
		return nil, true
	}

	if e.cache != nil {
		e.cache.Set(req.ConversationID, req.Query, c.Strategy, items)
	}
	return items, false
}

// filtersFor maps a routing strategy onto backend filters.
func filtersFor(c classify.Classification, conversationID string) search.Filters {
	filters := search.Filters{ConversationID: conversationID}

	switch c.Strategy {
	case classify.StrategyChronological:
		if c.TemporalDirection == classify.DirectionEarliest {
			filters.Order = search.OrderChronologicalAsc
		} else {
			filters.Order = search.OrderChronologicalDesc
		}
	case classify.StrategyEmotionWeighted:
		filters.EmotionBoost = true
	}
	return filters
}

func usesFusion(s classify.Strategy) bool {
	return s == classify.StrategyMultiVectorFusion || s == classify.StrategySemanticFusion
}

// =============================================================================
// Fragment Construction
// =============================================================================

func (e *Engine) buildFragments(req TurnRequest, turns []session.Turn, result *TurnResult) []assemble.Fragment {
	fragments := []assemble.Fragment{
		{
			Type:     assemble.FragmentPersona,
			Priority: priorityPersona,
			Required: true,
			Content:  e.persona.Persona(req.SubjectID),
		},
		{
			Type:     assemble.FragmentFacts,
			Priority: priorityFacts,
			Required: true,
			Content:  renderFacts(result.Facts),
		},
		{
			Type:     assemble.FragmentRecent,
			Priority: priorityRecent,
			Required: true,
			Content:  renderTurns(turns),
		},
		{
			Type:     assemble.FragmentRetrieval,
			Priority: priorityRetrieval,
			Content:  renderRetrieved(result.Retrieved),
		},
	}
	return fragments
}

func renderFacts(facts []*knowledge.ScoredFact) string {
	if len(facts) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Known about them:\n")
	for _, f := range facts {
		fmt.Fprintf(&b, "- %s %s %s\n", f.Fact.SubjectID, f.Fact.RelationType, f.Fact.ObjectEntity)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderTurns(turns []session.Turn) string {
	if len(turns) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Recent conversation:\n")
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderRetrieved(items []search.ScoredItem) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Relevant memories:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- [%s] %s\n", item.Item.At.Format("2006-01-02"), item.Item.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}
