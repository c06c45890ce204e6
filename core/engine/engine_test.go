package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/reverie/core/assemble"
	"github.com/adalundhe/reverie/core/classify"
	"github.com/adalundhe/reverie/core/gate"
	"github.com/adalundhe/reverie/core/knowledge"
	"github.com/adalundhe/reverie/core/search"
	"github.com/adalundhe/reverie/core/session"
)

// =============================================================================
// Stubs
// =============================================================================

type stubSearcher struct {
	items       []search.ScoredItem
	err         error
	delay       time.Duration
	calls       atomic.Int64
	lastQuery   string
	lastFilters search.Filters
}

func (s *stubSearcher) Search(ctx context.Context, query string, filters search.Filters, limit int) ([]search.ScoredItem, error) {
	s.calls.Add(1)
	s.lastQuery = query
	s.lastFilters = filters
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.items, s.err
}

func (s *stubSearcher) Close() error { return nil }

type fusedStubSearcher struct {
	stubSearcher
	fusedCalls atomic.Int64
}

func (s *fusedStubSearcher) SearchFused(ctx context.Context, query string, filters search.Filters, limit int) ([]search.ScoredItem, error) {
	s.fusedCalls.Add(1)
	return s.Search(ctx, query, filters, limit)
}

type indexingStubSearcher struct {
	stubSearcher
	indexed []search.Item
}

func (s *indexingStubSearcher) Index(item search.Item) error {
	s.indexed = append(s.indexed, item)
	return nil
}

func newTestEngine(t *testing.T, mutate func(cfg *Config)) *Engine {
	t.Helper()

	sessions, err := session.New(session.Config{})
	require.NoError(t, err)

	cfg := Config{
		Classifier: classify.NewClassifier(classify.ClassifierConfig{}),
		Gate:       gate.New(gate.Config{}),
		Sessions:   sessions,
		Assembler:  assemble.New(assemble.Config{MaxTokens: 2048}),
		Persona:    StaticPersona("You are a thoughtful companion."),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func newTestResolver(t *testing.T) *knowledge.Resolver {
	t.Helper()
	store, err := knowledge.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return knowledge.NewResolver(store, knowledge.ResolverConfig{})
}

// =============================================================================
// Tests
// =============================================================================

func TestProcessTurn_RequiresConversationID(t *testing.T) {
	e := newTestEngine(t, nil)

	_, err := e.ProcessTurn(context.Background(), TurnRequest{Query: "hi"})
	assert.Error(t, err)
}

func TestProcessTurn_CasualQuerySkipsSearch(t *testing.T) {
	searcher := &stubSearcher{}
	e := newTestEngine(t, func(cfg *Config) { cfg.Searcher = searcher })

	result, err := e.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "c1",
		Query:          "sounds good to me",
	})
	require.NoError(t, err)

	assert.False(t, result.Retrieval.ShouldSearch)
	assert.Equal(t, int64(0), searcher.calls.Load())
	assert.Contains(t, result.Prompt, "thoughtful companion")
}

func TestProcessTurn_TemporalQueryOrdersChronologically(t *testing.T) {
	searcher := &stubSearcher{items: []search.ScoredItem{
		{Item: search.Item{ID: "1", Content: "band practice ran late", At: time.Now()}, Score: 1},
	}}
	e := newTestEngine(t, func(cfg *Config) { cfg.Searcher = searcher })

	result, err := e.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "c1",
		Query:          "what did we talk about yesterday",
	})
	require.NoError(t, err)

	assert.True(t, result.Retrieval.ShouldSearch)
	assert.Equal(t, search.OrderChronologicalDesc, searcher.lastFilters.Order)
	assert.Equal(t, "c1", searcher.lastFilters.ConversationID)
	assert.Contains(t, result.Prompt, "band practice ran late")
}

func TestProcessTurn_EarliestQueryOrdersAscending(t *testing.T) {
	searcher := &stubSearcher{}
	e := newTestEngine(t, func(cfg *Config) { cfg.Searcher = searcher })

	_, err := e.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "c1",
		Query:          "when was the first time I mentioned the band",
	})
	require.NoError(t, err)

	assert.Equal(t, search.OrderChronologicalAsc, searcher.lastFilters.Order)
}

func TestProcessTurn_EmotionalQueryBoostsEmotion(t *testing.T) {
	searcher := &stubSearcher{}
	e := newTestEngine(t, func(cfg *Config) { cfg.Searcher = searcher })

	result, err := e.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "c1",
		Query:          "do you remember how anxious I was feeling",
	})
	require.NoError(t, err)

	require.True(t, result.Retrieval.ShouldSearch)
	if searcher.calls.Load() > 0 {
		assert.True(t, searcher.lastFilters.EmotionBoost)
	}
}

func TestProcessTurn_FusionStrategyUsesFusedSearcher(t *testing.T) {
	searcher := &fusedStubSearcher{}
	e := newTestEngine(t, func(cfg *Config) { cfg.Searcher = searcher })

	result, err := e.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "c1",
		Query:          "remember when we talked about how stressed I was",
	})
	require.NoError(t, err)

	assert.True(t, result.Retrieval.ShouldSearch)
	assert.Equal(t, classify.StrategyMultiVectorFusion, result.Classification.Strategy)
	assert.Equal(t, int64(1), searcher.fusedCalls.Load())
}

func TestProcessTurn_SlowSearcherDegrades(t *testing.T) {
	searcher := &stubSearcher{delay: 200 * time.Millisecond}
	e := newTestEngine(t, func(cfg *Config) {
		cfg.Searcher = searcher
		cfg.SearchTimeout = 10 * time.Millisecond
	})

	result, err := e.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "c1",
		Query:          "what did we talk about yesterday",
	})
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Empty(t, result.Retrieved)
	assert.NotEmpty(t, result.Prompt, "turn should still assemble without retrieval")
}

func TestProcessTurn_SearcherErrorDegrades(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("backend down")}
	e := newTestEngine(t, func(cfg *Config) { cfg.Searcher = searcher })

	result, err := e.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "c1",
		Query:          "what did we talk about yesterday",
	})
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.Empty(t, result.Retrieved)
}

func TestProcessTurn_FactsRenderIntoPrompt(t *testing.T) {
	resolver := newTestResolver(t)
	e := newTestEngine(t, func(cfg *Config) { cfg.Resolver = resolver })

	_, err := resolver.StoreFact(context.Background(), "alice", "likes", "pizza", 0.9, "test")
	require.NoError(t, err)

	result, err := e.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "c1",
		SubjectID:      "alice",
		Query:          "what should we get for dinner",
	})
	require.NoError(t, err)

	require.Len(t, result.Facts, 1)
	assert.Contains(t, result.Prompt, "alice likes pizza")
}

func TestProcessTurn_QueryCacheSkipsSecondDispatch(t *testing.T) {
	cache, err := NewQueryCache(CacheConfig{})
	require.NoError(t, err)
	defer cache.Close()

	searcher := &stubSearcher{items: []search.ScoredItem{
		{Item: search.Item{ID: "1", Content: "cached memory", At: time.Now()}, Score: 1},
	}}
	e := newTestEngine(t, func(cfg *Config) {
		cfg.Searcher = searcher
		cfg.QueryCache = cache
	})

	req := TurnRequest{ConversationID: "c1", Query: "what did we talk about yesterday"}

	first, err := e.ProcessTurn(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, first.Retrieved, 1)
	cache.Wait()

	second, err := e.ProcessTurn(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(1), searcher.calls.Load())
	assert.Len(t, second.Retrieved, 1)
}

func TestProcessTurn_RecentTurnsRender(t *testing.T) {
	e := newTestEngine(t, nil)

	require.NoError(t, e.ObserveTurn("c1", "user", "my sister visits tomorrow"))
	require.NoError(t, e.ObserveTurn("c1", "assistant", "that sounds lovely"))

	result, err := e.ProcessTurn(context.Background(), TurnRequest{
		ConversationID: "c1",
		Query:          "any ideas for what to cook",
	})
	require.NoError(t, err)

	assert.Contains(t, result.Prompt, "user: my sister visits tomorrow")
	assert.Contains(t, result.Prompt, "assistant: that sounds lovely")
}

func TestObserveTurn_IndexesWhenSearcherSupportsIt(t *testing.T) {
	searcher := &indexingStubSearcher{}
	e := newTestEngine(t, func(cfg *Config) { cfg.Searcher = searcher })

	require.NoError(t, e.ObserveTurn("c1", "user", "we adopted a cat"))

	require.Len(t, searcher.indexed, 1)
	assert.Equal(t, "we adopted a cat", searcher.indexed[0].Content)
	assert.Equal(t, "c1", searcher.indexed[0].ConversationID)
	assert.Equal(t, search.KindMessage, searcher.indexed[0].Kind)
}

func TestRememberFact_WithoutResolverErrors(t *testing.T) {
	e := newTestEngine(t, nil)

	_, err := e.RememberFact(context.Background(), "alice", "likes", "tea", 0.8, "test")
	assert.Error(t, err)
}

func TestNew_RequiresCoreCollaborators(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
