package gate

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/adalundhe/reverie/core/classify"
)

// =============================================================================
// Retrieval Gate
// =============================================================================
//
// The gate decides whether expensive similarity search runs at all for a
// turn. It is the single biggest latency lever in the pipeline: casual
// conversation should skip retrieval entirely, while explicit recall
// requests, temporal queries, and relationship discovery must always search.

// Reason explains a retrieval decision.
type Reason string

const (
	ReasonTemporalIntent     Reason = "temporal_intent"
	ReasonRelationshipIntent Reason = "relationship_intent"
	ReasonRecallKeyword      Reason = "recall_keyword"
	ReasonNovelEntity        Reason = "novel_entity"
	ReasonBareNameQuery      Reason = "bare_name_query"
	ReasonCasual             Reason = "casual"
)

// Decision is the gate's verdict for one query. Derived purely from the
// classification and the recent-turn window; it has no identity of its own.
type Decision struct {
	ShouldSearch bool   `json:"should_search"`
	Reason       Reason `json:"reason"`
}

// Config tunes the gate. Zero values select defaults.
type Config struct {
	// RecallKeywords are lexical cues that long-term memory should be
	// consulted. Defaults to DefaultRecallKeywords.
	RecallKeywords []string

	// Logger receives one debug record per decision.
	Logger *slog.Logger
}

// DefaultRecallKeywords covers the explicit "consult your memory" phrasings.
func DefaultRecallKeywords() []string {
	return []string{
		"remember",
		"recall",
		"remind me",
		"you know",
		"we talked",
		"told you",
		"mentioned",
		"forget",
		"forgot",
	}
}

// Gate decides whether to invoke the similarity-search collaborator.
type Gate struct {
	recallKeywords []string
	logger         *slog.Logger
}

// New creates a Gate.
func New(cfg Config) *Gate {
	keywords := cfg.RecallKeywords
	if len(keywords) == 0 {
		keywords = DefaultRecallKeywords()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{recallKeywords: keywords, logger: logger}
}

// ShouldRetrieve decides whether similarity search should run for the query.
// recentTurns is the short-term window text, newest last; it is consulted to
// judge whether a bare entity reference is novel to the conversation.
func (g *Gate) ShouldRetrieve(query string, c classify.Classification, recentTurns []string) Decision {
	decision := g.decide(query, c, recentTurns)
	g.logger.Debug("retrieval gate decision",
		"should_search", decision.ShouldSearch,
		"reason", decision.Reason,
		"intent", c.Intent)
	return decision
}

func (g *Gate) decide(query string, c classify.Classification, recentTurns []string) Decision {
	// Temporal and relationship-discovery intents force retrieval: neither
	// can be answered from the short-term window.
	if c.IsTemporal || c.Intent == classify.IntentTemporalAnalysis {
		return Decision{ShouldSearch: true, Reason: ReasonTemporalIntent}
	}
	if c.Intent == classify.IntentRelationshipDiscovery {
		return Decision{ShouldSearch: true, Reason: ReasonRelationshipIntent}
	}

	// Word-boundary matching, same as the classifier's pattern table:
	// "forget" must not fire inside "unforgettable".
	normalized := strings.ToLower(strings.TrimSpace(query))
	for _, kw := range g.recallKeywords {
		if classify.ContainsWord(normalized, kw) {
			return Decision{ShouldSearch: true, Reason: ReasonRecallKeyword}
		}
	}

	// A bare proper-noun-like token ("Sarah?") is an implicit recall signal
	// when the recent window never mentions it. Short high-intent queries
	// must not be starved of memory just because they carry no keyword.
	if name, ok := bareNameToken(query); ok {
		if !mentionedRecently(name, recentTurns) {
			return Decision{ShouldSearch: true, Reason: ReasonBareNameQuery}
		}
	}

	// An entity reference absent from the recent window is a recall signal
	// even in a longer query.
	if _, ok := novelCapitalizedEntity(query, recentTurns); ok {
		return Decision{ShouldSearch: true, Reason: ReasonNovelEntity}
	}

	return Decision{ShouldSearch: false, Reason: ReasonCasual}
}

// bareNameToken reports whether the query is a single word or name, stripped
// of trailing punctuation.
func bareNameToken(query string) (string, bool) {
	fields := strings.Fields(strings.TrimSpace(query))
	if len(fields) != 1 {
		return "", false
	}
	token := strings.TrimFunc(fields[0], func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	if token == "" {
		return "", false
	}
	return token, true
}

// novelCapitalizedEntity scans for a capitalized mid-sentence token that the
// recent window does not contain. Sentence-initial words are skipped: their
// capitalization carries no signal.
func novelCapitalizedEntity(query string, recentTurns []string) (string, bool) {
	fields := strings.Fields(query)
	for i, field := range fields {
		if i == 0 {
			continue
		}
		token := strings.TrimFunc(field, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if !looksLikeProperNoun(token) {
			continue
		}
		if !mentionedRecently(token, recentTurns) {
			return token, true
		}
	}
	return "", false
}

func looksLikeProperNoun(token string) bool {
	runes := []rune(token)
	if len(runes) < 2 {
		return false
	}
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLower(r) {
			return false
		}
	}
	// Common sentence-case words that are not entities.
	switch strings.ToLower(token) {
	case "i", "ok", "okay", "yes", "no", "hi", "hey", "thanks":
		return false
	}
	return true
}

func mentionedRecently(token string, recentTurns []string) bool {
	needle := strings.ToLower(token)
	for _, turn := range recentTurns {
		if strings.Contains(strings.ToLower(turn), needle) {
			return true
		}
	}
	return false
}
