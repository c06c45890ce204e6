// Package search provides full-text retrieval over conversational memory.
// It implements the reference searcher the routing engine dispatches to;
// alternative backends plug in behind the Searcher interface.
package search

import (
	"context"
	"time"
)

// Kind labels what a stored memory item is.
type Kind string

const (
	KindMessage Kind = "message"
	KindSummary Kind = "summary"
	KindFact    Kind = "fact"
)

// Order selects result ordering.
type Order string

const (
	// OrderRelevance ranks by text match score.
	OrderRelevance Order = "relevance"

	// OrderChronologicalAsc returns oldest matches first, for
	// earliest-occurrence questions.
	OrderChronologicalAsc Order = "chronological_asc"

	// OrderChronologicalDesc returns newest matches first.
	OrderChronologicalDesc Order = "chronological_desc"
)

// Item is one retrievable memory.
type Item struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Kind           Kind      `json:"kind"`
	Content        string    `json:"content"`
	Emotion        string    `json:"emotion,omitempty"`
	At             time.Time `json:"at"`
}

// ScoredItem pairs an item with its retrieval score.
type ScoredItem struct {
	Item  Item
	Score float64
}

// Filters narrows and orders a search.
type Filters struct {
	// ConversationID restricts results to one conversation. Empty means
	// all conversations.
	ConversationID string

	// Kinds restricts result kinds. Empty means all kinds.
	Kinds []Kind

	// Order selects result ordering. Empty means OrderRelevance.
	Order Order

	// EmotionBoost doubles the weight of matches against the emotion
	// field, for feeling-centric queries.
	EmotionBoost bool
}

// Searcher is the retrieval backend interface the engine dispatches to.
type Searcher interface {
	// Search returns up to limit items matching query under filters.
	Search(ctx context.Context, query string, filters Filters, limit int) ([]ScoredItem, error)

	// Close releases backend resources.
	Close() error
}

// NullSearcher returns no results. It stands in when retrieval is disabled
// or unavailable so the engine degrades instead of failing the turn.
type NullSearcher struct{}

func (NullSearcher) Search(ctx context.Context, query string, filters Filters, limit int) ([]ScoredItem, error) {
	return nil, nil
}

func (NullSearcher) Close() error { return nil }
