package session

import (
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// =============================================================================
// Session Turn Windows
// =============================================================================
//
// Bounded per-conversation windows of recent turns. The retrieval gate reads
// these to decide whether an entity was mentioned recently, and the assembler
// renders them as the recent-turns fragment. Windows are in-memory only;
// durable history lives in the search index.

const (
	// DefaultWindowSize is the number of turns retained per conversation.
	DefaultWindowSize = 20

	// DefaultMaxConversations bounds how many conversation windows are
	// held before the least recently used one is evicted.
	DefaultMaxConversations = 512
)

// Turn is one utterance in a conversation.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Config tunes the store. Zero values select defaults.
type Config struct {
	// WindowSize caps turns retained per conversation.
	WindowSize int

	// MaxConversations caps tracked conversations.
	MaxConversations int

	// Logger receives eviction notices.
	Logger *slog.Logger
}

// Store holds recent-turn windows keyed by conversation id. Safe for
// concurrent use.
type Store struct {
	mu         sync.Mutex
	windows    *lru.Cache[string, []Turn]
	windowSize int
	logger     *slog.Logger
}

// New creates a Store.
func New(cfg Config) (*Store, error) {
	windowSize := cfg.WindowSize
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	maxConversations := cfg.MaxConversations
	if maxConversations <= 0 {
		maxConversations = DefaultMaxConversations
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{windowSize: windowSize, logger: logger}
	windows, err := lru.NewWithEvict(maxConversations, func(key string, value []Turn) {
		logger.Debug("conversation window evicted", "conversation", key, "turns", len(value))
	})
	if err != nil {
		return nil, err
	}
	s.windows = windows
	return s, nil
}

// Append records a turn at the end of the conversation's window, evicting the
// oldest turn once the window is full.
func (s *Store) Append(conversationID string, turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window, _ := s.windows.Get(conversationID)
	window = append(window, turn)
	if len(window) > s.windowSize {
		// Copy rather than reslice so the evicted head can be collected.
		trimmed := make([]Turn, s.windowSize)
		copy(trimmed, window[len(window)-s.windowSize:])
		window = trimmed
	}
	s.windows.Add(conversationID, window)
}

// Recent returns up to n of the conversation's most recent turns, oldest
// first. n <= 0 returns the whole window.
func (s *Store) Recent(conversationID string, n int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	window, ok := s.windows.Get(conversationID)
	if !ok {
		return nil
	}
	if n > 0 && n < len(window) {
		window = window[len(window)-n:]
	}
	out := make([]Turn, len(window))
	copy(out, window)
	return out
}

// RecentContents returns the text of up to n recent turns, oldest first. This
// is the shape the retrieval gate consumes.
func (s *Store) RecentContents(conversationID string, n int) []string {
	turns := s.Recent(conversationID, n)
	contents := make([]string, len(turns))
	for i, t := range turns {
		contents[i] = t.Content
	}
	return contents
}

// Clear drops the conversation's window.
func (s *Store) Clear(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows.Remove(conversationID)
}

// Len reports the number of tracked conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows.Len()
}
