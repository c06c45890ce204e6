package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	lru "github.com/hashicorp/golang-lru/v2"
)

// =============================================================================
// Bleve Memory Index
// =============================================================================

var (
	// ErrIndexClosed indicates an operation on a closed index.
	ErrIndexClosed = errors.New("search: memory index closed")
)

// DefaultDocCacheSize bounds the recently-indexed item cache. Hits served
// from the cache skip stored-field reconstruction.
const DefaultDocCacheSize = 4096

// IndexConfig holds memory index configuration.
type IndexConfig struct {
	// Path locates the on-disk index. Empty selects an in-memory index,
	// which tests use.
	Path string

	// DocCacheSize bounds the item cache. Zero selects the default.
	DocCacheSize int

	// Logger receives degraded-read notices.
	Logger *slog.Logger
}

// MemoryIndex is the bleve-backed reference Searcher. Thread-safe.
type MemoryIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	docs   *lru.Cache[string, Item]
	logger *slog.Logger
	closed bool
}

// NewMemoryIndex opens (or creates) a memory index.
func NewMemoryIndex(cfg IndexConfig) (*MemoryIndex, error) {
	cacheSize := cfg.DocCacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultDocCacheSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	index, err := openIndex(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory index: %w", err)
	}
	docs, err := lru.New[string, Item](cacheSize)
	if err != nil {
		index.Close()
		return nil, err
	}
	return &MemoryIndex{index: index, docs: docs, logger: logger}, nil
}

func openIndex(path string) (bleve.Index, error) {
	if path == "" {
		return bleve.NewMemOnly(buildIndexMapping())
	}
	index, err := bleve.Open(path)
	if err == nil {
		return index, nil
	}
	return bleve.New(path, buildIndexMapping())
}

// buildIndexMapping defines the item schema: analyzed text for content and
// emotion, exact-match keywords for conversation and kind, a sortable
// datetime for the timestamp.
func buildIndexMapping() mapping.IndexMapping {
	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("content", bleve.NewTextFieldMapping())
	doc.AddFieldMappingsAt("emotion", bleve.NewTextFieldMapping())
	doc.AddFieldMappingsAt("conversation_id", bleve.NewKeywordFieldMapping())
	doc.AddFieldMappingsAt("kind", bleve.NewKeywordFieldMapping())
	doc.AddFieldMappingsAt("at", bleve.NewDateTimeFieldMapping())

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	return im
}

// Index stores an item, replacing any previous item with the same id.
func (m *MemoryIndex) Index(item Item) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrIndexClosed
	}

	doc := map[string]any{
		"content":         item.Content,
		"emotion":         item.Emotion,
		"conversation_id": item.ConversationID,
		"kind":            string(item.Kind),
		"at":              item.At,
	}
	if err := m.index.Index(item.ID, doc); err != nil {
		return fmt.Errorf("failed to index item %s: %w", item.ID, err)
	}
	m.docs.Add(item.ID, item)
	return nil
}

// Delete removes an item from the index.
func (m *MemoryIndex) Delete(id string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrIndexClosed
	}
	m.docs.Remove(id)
	return m.index.Delete(id)
}

// Search implements Searcher.
func (m *MemoryIndex) Search(ctx context.Context, queryText string, filters Filters, limit int) ([]ScoredItem, error) {
	return m.execute(ctx, m.buildQuery(queryText, filters), filters, limit)
}

// SearchFused runs two retrieval legs and merges them with reciprocal rank
// fusion: an analyzed content match and a query-string pass that also spans
// the emotion field. Queries routed with a fusion strategy use this entry
// point so phrasing differences between legs do not dominate ranking.
func (m *MemoryIndex) SearchFused(ctx context.Context, queryText string, filters Filters, limit int) ([]ScoredItem, error) {
	contentLeg, err := m.execute(ctx, m.buildQuery(queryText, filters), filters, limit)
	if err != nil {
		return nil, err
	}

	broad := filters
	broad.EmotionBoost = true
	broadLeg, err := m.execute(ctx, m.buildQuery(queryText, broad), broad, limit)
	if err != nil {
		return nil, err
	}

	fused := fuseRRF(contentLeg, broadLeg)
	if len(fused) > limit {
		fused = fused[:limit]
	}
	return fused, nil
}

func (m *MemoryIndex) buildQuery(queryText string, filters Filters) query.Query {
	var base query.Query
	trimmed := strings.TrimSpace(queryText)
	switch {
	case trimmed == "":
		base = bleve.NewMatchAllQuery()
	case filters.EmotionBoost:
		content := bleve.NewMatchQuery(trimmed)
		content.SetField("content")
		emotion := bleve.NewMatchQuery(trimmed)
		emotion.SetField("emotion")
		emotion.SetBoost(2.0)
		base = bleve.NewDisjunctionQuery(content, emotion)
	default:
		content := bleve.NewMatchQuery(trimmed)
		content.SetField("content")
		base = content
	}

	boolQuery := bleve.NewBooleanQuery()
	boolQuery.AddMust(base)

	if filters.ConversationID != "" {
		conv := bleve.NewTermQuery(filters.ConversationID)
		conv.SetField("conversation_id")
		boolQuery.AddMust(conv)
	}
	if len(filters.Kinds) > 0 {
		kinds := bleve.NewDisjunctionQuery()
		for _, k := range filters.Kinds {
			kq := bleve.NewTermQuery(string(k))
			kq.SetField("kind")
			kinds.AddQuery(kq)
		}
		boolQuery.AddMust(kinds)
	}
	return boolQuery
}

func (m *MemoryIndex) execute(ctx context.Context, q query.Query, filters Filters, limit int) ([]ScoredItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrIndexClosed
	}
	if limit <= 0 {
		limit = 10
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"*"}
	switch filters.Order {
	case OrderChronologicalAsc:
		req.SortBy([]string{"at"})
	case OrderChronologicalDesc:
		req.SortBy([]string{"-at"})
	}

	res, err := m.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("memory index search failed: %w", err)
	}

	items := make([]ScoredItem, 0, len(res.Hits))
	for _, hit := range res.Hits {
		item, ok := m.docs.Get(hit.ID)
		if !ok {
			item = itemFromFields(hit.ID, hit.Fields)
		}
		items = append(items, ScoredItem{Item: item, Score: hit.Score})
	}
	return items, nil
}

// itemFromFields reconstructs an item from stored fields when the doc cache
// has evicted it.
func itemFromFields(id string, fields map[string]any) Item {
	item := Item{
		ID:             id,
		ConversationID: stringField(fields, "conversation_id"),
		Kind:           Kind(stringField(fields, "kind")),
		Content:        stringField(fields, "content"),
		Emotion:        stringField(fields, "emotion"),
	}
	if raw := stringField(fields, "at"); raw != "" {
		if at, err := time.Parse(time.RFC3339, raw); err == nil {
			item.At = at
		}
	}
	return item
}

func stringField(fields map[string]any, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}

// Close closes the index. Further operations return ErrIndexClosed.
func (m *MemoryIndex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.index.Close()
}
