package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *MemoryIndex {
	t.Helper()
	idx, err := NewMemoryIndex(IndexConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func seedItems(t *testing.T, idx *MemoryIndex, items ...Item) {
	t.Helper()
	for _, item := range items {
		require.NoError(t, idx.Index(item))
	}
}

func TestMemoryIndex_ContentMatch(t *testing.T) {
	idx := newTestIndex(t)
	seedItems(t, idx,
		Item{ID: "1", ConversationID: "c1", Kind: KindMessage, Content: "we talked about pizza toppings", At: time.Now()},
		Item{ID: "2", ConversationID: "c1", Kind: KindMessage, Content: "weekend hiking plans", At: time.Now()},
	)

	results, err := idx.Search(context.Background(), "pizza", Filters{}, 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].Item.ID)
	assert.Equal(t, "we talked about pizza toppings", results[0].Item.Content)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestMemoryIndex_ConversationFilter(t *testing.T) {
	idx := newTestIndex(t)
	seedItems(t, idx,
		Item{ID: "1", ConversationID: "conv-a", Kind: KindMessage, Content: "pizza night", At: time.Now()},
		Item{ID: "2", ConversationID: "conv-b", Kind: KindMessage, Content: "pizza recipes", At: time.Now()},
	)

	results, err := idx.Search(context.Background(), "pizza", Filters{ConversationID: "conv-b"}, 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "2", results[0].Item.ID)
}

func TestMemoryIndex_KindFilter(t *testing.T) {
	idx := newTestIndex(t)
	seedItems(t, idx,
		Item{ID: "1", ConversationID: "c1", Kind: KindMessage, Content: "pizza tonight", At: time.Now()},
		Item{ID: "2", ConversationID: "c1", Kind: KindSummary, Content: "pizza discussion summary", At: time.Now()},
	)

	results, err := idx.Search(context.Background(), "pizza", Filters{Kinds: []Kind{KindSummary}}, 10)
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, KindSummary, results[0].Item.Kind)
}

func TestMemoryIndex_ChronologicalOrder(t *testing.T) {
	idx := newTestIndex(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		seedItems(t, idx, Item{
			ID:             fmt.Sprintf("%d", i),
			ConversationID: "c1",
			Kind:           KindMessage,
			Content:        "band practice update",
			At:             base.AddDate(0, 0, i),
		})
	}

	asc, err := idx.Search(context.Background(), "band practice", Filters{Order: OrderChronologicalAsc}, 10)
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.Equal(t, "0", asc[0].Item.ID)
	assert.Equal(t, "2", asc[2].Item.ID)

	desc, err := idx.Search(context.Background(), "band practice", Filters{Order: OrderChronologicalDesc}, 10)
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.Equal(t, "2", desc[0].Item.ID)
	assert.Equal(t, "0", desc[2].Item.ID)
}

func TestMemoryIndex_EmptyQueryMatchesAll(t *testing.T) {
	idx := newTestIndex(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedItems(t, idx,
		Item{ID: "old", ConversationID: "c1", Kind: KindMessage, Content: "first chat", At: base},
		Item{ID: "new", ConversationID: "c1", Kind: KindMessage, Content: "latest chat", At: base.Add(time.Hour)},
	)

	results, err := idx.Search(context.Background(), "  ", Filters{Order: OrderChronologicalDesc}, 10)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "new", results[0].Item.ID)
}

func TestMemoryIndex_EmotionBoostReachesEmotionField(t *testing.T) {
	idx := newTestIndex(t)
	seedItems(t, idx,
		Item{ID: "tagged", ConversationID: "c1", Kind: KindMessage, Content: "the deadline conversation", Emotion: "anxious", At: time.Now()},
		Item{ID: "plain", ConversationID: "c1", Kind: KindMessage, Content: "grocery list", At: time.Now()},
	)

	plain, err := idx.Search(context.Background(), "anxious", Filters{}, 10)
	require.NoError(t, err)
	assert.Empty(t, plain, "content-only search should not see the emotion tag")

	boosted, err := idx.Search(context.Background(), "anxious", Filters{EmotionBoost: true}, 10)
	require.NoError(t, err)
	require.Len(t, boosted, 1)
	assert.Equal(t, "tagged", boosted[0].Item.ID)
}

func TestMemoryIndex_SearchFusedMergesLegs(t *testing.T) {
	idx := newTestIndex(t)
	seedItems(t, idx,
		Item{ID: "both", ConversationID: "c1", Kind: KindMessage, Content: "talked about feeling overwhelmed", Emotion: "overwhelmed", At: time.Now()},
		Item{ID: "content-only", ConversationID: "c1", Kind: KindMessage, Content: "overwhelmed by the move", At: time.Now()},
		Item{ID: "emotion-only", ConversationID: "c1", Kind: KindMessage, Content: "short check in", Emotion: "overwhelmed", At: time.Now()},
	)

	results, err := idx.SearchFused(context.Background(), "overwhelmed", Filters{}, 10)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "both", results[0].Item.ID, "agreement across legs should rank first")
}

func TestMemoryIndex_Delete(t *testing.T) {
	idx := newTestIndex(t)
	seedItems(t, idx, Item{ID: "1", ConversationID: "c1", Kind: KindMessage, Content: "pizza", At: time.Now()})

	require.NoError(t, idx.Delete("1"))

	results, err := idx.Search(context.Background(), "pizza", Filters{}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestMemoryIndex_ClosedIndexErrors(t *testing.T) {
	idx := newTestIndex(t)
	require.NoError(t, idx.Close())

	err := idx.Index(Item{ID: "1", Content: "x"})
	assert.ErrorIs(t, err, ErrIndexClosed)

	_, err = idx.Search(context.Background(), "x", Filters{}, 10)
	assert.ErrorIs(t, err, ErrIndexClosed)
}

func TestNullSearcher(t *testing.T) {
	var s Searcher = NullSearcher{}

	results, err := s.Search(context.Background(), "anything", Filters{}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, s.Close())
}

func TestFuseRRF_AgreementOutranksSingleLeg(t *testing.T) {
	legA := []ScoredItem{
		{Item: Item{ID: "a"}, Score: 10},
		{Item: Item{ID: "shared"}, Score: 5},
	}
	legB := []ScoredItem{
		{Item: Item{ID: "shared"}, Score: 3},
		{Item: Item{ID: "b"}, Score: 2},
	}

	fused := fuseRRF(legA, legB)

	require.Len(t, fused, 3)
	assert.Equal(t, "shared", fused[0].Item.ID)
}
