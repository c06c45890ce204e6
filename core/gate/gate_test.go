package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adalundhe/reverie/core/classify"
)

func newTestGate(t *testing.T) (*Gate, *classify.Classifier) {
	t.Helper()
	return New(Config{}), classify.NewClassifier(classify.ClassifierConfig{})
}

func TestGate_TemporalIntentForcesRetrieval(t *testing.T) {
	g, c := newTestGate(t)

	query := "What did we talk about yesterday?"
	decision := g.ShouldRetrieve(query, c.Classify(query), nil)

	assert.True(t, decision.ShouldSearch)
	assert.Equal(t, ReasonTemporalIntent, decision.Reason)
}

func TestGate_RelationshipIntentForcesRetrieval(t *testing.T) {
	g, c := newTestGate(t)

	query := "Who is Marcus?"
	decision := g.ShouldRetrieve(query, c.Classify(query), nil)

	assert.True(t, decision.ShouldSearch)
	assert.Equal(t, ReasonRelationshipIntent, decision.Reason)
}

func TestGate_RecallKeyword(t *testing.T) {
	g, _ := newTestGate(t)

	decision := g.ShouldRetrieve(
		"do you remember what i cooked for the party",
		classify.Classification{Intent: classify.IntentFactualRecall},
		nil,
	)

	assert.True(t, decision.ShouldSearch)
	assert.Equal(t, ReasonRecallKeyword, decision.Reason)
}

func TestGate_RecallKeywordNeedsWordBoundary(t *testing.T) {
	g, _ := newTestGate(t)

	decision := g.ShouldRetrieve(
		"that party was unforgettable",
		classify.Classification{Intent: classify.IntentFactualRecall},
		nil,
	)
	assert.False(t, decision.ShouldSearch, "keyword inside a longer word is no recall signal")
	assert.Equal(t, ReasonCasual, decision.Reason)

	decision = g.ShouldRetrieve(
		"did i forget to tell you about the trip",
		classify.Classification{Intent: classify.IntentFactualRecall},
		nil,
	)
	assert.True(t, decision.ShouldSearch)
	assert.Equal(t, ReasonRecallKeyword, decision.Reason)
}

func TestGate_CasualChatSkipsRetrieval(t *testing.T) {
	g, _ := newTestGate(t)

	for _, query := range []string{
		"haha that's funny",
		"sounds good to me",
		"what should we have for dinner tonight",
	} {
		decision := g.ShouldRetrieve(query, classify.Classification{Intent: classify.IntentFactualRecall}, nil)
		assert.False(t, decision.ShouldSearch, "query %q should take the casual path", query)
		assert.Equal(t, ReasonCasual, decision.Reason)
	}
}

func TestGate_BareName_NotInWindow(t *testing.T) {
	g, _ := newTestGate(t)

	decision := g.ShouldRetrieve(
		"Sarah?",
		classify.Classification{Intent: classify.IntentFactualRecall},
		[]string{"how was your day", "pretty good, went hiking"},
	)

	assert.True(t, decision.ShouldSearch, "a bare name absent from the window is an implicit recall signal")
	assert.Equal(t, ReasonBareNameQuery, decision.Reason)
}

func TestGate_BareName_AlreadyInWindow(t *testing.T) {
	g, _ := newTestGate(t)

	decision := g.ShouldRetrieve(
		"Sarah?",
		classify.Classification{Intent: classify.IntentFactualRecall},
		[]string{"I had lunch with Sarah today", "oh nice, how is she"},
	)

	assert.False(t, decision.ShouldSearch, "name already in the short-term window needs no search")
}

func TestGate_NovelEntityMidSentence(t *testing.T) {
	g, _ := newTestGate(t)

	decision := g.ShouldRetrieve(
		"should i invite Priya to the thing",
		classify.Classification{Intent: classify.IntentFactualRecall},
		[]string{"what are you planning this weekend"},
	)

	assert.True(t, decision.ShouldSearch)
	assert.Equal(t, ReasonNovelEntity, decision.Reason)
}

func TestGate_SentenceInitialCapitalIgnored(t *testing.T) {
	g, _ := newTestGate(t)

	decision := g.ShouldRetrieve(
		"Dinner sounds great",
		classify.Classification{Intent: classify.IntentFactualRecall},
		nil,
	)

	assert.False(t, decision.ShouldSearch)
}

func TestGate_EmptyQuery(t *testing.T) {
	g, _ := newTestGate(t)

	decision := g.ShouldRetrieve("", classify.Classification{Intent: classify.IntentFactualRecall}, nil)

	assert.False(t, decision.ShouldSearch)
	assert.Equal(t, ReasonCasual, decision.Reason)
}
