package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	return NewClassifier(ClassifierConfig{})
}

func TestClassify_EmptyQuery(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify("")

	assert.Equal(t, IntentFactualRecall, result.Intent)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Empty(t, result.MatchedPatterns)
	assert.False(t, result.IsTemporal)
}

func TestClassify_WhitespaceOnlyQuery(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify("   \t\n  ")

	assert.Equal(t, IntentFactualRecall, result.Intent)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Empty(t, result.MatchedPatterns)
}

func TestClassify_TemporalQuery_Yesterday(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify("What did we talk about yesterday?")

	assert.Equal(t, IntentTemporalAnalysis, result.Intent)
	assert.True(t, result.IsTemporal)
	assert.Equal(t, DirectionNone, result.TemporalDirection, "dated reference has no direction")
	assert.Equal(t, StrategyChronological, result.Strategy)
	assert.Contains(t, result.MatchedPatterns, "yesterday")
}

func TestClassify_TemporalDirection_Earliest(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify("When was the first time I mentioned my sister?")

	require.True(t, result.IsTemporal)
	assert.Equal(t, DirectionEarliest, result.TemporalDirection)
	assert.Equal(t, StrategyChronological, result.Strategy)
}

func TestClassify_TemporalDirection_Latest(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify("What was the last time we played chess?")

	require.True(t, result.IsTemporal)
	assert.Equal(t, DirectionLatest, result.TemporalDirection)
}

func TestClassify_TemporalOutranksEmotional(t *testing.T) {
	c := newTestClassifier(t)

	// Both "yesterday" and "feeling" match; temporal has top priority.
	result := c.Classify("How was I feeling yesterday?")

	assert.Equal(t, IntentTemporalAnalysis, result.Intent)
	assert.True(t, result.IsTemporal)
	assert.Equal(t, StrategyChronological, result.Strategy)
}

func TestClassify_TemporalOutranksFactual(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify("Where did I work two months ago?")

	assert.Equal(t, IntentTemporalAnalysis, result.Intent)
	assert.Equal(t, StrategyChronological, result.Strategy)
}

func TestClassify_ConversationalReference(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify("You told me something about gardening")

	assert.Equal(t, IntentConversationalReference, result.Intent)
	assert.False(t, result.IsTemporal)
	assert.Equal(t, StrategySemanticFusion, result.Strategy)
}

func TestClassify_ConversationalWithEmotion_MultiVector(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify("We talked about how stressed I was at work")

	assert.Equal(t, IntentConversationalReference, result.Intent)
	assert.Equal(t, StrategyMultiVectorFusion, result.Strategy)
}

func TestClassify_EmotionalOnly(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify("I'm anxious about the interview")

	assert.Equal(t, IntentEmotionalState, result.Intent)
	assert.Equal(t, StrategyEmotionWeighted, result.Strategy)
}

func TestClassify_FactualRecall(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify("What is my favorite food?")

	assert.Equal(t, IntentFactualRecall, result.Intent)
	assert.Equal(t, StrategyContentMatch, result.Strategy)
	require.NotNil(t, result.Entity)
	assert.Equal(t, "likes", result.Entity.Relation)
}

func TestClassify_RelationshipDiscovery(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify("Who is Sarah?")

	assert.Equal(t, IntentRelationshipDiscovery, result.Intent)
	assert.Equal(t, StrategySemanticFusion, result.Strategy)
}

func TestClassify_NoMatch_DefaultsWithHalfConfidence(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify("xylophone quandary brontosaurus")

	assert.Equal(t, IntentFactualRecall, result.Intent)
	// No pattern matched and no exemplar resembles this string, so the
	// default confidence survives the fuzzy pass.
	assert.InDelta(t, 0.5, result.Confidence, 0.15)
}

func TestClassify_LongestMatchWinsTieBreak(t *testing.T) {
	c := newTestClassifier(t)

	// "most recently" and "latest"-class words can co-occur; the longest
	// matched substring must lead MatchedPatterns.
	result := c.Classify("What did I say most recently about dinner?")

	require.NotEmpty(t, result.MatchedPatterns)
	longest := result.MatchedPatterns[0]
	for _, m := range result.MatchedPatterns[1:] {
		assert.LessOrEqual(t, len(m), len(longest))
	}
}

func TestClassify_WordBoundary_AgoDoesNotMatchInsideWords(t *testing.T) {
	c := newTestClassifier(t)

	result := c.Classify("I love the city of Chicago")

	assert.NotEqual(t, IntentTemporalAnalysis, result.Intent, "'ago' inside 'Chicago' must not match")
	assert.False(t, result.IsTemporal)
}

func TestClassify_MultipleMatchesRaiseConfidence(t *testing.T) {
	c := newTestClassifier(t)

	single := c.Classify("what happened yesterday")
	multiple := c.Classify("what happened yesterday and last week")

	assert.Greater(t, multiple.Confidence, single.Confidence)
	assert.LessOrEqual(t, multiple.Confidence, maxConfidence)
}

func TestClassify_FuzzyFallback_Typo(t *testing.T) {
	c := newTestClassifier(t)

	// "yesterdy" misses the keyword table but closely resembles the
	// temporal exemplar, so the fuzzy pass should pick temporal analysis.
	result := c.Classify("what did we talk about yesterdy")

	assert.Equal(t, IntentTemporalAnalysis, result.Intent)
	assert.True(t, result.IsTemporal)
}

func TestClassify_NeverPanicsOnGarbage(t *testing.T) {
	c := newTestClassifier(t)

	for _, query := range []string{
		"\x00\x01\x02",
		"🎉🎉🎉",
		"a",
		"'''",
		string(make([]byte, 4096)),
	} {
		assert.NotPanics(t, func() {
			result := c.Classify(query)
			assert.GreaterOrEqual(t, result.Confidence, 0.0)
			assert.LessOrEqual(t, result.Confidence, 1.0)
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := newTestClassifier(t)

	first := c.Classify("Remember when we discussed the trip last month?")
	second := c.Classify("Remember when we discussed the trip last month?")

	assert.Equal(t, first, second)
}
