package classify

// Intent represents the classifier's best guess at why a query was asked.
type Intent string

const (
	IntentTemporalAnalysis        Intent = "temporal_analysis"
	IntentConversationalReference Intent = "conversational_reference"
	IntentEmotionalState          Intent = "emotional_state"
	IntentFactualRecall           Intent = "factual_recall"
	IntentRelationshipDiscovery   Intent = "relationship_discovery"
)

// Strategy selects how supporting material should be retrieved for a query.
type Strategy string

const (
	// StrategyChronological bypasses similarity ranking entirely and orders
	// results by timestamp per the query's temporal direction.
	StrategyChronological Strategy = "chronological"

	// StrategyMultiVectorFusion fuses content, semantic, and emotion
	// dimensions for queries that reference shared history with feeling.
	StrategyMultiVectorFusion Strategy = "multi_vector_fusion"

	// StrategySemanticFusion weights semantic similarity for references to
	// prior exchanges.
	StrategySemanticFusion Strategy = "semantic_fusion"

	// StrategyEmotionWeighted boosts emotionally similar material.
	StrategyEmotionWeighted Strategy = "emotion_weighted"

	// StrategyContentMatch is the plain content-similarity default.
	StrategyContentMatch Strategy = "content_match"
)

// TemporalDirection indicates which end of the timeline a temporal query
// targets. Retrieval uses it to choose ascending vs descending ordering.
type TemporalDirection string

const (
	DirectionNone     TemporalDirection = "none"
	DirectionEarliest TemporalDirection = "earliest"
	DirectionLatest   TemporalDirection = "latest"
)

// ExtractedEntity captures a (type, relation) pair the classifier recognized
// in a factual or relationship query, e.g. "where do I work" -> works_at.
type ExtractedEntity struct {
	Type     string `json:"type"`
	Relation string `json:"relation"`
}

// Classification is the immutable result of classifying one query. It is
// created per incoming query, consumed once, and never persisted.
type Classification struct {
	Intent            Intent            `json:"intent"`
	Strategy          Strategy          `json:"strategy"`
	Confidence        float64           `json:"confidence"`
	MatchedPatterns   []string          `json:"matched_patterns,omitempty"`
	Entity            *ExtractedEntity  `json:"entity,omitempty"`
	IsTemporal        bool              `json:"is_temporal"`
	TemporalDirection TemporalDirection `json:"temporal_direction"`
	Reasoning         string            `json:"reasoning"`
}
