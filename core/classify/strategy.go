package classify

// strategyFor maps an intent to its retrieval strategy. The mapping is a
// total, deterministic function of the intent plus two flags: whether the
// query is temporal, and whether emotional keywords co-occur with a
// conversational intent.
//
// Temporal always wins: chronological ordering replaces similarity ranking
// entirely, so a temporal query never reaches the fusion strategies.
func strategyFor(intent Intent, isTemporal, emotionalOvertone bool) Strategy {
	if isTemporal || intent == IntentTemporalAnalysis {
		return StrategyChronological
	}

	switch intent {
	case IntentConversationalReference:
		if emotionalOvertone {
			return StrategyMultiVectorFusion
		}
		return StrategySemanticFusion
	case IntentEmotionalState:
		return StrategyEmotionWeighted
	case IntentRelationshipDiscovery:
		// Entity discovery rides on semantic similarity: the object of the
		// query is an entity, not a literal phrase to match.
		return StrategySemanticFusion
	case IntentFactualRecall:
		return StrategyContentMatch
	default:
		return StrategyContentMatch
	}
}
