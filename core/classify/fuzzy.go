package classify

// Fuzzy exemplar matching backs up the pattern table when keyword matching is
// inconclusive. Queries are compared to canonical intent exemplars with a
// character-bigram Dice coefficient: cheap, allocation-light, and tolerant of
// the typos and rephrasings the keyword table misses.

// bestExemplarMatch scores the query against every intent exemplar and
// returns the best intent with its similarity score.
func bestExemplarMatch(query string) (Intent, float64) {
	queryGrams := bigrams(query)

	best := IntentFactualRecall
	bestScore := 0.0
	for _, intent := range exemplarOrder() {
		for _, exemplar := range intentExemplars[intent] {
			score := diceCoefficient(queryGrams, bigrams(exemplar))
			if score > bestScore {
				best = intent
				bestScore = score
			}
		}
	}
	return best, bestScore
}

// exemplarOrder fixes iteration order so equal scores resolve
// deterministically across runs.
func exemplarOrder() []Intent {
	return []Intent{
		IntentTemporalAnalysis,
		IntentConversationalReference,
		IntentEmotionalState,
		IntentFactualRecall,
		IntentRelationshipDiscovery,
	}
}

// bigrams returns the multiset of character bigrams in s.
func bigrams(s string) map[string]int {
	grams := make(map[string]int)
	runes := []rune(s)
	for i := 0; i+1 < len(runes); i++ {
		grams[string(runes[i:i+2])]++
	}
	return grams
}

// diceCoefficient computes 2*|A∩B| / (|A|+|B|) over bigram multisets.
func diceCoefficient(a, b map[string]int) float64 {
	sizeA, sizeB := multisetSize(a), multisetSize(b)
	if sizeA == 0 || sizeB == 0 {
		return 0
	}

	overlap := 0
	for gram, countA := range a {
		countB := b[gram]
		if countB < countA {
			overlap += countB
		} else {
			overlap += countA
		}
	}
	return 2 * float64(overlap) / float64(sizeA+sizeB)
}

func multisetSize(m map[string]int) int {
	total := 0
	for _, count := range m {
		total += count
	}
	return total
}
