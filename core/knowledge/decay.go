package knowledge

import "time"

// =============================================================================
// Temporal Decay & Staleness
// =============================================================================
//
// Relevance decays as a step function of fact age rather than a smooth curve:
// the boundaries are easy to reason about when debugging a ranking, and the
// floor of 0.4 keeps old facts rankable without letting them outrank fresh
// ones of comparable confidence.

const (
	relevanceFull   = 1.0
	relevanceMonth2 = 0.8
	relevanceMonth3 = 0.6
	relevanceFloor  = 0.4

	day = 24 * time.Hour
)

// TemporalRelevance returns the decayed relevance for a fact of the given
// age. Full weight up to 30 days, then 0.8 to 60, 0.6 to 90, floor after.
func TemporalRelevance(age time.Duration) float64 {
	switch {
	case age <= 30*day:
		return relevanceFull
	case age <= 60*day:
		return relevanceMonth2
	case age <= 90*day:
		return relevanceMonth3
	default:
		return relevanceFloor
	}
}

// DefaultStalenessThresholds maps relation types to the age in days past
// which a fact is flagged potentially outdated. A single global window is
// wrong here: "lives in X" decays far slower than "currently feeling Y".
func DefaultStalenessThresholds() map[string]int {
	return map[string]int{
		// Location, employment, affiliation: slow-moving.
		"lives_in":  180,
		"works_at":  180,
		"member_of": 180,

		// Aspirations and intentions go stale quickly.
		"wants_to": 60,
		"plans_to": 60,

		// Relationship status.
		"dating":       120,
		"married_to":   120,
		"friends_with": 120,

		// Momentary state is stale within the week.
		"feeling":   7,
		"currently": 7,
	}
}

// DefaultStalenessDays applies to relations absent from the threshold map.
const DefaultStalenessDays = 365

// stalenessThreshold resolves the threshold for a relation type.
func stalenessThreshold(thresholds map[string]int, relationType string) time.Duration {
	if days, ok := thresholds[relationType]; ok {
		return time.Duration(days) * day
	}
	return DefaultStalenessDays * day
}
