package knowledge

import "time"

// Fact is one stored (subject, relation, object) statement with a confidence
// and timestamps. Facts are unique per (subject, relation, object); the same
// relation may hold toward many objects, and history is preserved on purpose.
type Fact struct {
	ID           string    `json:"id"`
	SubjectID    string    `json:"subject_id"`
	RelationType string    `json:"relation_type"`
	ObjectEntity string    `json:"object_entity"`
	Confidence   float64   `json:"confidence"`
	SourceTag    string    `json:"source_tag,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ScoredFact is the read-time projection of a Fact: decayed relevance,
// ranking weight, and the staleness flag. Computed on every read and
// discarded after use, never stored.
type ScoredFact struct {
	Fact *Fact `json:"fact"`

	// TemporalRelevance decays with age in [0.4, 1.0] per the step
	// schedule in decay.go. Monotonically non-increasing in fact age.
	TemporalRelevance float64 `json:"temporal_relevance"`

	// WeightedConfidence = Confidence * TemporalRelevance. The actual
	// ranking signal.
	WeightedConfidence float64 `json:"weighted_confidence"`

	// PotentiallyOutdated is set when the fact's age exceeds its
	// relation's staleness threshold.
	PotentiallyOutdated bool `json:"potentially_outdated"`
}

// StoreResult reports the outcome of a write-time conflict resolution.
type StoreResult struct {
	// Stored is the authoritative fact after the call: the newly inserted
	// fact, or the surviving existing fact when the write was a no-op.
	Stored *Fact

	// Replaced is the opposing fact deleted in favor of Stored, if any.
	Replaced *Fact

	// Superseded reports that the incoming fact lost to an existing
	// opposing fact of equal or greater confidence and was not written.
	Superseded bool
}
