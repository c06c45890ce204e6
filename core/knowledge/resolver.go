package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Temporal Knowledge Resolver
// =============================================================================
//
// Two-tier conflict handling:
//
//   - Write time: hard delete, but only for *direct* semantic opposites on
//     the same object (likes vs dislikes pizza). Confidence decides the
//     survivor; ties keep the incumbent.
//   - Read time: soft temporal decay for same-relation supersession
//     (works_at Google vs works_at Microsoft). Both rows persist for
//     historical analysis; the stale one collapses below the usable floor.

// DefaultConfidenceFloor is the weighted-confidence cutoff callers apply
// when they want only usable facts.
const DefaultConfidenceFloor = 0.6

// ResolverConfig tunes the resolver. Zero values select defaults.
type ResolverConfig struct {
	// Opposing registers the directly contradictory relation pairs.
	// Defaults to DefaultOpposingPairs.
	Opposing *OpposingPairs

	// StalenessThresholds maps relation type -> days before a fact is
	// flagged potentially outdated. Defaults to
	// DefaultStalenessThresholds.
	StalenessThresholds map[string]int

	// ConfidenceFloor is the default floor for UsableFacts. Defaults to
	// DefaultConfidenceFloor.
	ConfidenceFloor float64

	// Clock overrides time.Now, for tests.
	Clock func() time.Time

	// Logger receives conflict decisions and degraded reads.
	Logger *slog.Logger
}

// Resolver reconciles potentially contradictory stored facts about a subject
// over time. The write path requires the store's per-subject critical
// section; the read path is lock-free.
type Resolver struct {
	store      FactStore
	opposing   *OpposingPairs
	thresholds map[string]int
	floor      float64
	clock      func() time.Time
	logger     *slog.Logger
}

// NewResolver creates a Resolver over the given store.
func NewResolver(store FactStore, cfg ResolverConfig) *Resolver {
	opposing := cfg.Opposing
	if opposing == nil {
		opposing = DefaultOpposingPairs()
	}
	thresholds := cfg.StalenessThresholds
	if thresholds == nil {
		thresholds = DefaultStalenessThresholds()
	}
	floor := cfg.ConfidenceFloor
	if floor <= 0 {
		floor = DefaultConfidenceFloor
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:      store,
		opposing:   opposing,
		thresholds: thresholds,
		floor:      floor,
		clock:      clock,
		logger:     logger,
	}
}

// StoreFact writes a fact, resolving direct opposition at write time. If an
// opposing fact exists on the same object entity, the weaker-confidence side
// is deleted; if the incoming fact is the weaker one, the call is a no-op
// reporting the existing fact as authoritative. Opposing facts on different
// objects are left alone: their resolution is deferred to read-time decay.
func (r *Resolver) StoreFact(ctx context.Context, subjectID, relationType, objectEntity string, confidence float64, sourceTag string) (*StoreResult, error) {
	if subjectID == "" || relationType == "" || objectEntity == "" {
		return nil, fmt.Errorf("knowledge: subject, relation, and object are all required")
	}
	confidence = clamp01(confidence)

	var result *StoreResult
	err := r.store.Transact(ctx, subjectID, func(tx FactTx) error {
		var err error
		result, err = r.resolveAndStore(tx, subjectID, relationType, objectEntity, confidence, sourceTag)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logStoreResult(subjectID, relationType, objectEntity, result)
	return result, nil
}

func (r *Resolver) resolveAndStore(tx FactTx, subjectID, relationType, objectEntity string, confidence float64, sourceTag string) (*StoreResult, error) {
	relations := []string{relationType}
	opposite, hasOpposite := r.opposing.Opposite(relationType)
	if hasOpposite {
		relations = append(relations, opposite)
	}

	existing, err := tx.FactsByRelations(subjectID, relations...)
	if err != nil {
		return nil, err
	}

	// Re-statement of the same triple refreshes confidence in place.
	for _, f := range existing {
		if f.RelationType == relationType && f.ObjectEntity == objectEntity {
			return r.refreshFact(tx, f, confidence)
		}
	}

	// Direct opposition on the same object: confidence decides.
	if hasOpposite {
		for _, f := range existing {
			if f.RelationType == opposite && f.ObjectEntity == objectEntity {
				return r.resolveOpposition(tx, f, subjectID, relationType, objectEntity, confidence, sourceTag)
			}
		}
	}

	stored, err := r.insertFact(tx, subjectID, relationType, objectEntity, confidence, sourceTag)
	if err != nil {
		return nil, err
	}
	return &StoreResult{Stored: stored}, nil
}

func (r *Resolver) refreshFact(tx FactTx, existing *Fact, confidence float64) (*StoreResult, error) {
	now := r.clock()
	if err := tx.UpdateConfidence(existing.ID, confidence, now); err != nil {
		return nil, err
	}
	updated := *existing
	updated.Confidence = confidence
	updated.UpdatedAt = now
	return &StoreResult{Stored: &updated}, nil
}

func (r *Resolver) resolveOpposition(tx FactTx, opposing *Fact, subjectID, relationType, objectEntity string, confidence float64, sourceTag string) (*StoreResult, error) {
	// Equal or greater confidence supersedes; the newer statement wins
	// ties because it reflects the later observation.
	if confidence < opposing.Confidence {
		return &StoreResult{Stored: opposing, Superseded: true}, nil
	}

	if err := tx.Delete(opposing.ID); err != nil {
		return nil, err
	}
	stored, err := r.insertFact(tx, subjectID, relationType, objectEntity, confidence, sourceTag)
	if err != nil {
		return nil, err
	}
	return &StoreResult{Stored: stored, Replaced: opposing}, nil
}

func (r *Resolver) insertFact(tx FactTx, subjectID, relationType, objectEntity string, confidence float64, sourceTag string) (*Fact, error) {
	now := r.clock()
	fact := &Fact{
		ID:           uuid.New().String(),
		SubjectID:    subjectID,
		RelationType: relationType,
		ObjectEntity: objectEntity,
		Confidence:   confidence,
		SourceTag:    sourceTag,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.Insert(fact); err != nil {
		return nil, err
	}
	return fact, nil
}

func (r *Resolver) logStoreResult(subjectID, relationType, objectEntity string, result *StoreResult) {
	switch {
	case result.Superseded:
		r.logger.Info("fact write superseded by stronger opposing fact",
			"subject", subjectID, "relation", relationType, "object", objectEntity,
			"authoritative", result.Stored.RelationType)
	case result.Replaced != nil:
		r.logger.Info("opposing fact replaced",
			"subject", subjectID, "relation", relationType, "object", objectEntity,
			"replaced_relation", result.Replaced.RelationType,
			"replaced_confidence", result.Replaced.Confidence)
	}
}

// RelevantFacts projects every stored fact for the subject into its
// relevance-scored form as of the given time, ordered by weighted confidence
// descending, then recency descending.
func (r *Resolver) RelevantFacts(ctx context.Context, subjectID string, asOf time.Time) ([]*ScoredFact, error) {
	facts, err := r.store.FactsBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	scored := make([]*ScoredFact, 0, len(facts))
	for _, f := range facts {
		scored = append(scored, r.score(f, asOf))
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].WeightedConfidence != scored[j].WeightedConfidence {
			return scored[i].WeightedConfidence > scored[j].WeightedConfidence
		}
		return scored[i].Fact.UpdatedAt.After(scored[j].Fact.UpdatedAt)
	})
	return scored, nil
}

// UsableFacts filters a scored slice down to facts above the confidence
// floor and not flagged outdated. floor <= 0 selects the configured default.
// This is how same-relation conflicts on different objects resolve: the
// stale row's weighted confidence collapses below the floor while both rows
// remain stored.
func (r *Resolver) UsableFacts(scored []*ScoredFact, floor float64) []*ScoredFact {
	if floor <= 0 {
		floor = r.floor
	}
	usable := make([]*ScoredFact, 0, len(scored))
	for _, s := range scored {
		if s.WeightedConfidence < floor || s.PotentiallyOutdated {
			continue
		}
		usable = append(usable, s)
	}
	return usable
}

func (r *Resolver) score(f *Fact, asOf time.Time) *ScoredFact {
	age := asOf.Sub(f.UpdatedAt)
	if age < 0 {
		age = 0
	}
	relevance := TemporalRelevance(age)
	return &ScoredFact{
		Fact:                f,
		TemporalRelevance:   relevance,
		WeightedConfidence:  f.Confidence * relevance,
		PotentiallyOutdated: age > stalenessThreshold(r.thresholds, f.RelationType),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
