package knowledge

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable signals that the backing store could not serve the
// request. Callers degrade (empty fact list on read, propagated write
// failure) rather than aborting the conversational turn.
var ErrStoreUnavailable = errors.New("knowledge: fact store unavailable")

// FactStore is the narrow persistence interface behind the resolver. The
// storage engine itself is an external collaborator; the resolver only needs
// parameterized reads and a transactional write scope.
type FactStore interface {
	// FactsBySubject returns every stored fact for the subject, in no
	// guaranteed order. Runs at read-committed isolation and never blocks
	// writers.
	FactsBySubject(ctx context.Context, subjectID string) ([]*Fact, error)

	// Transact runs fn inside a critical section covering the subject's
	// rows. The read-compare-delete-insert conflict check must be atomic
	// with respect to concurrent writers for the same subject.
	Transact(ctx context.Context, subjectID string, fn func(tx FactTx) error) error

	// Close releases the store's resources.
	Close() error
}

// FactTx is the write scope handed to Transact callbacks.
type FactTx interface {
	// FactsByRelations returns the subject's facts whose relation type is
	// in relations.
	FactsByRelations(subjectID string, relations ...string) ([]*Fact, error)

	// Insert writes a new fact row.
	Insert(fact *Fact) error

	// UpdateConfidence refreshes confidence and UpdatedAt on an existing
	// fact.
	UpdateConfidence(id string, confidence float64, updatedAt time.Time) error

	// Delete removes a fact row.
	Delete(id string) error
}
