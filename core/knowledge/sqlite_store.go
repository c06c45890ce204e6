package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements FactStore on a sqlite database. The uniqueness
// constraint on (subject, relation, object) backs the optimistic side of the
// conflict check; the write transaction serializes the pessimistic side.
type SQLiteStore struct {
	db *sql.DB
}

const factSchema = `
CREATE TABLE IF NOT EXISTS facts (
	id TEXT PRIMARY KEY,
	subject_id TEXT NOT NULL,
	relation_type TEXT NOT NULL,
	object_entity TEXT NOT NULL,
	confidence REAL NOT NULL,
	source_tag TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	UNIQUE(subject_id, relation_type, object_entity)
);

CREATE INDEX IF NOT EXISTS idx_facts_subject ON facts(subject_id);
CREATE INDEX IF NOT EXISTS idx_facts_subject_relation ON facts(subject_id, relation_type);
`

// NewSQLiteStore opens (and if needed creates) the fact database at path.
// Use ":memory:" for an ephemeral store in tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fact database: %w", err)
	}
	// A single pooled connection keeps ":memory:" databases coherent and
	// serializes write transactions without SQLITE_BUSY retries.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(factSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize fact schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// FactsBySubject returns all facts stored for a subject.
func (s *SQLiteStore) FactsBySubject(ctx context.Context, subjectID string) ([]*Fact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subject_id, relation_type, object_entity, confidence, source_tag, created_at, updated_at
		FROM facts WHERE subject_id = ?`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

// Transact runs fn inside a write transaction. sqlite serializes all
// writers, which is stricter than the per-subject critical section the
// resolver requires; correct, if coarser than a row-locked store would be.
func (s *SQLiteStore) Transact(ctx context.Context, subjectID string, fn func(tx FactTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := fn(&sqliteTx{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fact transaction: %w", err)
	}
	return nil
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) FactsByRelations(subjectID string, relations ...string) ([]*Fact, error) {
	if len(relations) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, subject_id, relation_type, object_entity, confidence, source_tag, created_at, updated_at
		FROM facts WHERE subject_id = ? AND relation_type IN (`
	args := []any{subjectID}
	for i, rel := range relations {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, rel)
	}
	query += ")"

	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query facts by relation: %w", err)
	}
	defer rows.Close()
	return scanFacts(rows)
}

func (t *sqliteTx) Insert(fact *Fact) error {
	_, err := t.tx.Exec(`
		INSERT INTO facts (id, subject_id, relation_type, object_entity, confidence, source_tag, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fact.ID, fact.SubjectID, fact.RelationType, fact.ObjectEntity,
		fact.Confidence, fact.SourceTag, fact.CreatedAt.Unix(), fact.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert fact: %w", err)
	}
	return nil
}

func (t *sqliteTx) UpdateConfidence(id string, confidence float64, updatedAt time.Time) error {
	_, err := t.tx.Exec(`UPDATE facts SET confidence = ?, updated_at = ? WHERE id = ?`,
		confidence, updatedAt.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update fact confidence: %w", err)
	}
	return nil
}

func (t *sqliteTx) Delete(id string) error {
	_, err := t.tx.Exec(`DELETE FROM facts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete fact: %w", err)
	}
	return nil
}

func scanFacts(rows *sql.Rows) ([]*Fact, error) {
	var facts []*Fact
	for rows.Next() {
		var f Fact
		var created, updated int64
		if err := rows.Scan(&f.ID, &f.SubjectID, &f.RelationType, &f.ObjectEntity,
			&f.Confidence, &f.SourceTag, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan fact row: %w", err)
		}
		f.CreatedAt = time.Unix(created, 0)
		f.UpdatedAt = time.Unix(updated, 0)
		facts = append(facts, &f)
	}
	return facts, rows.Err()
}
