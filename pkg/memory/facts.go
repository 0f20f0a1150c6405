package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Fact is one subject-predicate-object triple with a confidence weight.
// Subjects and objects are entity names; the graph layer treats every
// distinct name as a node.
type Fact struct {
	ID           string
	CreatedAt    int64
	Subject      string
	Predicate    string
	Object       string
	Confidence   float64
	SourceItemID string // item this fact was extracted from, if any
	EntityID     string
}

const factColumns = "id, created_at, subject, predicate, object, confidence, source_item_id, entity_id"

func scanFact(row interface{ Scan(...any) error }) (*Fact, error) {
	var f Fact
	err := row.Scan(&f.ID, &f.CreatedAt, &f.Subject, &f.Predicate, &f.Object,
		&f.Confidence, &f.SourceItemID, &f.EntityID)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// InsertFact stores a fact. A blank id gets a generated UUID. Subject
// and predicate must be non-empty; confidence outside [0,1] is clamped
// rather than rejected. A zero confidence means unset and defaults to
// full confidence; callers who distrust a fact should set a small
// positive value instead.
func (m *DB) InsertFact(fact *Fact) error {
	if strings.TrimSpace(fact.Subject) == "" {
		return fmt.Errorf("insert fact: empty subject")
	}
	if strings.TrimSpace(fact.Predicate) == "" {
		return fmt.Errorf("insert fact: empty predicate")
	}
	if fact.ID == "" {
		fact.ID = uuid.NewString()
	}
	if fact.CreatedAt == 0 {
		fact.CreatedAt = time.Now().UnixMilli()
	}
	if fact.Confidence == 0 {
		fact.Confidence = 1
	}
	if fact.Confidence < 0 {
		fact.Confidence = 0
	}
	if fact.Confidence > 1 {
		fact.Confidence = 1
	}

	_, err := m.db.Exec(`
		INSERT INTO facts (`+factColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, fact.ID, fact.CreatedAt, fact.Subject, fact.Predicate, fact.Object,
		fact.Confidence, fact.SourceItemID, fact.EntityID)
	if err != nil {
		return fmt.Errorf("insert fact %s: %w", fact.ID, err)
	}
	return nil
}

// GetFact retrieves a fact by id. Returns nil if not found.
func (m *DB) GetFact(id string) *Fact {
	row := m.db.QueryRow("SELECT "+factColumns+" FROM facts WHERE id = ?", id)
	f, err := scanFact(row)
	if err != nil {
		return nil
	}
	return f
}

// ListFacts returns up to limit facts, newest first.
func (m *DB) ListFacts(limit int) ([]Fact, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := m.db.Query(
		"SELECT "+factColumns+" FROM facts ORDER BY created_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}
	defer rows.Close()

	var facts []Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			continue
		}
		facts = append(facts, *f)
	}
	return facts, rows.Err()
}

// DeleteFact removes a fact by id. Returns true if it existed.
func (m *DB) DeleteFact(id string) bool {
	result, err := m.db.Exec("DELETE FROM facts WHERE id = ?", id)
	if err != nil {
		return false
	}
	rows, _ := result.RowsAffected()
	return rows > 0
}

// DeleteFactsBySourceItem removes all facts extracted from the given
// item. Returns the number removed.
func (m *DB) DeleteFactsBySourceItem(itemID string) int {
	result, err := m.db.Exec("DELETE FROM facts WHERE source_item_id = ?", itemID)
	if err != nil {
		return 0
	}
	rows, _ := result.RowsAffected()
	return int(rows)
}

// SearchFacts returns facts whose subject, predicate or object contains
// the query as a case-insensitive literal substring, newest first.
// LIKE metacharacters in the query match themselves.
func (m *DB) SearchFacts(query string, limit int) ([]Fact, error) {
	if limit <= 0 {
		limit = 100
	}

	pattern := "%" + escapeLikePattern(query) + "%"
	rows, err := m.db.Query(`
		SELECT `+factColumns+` FROM facts
		WHERE subject LIKE ? ESCAPE '\'
		   OR predicate LIKE ? ESCAPE '\'
		   OR object LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, id LIMIT ?`,
		pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search facts: %w", err)
	}
	defer rows.Close()

	var facts []Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			continue
		}
		facts = append(facts, *f)
	}
	return facts, rows.Err()
}

// escapeLikePattern neutralizes LIKE metacharacters so the query is
// matched literally.
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// DistinctSubjects returns the sorted set of subjects across all facts.
func (m *DB) DistinctSubjects() ([]string, error) {
	return m.distinctColumn("subject")
}

// DistinctPredicates returns the sorted set of predicates across all facts.
func (m *DB) DistinctPredicates() ([]string, error) {
	return m.distinctColumn("predicate")
}

func (m *DB) distinctColumn(column string) ([]string, error) {
	rows, err := m.db.Query("SELECT DISTINCT " + column + " FROM facts ORDER BY " + column)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			continue
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// CountFacts returns the total number of stored facts.
func (m *DB) CountFacts() int {
	var count int
	m.db.QueryRow("SELECT COUNT(*) FROM facts").Scan(&count)
	return count
}
