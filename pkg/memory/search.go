package memory

import (
	"fmt"
	"strings"
)

// LexicalHit is one FTS5 match. Score is the sign-inverted BM25 rank, so
// higher is better everywhere downstream of this file.
type LexicalHit struct {
	Item  Item
	Score float64
}

// SearchLexical performs FTS5 full-text search over text, title and tags
// with BM25 ranking. An empty or unescapable query returns no hits.
func (m *DB) SearchLexical(query string, limit int) ([]LexicalHit, error) {
	if limit <= 0 {
		limit = 20
	}

	ftsQuery := escapeFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := m.db.Query(`
		SELECT i.id, i.created_at, i.text, i.title, i.tags, i.source, i.source_id,
			i.metadata, i.entity_id, i.process_id, i.session_id, rank
		FROM items_fts
		JOIN items i ON items_fts.rowid = i.rowid
		WHERE items_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	defer rows.Close()

	var hits []LexicalHit
	for rows.Next() {
		var hit LexicalHit
		var rank float64
		err := rows.Scan(&hit.Item.ID, &hit.Item.CreatedAt, &hit.Item.Text,
			&hit.Item.Title, &hit.Item.Tags, &hit.Item.Source, &hit.Item.SourceID,
			&hit.Item.Metadata, &hit.Item.EntityID, &hit.Item.ProcessID,
			&hit.Item.SessionID, &rank)
		if err != nil {
			continue
		}
		// FTS5 bm25 rank is lower-is-better (negative); invert it.
		hit.Score = -rank
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return hits, fmt.Errorf("scan lexical hits: %w", err)
	}
	return hits, nil
}

// escapeFTSQuery prepares a user query for FTS5 MATCH. A query made only
// of alphanumeric/underscore word tokens separated by whitespace passes
// through untouched; anything else is wrapped as a single quoted phrase
// with internal quotes doubled.
func escapeFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}

	if isBareWordQuery(query) {
		return query
	}

	return `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
}

func isBareWordQuery(query string) bool {
	for _, field := range strings.Fields(query) {
		for _, r := range field {
			switch {
			case r >= 'a' && r <= 'z':
			case r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9':
			case r == '_':
			default:
				return false
			}
		}
	}
	return true
}
