package memory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Item is one stored memory. The id is caller-supplied and immutable;
// so is the text (mutation is delete + reinsert). CreatedAt is
// milliseconds since epoch.
type Item struct {
	ID        string
	CreatedAt int64
	Text      string
	Title     string
	Tags      string
	Source    string
	SourceID  string
	Metadata  string // opaque JSON blob, may be empty
	EntityID  string // who authored/said it
	ProcessID string // which agent captured it
	SessionID string // conversation grouping
}

const itemColumns = "id, created_at, text, title, tags, source, source_id, metadata, entity_id, process_id, session_id"

func scanItem(row interface{ Scan(...any) error }) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.CreatedAt, &it.Text, &it.Title, &it.Tags,
		&it.Source, &it.SourceID, &it.Metadata, &it.EntityID, &it.ProcessID, &it.SessionID)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// InsertItem stores a new memory item. The id must be unique and
// non-empty, the text non-empty after trimming, and metadata (when set)
// valid JSON. Validation failures are rejected at the boundary; nothing
// is partially applied.
func (m *DB) InsertItem(item *Item) error {
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("insert item: empty id")
	}
	if strings.TrimSpace(item.Text) == "" {
		return fmt.Errorf("insert item %s: empty text", item.ID)
	}
	if item.Metadata != "" && !json.Valid([]byte(item.Metadata)) {
		return fmt.Errorf("insert item %s: metadata is not valid JSON", item.ID)
	}
	if item.CreatedAt == 0 {
		item.CreatedAt = time.Now().UnixMilli()
	}

	_, err := m.db.Exec(`
		INSERT INTO items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.CreatedAt, item.Text, item.Title, item.Tags,
		item.Source, item.SourceID, item.Metadata, item.EntityID, item.ProcessID, item.SessionID)
	if err != nil {
		return fmt.Errorf("insert item %s: %w", item.ID, err)
	}
	return nil
}

// GetItem retrieves an item by id. Returns nil if not found.
func (m *DB) GetItem(id string) *Item {
	row := m.db.QueryRow("SELECT "+itemColumns+" FROM items WHERE id = ?", id)
	it, err := scanItem(row)
	if err != nil {
		return nil
	}
	return it
}

// DeleteItem removes an item, its cached embeddings, and (cascade) the
// facts extracted from it. Returns true if the item existed.
func (m *DB) DeleteItem(id string) bool {
	result, err := m.db.Exec("DELETE FROM items WHERE id = ?", id)
	if err != nil {
		return false
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return false
	}

	m.db.Exec("DELETE FROM embeddings WHERE item_id = ?", id)
	m.DeleteFactsBySourceItem(id)
	return true
}

// RecentItems returns up to limit items, newest first.
func (m *DB) RecentItems(limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := m.db.Query(
		"SELECT "+itemColumns+" FROM items ORDER BY created_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list recent items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			continue
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// CountItems returns the total number of stored items.
func (m *DB) CountItems() int {
	var count int
	m.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count)
	return count
}
