package memory

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/AkashaBot/openclaw-memory-offline-sqlite/pkg/embeddings"
	"github.com/AkashaBot/openclaw-memory-offline-sqlite/pkg/vector"
)

// EmbeddingRecord is one cached vector, at most one per (item, model).
// Vectors are persisted half-precision; Dims is the logical float32
// dimensionality. If a provider ever returns a different dimension for
// the same model name, the upsert rewrites dims alongside the vector so
// the stored record never lies about its own shape.
type EmbeddingRecord struct {
	ItemID    string
	Model     string
	Dims      int
	Vector    []float32
	UpdatedAt int64
}

// GetEmbedding returns the cached vector for (itemID, model), decoded,
// or nil if absent or unreadable.
func (m *DB) GetEmbedding(itemID, model string) *EmbeddingRecord {
	row := m.db.QueryRow(
		"SELECT dims, vector, updated_at FROM embeddings WHERE item_id = ? AND model = ?",
		itemID, model)

	var rec EmbeddingRecord
	var blob []byte
	if err := row.Scan(&rec.Dims, &blob, &rec.UpdatedAt); err != nil {
		return nil
	}

	vec, err := vector.Decode(blob)
	if err != nil || len(vec) != rec.Dims {
		return nil
	}
	rec.ItemID = itemID
	rec.Model = model
	rec.Vector = vec
	return &rec
}

// PutEmbedding upserts the vector for (itemID, model), replacing any
// prior vector for that exact key. The vector is stored quantized.
func (m *DB) PutEmbedding(itemID, model string, vec []float32) error {
	_, err := m.db.Exec(`
		INSERT INTO embeddings (item_id, model, dims, vector, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(item_id, model) DO UPDATE SET
			dims = excluded.dims,
			vector = excluded.vector,
			updated_at = excluded.updated_at`,
		itemID, model, len(vec), vector.Encode(vec), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("put embedding (%s, %s): %w", itemID, model, err)
	}
	return nil
}

// GetOrFetchEmbedding returns the cached vector for (itemID, model) or,
// on a miss, fetches one from the provider and persists it. A provider
// failure or timeout returns nil: callers must treat nil as "no semantic
// signal available for this item right now", never as an error.
func (m *DB) GetOrFetchEmbedding(ctx context.Context, itemID, model, text string, provider embeddings.Provider) []float32 {
	if rec := m.GetEmbedding(itemID, model); rec != nil {
		return rec.Vector
	}
	if provider == nil {
		return nil
	}

	vec, err := provider.Embed(ctx, text)
	if err != nil {
		log.Printf("[memory] embed miss for %s stays cold: %v", itemID, err)
		return nil
	}

	if err := m.PutEmbedding(itemID, model, vec); err != nil {
		log.Printf("[memory] cache embedding for %s: %v", itemID, err)
	}
	return vec
}

// CountEmbeddings returns the number of cached vectors.
func (m *DB) CountEmbeddings() int {
	var count int
	m.db.QueryRow("SELECT COUNT(*) FROM embeddings").Scan(&count)
	return count
}

// CleanOrphanEmbeddings removes cached vectors whose item no longer
// exists. Cache hygiene only; live embeddings are never pruned.
func (m *DB) CleanOrphanEmbeddings() (int, error) {
	result, err := m.db.Exec(`
		DELETE FROM embeddings
		WHERE item_id NOT IN (SELECT id FROM items)
	`)
	if err != nil {
		return 0, fmt.Errorf("clean orphan embeddings: %w", err)
	}
	rows, _ := result.RowsAffected()
	return int(rows), nil
}
