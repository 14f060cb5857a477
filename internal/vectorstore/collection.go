package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dshills/repohealth/pkg/types"
)

// Collection is a named set of embedded chunk records.
type Collection struct {
	store *Store
	id    int64
	name  string
}

// Record is one stored chunk with its metadata.
type Record struct {
	ID       string
	Document string
	Meta     types.ChunkMeta
}

// QueryResult is a record paired with its cosine similarity to the
// query vector.
type QueryResult struct {
	Record
	Similarity float64
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Add stores a batch of records in one transaction. All four slices
// must have the same length; record order is preserved by insertion
// order. Re-adding an existing record id replaces it.
func (c *Collection) Add(ctx context.Context, ids []string, vectors [][]float32, documents []string, metadatas []types.ChunkMeta) error {
	if len(ids) != len(vectors) || len(ids) != len(documents) || len(ids) != len(metadatas) {
		return ErrLengthMismatch
	}
	if len(ids) == 0 {
		return nil
	}

	tx, err := c.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (collection_id, record_id, vector, document, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection_id, record_id) DO UPDATE SET
			vector = excluded.vector,
			document = excluded.document,
			metadata = excluded.metadata`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range ids {
		metaJSON, err := json.Marshal(metadatas[i])
		if err != nil {
			return fmt.Errorf("marshaling metadata for %q: %w", ids[i], err)
		}
		blob := serializeVector(vectors[i])
		if _, err := stmt.ExecContext(ctx, c.id, ids[i], blob, documents[i], string(metaJSON)); err != nil {
			return fmt.Errorf("inserting record %q: %w", ids[i], err)
		}
	}

	return tx.Commit()
}

// GetAll returns the collection's records in insertion order. A
// non-positive limit returns everything.
func (c *Collection) GetAll(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT record_id, document, metadata FROM records WHERE collection_id = ? ORDER BY id`
	args := []any{c.id}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := c.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var rec Record
		var metaJSON string
		if err := rows.Scan(&rec.ID, &rec.Document, &metaJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(metaJSON), &rec.Meta); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata for %q: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Query returns the k records most similar to the query vector by
// cosine similarity, highest first. Records with a different dimension
// than the query are skipped.
func (c *Collection) Query(ctx context.Context, vector []float32, k int) ([]QueryResult, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := c.store.db.QueryContext(ctx,
		`SELECT record_id, vector, document, metadata FROM records WHERE collection_id = ? ORDER BY id`, c.id)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []QueryResult
	for rows.Next() {
		var rec Record
		var blob []byte
		var metaJSON string
		if err := rows.Scan(&rec.ID, &blob, &rec.Document, &metaJSON); err != nil {
			return nil, err
		}
		stored := deserializeVector(blob)
		if len(stored) != len(vector) {
			continue
		}
		if err := json.Unmarshal([]byte(metaJSON), &rec.Meta); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata for %q: %w", rec.ID, err)
		}
		results = append(results, QueryResult{
			Record:     rec,
			Similarity: cosineSimilarity(vector, stored),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of records in the collection.
func (c *Collection) Count(ctx context.Context) (int, error) {
	var count int
	err := c.store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE collection_id = ?`, c.id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return count, nil
}
