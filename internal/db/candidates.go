package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/candidate-ranker/internal/types"
)

// ListCandidates returns up to limit candidates in insertion order. A limit
// of zero or less returns every row.
func (db *DB) ListCandidates(ctx context.Context, limit int) ([]types.Document, error) {
	query := `SELECT id, text, COALESCE(metadata, '{}'::jsonb)
		 FROM candidates
		 ORDER BY created_at, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		var doc types.Document
		var metaJSON []byte
		if err := rows.Scan(&doc.ID, &doc.Text, &metaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		if err := json.Unmarshal(metaJSON, &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for candidate %s: %w", doc.ID, err)
		}
		if len(doc.Metadata) == 0 {
			doc.Metadata = nil
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}
	return docs, nil
}

// UpsertCandidates stores docs in one batch, replacing text and metadata of
// existing IDs.
func (db *DB) UpsertCandidates(ctx context.Context, docs []types.Document) error {
	if len(docs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, doc := range docs {
		metaJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for candidate %s: %w", doc.ID, err)
		}
		batch.Queue(
			`INSERT INTO candidates (id, text, metadata)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET text = $2, metadata = $3, updated_at = NOW()`,
			doc.ID, doc.Text, metaJSON,
		)
	}

	results := db.pool.SendBatch(ctx, batch)
	defer results.Close()
	for _, doc := range docs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to upsert candidate %s: %w", doc.ID, err)
		}
	}
	return nil
}

// CountCandidates returns the number of stored candidates.
func (db *DB) CountCandidates(ctx context.Context) (int, error) {
	var n int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM candidates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count candidates: %w", err)
	}
	return n, nil
}
