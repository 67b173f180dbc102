package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quillfin/quill/internal/service"
)

// AppendCacheRecord durably appends one fast-path decision. Records are
// immutable once written; there is no update or delete path.
func (s *SQLiteStore) AppendCacheRecord(ctx context.Context, rec service.CacheRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(rec.Description, "description"); err != nil {
		return err
	}
	if err := validateString(rec.Category, "category"); err != nil {
		return err
	}

	embedding, err := json.Marshal(rec.Embedding)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cache_records (description, embedding, category, confidence)
		VALUES (?, ?, ?, ?)
	`, rec.Description, string(embedding), rec.Category, rec.Confidence)
	if err != nil {
		return fmt.Errorf("failed to append cache record: %w", err)
	}

	return nil
}

// LoadCacheRecords reloads every cache record in insertion order.
func (s *SQLiteStore) LoadCacheRecords(ctx context.Context) ([]service.CacheRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, embedding, category, confidence
		FROM cache_records
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []service.CacheRecord
	for rows.Next() {
		var (
			rec      service.CacheRecord
			rawEmbed string
		)
		if err := rows.Scan(&rec.InsertedAt, &rec.Description, &rawEmbed, &rec.Category, &rec.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan cache record: %w", err)
		}
		if err := json.Unmarshal([]byte(rawEmbed), &rec.Embedding); err != nil {
			return nil, fmt.Errorf("failed to decode embedding for %q: %w", rec.Description, err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// CountCacheRecords returns the number of persisted cache records.
func (s *SQLiteStore) CountCacheRecords(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache records: %w", err)
	}
	return n, nil
}
