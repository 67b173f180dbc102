package storage

import (
	"context"
	"fmt"

	"github.com/quillfin/quill/internal/model"
)

// SaveResults records the categorized rows of a completed run. Re-saving
// a (run, transaction) pair replaces the earlier row, which keeps resumed
// runs idempotent.
func (s *SQLiteStore) SaveResults(ctx context.Context, runID string, rows []model.CategorizedTransaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(runID, "runID"); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results (run_id, transaction_id, merchant_clean, entity, category, source)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, transaction_id) DO UPDATE SET
			merchant_clean = excluded.merchant_clean,
			entity = excluded.entity,
			category = excluded.category,
			source = excluded.source
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare results insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			runID, row.ID, row.MerchantClean, row.Entity, row.Category, string(row.Source)); err != nil {
			return fmt.Errorf("failed to save result for %s: %w", row.ID, err)
		}
	}

	return tx.Commit()
}

// GetResults returns the categorized rows saved for a run, in insertion order.
func (s *SQLiteStore) GetResults(ctx context.Context, runID string) ([]model.CategorizedTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(runID, "runID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT transaction_id, merchant_clean, entity, category, source
		FROM results
		WHERE run_id = ?
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.CategorizedTransaction
	for rows.Next() {
		var (
			row    model.CategorizedTransaction
			source string
		)
		if err := rows.Scan(&row.ID, &row.MerchantClean, &row.Entity, &row.Category, &source); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		row.Source = model.CategorySource(source)
		out = append(out, row)
	}

	return out, rows.Err()
}
