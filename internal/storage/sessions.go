package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/quillfin/quill/internal/common"
	"github.com/quillfin/quill/internal/service"
)

// Session statuses.
const (
	sessionOpen   = "open"
	sessionClosed = "closed"
)

// SaveSession persists the serializable state of a paused run. Saving an
// existing open session replaces its state; a closed session cannot be
// reopened.
func (s *SQLiteStore) SaveSession(ctx context.Context, state service.SessionState) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(state.SessionID, "sessionID"); err != nil {
		return err
	}

	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM sessions WHERE id = ?`, state.SessionID).Scan(&status)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if status == sessionClosed {
		return fmt.Errorf("%w: %s", common.ErrSessionClosed, state.SessionID)
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, state, status)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			updated_at = CURRENT_TIMESTAMP
	`, state.SessionID, string(payload), sessionOpen)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// GetSession loads a paused session by id.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*service.SessionState, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return nil, err
	}

	var (
		payload string
		status  string
	)
	err := s.db.QueryRowContext(ctx, `SELECT state, status FROM sessions WHERE id = ?`, sessionID).Scan(&payload, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", common.ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if status == sessionClosed {
		return nil, fmt.Errorf("%w: %s", common.ErrSessionClosed, sessionID)
	}

	var state service.SessionState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("failed to decode session state: %w", err)
	}

	return &state, nil
}

// CloseSession marks a session completed. Closed sessions are kept for
// audit but can no longer be resumed.
func (s *SQLiteStore) CloseSession(ctx context.Context, sessionID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, sessionClosed, sessionID)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", common.ErrSessionNotFound, sessionID)
	}

	return nil
}
