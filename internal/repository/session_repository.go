package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SessionRepository persists the single logged-in-account pointer. The table
// holds at most one row.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionRowID = 1

// Get returns the persisted account id, or "" when nobody is signed in.
func (r *SessionRepository) Get(ctx context.Context) (string, error) {
	const query = `SELECT account_id FROM session WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, sessionRowID)
	var accountID sql.NullString
	if err := row.Scan(&accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("scan session: %w", err)
	}
	if !accountID.Valid {
		return "", nil
	}
	return accountID.String, nil
}

func (r *SessionRepository) Set(ctx context.Context, accountID string) error {
	return r.put(ctx, sql.NullString{String: accountID, Valid: accountID != ""})
}

func (r *SessionRepository) Clear(ctx context.Context) error {
	return r.put(ctx, sql.NullString{})
}

// put replaces the pointer row wholesale. A RowsAffected-guarded UPDATE is
// not usable here: the mysql driver reports rows changed, not rows matched,
// so writing the value already stored would look like a miss and trip the
// INSERT into a duplicate-key error.
func (r *SessionRepository) put(ctx context.Context, accountID sql.NullString) error {
	const del = `DELETE FROM session WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, del, sessionRowID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	const insert = `INSERT INTO session (id, account_id) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, insert, sessionRowID, accountID); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}
