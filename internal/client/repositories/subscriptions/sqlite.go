package subscriptions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/subtrack/internal/client/models"
	"github.com/dmitrijs2005/subtrack/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, userID string, sub *models.Subscription) error {
	if sub.ID == "" {
		return fmt.Errorf("failed to upsert subscription: empty id")
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to encode subscription %s: %w", sub.ID, err)
	}

	status := sub.Status
	if status == "" {
		status = models.StatusActive
	}

	query := `
		INSERT INTO subscriptions (id, user_id, status, payload, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			status = excluded.status,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, sub.ID, userID, string(status), payload); err != nil {
		return fmt.Errorf("failed to upsert subscription %s: %w", sub.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context, userID string) ([]models.Subscription, error) {
	query := `SELECT payload FROM subscriptions WHERE user_id = ? AND hidden = 0 ORDER BY rowid`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select subscriptions: %w", err)
	}
	defer rows.Close()

	var result []models.Subscription
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan subscription row: %w", err)
		}
		var sub models.Subscription
		if err := json.Unmarshal(payload, &sub); err != nil {
			return nil, fmt.Errorf("failed to decode subscription: %w", err)
		}
		result = append(result, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Subscription, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM subscriptions WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription %s: %w", id, err)
	}

	sub := &models.Subscription{}
	if err := json.Unmarshal(payload, sub); err != nil {
		return nil, fmt.Errorf("failed to decode subscription %s: %w", id, err)
	}
	return sub, nil
}

// UpdateStatus reads the cached row, rewrites its status and stores it back
// in one transaction when the repository is bound to a *sql.DB.
func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	update := func(ctx context.Context, tx dbx.DBTX) error {
		var userID string
		var payload []byte
		err := tx.QueryRowContext(ctx, `SELECT user_id, payload FROM subscriptions WHERE id = ?`, id).Scan(&userID, &payload)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get subscription %s: %w", id, err)
		}

		var sub models.Subscription
		if err := json.Unmarshal(payload, &sub); err != nil {
			return fmt.Errorf("failed to decode subscription %s: %w", id, err)
		}
		sub.Status = status
		return NewSQLiteRepository(tx).Upsert(ctx, userID, &sub)
	}

	b, ok := r.db.(dbx.Beginner)
	if !ok {
		return update(ctx, r.db)
	}
	return dbx.WithTx(ctx, b, nil, update)
}

func (r *SQLiteRepository) Hide(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE subscriptions SET hidden = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to hide subscription %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) HiddenIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM subscriptions WHERE user_id = ? AND hidden = 1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select hidden subscriptions: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan hidden subscription: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hidden subscriptions: %w", err)
	}
	return ids, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions`); err != nil {
		return fmt.Errorf("failed to clear subscriptions: %w", err)
	}
	return nil
}
