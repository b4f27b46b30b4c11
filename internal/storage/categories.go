package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// EnsureCategory registers an ad hoc category for a user. Insert is
// idempotent: a concurrent or repeated registration of the same name
// is success, not an error.
func (r *Repository) EnsureCategory(ctx context.Context, userID, name string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (user_id, name, created_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id, name) DO NOTHING`,
		userID, name, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("ensure category: %w", err)
	}
	return nil
}

// HasCategory reports whether the user already registered the name
// (case-insensitive).
func (r *Repository) HasCategory(ctx context.Context, userID, name string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM categories WHERE user_id = ? AND name = ?`, userID, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup category: %w", err)
	}
	return true, nil
}

func (r *Repository) ListCategories(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
