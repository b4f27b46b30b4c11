package storage

import (
	"context"
	"fmt"

	"tally/internal/core"
)

func (r *Repository) InsertActivity(ctx context.Context, e core.ActivityEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_entries (id, wallet_id, user_id, actor_id, actor_name,
			action, entity_type, entity_id, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.WalletID, e.UserID, e.ActorID, e.ActorName,
		string(e.Action), e.EntityType, e.EntityID, e.Message, toUnix(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert activity entry: %w", err)
	}
	return nil
}

// ListActivity returns the user's feed, newest first.
func (r *Repository) ListActivity(ctx context.Context, userID string, limit int) ([]core.ActivityEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, wallet_id, user_id, actor_id, actor_name, action,
			entity_type, entity_id, message, created_at
		FROM activity_entries WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var entries []core.ActivityEntry
	for rows.Next() {
		var (
			e       core.ActivityEntry
			action  string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.WalletID, &e.UserID, &e.ActorID, &e.ActorName,
			&action, &e.EntityType, &e.EntityID, &e.Message, &created); err != nil {
			return nil, fmt.Errorf("scan activity entry: %w", err)
		}
		e.Action = core.Action(action)
		e.CreatedAt = fromUnix(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *Repository) CountActivity(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_entries WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count activity: %w", err)
	}
	return n, nil
}

func (r *Repository) InsertComment(ctx context.Context, e core.CommentEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comment_entries (id, wallet_id, entity_id, user_id,
			author_id, author_name, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.WalletID, e.EntityID, e.UserID,
		e.AuthorID, e.Author, e.Message, toUnix(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert comment entry: %w", err)
	}
	return nil
}

// ListComments returns a wallet thread in chronological order.
func (r *Repository) ListComments(ctx context.Context, walletID, entityID string, limit int) ([]core.CommentEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, wallet_id, entity_id, user_id, author_id, author_name, message, created_at
		FROM comment_entries WHERE wallet_id = ? AND entity_id = ?
		ORDER BY created_at ASC, id ASC LIMIT ?`, walletID, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var entries []core.CommentEntry
	for rows.Next() {
		var (
			e       core.CommentEntry
			created int64
		)
		if err := rows.Scan(&e.ID, &e.WalletID, &e.EntityID, &e.UserID,
			&e.AuthorID, &e.Author, &e.Message, &created); err != nil {
			return nil, fmt.Errorf("scan comment entry: %w", err)
		}
		e.CreatedAt = fromUnix(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *Repository) CountComments(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comment_entries WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}
