package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"
)

func (r *Repository) CreateWallet(ctx context.Context, w core.Wallet) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO wallets (id, owner_id, name, currency, plan, balance_cents, opening_balance_cents, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			w.ID, w.OwnerID, w.Name, w.Currency, string(w.Plan), w.Balance.Cents, w.Balance.Cents, toUnix(w.CreatedAt))
		if isUniqueViolation(err) {
			return fmt.Errorf("wallet %q: %w", w.Name, core.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("insert wallet: %w", err)
		}
		return insertWalletMembers(ctx, tx, w.ID, w.Collaborators)
	})
}

func insertWalletMembers(ctx context.Context, tx *sql.Tx, walletID string, members []core.Collaborator) error {
	for _, m := range members {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO wallet_members (wallet_id, user_id, name, email, role)
			VALUES (?, ?, ?, ?, ?)`,
			walletID, m.UserID, m.Name, m.Email, string(m.Role))
		if isUniqueViolation(err) {
			return fmt.Errorf("member %q: %w", m.Email, core.ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("insert wallet member: %w", err)
		}
	}
	return nil
}

func (r *Repository) GetWallet(ctx context.Context, id string) (core.Wallet, error) {
	return r.scanWallet(ctx, `SELECT id, owner_id, name, currency, plan, balance_cents, created_at
		FROM wallets WHERE id = ?`, id)
}

// FindWalletForUser resolves a wallet by name among the wallets the
// caller can see: owned by them, or shared with their email.
func (r *Repository) FindWalletForUser(ctx context.Context, name, userID, email string) (core.Wallet, error) {
	return r.scanWallet(ctx, `
		SELECT w.id, w.owner_id, w.name, w.currency, w.plan, w.balance_cents, w.created_at
		FROM wallets w
		WHERE w.name = ? AND (w.owner_id = ? OR EXISTS (
			SELECT 1 FROM wallet_members m WHERE m.wallet_id = w.id AND m.email = ?))
		LIMIT 1`, name, userID, email)
}

func (r *Repository) scanWallet(ctx context.Context, query string, args ...any) (core.Wallet, error) {
	var (
		w       core.Wallet
		plan    string
		created int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&w.ID, &w.OwnerID, &w.Name, &w.Currency, &plan, &w.Balance.Cents, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Wallet{}, fmt.Errorf("wallet: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.Wallet{}, fmt.Errorf("get wallet: %w", err)
	}
	w.Plan = core.Plan(plan)
	w.CreatedAt = fromUnix(created)

	w.Collaborators, err = r.walletMembers(ctx, w.ID)
	if err != nil {
		return core.Wallet{}, err
	}
	return w, nil
}

func (r *Repository) walletMembers(ctx context.Context, walletID string) ([]core.Collaborator, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, name, email, role FROM wallet_members
		WHERE wallet_id = ? ORDER BY id`, walletID)
	if err != nil {
		return nil, fmt.Errorf("list wallet members: %w", err)
	}
	defer rows.Close()

	var members []core.Collaborator
	for rows.Next() {
		var (
			m    core.Collaborator
			role string
		)
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &role); err != nil {
			return nil, fmt.Errorf("scan wallet member: %w", err)
		}
		m.Role = core.Role(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListWalletsForUser returns every wallet the caller owns or
// collaborates on, owned first.
func (r *Repository) ListWalletsForUser(ctx context.Context, userID, email string) ([]core.Wallet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT w.id FROM wallets w
		WHERE w.owner_id = ? OR EXISTS (
			SELECT 1 FROM wallet_members m WHERE m.wallet_id = w.id AND m.email = ?)
		ORDER BY w.owner_id = ? DESC, w.created_at`, userID, email, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan wallet id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	wallets := make([]core.Wallet, 0, len(ids))
	for _, id := range ids {
		w, err := r.GetWallet(ctx, id)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, nil
}

// UpdateWallet writes the allow-listed mutable fields: name, currency
// and plan. Balance changes only through ledger mutations; membership
// only through the member operations.
func (r *Repository) UpdateWallet(ctx context.Context, w core.Wallet) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE wallets SET name = ?, currency = ?, plan = ? WHERE id = ?`,
		w.Name, w.Currency, string(w.Plan), w.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("wallet %q: %w", w.Name, core.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("update wallet: %w", err)
	}
	return requireRow(res, "wallet")
}

func (r *Repository) DeleteWallet(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM wallets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete wallet: %w", err)
	}
	return requireRow(res, "wallet")
}

func (r *Repository) AddWalletMember(ctx context.Context, walletID string, m core.Collaborator) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wallet_members (wallet_id, user_id, name, email, role)
		VALUES (?, ?, ?, ?, ?)`,
		walletID, m.UserID, m.Name, m.Email, string(m.Role))
	if isUniqueViolation(err) {
		return fmt.Errorf("member %q: %w", m.Email, core.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("add wallet member: %w", err)
	}
	return nil
}

func (r *Repository) RemoveWalletMember(ctx context.Context, walletID, email string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM wallet_members WHERE wallet_id = ? AND email = ?`, walletID, email)
	if err != nil {
		return fmt.Errorf("remove wallet member: %w", err)
	}
	return requireRow(res, "wallet member")
}

// LedgerDeltaByName sums balance minus opening balance across every
// wallet carrying the name. A reconciled ledger has this equal to
// SignedSum for the same name.
func (r *Repository) LedgerDeltaByName(ctx context.Context, name string) (int64, error) {
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(balance_cents - opening_balance_cents), 0) FROM wallets WHERE name = ?`,
		name).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("ledger delta: %w", err)
	}
	return total.Int64, nil
}

func requireRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, core.ErrNotFound)
	}
	return nil
}
