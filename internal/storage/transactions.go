package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"
)

// LedgerMutation is the persistence side of one apply or revert cycle:
// the new wallet balances and budget counters the engine computed,
// plus the transaction row to insert and/or remove. Everything commits
// in one SQL transaction so no partial effect is ever observable.
type LedgerMutation struct {
	InsertTx       *core.Transaction
	RemoveTxID     string
	WalletBalances map[string]int64 // wallet id -> new balance in cents
	BudgetLefts    map[string]int64 // budget id -> new left in cents
}

func (r *Repository) ApplyLedgerMutation(ctx context.Context, m LedgerMutation) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		for id, cents := range m.WalletBalances {
			res, err := tx.ExecContext(ctx,
				`UPDATE wallets SET balance_cents = ? WHERE id = ?`, cents, id)
			if err != nil {
				return fmt.Errorf("update wallet balance: %w", err)
			}
			if err := requireRow(res, "wallet"); err != nil {
				return err
			}
		}
		for id, cents := range m.BudgetLefts {
			res, err := tx.ExecContext(ctx,
				`UPDATE budgets SET left_cents = ? WHERE id = ?`, cents, id)
			if err != nil {
				return fmt.Errorf("update budget left: %w", err)
			}
			if err := requireRow(res, "budget"); err != nil {
				return err
			}
		}
		if m.RemoveTxID != "" {
			res, err := tx.ExecContext(ctx,
				`DELETE FROM transactions WHERE id = ?`, m.RemoveTxID)
			if err != nil {
				return fmt.Errorf("delete transaction: %w", err)
			}
			if err := requireRow(res, "transaction"); err != nil {
				return err
			}
		}
		if m.InsertTx != nil {
			t := m.InsertTx
			_, err := tx.ExecContext(ctx, `
				INSERT INTO transactions (id, owner_id, kind, amount_cents, occurred_at,
					category, wallet_name, to_wallet_name, description,
					created_by_id, created_by_name, created_at,
					updated_by_id, updated_by_name, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				t.ID, t.OwnerID, string(t.Kind), t.Amount.Cents, toUnix(t.OccurredAt),
				t.Category, t.Wallet, t.ToWallet, t.Description,
				t.CreatedBy.UserID, t.CreatedBy.Name, toUnix(t.CreatedBy.At),
				t.UpdatedBy.UserID, t.UpdatedBy.Name, toUnix(t.UpdatedBy.At))
			if isUniqueViolation(err) {
				return fmt.Errorf("transaction %q: %w", t.ID, core.ErrConflict)
			}
			if err != nil {
				return fmt.Errorf("insert transaction: %w", err)
			}
		}
		return nil
	})
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	var (
		t        core.Transaction
		kind     string
		occurred int64
		created  int64
		updated  int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, kind, amount_cents, occurred_at, category,
			wallet_name, to_wallet_name, description,
			created_by_id, created_by_name, created_at,
			updated_by_id, updated_by_name, updated_at
		FROM transactions WHERE id = ?`, id).
		Scan(&t.ID, &t.OwnerID, &kind, &t.Amount.Cents, &occurred, &t.Category,
			&t.Wallet, &t.ToWallet, &t.Description,
			&t.CreatedBy.UserID, &t.CreatedBy.Name, &created,
			&t.UpdatedBy.UserID, &t.UpdatedBy.Name, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	t.Kind = core.Kind(kind)
	t.OccurredAt = fromUnix(occurred)
	t.CreatedBy.At = fromUnix(created)
	t.UpdatedBy.At = fromUnix(updated)
	return t, nil
}

// ListTransactionsForWallet returns the committed transactions touching
// the wallet (as source or transfer destination), newest first.
func (r *Repository) ListTransactionsForWallet(ctx context.Context, walletName string, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM transactions
		WHERE wallet_name = ? OR to_wallet_name = ?
		ORDER BY occurred_at DESC, id DESC LIMIT ?`, walletName, walletName, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan transaction id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	txs := make([]core.Transaction, 0, len(ids))
	for _, id := range ids {
		t, err := r.GetTransaction(ctx, id)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, nil
}

// SignedSum computes the signed cent total of all committed
// transactions referencing the wallet. A reconciled wallet satisfies
// balance == initial balance + SignedSum; the worker uses this to
// detect drift.
func (r *Repository) SignedSum(ctx context.Context, walletName string) (int64, error) {
	var sum sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE
			WHEN kind = 'income' AND wallet_name = ?1 THEN amount_cents
			WHEN kind = 'expense' AND wallet_name = ?1 THEN -amount_cents
			WHEN kind = 'transfer' AND wallet_name = ?1 THEN -amount_cents
			WHEN kind = 'transfer' AND to_wallet_name = ?1 THEN amount_cents
			ELSE 0 END), 0)
		FROM transactions
		WHERE wallet_name = ?1 OR to_wallet_name = ?1`, walletName).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("signed sum: %w", err)
	}
	return sum.Int64, nil
}

// ListWalletNames returns the name of every wallet, for reconciliation
// sweeps.
func (r *Repository) ListWalletNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM wallets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list wallet names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan wallet name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
