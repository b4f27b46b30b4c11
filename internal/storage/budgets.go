package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"
)

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO budgets (id, owner_id, category, plan, wallet_name,
				amount_cents, left_cents, period, start_date, end_date, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.OwnerID, b.Category, string(b.Plan), b.WalletName,
			b.Amount.Cents, b.Left.Cents, string(b.Period),
			toUnix(b.StartDate), toUnix(b.EndDate), toUnix(b.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert budget: %w", err)
		}
		for _, m := range b.Collaborators {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO budget_members (budget_id, user_id, name, email, role)
				VALUES (?, ?, ?, ?, ?)`,
				b.ID, m.UserID, m.Name, m.Email, string(m.Role))
			if isUniqueViolation(err) {
				return fmt.Errorf("budget member %q: %w", m.Email, core.ErrConflict)
			}
			if err != nil {
				return fmt.Errorf("insert budget member: %w", err)
			}
		}
		return nil
	})
}

func (r *Repository) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	var (
		b            core.Budget
		plan, period string
		start, end   int64
		created      int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, category, plan, wallet_name, amount_cents, left_cents,
			period, start_date, end_date, created_at
		FROM budgets WHERE id = ?`, id).
		Scan(&b.ID, &b.OwnerID, &b.Category, &plan, &b.WalletName,
			&b.Amount.Cents, &b.Left.Cents, &period, &start, &end, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget: %w", core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	b.Plan = core.Plan(plan)
	b.Period = core.Period(period)
	b.StartDate = fromUnix(start)
	b.EndDate = fromUnix(end)
	b.CreatedAt = fromUnix(created)

	b.Collaborators, err = r.budgetMembers(ctx, b.ID)
	if err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (r *Repository) budgetMembers(ctx context.Context, budgetID string) ([]core.Collaborator, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, name, email, role FROM budget_members
		WHERE budget_id = ? ORDER BY id`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("list budget members: %w", err)
	}
	defer rows.Close()

	var members []core.Collaborator
	for rows.Next() {
		var (
			m    core.Collaborator
			role string
		)
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &role); err != nil {
			return nil, fmt.Errorf("scan budget member: %w", err)
		}
		m.Role = core.Role(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *Repository) ListBudgetsForUser(ctx context.Context, userID, email string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id FROM budgets b
		WHERE b.owner_id = ? OR EXISTS (
			SELECT 1 FROM budget_members m WHERE m.budget_id = b.id AND m.email = ?)
		ORDER BY b.created_at`, userID, email)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan budget id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	budgets := make([]core.Budget, 0, len(ids))
	for _, id := range ids {
		b, err := r.GetBudget(ctx, id)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, nil
}

// MatchingBudgets returns the candidate budgets an expense by ownerID
// on walletName in the given category could count against: the owner's
// personal budgets in that category plus any shared budget pinned to
// the wallet. The engine re-checks the match on each one.
func (r *Repository) MatchingBudgets(ctx context.Context, ownerID, category, walletName string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM budgets
		WHERE category = ? COLLATE NOCASE
			AND ((plan = 'personal' AND owner_id = ?) OR (plan = 'shared' AND wallet_name = ?))`,
		category, ownerID, walletName)
	if err != nil {
		return nil, fmt.Errorf("find matching budgets: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan budget id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	budgets := make([]core.Budget, 0, len(ids))
	for _, id := range ids {
		b, err := r.GetBudget(ctx, id)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, nil
}

// UpdateBudget writes the allow-listed mutable fields. Left changes
// only through ledger mutations.
func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets SET category = ?, wallet_name = ?, amount_cents = ?,
			period = ?, start_date = ?, end_date = ?
		WHERE id = ?`,
		b.Category, b.WalletName, b.Amount.Cents, string(b.Period),
		toUnix(b.StartDate), toUnix(b.EndDate), b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res, "budget")
}

func (r *Repository) DeleteBudget(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res, "budget")
}
