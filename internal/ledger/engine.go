// Package ledger computes the balance and budget effects of
// transactions. Apply and Revert are exact algebraic inverses of each
// other, with one deliberate exception: applying an expense clamps a
// budget's remaining amount at zero, while reverting adds the full
// amount back. Revert must be able to restore a budget above its
// nominal cap when the original apply clamped, so an edit of an
// overspent budget does not lose money. The asymmetry is kept from the
// system this replaces; see DESIGN.md.
//
// The package is pure: it mutates the wallet and budget values it is
// handed and performs no I/O. Callers load the affected records, run
// the engine, and persist the results in one storage transaction.
package ledger

import (
	"fmt"

	"tally/internal/core"
)

// Apply applies the effect of a committed transaction to the wallets
// and budgets passed in. Wallets are keyed by name; the source wallet
// must be present. Only budgets matching the transaction's category
// and scope are touched, so callers may pass every candidate budget.
func Apply(tx core.Transaction, wallets map[string]*core.Wallet, budgets []*core.Budget) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	src, ok := wallets[tx.Wallet]
	if !ok || src == nil {
		return fmt.Errorf("apply %s: source wallet %q: %w", tx.Kind, tx.Wallet, core.ErrNotFound)
	}

	switch tx.Kind {
	case core.KindIncome:
		src.Balance.Cents += tx.Amount.Cents

	case core.KindExpense:
		src.Balance.Cents -= tx.Amount.Cents
		for _, b := range budgets {
			if b == nil || !tx.MatchesBudget(*b) {
				continue
			}
			b.Left.Cents -= tx.Amount.Cents
			if b.Left.Cents < 0 {
				// Never show negative remaining, even when overspent.
				b.Left.Cents = 0
			}
		}

	case core.KindTransfer:
		src.Balance.Cents -= tx.Amount.Cents
		if dst, ok := wallets[tx.ToWallet]; ok && dst != nil {
			dst.Balance.Cents += tx.Amount.Cents
		}
	}
	return nil
}

// Revert undoes the effect of a previously applied transaction. It
// must run with the transaction's original fields, and it must run
// before any re-apply when editing: applying the replacement first
// double-counts.
func Revert(tx core.Transaction, wallets map[string]*core.Wallet, budgets []*core.Budget) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	src, ok := wallets[tx.Wallet]
	if !ok || src == nil {
		return fmt.Errorf("revert %s: source wallet %q: %w", tx.Kind, tx.Wallet, core.ErrNotFound)
	}

	switch tx.Kind {
	case core.KindIncome:
		src.Balance.Cents -= tx.Amount.Cents

	case core.KindExpense:
		src.Balance.Cents += tx.Amount.Cents
		for _, b := range budgets {
			if b == nil || !tx.MatchesBudget(*b) {
				continue
			}
			// No clamp on the way back up.
			b.Left.Cents += tx.Amount.Cents
		}

	case core.KindTransfer:
		src.Balance.Cents += tx.Amount.Cents
		if dst, ok := wallets[tx.ToWallet]; ok && dst != nil {
			dst.Balance.Cents -= tx.Amount.Cents
		}
	}
	return nil
}

// WalletNames returns the wallet names a transaction touches: the
// source, and the destination for transfers. Callers use it to decide
// which records to load before running the engine.
func WalletNames(tx core.Transaction) []string {
	names := []string{tx.Wallet}
	if tx.Kind == core.KindTransfer && tx.ToWallet != "" && tx.ToWallet != tx.Wallet {
		names = append(names, tx.ToWallet)
	}
	return names
}
