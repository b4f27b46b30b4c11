package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/export"
)

// TransactionSource is the slice of the repository the worker reads.
type TransactionSource interface {
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
}

// LedgerAuditor exposes the aggregates used by reconciliation sweeps.
type LedgerAuditor interface {
	ListWalletNames(ctx context.Context) ([]string, error)
	SignedSum(ctx context.Context, walletName string) (int64, error)
	LedgerDeltaByName(ctx context.Context, walletName string) (int64, error)
}

// ExportWorker mirrors committed transactions to the external
// statement and audits wallet balances against the transaction log.
type ExportWorker struct {
	source  TransactionSource
	auditor LedgerAuditor
	writer  export.StatementWriter
}

func NewExportWorker(source TransactionSource, auditor LedgerAuditor, writer export.StatementWriter) *ExportWorker {
	return &ExportWorker{source: source, auditor: auditor, writer: writer}
}

// HandleExportMessage processes one export request. A transaction that
// no longer exists was deleted between publish and consume; the
// message is acked and dropped rather than requeued forever.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.TransactionExportMessage) error {
	tx, err := w.source.GetTransaction(ctx, msg.ID)
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Transaction gone before export, skipping", "id", msg.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	ref, err := w.writer.Append(ctx, tx)
	if err != nil {
		return fmt.Errorf("append to statement: %w", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", tx.ID,
		"statement_ref", ref,
		"amount_cents", tx.Amount.Cents)
	return nil
}

// Reconcile walks every wallet name and compares stored balance drift
// against the signed transaction total. Drift is reported, not
// repaired: balances only move through ledger mutations.
func (w *ExportWorker) Reconcile(ctx context.Context) error {
	names, err := w.auditor.ListWalletNames(ctx)
	if err != nil {
		return fmt.Errorf("list wallet names: %w", err)
	}

	drifted := 0
	for _, name := range names {
		delta, err := w.auditor.LedgerDeltaByName(ctx, name)
		if err != nil {
			return fmt.Errorf("ledger delta for %q: %w", name, err)
		}
		sum, err := w.auditor.SignedSum(ctx, name)
		if err != nil {
			return fmt.Errorf("signed sum for %q: %w", name, err)
		}
		if delta != sum {
			drifted++
			slog.WarnContext(ctx, "Wallet balance drifts from transaction log",
				"wallet", name,
				"balance_delta_cents", delta,
				"transaction_sum_cents", sum)
		}
	}

	slog.InfoContext(ctx, "Reconciliation sweep completed",
		"wallets", len(names),
		"drifted", drifted)
	return nil
}
