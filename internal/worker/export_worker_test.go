package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/export/memory"
)

type fakeLedger struct {
	txs    map[string]core.Transaction
	deltas map[string]int64
	sums   map[string]int64
}

func (f *fakeLedger) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	t, ok := f.txs[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction: %w", core.ErrNotFound)
	}
	return t, nil
}

func (f *fakeLedger) ListWalletNames(context.Context) ([]string, error) {
	names := make([]string, 0, len(f.deltas))
	for name := range f.deltas {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeLedger) SignedSum(_ context.Context, name string) (int64, error) {
	return f.sums[name], nil
}

func (f *fakeLedger) LedgerDeltaByName(_ context.Context, name string) (int64, error) {
	return f.deltas[name], nil
}

func TestHandleExportMessage(t *testing.T) {
	ledger := &fakeLedger{txs: map[string]core.Transaction{
		"tx-1": {
			ID: "tx-1", OwnerID: "alice", Kind: core.KindIncome,
			Amount: core.Money{Cents: 2000}, Wallet: "Household",
			OccurredAt: time.Now(),
		},
	}}
	sink := memory.New()
	w := NewExportWorker(ledger, ledger, sink)

	err := w.HandleExportMessage(context.Background(), &amqp.TransactionExportMessage{ID: "tx-1"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	rows := sink.Rows()
	if len(rows) != 1 || rows[0].ID != "tx-1" {
		t.Fatalf("statement rows = %+v", rows)
	}
}

func TestHandleExportMessageSkipsDeleted(t *testing.T) {
	ledger := &fakeLedger{txs: map[string]core.Transaction{}}
	sink := memory.New()
	w := NewExportWorker(ledger, ledger, sink)

	// Deleted between publish and consume: ack and drop, no requeue.
	err := w.HandleExportMessage(context.Background(), &amqp.TransactionExportMessage{ID: "gone"})
	if err != nil {
		t.Fatalf("handle should swallow not-found, got %v", err)
	}
	if len(sink.Rows()) != 0 {
		t.Fatal("nothing should be exported")
	}
}

func TestReconcileReportsDrift(t *testing.T) {
	ledger := &fakeLedger{
		deltas: map[string]int64{"Household": 3000, "Savings": 500},
		sums:   map[string]int64{"Household": 3000, "Savings": 700},
	}
	w := NewExportWorker(ledger, ledger, memory.New())

	// Drift is logged, never repaired; the sweep itself succeeds.
	if err := w.Reconcile(context.Background()); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
}
