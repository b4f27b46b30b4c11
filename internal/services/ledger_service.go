package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/ledger"
	"tally/internal/storage"
)

// LedgerService runs the transaction lifecycle: commit, edit, delete.
// Edits follow the revert-before-reapply protocol; the original
// transaction's effect is undone with its original fields before the
// replacement is applied, all persisted in one storage transaction.
type LedgerService struct {
	store    LedgerStore
	recorder *ActivityRecorder
	exporter ExportPublisher
}

func NewLedgerService(store LedgerStore, recorder *ActivityRecorder, exporter ExportPublisher) *LedgerService {
	return &LedgerService{
		store:    store,
		recorder: recorder,
		exporter: exporter,
	}
}

// Commit validates, authorizes and applies a new transaction. On
// success the returned transaction carries its assigned id and actor
// stamps.
func (s *LedgerService) Commit(ctx context.Context, caller core.Identity, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	tx.OwnerID = caller.UID
	now := time.Now()
	if tx.OccurredAt.IsZero() {
		tx.OccurredAt = now
	}
	tx.CreatedBy = core.Actor{UserID: caller.UID, Name: caller.Name, At: now}
	tx.UpdatedBy = core.Actor{}

	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	wallets, err := s.loadWallets(ctx, caller, tx)
	if err != nil {
		return core.Transaction{}, err
	}
	for _, w := range wallets {
		if err := authorizeLedgerWrite(*w, caller); err != nil {
			return core.Transaction{}, err
		}
	}

	budgets, err := s.loadBudgets(ctx, tx, nil)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := ledger.Apply(tx, wallets, budgets); err != nil {
		return core.Transaction{}, err
	}

	m := mutation(wallets, budgets)
	m.InsertTx = &tx
	if err := s.store.ApplyLedgerMutation(ctx, m); err != nil {
		return core.Transaction{}, fmt.Errorf("commit transaction: %w", err)
	}

	s.afterCommit(ctx, caller, *wallets[tx.Wallet], tx, core.ActionTransactionAdded)
	return tx, nil
}

// Update edits a committed transaction. The original effect is
// reverted first, using the original kind, amount and wallets; only
// then is the replacement applied. Applying first would double-count.
func (s *LedgerService) Update(ctx context.Context, caller core.Identity, id string, updated core.Transaction) (core.Transaction, error) {
	orig, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	updated.ID = orig.ID
	updated.OwnerID = orig.OwnerID
	updated.CreatedBy = orig.CreatedBy
	if updated.OccurredAt.IsZero() {
		updated.OccurredAt = orig.OccurredAt
	}
	updated.UpdatedBy = core.Actor{UserID: caller.UID, Name: caller.Name, At: time.Now()}

	if err := updated.Validate(); err != nil {
		return core.Transaction{}, err
	}

	wallets, err := s.loadWallets(ctx, caller, orig, updated)
	if err != nil {
		return core.Transaction{}, err
	}
	for _, w := range wallets {
		if err := authorizeLedgerWrite(*w, caller); err != nil {
			return core.Transaction{}, err
		}
	}

	budgets, err := s.loadBudgets(ctx, orig, nil)
	if err != nil {
		return core.Transaction{}, err
	}
	budgets, err = s.loadBudgets(ctx, updated, budgets)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := ledger.Revert(orig, wallets, budgets); err != nil {
		return core.Transaction{}, err
	}
	if err := ledger.Apply(updated, wallets, budgets); err != nil {
		return core.Transaction{}, err
	}

	m := mutation(wallets, budgets)
	m.RemoveTxID = orig.ID
	m.InsertTx = &updated
	if err := s.store.ApplyLedgerMutation(ctx, m); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	s.afterCommit(ctx, caller, *wallets[updated.Wallet], updated, core.ActionTransactionUpdated)
	return updated, nil
}

// Delete reverts a committed transaction's effect and removes it.
func (s *LedgerService) Delete(ctx context.Context, caller core.Identity, id string) error {
	orig, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	wallets, err := s.loadWallets(ctx, caller, orig)
	if err != nil {
		return err
	}
	for _, w := range wallets {
		if err := authorizeLedgerWrite(*w, caller); err != nil {
			return err
		}
	}

	budgets, err := s.loadBudgets(ctx, orig, nil)
	if err != nil {
		return err
	}

	if err := ledger.Revert(orig, wallets, budgets); err != nil {
		return err
	}

	m := mutation(wallets, budgets)
	m.RemoveTxID = orig.ID
	if err := s.store.ApplyLedgerMutation(ctx, m); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if s.recorder != nil {
		s.recorder.RecordForWallet(ctx, *wallets[orig.Wallet], core.ActivityEntry{
			ActorID:    caller.UID,
			ActorName:  caller.Name,
			Action:     core.ActionTransactionDeleted,
			EntityType: "transaction",
			EntityID:   orig.ID,
			Message:    core.TransactionMessage(core.ActionTransactionDeleted, orig),
		})
	}
	return nil
}

func (s *LedgerService) Get(ctx context.Context, caller core.Identity, id string) (core.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	w, err := s.store.FindWalletForUser(ctx, tx.Wallet, caller.UID, caller.Email)
	if err != nil {
		return core.Transaction{}, err
	}
	if w.Plan == core.PlanShared {
		if !core.CanView(w, caller.UID, caller.Email) {
			return core.Transaction{}, core.ErrForbidden
		}
	} else if w.OwnerID != caller.UID {
		return core.Transaction{}, fmt.Errorf("transaction: %w", core.ErrNotFound)
	}
	return tx, nil
}

// List returns the committed transactions touching a wallet, newest
// first, after the same read gate as Get.
func (s *LedgerService) List(ctx context.Context, caller core.Identity, walletName string, limit int) ([]core.Transaction, error) {
	w, err := s.store.FindWalletForUser(ctx, walletName, caller.UID, caller.Email)
	if err != nil {
		return nil, err
	}
	if w.Plan == core.PlanShared {
		if !core.CanView(w, caller.UID, caller.Email) {
			return nil, fmt.Errorf("wallet %q: %w", w.Name, core.ErrForbidden)
		}
	} else if w.OwnerID != caller.UID {
		return nil, fmt.Errorf("wallet: %w", core.ErrNotFound)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.ListTransactionsForWallet(ctx, walletName, limit)
}

// loadWallets resolves every wallet the given transactions touch, as
// seen by the caller, deduplicated by name so revert and apply work on
// the same instances.
func (s *LedgerService) loadWallets(ctx context.Context, caller core.Identity, txs ...core.Transaction) (map[string]*core.Wallet, error) {
	wallets := make(map[string]*core.Wallet)
	for _, tx := range txs {
		for _, name := range ledger.WalletNames(tx) {
			if _, ok := wallets[name]; ok {
				continue
			}
			w, err := s.store.FindWalletForUser(ctx, name, caller.UID, caller.Email)
			if err != nil {
				return nil, err
			}
			wallets[name] = &w
		}
	}
	return wallets, nil
}

// loadBudgets collects the candidate budgets for an expense, merging
// into an existing set by id. Merging matters on edits: a budget
// matched by both the original and the replacement must be reverted
// and reapplied through one instance.
func (s *LedgerService) loadBudgets(ctx context.Context, tx core.Transaction, have []*core.Budget) ([]*core.Budget, error) {
	if tx.Kind != core.KindExpense {
		return have, nil
	}
	found, err := s.store.MatchingBudgets(ctx, tx.OwnerID, tx.Category, tx.Wallet)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(have))
	for _, b := range have {
		seen[b.ID] = true
	}
	for i := range found {
		if seen[found[i].ID] {
			continue
		}
		b := found[i]
		have = append(have, &b)
	}
	return have, nil
}

// authorizeLedgerWrite gates a mutating ledger operation on one
// wallet. Shared wallets go through role resolution; a personal wallet
// is authorized purely by record ownership.
func authorizeLedgerWrite(w core.Wallet, caller core.Identity) error {
	if w.Plan == core.PlanShared {
		if !core.CanEdit(w, caller.UID, caller.Email) {
			return fmt.Errorf("wallet %q: %w", w.Name, core.ErrForbidden)
		}
		return nil
	}
	if w.OwnerID != caller.UID {
		// Personal wallets are invisible to everyone else.
		return fmt.Errorf("wallet: %w", core.ErrNotFound)
	}
	return nil
}

func mutation(wallets map[string]*core.Wallet, budgets []*core.Budget) storage.LedgerMutation {
	m := storage.LedgerMutation{
		WalletBalances: make(map[string]int64, len(wallets)),
		BudgetLefts:    make(map[string]int64, len(budgets)),
	}
	for _, w := range wallets {
		m.WalletBalances[w.ID] = w.Balance.Cents
	}
	for _, b := range budgets {
		m.BudgetLefts[b.ID] = b.Left.Cents
	}
	return m
}

// afterCommit runs the post-commit effects: ad hoc category
// registration, activity fan-out and the export queue. None of them
// may fail the committed mutation; errors are logged and dropped.
func (s *LedgerService) afterCommit(ctx context.Context, caller core.Identity, w core.Wallet, tx core.Transaction, action core.Action) {
	if cat := strings.TrimSpace(tx.Category); cat != "" {
		if err := s.store.EnsureCategory(ctx, tx.OwnerID, cat); err != nil {
			slog.ErrorContext(ctx, "Failed to register category",
				"error", err, "category", cat, "user_id", tx.OwnerID)
		}
	}

	if s.recorder != nil {
		s.recorder.RecordForWallet(ctx, w, core.ActivityEntry{
			ActorID:    caller.UID,
			ActorName:  caller.Name,
			Action:     action,
			EntityType: "transaction",
			EntityID:   tx.ID,
			Message:    core.TransactionMessage(action, tx),
		})
	}

	if s.exporter != nil {
		if err := s.exporter.PublishTransactionExport(ctx, tx.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish export message",
				"error", err, "transaction_id", tx.ID)
		}
	}
}
