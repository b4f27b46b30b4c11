// Package services orchestrates the ledger: it resolves and authorizes
// the records a request touches, runs the apply/revert engine, persists
// the result, and fires the post-commit side effects (activity feed,
// retention, statement export). Side effects never fail a committed
// primary mutation.
package services

import (
	"context"

	"tally/internal/core"
	"tally/internal/storage"
)

// LedgerStore is the slice of the repository the transaction flow
// needs.
type LedgerStore interface {
	FindWalletForUser(ctx context.Context, name, userID, email string) (core.Wallet, error)
	MatchingBudgets(ctx context.Context, ownerID, category, walletName string) ([]core.Budget, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	ListTransactionsForWallet(ctx context.Context, walletName string, limit int) ([]core.Transaction, error)
	ApplyLedgerMutation(ctx context.Context, m storage.LedgerMutation) error
	HasCategory(ctx context.Context, userID, name string) (bool, error)
	EnsureCategory(ctx context.Context, userID, name string) error
}

// WalletStore covers wallet CRUD and membership.
type WalletStore interface {
	CreateWallet(ctx context.Context, w core.Wallet) error
	GetWallet(ctx context.Context, id string) (core.Wallet, error)
	ListWalletsForUser(ctx context.Context, userID, email string) ([]core.Wallet, error)
	UpdateWallet(ctx context.Context, w core.Wallet) error
	DeleteWallet(ctx context.Context, id string) error
	AddWalletMember(ctx context.Context, walletID string, m core.Collaborator) error
	RemoveWalletMember(ctx context.Context, walletID, email string) error
}

// BudgetStore covers budget CRUD and the wallet lookup a shared budget
// authorizes through.
type BudgetStore interface {
	CreateBudget(ctx context.Context, b core.Budget) error
	GetBudget(ctx context.Context, id string) (core.Budget, error)
	ListBudgetsForUser(ctx context.Context, userID, email string) ([]core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, id string) error
	FindWalletForUser(ctx context.Context, name, userID, email string) (core.Wallet, error)
}

// ActivityStore covers the append-only feeds and their retention.
type ActivityStore interface {
	InsertActivity(ctx context.Context, e core.ActivityEntry) error
	ListActivity(ctx context.Context, userID string, limit int) ([]core.ActivityEntry, error)
	InsertComment(ctx context.Context, e core.CommentEntry) error
	ListComments(ctx context.Context, walletID, entityID string, limit int) ([]core.CommentEntry, error)
	EnforceCap(ctx context.Context, kind storage.RecordKind, userID string, cap int) (int, error)
}

// ExportPublisher queues a committed transaction for the statement
/// export worker. Implementations must be safe to skip: a nil publisher
// disables export.
type ExportPublisher interface {
	PublishTransactionExport(ctx context.Context, txID string) error
}
