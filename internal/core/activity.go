package core

import (
	"fmt"
	"strings"
	"time"
)

// Action enumerates the auditable events on a wallet.
type Action string

const (
	ActionTransactionAdded   Action = "transaction_added"
	ActionTransactionUpdated Action = "transaction_updated"
	ActionTransactionDeleted Action = "transaction_deleted"
	ActionBudgetAdded        Action = "budget_added"
	ActionBudgetUpdated      Action = "budget_updated"
	ActionBudgetDeleted      Action = "budget_deleted"
	ActionMemberAdded        Action = "member_added"
	ActionMemberRemoved      Action = "member_removed"
	ActionCommentAdded       Action = "comment_added"
	ActionSystemMessage      Action = "system_message"
)

// ActivityEntry is one append-only audit record. Message is a snapshot
// rendered at action time; it stays correct even if the source record
// later changes or disappears.
type ActivityEntry struct {
	ID         string
	WalletID   string
	UserID     string
	ActorID    string
	ActorName  string
	Action     Action
	EntityType string
	EntityID   string
	Message    string
	CreatedAt  time.Time
}

// CommentEntry is one chat message on a wallet. EntityID equals the
// wallet id for the general thread.
type CommentEntry struct {
	ID        string
	WalletID  string
	EntityID  string
	UserID    string
	AuthorID  string
	Author    string
	Message   string
	CreatedAt time.Time
}

// TransactionMessage renders the human-readable feed line for a
// transaction action. Kind is lower-cased, amount fixed to two
// decimals, matching what the feed shows.
func TransactionMessage(action Action, t Transaction) string {
	verb := "added"
	switch action {
	case ActionTransactionUpdated:
		verb = "updated"
	case ActionTransactionDeleted:
		verb = "deleted"
	}
	kind := strings.ToLower(string(t.Kind))
	if t.Kind == KindTransfer && t.ToWallet != "" {
		return fmt.Sprintf("%s %s of %s from %s to %s", verb, kind, t.Amount, t.Wallet, t.ToWallet)
	}
	if t.Category != "" {
		return fmt.Sprintf("%s %s of %s in %s on %s", verb, kind, t.Amount, t.Category, t.Wallet)
	}
	return fmt.Sprintf("%s %s of %s on %s", verb, kind, t.Amount, t.Wallet)
}

// BudgetMessage renders the feed line for a budget action.
func BudgetMessage(action Action, b Budget) string {
	verb := "added"
	switch action {
	case ActionBudgetUpdated:
		verb = "updated"
	case ActionBudgetDeleted:
		verb = "deleted"
	}
	return fmt.Sprintf("%s budget %s of %s (%s left)", verb, b.Category, b.Amount, b.Left)
}

// MemberMessage renders the feed line for membership changes.
func MemberMessage(action Action, c Collaborator, walletName string) string {
	who := c.Name
	if who == "" {
		who = c.Email
	}
	if action == ActionMemberRemoved {
		return fmt.Sprintf("removed %s from %s", who, walletName)
	}
	return fmt.Sprintf("added %s to %s as %s", who, walletName, c.Role)
}
