package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	PlanPersonal Plan = "personal"
	PlanShared   Plan = "shared"

	KindIncome   Kind = "income"
	KindExpense  Kind = "expense"
	KindTransfer Kind = "transfer"

	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

type (
	// Plan says whether a wallet or budget is private to its owner or
	// shared with collaborators.
	Plan string

	// Kind is the transaction kind.
	Kind string

	// Period is the budget cycle.
	Period string

	// Identity is what the external identity verifier yields for a
	// bearer credential. UID is the stable join key for ownership;
	// Email is the join key for collaborator membership, because
	// collaborators are invited by email before they necessarily have
	// an identity record.
	Identity struct {
		UID   string
		Email string
		Name  string
	}

	// Collaborator is a non-owner participant on a shared wallet or
	// budget. UserID may be empty until the invitee signs in for the
	// first time; Email is always set.
	Collaborator struct {
		UserID string
		Name   string
		Email  string
		Role   Role
	}

	// Wallet is a balance-holding account. Name is the cross-reference
	// key used by budgets and transactions, unique per owner.
	Wallet struct {
		ID            string
		OwnerID       string
		Name          string
		Currency      string
		Plan          Plan
		Balance       Money
		Collaborators []Collaborator
		CreatedAt     time.Time
	}

	// Budget is a per-category spending cap. Left counts down as
	// expenses in the matching category are applied, clamped at zero.
	// WalletName is set only for shared budgets and scopes the match
	// to expenses on that wallet.
	Budget struct {
		ID            string
		OwnerID       string
		Category      string
		Plan          Plan
		WalletName    string
		Amount        Money
		Left          Money
		Period        Period
		StartDate     time.Time
		EndDate       time.Time
		Collaborators []Collaborator
		CreatedAt     time.Time
	}

	// Actor records who touched a transaction and when.
	Actor struct {
		UserID string
		Name   string
		At     time.Time
	}

	// Transaction is an immutable ledger fact. Edits go through the
	// revert-then-reapply protocol in the ledger package, never through
	// in-place mutation of a committed effect.
	Transaction struct {
		ID          string
		OwnerID     string
		Kind        Kind
		Amount      Money
		OccurredAt  time.Time
		Category    string
		Wallet      string
		ToWallet    string
		Description string
		CreatedBy   Actor
		UpdatedBy   Actor
	}
)

var (
	// ErrValidation is the root of every input validation failure; the
	// specific sentinels below wrap it.
	ErrValidation = errors.New("invalid input")

	ErrInvalidAmount      = fmt.Errorf("invalid amount: %w", ErrValidation)
	ErrInvalidKind        = fmt.Errorf("invalid transaction kind: %w", ErrValidation)
	ErrInvalidPlan        = fmt.Errorf("invalid plan: %w", ErrValidation)
	ErrMissingWallet      = fmt.Errorf("missing wallet: %w", ErrValidation)
	ErrMissingDestination = fmt.Errorf("transfer requires a destination wallet: %w", ErrValidation)
	ErrEmptyCategory      = fmt.Errorf("empty category: %w", ErrValidation)
	ErrEmptyName          = fmt.Errorf("empty name: %w", ErrValidation)
	ErrEmptyMessage       = fmt.Errorf("empty message: %w", ErrValidation)

	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("already exists")
)

func (p Plan) Validate() error {
	switch p {
	case PlanPersonal, PlanShared:
		return nil
	}
	return ErrInvalidPlan
}

func (w Wallet) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return ErrEmptyName
	}
	if err := w.Plan.Validate(); err != nil {
		return err
	}
	for _, c := range w.Collaborators {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c Collaborator) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("collaborator email required: %w", ErrValidation)
	}
	switch c.Role {
	case RoleOwner, RoleEditor, RoleViewer:
		return nil
	}
	return fmt.Errorf("invalid collaborator role: %w", ErrValidation)
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.Plan.Validate(); err != nil {
		return err
	}
	if b.Plan == PlanShared && strings.TrimSpace(b.WalletName) == "" {
		return ErrMissingWallet
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.Left.Cents < 0 {
		return ErrInvalidAmount
	}
	if !b.EndDate.IsZero() && b.EndDate.Before(b.StartDate) {
		return fmt.Errorf("end date must not precede start date: %w", ErrValidation)
	}
	return nil
}

func (t Transaction) Validate() error {
	switch t.Kind {
	case KindIncome, KindExpense, KindTransfer:
	default:
		return ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Wallet) == "" {
		return ErrMissingWallet
	}
	if t.Kind == KindTransfer && strings.TrimSpace(t.ToWallet) == "" {
		return ErrMissingDestination
	}
	if t.Kind == KindExpense && strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return fmt.Errorf("description too long (max 200 characters): %w", ErrValidation)
	}
	return nil
}

// MatchesBudget reports whether an expense in this transaction's
// category counts against budget b. Category comparison is
// case-insensitive; a shared budget additionally requires the expense
// to land on the wallet it is pinned to.
func (t Transaction) MatchesBudget(b Budget) bool {
	if t.Kind != KindExpense {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(b.Category), strings.TrimSpace(t.Category)) {
		return false
	}
	if b.Plan == PlanShared {
		return b.WalletName == t.Wallet
	}
	return true
}
