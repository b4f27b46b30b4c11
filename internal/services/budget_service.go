package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"
)

// BudgetService handles budget lifecycle. A shared budget is gated
// through the role the caller holds on the wallet it references; a
// personal budget only through record ownership.
type BudgetService struct {
	store    BudgetStore
	recorder *ActivityRecorder
}

func NewBudgetService(store BudgetStore, recorder *ActivityRecorder) *BudgetService {
	return &BudgetService{store: store, recorder: recorder}
}

func (s *BudgetService) Create(ctx context.Context, caller core.Identity, b core.Budget) (core.Budget, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.OwnerID = caller.UID
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	if b.Plan == "" {
		b.Plan = core.PlanPersonal
	}
	if b.Left.Cents == 0 {
		b.Left = b.Amount
	}
	// The creator always appears as an explicit Owner entry so the
	// collaborator list is self-describing for shared budgets.
	b.Collaborators = forceOwnerEntry(b.Collaborators, caller)

	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	var wallet core.Wallet
	if b.Plan == core.PlanShared {
		w, err := s.authorizeSharedBudget(ctx, caller, b)
		if err != nil {
			return core.Budget{}, err
		}
		wallet = w
	}

	if err := s.store.CreateBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}

	s.recordBudget(ctx, caller, wallet, b, core.ActionBudgetAdded)
	return b, nil
}

// Update writes the allow-listed fields: category, wallet, amount,
// period and date range. Left only moves through ledger mutations, so
// an amount change can leave left above the new cap; that mirrors the
// unclamped-revert behavior.
func (s *BudgetService) Update(ctx context.Context, caller core.Identity, id string, updated core.Budget) (core.Budget, error) {
	b, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, err
	}
	if err := s.authorizeBudgetWrite(ctx, caller, b); err != nil {
		return core.Budget{}, err
	}

	b.Category = updated.Category
	if updated.WalletName != "" {
		b.WalletName = updated.WalletName
	}
	b.Amount = updated.Amount
	if updated.Period != "" {
		b.Period = updated.Period
	}
	b.StartDate = updated.StartDate
	b.EndDate = updated.EndDate
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	var wallet core.Wallet
	if b.Plan == core.PlanShared {
		w, err := s.authorizeSharedBudget(ctx, caller, b)
		if err != nil {
			return core.Budget{}, err
		}
		wallet = w
	}

	if err := s.store.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, err
	}

	s.recordBudget(ctx, caller, wallet, b, core.ActionBudgetUpdated)
	return b, nil
}

// Delete requires strict ownership of the budget record.
func (s *BudgetService) Delete(ctx context.Context, caller core.Identity, id string) error {
	b, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return err
	}
	if core.BudgetRole(b, caller.UID, caller.Email) != core.RoleOwner {
		if b.Plan == core.PlanPersonal {
			return fmt.Errorf("budget: %w", core.ErrNotFound)
		}
		return fmt.Errorf("budget: %w", core.ErrForbidden)
	}

	if err := s.store.DeleteBudget(ctx, id); err != nil {
		return err
	}

	var wallet core.Wallet
	if b.Plan == core.PlanShared && b.WalletName != "" {
		if w, err := s.store.FindWalletForUser(ctx, b.WalletName, caller.UID, caller.Email); err == nil {
			wallet = w
		}
	}
	s.recordBudget(ctx, caller, wallet, b, core.ActionBudgetDeleted)
	return nil
}

func (s *BudgetService) Get(ctx context.Context, caller core.Identity, id string) (core.Budget, error) {
	b, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, err
	}
	if core.BudgetRole(b, caller.UID, caller.Email) == core.RoleNone {
		if b.Plan == core.PlanPersonal {
			return core.Budget{}, fmt.Errorf("budget: %w", core.ErrNotFound)
		}
		return core.Budget{}, fmt.Errorf("budget: %w", core.ErrForbidden)
	}
	return b, nil
}

func (s *BudgetService) List(ctx context.Context, caller core.Identity) ([]core.Budget, error) {
	return s.store.ListBudgetsForUser(ctx, caller.UID, caller.Email)
}

// authorizeBudgetWrite gates an update on an existing budget.
func (s *BudgetService) authorizeBudgetWrite(ctx context.Context, caller core.Identity, b core.Budget) error {
	if b.Plan == core.PlanPersonal {
		if b.OwnerID != caller.UID {
			return fmt.Errorf("budget: %w", core.ErrNotFound)
		}
		return nil
	}
	switch core.BudgetRole(b, caller.UID, caller.Email) {
	case core.RoleOwner, core.RoleEditor:
		return nil
	}
	return fmt.Errorf("budget: %w", core.ErrForbidden)
}

// authorizeSharedBudget checks the caller can edit the wallet a shared
// budget references, and returns that wallet for activity fan-out.
func (s *BudgetService) authorizeSharedBudget(ctx context.Context, caller core.Identity, b core.Budget) (core.Wallet, error) {
	w, err := s.store.FindWalletForUser(ctx, b.WalletName, caller.UID, caller.Email)
	if err != nil {
		return core.Wallet{}, err
	}
	if w.Plan == core.PlanShared && !core.CanEdit(w, caller.UID, caller.Email) {
		return core.Wallet{}, fmt.Errorf("wallet %q: %w", w.Name, core.ErrForbidden)
	}
	return w, nil
}

func (s *BudgetService) recordBudget(ctx context.Context, caller core.Identity, wallet core.Wallet, b core.Budget, action core.Action) {
	if s.recorder == nil {
		return
	}
	entry := core.ActivityEntry{
		ActorID:    caller.UID,
		ActorName:  caller.Name,
		Action:     action,
		EntityType: "budget",
		EntityID:   b.ID,
		Message:    core.BudgetMessage(action, b),
	}
	if wallet.ID != "" {
		s.recorder.RecordForWallet(ctx, wallet, entry)
		return
	}
	entry.ID = uuid.NewString()
	entry.UserID = caller.UID
	s.recorder.Record(ctx, entry)
}

func forceOwnerEntry(members []core.Collaborator, caller core.Identity) []core.Collaborator {
	for i, m := range members {
		if m.Email == caller.Email || m.UserID == caller.UID {
			members[i].Role = core.RoleOwner
			members[i].UserID = caller.UID
			return members
		}
	}
	return append([]core.Collaborator{{
		UserID: caller.UID,
		Name:   caller.Name,
		Email:  caller.Email,
		Role:   core.RoleOwner,
	}}, members...)
}
