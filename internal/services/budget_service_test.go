package services

import (
	"context"
	"errors"
	"testing"

	"tally/internal/core"
)

func newBudgetFixture() (*memStore, *BudgetService) {
	store := newMemStore()
	store.wallets["w1"] = core.Wallet{
		ID: "w1", OwnerID: "alice", Name: "Household", Currency: "EUR",
		Plan: core.PlanShared, Balance: core.Money{Cents: 10000},
		Collaborators: []core.Collaborator{
			{UserID: "bob", Name: "Bob", Email: "bob@example.com", Role: core.RoleEditor},
			{UserID: "carol", Name: "Carol", Email: "carol@example.com", Role: core.RoleViewer},
		},
	}
	return store, NewBudgetService(store, NewActivityRecorder(store))
}

func TestBudgetCreatePersonalDefaults(t *testing.T) {
	store, svc := newBudgetFixture()
	ctx := context.Background()

	b, err := svc.Create(ctx, alice, core.Budget{
		Category: "Books",
		Amount:   core.Money{Cents: 3000},
		Period:   core.PeriodMonthly,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.OwnerID != "alice" || b.Plan != core.PlanPersonal {
		t.Fatalf("budget not stamped: %+v", b)
	}
	if b.Left.Cents != 3000 {
		t.Fatalf("left = %d, want full amount", b.Left.Cents)
	}
	if len(b.Collaborators) != 1 || b.Collaborators[0].Role != core.RoleOwner || b.Collaborators[0].UserID != "alice" {
		t.Fatalf("creator not forced as owner entry: %+v", b.Collaborators)
	}
	if _, ok := store.budgets[b.ID]; !ok {
		t.Fatal("budget not persisted")
	}
}

func TestBudgetCreatorStaysOwnerEvenWhenListedOtherwise(t *testing.T) {
	_, svc := newBudgetFixture()
	ctx := context.Background()

	b, err := svc.Create(ctx, alice, core.Budget{
		Category: "Travel",
		Amount:   core.Money{Cents: 5000},
		Period:   core.PeriodMonthly,
		Collaborators: []core.Collaborator{
			{Email: "alice@example.com", Name: "Alice", Role: core.RoleViewer},
			{UserID: "bob", Email: "bob@example.com", Name: "Bob", Role: core.RoleEditor},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.Collaborators[0].Role != core.RoleOwner || b.Collaborators[0].UserID != "alice" {
		t.Fatalf("creator entry not promoted: %+v", b.Collaborators[0])
	}
}

func TestSharedBudgetGatedByWalletRole(t *testing.T) {
	_, svc := newBudgetFixture()
	ctx := context.Background()
	shared := core.Budget{
		Category:   "Groceries",
		Plan:       core.PlanShared,
		WalletName: "Household",
		Amount:     core.Money{Cents: 5000},
		Period:     core.PeriodMonthly,
	}

	// Editors on the referenced wallet may create shared budgets.
	if _, err := svc.Create(ctx, bob, shared); err != nil {
		t.Fatalf("editor create: %v", err)
	}
	// Viewers may not.
	if _, err := svc.Create(ctx, carol, shared); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("viewer create: got %v, want ErrForbidden", err)
	}
	// Strangers cannot even see the wallet.
	if _, err := svc.Create(ctx, dave, shared); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("stranger create: got %v, want ErrNotFound", err)
	}
}

func TestBudgetUpdateKeepsLeftUntouched(t *testing.T) {
	store, svc := newBudgetFixture()
	ctx := context.Background()
	store.budgets["b1"] = core.Budget{
		ID: "b1", OwnerID: "alice", Category: "Groceries",
		Plan:   core.PlanPersonal,
		Amount: core.Money{Cents: 5000}, Left: core.Money{Cents: 1200},
		Period: core.PeriodMonthly,
		Collaborators: []core.Collaborator{
			{UserID: "alice", Email: "alice@example.com", Role: core.RoleOwner},
		},
	}

	got, err := svc.Update(ctx, alice, "b1", core.Budget{
		Category: "Food",
		Amount:   core.Money{Cents: 800},
		Period:   core.PeriodWeekly,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Category != "Food" || got.Amount.Cents != 800 || got.Period != core.PeriodWeekly {
		t.Fatalf("fields not applied: %+v", got)
	}
	// Left only moves through ledger mutations, even past the new cap.
	if got.Left.Cents != 1200 {
		t.Fatalf("left = %d, want 1200", got.Left.Cents)
	}
}

func TestBudgetUpdateByCollaboratorRole(t *testing.T) {
	store, svc := newBudgetFixture()
	ctx := context.Background()
	store.budgets["b1"] = core.Budget{
		ID: "b1", OwnerID: "alice", Category: "Groceries",
		Plan: core.PlanShared, WalletName: "Household",
		Amount: core.Money{Cents: 5000}, Left: core.Money{Cents: 5000},
		Period: core.PeriodMonthly,
		Collaborators: []core.Collaborator{
			{UserID: "alice", Email: "alice@example.com", Role: core.RoleOwner},
			{UserID: "bob", Email: "bob@example.com", Role: core.RoleEditor},
			{UserID: "carol", Email: "carol@example.com", Role: core.RoleViewer},
		},
	}
	edit := core.Budget{Category: "Groceries", Amount: core.Money{Cents: 6000}, Period: core.PeriodMonthly}

	if _, err := svc.Update(ctx, bob, "b1", edit); err != nil {
		t.Fatalf("editor update: %v", err)
	}
	if _, err := svc.Update(ctx, carol, "b1", edit); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("viewer update: got %v, want ErrForbidden", err)
	}
}

func TestBudgetDeleteRequiresOwnership(t *testing.T) {
	store, svc := newBudgetFixture()
	ctx := context.Background()
	store.budgets["b1"] = core.Budget{
		ID: "b1", OwnerID: "alice", Category: "Groceries",
		Plan: core.PlanShared, WalletName: "Household",
		Amount: core.Money{Cents: 5000}, Left: core.Money{Cents: 5000},
		Period: core.PeriodMonthly,
		Collaborators: []core.Collaborator{
			{UserID: "alice", Email: "alice@example.com", Role: core.RoleOwner},
			{UserID: "bob", Email: "bob@example.com", Role: core.RoleEditor},
		},
	}

	// Editors cannot delete, only the owner.
	if err := svc.Delete(ctx, bob, "b1"); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("editor delete: got %v, want ErrForbidden", err)
	}
	if err := svc.Delete(ctx, alice, "b1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, ok := store.budgets["b1"]; ok {
		t.Fatal("budget still present")
	}
}

func TestPersonalBudgetHiddenFromOthers(t *testing.T) {
	store, svc := newBudgetFixture()
	ctx := context.Background()
	store.budgets["b1"] = core.Budget{
		ID: "b1", OwnerID: "alice", Category: "Books",
		Plan:   core.PlanPersonal,
		Amount: core.Money{Cents: 3000}, Left: core.Money{Cents: 3000},
		Period: core.PeriodMonthly,
	}

	if _, err := svc.Get(ctx, bob, "b1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("get by other: got %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, bob, "b1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete by other: got %v, want ErrNotFound", err)
	}
}

func TestSharedBudgetActivityFansOut(t *testing.T) {
	store, svc := newBudgetFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, core.Budget{
		Category: "Groceries", Plan: core.PlanShared, WalletName: "Household",
		Amount: core.Money{Cents: 5000}, Period: core.PeriodMonthly,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	users := map[string]bool{}
	for _, e := range store.activity {
		if e.Action == core.ActionBudgetAdded {
			users[e.UserID] = true
		}
	}
	for _, uid := range []string{"alice", "bob", "carol"} {
		if !users[uid] {
			t.Fatalf("no budget_added entry for %s (got %v)", uid, users)
		}
	}
}
