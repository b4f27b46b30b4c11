package services

import (
	"context"
	"errors"
	"testing"

	"tally/internal/core"
)

func newWalletFixture() (*memStore, *WalletService) {
	store := newMemStore()
	store.wallets["w1"] = core.Wallet{
		ID: "w1", OwnerID: "alice", Name: "Household", Currency: "EUR",
		Plan: core.PlanShared, Balance: core.Money{Cents: 10000},
		Collaborators: []core.Collaborator{
			{UserID: "bob", Name: "Bob", Email: "bob@example.com", Role: core.RoleEditor},
			{UserID: "carol", Name: "Carol", Email: "carol@example.com", Role: core.RoleViewer},
		},
	}
	return store, NewWalletService(store, NewActivityRecorder(store))
}

func TestWalletCreateStampsOwner(t *testing.T) {
	store, svc := newWalletFixture()
	ctx := context.Background()

	w, err := svc.Create(ctx, bob, core.Wallet{Name: "Trip", Currency: "EUR"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if w.ID == "" || w.OwnerID != "bob" || w.Plan != core.PlanPersonal {
		t.Fatalf("wallet not stamped: %+v", w)
	}
	if _, ok := store.wallets[w.ID]; !ok {
		t.Fatal("wallet not persisted")
	}
}

func TestWalletUpdateRoleGate(t *testing.T) {
	_, svc := newWalletFixture()
	ctx := context.Background()

	// Editor may rename.
	if _, err := svc.Update(ctx, bob, "w1", core.Wallet{Name: "Casa", Currency: "EUR"}); err != nil {
		t.Fatalf("editor update: %v", err)
	}
	// Viewer may not.
	if _, err := svc.Update(ctx, carol, "w1", core.Wallet{Name: "Nope", Currency: "EUR"}); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("viewer update: got %v, want ErrForbidden", err)
	}
}

func TestWalletDeleteIsOwnerOnly(t *testing.T) {
	store, svc := newWalletFixture()
	ctx := context.Background()

	if err := svc.Delete(ctx, bob, "w1"); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("editor delete: got %v, want ErrForbidden", err)
	}
	if err := svc.Delete(ctx, alice, "w1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, ok := store.wallets["w1"]; ok {
		t.Fatal("wallet still present")
	}
}

func TestMembershipIsOwnerOnly(t *testing.T) {
	store, svc := newWalletFixture()
	ctx := context.Background()
	newMember := core.Collaborator{Name: "Dave", Email: "dave@example.com", Role: core.RoleViewer}

	if err := svc.AddMember(ctx, bob, "w1", newMember); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("editor add member: got %v, want ErrForbidden", err)
	}
	if err := svc.AddMember(ctx, alice, "w1", newMember); err != nil {
		t.Fatalf("owner add member: %v", err)
	}
	if got := len(store.wallets["w1"].Collaborators); got != 3 {
		t.Fatalf("collaborators = %d, want 3", got)
	}
	// Duplicate invitation conflicts.
	if err := svc.AddMember(ctx, alice, "w1", newMember); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate member: got %v, want ErrConflict", err)
	}

	if err := svc.RemoveMember(ctx, bob, "w1", "dave@example.com"); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("editor remove member: got %v, want ErrForbidden", err)
	}
	if err := svc.RemoveMember(ctx, alice, "w1", "dave@example.com"); err != nil {
		t.Fatalf("owner remove member: %v", err)
	}
	if got := len(store.wallets["w1"].Collaborators); got != 2 {
		t.Fatalf("collaborators = %d, want 2", got)
	}
}

func TestMembershipChangesLandInFeed(t *testing.T) {
	store, svc := newWalletFixture()
	ctx := context.Background()

	err := svc.AddMember(ctx, alice, "w1", core.Collaborator{Name: "Dave", Email: "dave@example.com", Role: core.RoleEditor})
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if len(store.activity) == 0 {
		t.Fatal("no activity recorded")
	}
	want := "added Dave to Household as editor"
	if store.activity[0].Message != want {
		t.Fatalf("message = %q, want %q", store.activity[0].Message, want)
	}
}

func TestCommentFlow(t *testing.T) {
	store, svc := newWalletFixture()
	ctx := context.Background()

	// Viewers may chat.
	entry, err := svc.Comment(ctx, carol, "w1", "", "hello")
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	if entry.EntityID != "w1" {
		t.Fatalf("general thread entity = %q, want wallet id", entry.EntityID)
	}

	// Strangers may not.
	if _, err := svc.Comment(ctx, dave, "w1", "", "hi"); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("stranger comment: got %v, want ErrForbidden", err)
	}

	if _, err := svc.Comment(ctx, carol, "w1", "", ""); !errors.Is(err, core.ErrEmptyMessage) {
		t.Fatalf("empty comment: got %v, want ErrEmptyMessage", err)
	}

	got, err := svc.Comments(ctx, bob, "w1", "", 50)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(got) != 1 || got[0].Message != "hello" {
		t.Fatalf("comments = %+v", got)
	}
	_ = store
}
