package core

import "testing"

func sharedWallet() Wallet {
	return Wallet{
		ID:      "w1",
		OwnerID: "alice",
		Name:    "Household",
		Plan:    PlanShared,
		Collaborators: []Collaborator{
			{UserID: "bob", Name: "Bob", Email: "bob@example.com", Role: RoleEditor},
			{Name: "Carol", Email: "carol@example.com", Role: RoleViewer},
		},
	}
}

func TestResolveRole(t *testing.T) {
	w := sharedWallet()

	cases := []struct {
		name  string
		id    string
		email string
		want  Role
	}{
		{"owner by id", "alice", "alice@example.com", RoleOwner},
		{"editor by email", "bob", "bob@example.com", RoleEditor},
		{"viewer without identity record", "", "carol@example.com", RoleViewer},
		{"email match is case-insensitive", "", "Carol@Example.com", RoleViewer},
		{"stranger", "dave", "dave@example.com", RoleNone},
		{"id alone does not grant membership", "carol-uid", "other@example.com", RoleNone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveRole(w, tc.id, tc.email); got != tc.want {
				t.Fatalf("ResolveRole = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestOwnerWinsOverStaleCollaboratorRow(t *testing.T) {
	w := sharedWallet()
	// The owner self-added as a viewer; ownership must still win.
	w.Collaborators = append(w.Collaborators, Collaborator{
		UserID: "alice", Name: "Alice", Email: "alice@example.com", Role: RoleViewer,
	})

	if got := ResolveRole(w, "alice", "alice@example.com"); got != RoleOwner {
		t.Fatalf("owner resolved as %q, want %q", got, RoleOwner)
	}
	if !IsOwner(w, "alice", "alice@example.com") {
		t.Fatal("IsOwner should hold for the literal owner")
	}
}

func TestCanEdit(t *testing.T) {
	w := sharedWallet()

	if !CanEdit(w, "alice", "alice@example.com") {
		t.Fatal("owner must be able to edit")
	}
	if !CanEdit(w, "bob", "bob@example.com") {
		t.Fatal("editor must be able to edit")
	}
	if CanEdit(w, "", "carol@example.com") {
		t.Fatal("viewer must not be able to edit")
	}
	if CanEdit(w, "dave", "dave@example.com") {
		t.Fatal("stranger must not be able to edit")
	}
}

func TestCanView(t *testing.T) {
	w := sharedWallet()

	if !CanView(w, "", "carol@example.com") {
		t.Fatal("viewer must be able to read")
	}
	if CanView(w, "dave", "dave@example.com") {
		t.Fatal("stranger must not be able to read")
	}
}

func TestIsOwnerRejectsEditor(t *testing.T) {
	w := sharedWallet()
	if IsOwner(w, "bob", "bob@example.com") {
		t.Fatal("editor must not pass the owner gate")
	}
}

func TestBudgetRole(t *testing.T) {
	b := Budget{
		OwnerID:  "alice",
		Category: "Groceries",
		Plan:     PlanShared,
		Collaborators: []Collaborator{
			{Email: "bob@example.com", Role: RoleEditor},
		},
	}
	if got := BudgetRole(b, "alice", ""); got != RoleOwner {
		t.Fatalf("creator role = %q, want owner", got)
	}
	if got := BudgetRole(b, "", "bob@example.com"); got != RoleEditor {
		t.Fatalf("collaborator role = %q, want editor", got)
	}
	if got := BudgetRole(b, "x", "x@example.com"); got != RoleNone {
		t.Fatalf("stranger role = %q, want none", got)
	}
}
