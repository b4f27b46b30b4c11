package core

import "strings"

// Role is a caller's access level on a shared wallet or budget.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
	RoleNone   Role = ""
)

// ResolveRole determines the caller's role on a wallet. The literal
// owner is always Owner, even when a stale collaborator row lists them
// with a lesser role. Collaborators are matched by email, not user id:
// invitations are sent to an address before the invitee has a stable
// identity on record.
func ResolveRole(w Wallet, callerID, callerEmail string) Role {
	if w.OwnerID != "" && w.OwnerID == callerID {
		return RoleOwner
	}
	for _, c := range w.Collaborators {
		if strings.EqualFold(c.Email, callerEmail) {
			return c.Role
		}
	}
	return RoleNone
}

// CanEdit reports whether the caller may perform mutating ledger
// operations on the wallet (transactions, non-membership updates).
func CanEdit(w Wallet, callerID, callerEmail string) bool {
	switch ResolveRole(w, callerID, callerEmail) {
	case RoleOwner, RoleEditor:
		return true
	}
	return false
}

// CanView reports whether the caller may read the wallet at all.
func CanView(w Wallet, callerID, callerEmail string) bool {
	return ResolveRole(w, callerID, callerEmail) != RoleNone
}

// IsOwner reports whether the caller holds full control: membership
// changes and deletion require it.
func IsOwner(w Wallet, callerID, callerEmail string) bool {
	return ResolveRole(w, callerID, callerEmail) == RoleOwner
}

// BudgetRole resolves a caller's role on a budget. The creator is
// Owner; otherwise membership comes from the budget's own collaborator
// list, matched by email like wallets.
func BudgetRole(b Budget, callerID, callerEmail string) Role {
	if b.OwnerID != "" && b.OwnerID == callerID {
		return RoleOwner
	}
	for _, c := range b.Collaborators {
		if strings.EqualFold(c.Email, callerEmail) {
			return c.Role
		}
	}
	return RoleNone
}
