package httpapi

import (
	"time"

	"tally/internal/core"
)

// Amounts cross the wire as two-decimal strings; cents stay internal.

type collaboratorPayload struct {
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type walletRequest struct {
	Name     string                `json:"name"`
	Currency string                `json:"currency"`
	Plan     string                `json:"plan,omitempty"`
	Balance  string                `json:"balance,omitempty"`
	Members  []collaboratorPayload `json:"members,omitempty"`
}

type walletResponse struct {
	ID       string                `json:"id"`
	OwnerID  string                `json:"owner_id"`
	Name     string                `json:"name"`
	Currency string                `json:"currency"`
	Plan     string                `json:"plan"`
	Balance  string                `json:"balance"`
	Members  []collaboratorPayload `json:"members,omitempty"`
}

type transactionRequest struct {
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	OccurredAt  string `json:"occurred_at,omitempty"` // RFC 3339
	Category    string `json:"category,omitempty"`
	Wallet      string `json:"wallet"`
	ToWallet    string `json:"to_wallet,omitempty"`
	Description string `json:"description,omitempty"`
}

type transactionResponse struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Amount      string `json:"amount"`
	OccurredAt  string `json:"occurred_at"`
	Category    string `json:"category,omitempty"`
	Wallet      string `json:"wallet"`
	ToWallet    string `json:"to_wallet,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
	UpdatedBy   string `json:"updated_by,omitempty"`
}

type budgetRequest struct {
	Category  string                `json:"category"`
	Plan      string                `json:"plan,omitempty"`
	Wallet    string                `json:"wallet,omitempty"`
	Amount    string                `json:"amount"`
	Period    string                `json:"period,omitempty"`
	StartDate string                `json:"start_date,omitempty"` // RFC 3339
	EndDate   string                `json:"end_date,omitempty"`
	Members   []collaboratorPayload `json:"members,omitempty"`
}

type budgetResponse struct {
	ID       string                `json:"id"`
	OwnerID  string                `json:"owner_id"`
	Category string                `json:"category"`
	Plan     string                `json:"plan"`
	Wallet   string                `json:"wallet,omitempty"`
	Amount   string                `json:"amount"`
	Left     string                `json:"left"`
	Period   string                `json:"period"`
	Members  []collaboratorPayload `json:"members,omitempty"`
}

type activityResponse struct {
	ID        string `json:"id"`
	WalletID  string `json:"wallet_id"`
	ActorName string `json:"actor"`
	Action    string `json:"action"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

type commentRequest struct {
	EntityID string `json:"entity_id,omitempty"`
	Message  string `json:"message"`
}

type commentResponse struct {
	ID        string `json:"id"`
	WalletID  string `json:"wallet_id"`
	EntityID  string `json:"entity_id"`
	Author    string `json:"author"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

func parseAmount(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func toCollaborators(in []collaboratorPayload) []core.Collaborator {
	out := make([]core.Collaborator, 0, len(in))
	for _, c := range in {
		out = append(out, core.Collaborator{
			UserID: c.UserID,
			Name:   c.Name,
			Email:  c.Email,
			Role:   core.Role(c.Role),
		})
	}
	return out
}

func fromCollaborators(in []core.Collaborator) []collaboratorPayload {
	out := make([]collaboratorPayload, 0, len(in))
	for _, c := range in {
		out = append(out, collaboratorPayload{
			UserID: c.UserID,
			Name:   c.Name,
			Email:  c.Email,
			Role:   string(c.Role),
		})
	}
	return out
}

func toWalletResponse(w core.Wallet) walletResponse {
	return walletResponse{
		ID:       w.ID,
		OwnerID:  w.OwnerID,
		Name:     w.Name,
		Currency: w.Currency,
		Plan:     string(w.Plan),
		Balance:  w.Balance.String(),
		Members:  fromCollaborators(w.Collaborators),
	}
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:          t.ID,
		Kind:        string(t.Kind),
		Amount:      t.Amount.String(),
		OccurredAt:  t.OccurredAt.Format(time.RFC3339),
		Category:    t.Category,
		Wallet:      t.Wallet,
		ToWallet:    t.ToWallet,
		Description: t.Description,
		CreatedBy:   t.CreatedBy.Name,
	}
	if t.UpdatedBy.UserID != "" {
		resp.UpdatedBy = t.UpdatedBy.Name
	}
	return resp
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{
		ID:       b.ID,
		OwnerID:  b.OwnerID,
		Category: b.Category,
		Plan:     string(b.Plan),
		Wallet:   b.WalletName,
		Amount:   b.Amount.String(),
		Left:     b.Left.String(),
		Period:   string(b.Period),
		Members:  fromCollaborators(b.Collaborators),
	}
}

func toActivityResponse(e core.ActivityEntry) activityResponse {
	return activityResponse{
		ID:        e.ID,
		WalletID:  e.WalletID,
		ActorName: e.ActorName,
		Action:    string(e.Action),
		Message:   e.Message,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

func toCommentResponse(e core.CommentEntry) commentResponse {
	return commentResponse{
		ID:        e.ID,
		WalletID:  e.WalletID,
		EntityID:  e.EntityID,
		Author:    e.Author,
		Message:   e.Message,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}
