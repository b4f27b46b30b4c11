package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tally/internal/core"
)

func (api *API) listWallets(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	wallets, err := api.wallets.List(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]walletResponse, 0, len(wallets))
	for _, wallet := range wallets {
		out = append(out, toWalletResponse(wallet))
	}
	writeJSON(w, http.StatusOK, out)
}

func (api *API) createWallet(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	var req walletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}

	wallet := core.Wallet{
		Name:          req.Name,
		Currency:      req.Currency,
		Plan:          core.Plan(req.Plan),
		Collaborators: toCollaborators(req.Members),
	}
	if req.Balance != "" {
		balance, err := parseAmount(req.Balance)
		if err != nil {
			writeError(w, r, err)
			return
		}
		wallet.Balance = balance
	}

	created, err := api.wallets.Create(r.Context(), caller, wallet)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWalletResponse(created))
}

func (api *API) getWallet(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	wallet, err := api.wallets.Get(r.Context(), caller, chi.URLParam(r, "walletID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWalletResponse(wallet))
}

func (api *API) updateWallet(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	var req walletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}

	updated, err := api.wallets.Update(r.Context(), caller, chi.URLParam(r, "walletID"), core.Wallet{
		Name:     req.Name,
		Currency: req.Currency,
		Plan:     core.Plan(req.Plan),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWalletResponse(updated))
}

func (api *API) deleteWallet(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	if err := api.wallets.Delete(r.Context(), caller, chi.URLParam(r, "walletID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *API) addMember(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	var req collaboratorPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}

	member := core.Collaborator{
		UserID: req.UserID,
		Name:   req.Name,
		Email:  req.Email,
		Role:   core.Role(req.Role),
	}
	if err := api.wallets.AddMember(r.Context(), caller, chi.URLParam(r, "walletID"), member); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *API) removeMember(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	walletID := chi.URLParam(r, "walletID")
	email := chi.URLParam(r, "email")
	if err := api.wallets.RemoveMember(r.Context(), caller, walletID, email); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (api *API) listComments(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	walletID := chi.URLParam(r, "walletID")
	entityID := r.URL.Query().Get("entity_id")
	limit := queryLimit(r, 50)

	comments, err := api.wallets.Comments(r.Context(), caller, walletID, entityID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (api *API) addComment(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "malformed request body")
		return
	}

	entry, err := api.wallets.Comment(r.Context(), caller, chi.URLParam(r, "walletID"), req.EntityID, req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCommentResponse(entry))
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
