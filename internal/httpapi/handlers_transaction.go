package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tally/internal/core"
)

func (api *API) decodeTransaction(w http.ResponseWriter, r *http.Request) (core.Transaction, bool) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "malformed request body")
		return core.Transaction{}, false
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return core.Transaction{}, false
	}
	occurred, err := parseTime(req.OccurredAt)
	if err != nil {
		writeErrorMessage(w, http.StatusUnprocessableEntity, "occurred_at must be RFC 3339")
		return core.Transaction{}, false
	}

	return core.Transaction{
		Kind:        core.Kind(req.Kind),
		Amount:      amount,
		OccurredAt:  occurred,
		Category:    req.Category,
		Wallet:      req.Wallet,
		ToWallet:    req.ToWallet,
		Description: req.Description,
	}, true
}

func (api *API) commitTransaction(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	tx, ok := api.decodeTransaction(w, r)
	if !ok {
		return
	}

	committed, err := api.ledger.Commit(r.Context(), caller, tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.cache.ClearScope(categoryScope(caller.UID))
	writeJSON(w, http.StatusCreated, toTransactionResponse(committed))
}

func (api *API) listTransactions(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	walletName := r.URL.Query().Get("wallet")
	if walletName == "" {
		writeErrorMessage(w, http.StatusBadRequest, "wallet query parameter is required")
		return
	}

	txs, err := api.ledger.List(r.Context(), caller, walletName, queryLimit(r, 100))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (api *API) getTransaction(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	tx, err := api.ledger.Get(r.Context(), caller, chi.URLParam(r, "transactionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (api *API) updateTransaction(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	tx, ok := api.decodeTransaction(w, r)
	if !ok {
		return
	}

	updated, err := api.ledger.Update(r.Context(), caller, chi.URLParam(r, "transactionID"), tx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.cache.ClearScope(categoryScope(caller.UID))
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (api *API) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	if err := api.ledger.Delete(r.Context(), caller, chi.URLParam(r, "transactionID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
