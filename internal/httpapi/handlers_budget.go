package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tally/internal/core"
)

func (api *API) decodeBudget(w http.ResponseWriter, r *http.Request) (core.Budget, bool) {
	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "malformed request body")
		return core.Budget{}, false
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return core.Budget{}, false
	}
	start, err := parseTime(req.StartDate)
	if err != nil {
		writeErrorMessage(w, http.StatusUnprocessableEntity, "start_date must be RFC 3339")
		return core.Budget{}, false
	}
	end, err := parseTime(req.EndDate)
	if err != nil {
		writeErrorMessage(w, http.StatusUnprocessableEntity, "end_date must be RFC 3339")
		return core.Budget{}, false
	}

	return core.Budget{
		Category:      req.Category,
		Plan:          core.Plan(req.Plan),
		WalletName:    req.Wallet,
		Amount:        amount,
		Period:        core.Period(req.Period),
		StartDate:     start,
		EndDate:       end,
		Collaborators: toCollaborators(req.Members),
	}, true
}

func (api *API) createBudget(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	budget, ok := api.decodeBudget(w, r)
	if !ok {
		return
	}
	if budget.Period == "" {
		budget.Period = core.PeriodMonthly
	}

	created, err := api.budgets.Create(r.Context(), caller, budget)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (api *API) listBudgets(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	budgets, err := api.budgets.List(r.Context(), caller)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (api *API) getBudget(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	budget, err := api.budgets.Get(r.Context(), caller, chi.URLParam(r, "budgetID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(budget))
}

func (api *API) updateBudget(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	budget, ok := api.decodeBudget(w, r)
	if !ok {
		return
	}

	updated, err := api.budgets.Update(r.Context(), caller, chi.URLParam(r, "budgetID"), budget)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(updated))
}

func (api *API) deleteBudget(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	if err := api.budgets.Delete(r.Context(), caller, chi.URLParam(r, "budgetID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
