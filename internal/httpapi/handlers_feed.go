package httpapi

import "net/http"

func categoryScope(userID string) string {
	return "categories:" + userID
}

func (api *API) listActivity(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	entries, err := api.recorder.ListActivity(r.Context(), caller.UID, queryLimit(r, 50))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]activityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toActivityResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// listCategories serves from the read cache; ledger commits clear the
// caller's scope, so a hit is never stale.
func (api *API) listCategories(w http.ResponseWriter, r *http.Request) {
	caller, _ := IdentityFrom(r.Context())
	scope := categoryScope(caller.UID)

	if cached, ok := api.cache.Get(scope, "list"); ok {
		if names, ok := cached.([]string); ok {
			writeJSON(w, http.StatusOK, names)
			return
		}
	}

	names, err := api.categories.ListCategories(r.Context(), caller.UID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	api.cache.Set(scope, "list", names)
	writeJSON(w, http.StatusOK, names)
}
