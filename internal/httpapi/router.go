package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"tally/internal/cache"
	"tally/internal/log"
	"tally/internal/services"
)

// CategoryStore lists the ad hoc categories a user has spent in.
type CategoryStore interface {
	ListCategories(ctx context.Context, userID string) ([]string, error)
}

// API bundles the services behind the HTTP surface.
type API struct {
	ledger     *services.LedgerService
	wallets    *services.WalletService
	budgets    *services.BudgetService
	recorder   *services.ActivityRecorder
	categories CategoryStore
	cache      *cache.Cache
}

func NewAPI(
	ledger *services.LedgerService,
	wallets *services.WalletService,
	budgets *services.BudgetService,
	recorder *services.ActivityRecorder,
	categories CategoryStore,
	readCache *cache.Cache,
) *API {
	return &API{
		ledger:     ledger,
		wallets:    wallets,
		budgets:    budgets,
		recorder:   recorder,
		categories: categories,
		cache:      readCache,
	}
}

// NewRouter wires the routes. Everything under /api requires a valid
// bearer token. A nil limiter disables throttling.
func NewRouter(auth *Authenticator, api *API, logger *log.Logger, limiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(securityHeaders)
	if logger != nil {
		r.Use(log.Middleware(logger))
		r.Use(requestLogging(logger))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware)
		if limiter != nil {
			r.Use(limiter.Middleware)
		}

		// Wallets and membership
		r.Get("/wallets", api.listWallets)
		r.Post("/wallets", api.createWallet)
		r.Get("/wallets/{walletID}", api.getWallet)
		r.Put("/wallets/{walletID}", api.updateWallet)
		r.Delete("/wallets/{walletID}", api.deleteWallet)
		r.Post("/wallets/{walletID}/members", api.addMember)
		r.Delete("/wallets/{walletID}/members/{email}", api.removeMember)

		// Wallet chat
		r.Get("/wallets/{walletID}/comments", api.listComments)
		r.Post("/wallets/{walletID}/comments", api.addComment)

		// Ledger
		r.Get("/transactions", api.listTransactions)
		r.Post("/transactions", api.commitTransaction)
		r.Get("/transactions/{transactionID}", api.getTransaction)
		r.Put("/transactions/{transactionID}", api.updateTransaction)
		r.Delete("/transactions/{transactionID}", api.deleteTransaction)

		// Budgets
		r.Get("/budgets", api.listBudgets)
		r.Post("/budgets", api.createBudget)
		r.Get("/budgets/{budgetID}", api.getBudget)
		r.Put("/budgets/{budgetID}", api.updateBudget)
		r.Delete("/budgets/{budgetID}", api.deleteBudget)

		// Feeds
		r.Get("/activity", api.listActivity)
		r.Get("/categories", api.listCategories)
	})

	return r
}
