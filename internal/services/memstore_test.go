package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"tally/internal/core"
	"tally/internal/storage"
)

// memStore is an in-memory stand-in for the SQLite repository, good
// enough to drive the services in tests.
type memStore struct {
	mu         sync.Mutex
	wallets    map[string]core.Wallet
	budgets    map[string]core.Budget
	txs        map[string]core.Transaction
	activity   []core.ActivityEntry
	comments   []core.CommentEntry
	categories map[string]bool // userID + "/" + lower(name)

	failMutation error // injected fault for ApplyLedgerMutation
}

func newMemStore() *memStore {
	return &memStore{
		wallets:    make(map[string]core.Wallet),
		budgets:    make(map[string]core.Budget),
		txs:        make(map[string]core.Transaction),
		categories: make(map[string]bool),
	}
}

func (m *memStore) CreateWallet(ctx context.Context, w core.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.wallets {
		if existing.OwnerID == w.OwnerID && existing.Name == w.Name {
			return fmt.Errorf("wallet %q: %w", w.Name, core.ErrConflict)
		}
	}
	m.wallets[w.ID] = w
	return nil
}

func (m *memStore) GetWallet(ctx context.Context, id string) (core.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[id]
	if !ok {
		return core.Wallet{}, fmt.Errorf("wallet: %w", core.ErrNotFound)
	}
	return w, nil
}

func (m *memStore) FindWalletForUser(ctx context.Context, name, userID, email string) (core.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.wallets {
		if w.Name != name {
			continue
		}
		if w.OwnerID == userID {
			return w, nil
		}
		for _, c := range w.Collaborators {
			if strings.EqualFold(c.Email, email) {
				return w, nil
			}
		}
	}
	return core.Wallet{}, fmt.Errorf("wallet: %w", core.ErrNotFound)
}

func (m *memStore) ListWalletsForUser(ctx context.Context, userID, email string) ([]core.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Wallet
	for _, w := range m.wallets {
		if w.OwnerID == userID {
			out = append(out, w)
			continue
		}
		for _, c := range w.Collaborators {
			if strings.EqualFold(c.Email, email) {
				out = append(out, w)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) UpdateWallet(ctx context.Context, w core.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.wallets[w.ID]; !ok {
		return fmt.Errorf("wallet: %w", core.ErrNotFound)
	}
	m.wallets[w.ID] = w
	return nil
}

func (m *memStore) DeleteWallet(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.wallets[id]; !ok {
		return fmt.Errorf("wallet: %w", core.ErrNotFound)
	}
	delete(m.wallets, id)
	return nil
}

func (m *memStore) AddWalletMember(ctx context.Context, walletID string, c core.Collaborator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet: %w", core.ErrNotFound)
	}
	for _, existing := range w.Collaborators {
		if strings.EqualFold(existing.Email, c.Email) {
			return fmt.Errorf("member %q: %w", c.Email, core.ErrConflict)
		}
	}
	w.Collaborators = append(w.Collaborators, c)
	m.wallets[walletID] = w
	return nil
}

func (m *memStore) RemoveWalletMember(ctx context.Context, walletID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet: %w", core.ErrNotFound)
	}
	for i, c := range w.Collaborators {
		if strings.EqualFold(c.Email, email) {
			w.Collaborators = append(w.Collaborators[:i], w.Collaborators[i+1:]...)
			m.wallets[walletID] = w
			return nil
		}
	}
	return fmt.Errorf("wallet member: %w", core.ErrNotFound)
}

func (m *memStore) CreateBudget(ctx context.Context, b core.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets[b.ID] = b
	return nil
}

func (m *memStore) GetBudget(ctx context.Context, id string) (core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok {
		return core.Budget{}, fmt.Errorf("budget: %w", core.ErrNotFound)
	}
	return b, nil
}

func (m *memStore) ListBudgetsForUser(ctx context.Context, userID, email string) ([]core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Budget
	for _, b := range m.budgets {
		if b.OwnerID == userID {
			out = append(out, b)
			continue
		}
		for _, c := range b.Collaborators {
			if strings.EqualFold(c.Email, email) {
				out = append(out, b)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateBudget(ctx context.Context, b core.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.budgets[b.ID]; !ok {
		return fmt.Errorf("budget: %w", core.ErrNotFound)
	}
	m.budgets[b.ID] = b
	return nil
}

func (m *memStore) DeleteBudget(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.budgets[id]; !ok {
		return fmt.Errorf("budget: %w", core.ErrNotFound)
	}
	delete(m.budgets, id)
	return nil
}

func (m *memStore) MatchingBudgets(ctx context.Context, ownerID, category, walletName string) ([]core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Budget
	for _, b := range m.budgets {
		if !strings.EqualFold(b.Category, category) {
			continue
		}
		if (b.Plan == core.PlanPersonal && b.OwnerID == ownerID) ||
			(b.Plan == core.PlanShared && b.WalletName == walletName) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txs[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction: %w", core.ErrNotFound)
	}
	return t, nil
}

func (m *memStore) ListTransactionsForWallet(ctx context.Context, walletName string, limit int) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Transaction
	for _, t := range m.txs {
		if t.Wallet == walletName || t.ToWallet == walletName {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) ApplyLedgerMutation(ctx context.Context, mut storage.LedgerMutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMutation != nil {
		return m.failMutation
	}
	for id, cents := range mut.WalletBalances {
		w, ok := m.wallets[id]
		if !ok {
			return fmt.Errorf("wallet: %w", core.ErrNotFound)
		}
		w.Balance.Cents = cents
		m.wallets[id] = w
	}
	for id, cents := range mut.BudgetLefts {
		b, ok := m.budgets[id]
		if !ok {
			return fmt.Errorf("budget: %w", core.ErrNotFound)
		}
		b.Left.Cents = cents
		m.budgets[id] = b
	}
	if mut.RemoveTxID != "" {
		if _, ok := m.txs[mut.RemoveTxID]; !ok {
			return fmt.Errorf("transaction: %w", core.ErrNotFound)
		}
		delete(m.txs, mut.RemoveTxID)
	}
	if mut.InsertTx != nil {
		m.txs[mut.InsertTx.ID] = *mut.InsertTx
	}
	return nil
}

func (m *memStore) HasCategory(ctx context.Context, userID, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.categories[userID+"/"+strings.ToLower(name)], nil
}

func (m *memStore) EnsureCategory(ctx context.Context, userID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[userID+"/"+strings.ToLower(name)] = true
	return nil
}

func (m *memStore) InsertActivity(ctx context.Context, e core.ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity = append(m.activity, e)
	return nil
}

func (m *memStore) ListActivity(ctx context.Context, userID string, limit int) ([]core.ActivityEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.ActivityEntry
	for i := len(m.activity) - 1; i >= 0 && len(out) < limit; i-- {
		if m.activity[i].UserID == userID {
			out = append(out, m.activity[i])
		}
	}
	return out, nil
}

func (m *memStore) InsertComment(ctx context.Context, e core.CommentEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comments = append(m.comments, e)
	return nil
}

func (m *memStore) ListComments(ctx context.Context, walletID, entityID string, limit int) ([]core.CommentEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.CommentEntry
	for _, c := range m.comments {
		if c.WalletID == walletID && c.EntityID == entityID && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) EnforceCap(ctx context.Context, kind storage.RecordKind, userID string, cap int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Retention proper is covered by the storage tests; here it only
	// needs to not fail.
	return 0, nil
}

// capturePublisher records export publications.
type capturePublisher struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (p *capturePublisher) PublishTransactionExport(ctx context.Context, txID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.ids = append(p.ids, txID)
	return nil
}
