package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"
)

// WalletService handles wallet lifecycle, membership and the wallet
// chat. Membership changes and deletion are owner-only; everything
// else follows the role gate.
type WalletService struct {
	store    WalletStore
	recorder *ActivityRecorder
}

func NewWalletService(store WalletStore, recorder *ActivityRecorder) *WalletService {
	return &WalletService{store: store, recorder: recorder}
}

func (s *WalletService) Create(ctx context.Context, caller core.Identity, w core.Wallet) (core.Wallet, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	w.OwnerID = caller.UID
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	if w.Plan == "" {
		w.Plan = core.PlanPersonal
	}
	if err := w.Validate(); err != nil {
		return core.Wallet{}, err
	}
	if err := s.store.CreateWallet(ctx, w); err != nil {
		return core.Wallet{}, err
	}
	return w, nil
}

func (s *WalletService) Get(ctx context.Context, caller core.Identity, id string) (core.Wallet, error) {
	w, err := s.store.GetWallet(ctx, id)
	if err != nil {
		return core.Wallet{}, err
	}
	if err := authorizeRead(w, caller); err != nil {
		return core.Wallet{}, err
	}
	return w, nil
}

func (s *WalletService) List(ctx context.Context, caller core.Identity) ([]core.Wallet, error) {
	return s.store.ListWalletsForUser(ctx, caller.UID, caller.Email)
}

// Update writes the non-membership fields: name, currency, plan.
func (s *WalletService) Update(ctx context.Context, caller core.Identity, id string, updated core.Wallet) (core.Wallet, error) {
	w, err := s.store.GetWallet(ctx, id)
	if err != nil {
		return core.Wallet{}, err
	}
	if err := authorizeLedgerWrite(w, caller); err != nil {
		return core.Wallet{}, err
	}

	w.Name = updated.Name
	w.Currency = updated.Currency
	if updated.Plan != "" {
		w.Plan = updated.Plan
	}
	if err := w.Validate(); err != nil {
		return core.Wallet{}, err
	}
	if err := s.store.UpdateWallet(ctx, w); err != nil {
		return core.Wallet{}, err
	}
	return w, nil
}

func (s *WalletService) Delete(ctx context.Context, caller core.Identity, id string) error {
	w, err := s.store.GetWallet(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeOwner(w, caller); err != nil {
		return err
	}
	return s.store.DeleteWallet(ctx, id)
}

// AddMember invites a collaborator. Owner-only. A duplicate email on
// the same wallet surfaces as a conflict.
func (s *WalletService) AddMember(ctx context.Context, caller core.Identity, walletID string, m core.Collaborator) error {
	w, err := s.store.GetWallet(ctx, walletID)
	if err != nil {
		return err
	}
	if err := authorizeOwner(w, caller); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if err := s.store.AddWalletMember(ctx, walletID, m); err != nil {
		return err
	}

	if s.recorder != nil {
		w.Collaborators = append(w.Collaborators, m)
		s.recorder.RecordForWallet(ctx, w, core.ActivityEntry{
			ActorID:    caller.UID,
			ActorName:  caller.Name,
			Action:     core.ActionMemberAdded,
			EntityType: "wallet",
			EntityID:   w.ID,
			Message:    core.MemberMessage(core.ActionMemberAdded, m, w.Name),
		})
	}
	return nil
}

func (s *WalletService) RemoveMember(ctx context.Context, caller core.Identity, walletID, email string) error {
	w, err := s.store.GetWallet(ctx, walletID)
	if err != nil {
		return err
	}
	if err := authorizeOwner(w, caller); err != nil {
		return err
	}

	var removed core.Collaborator
	for _, c := range w.Collaborators {
		if c.Email == email {
			removed = c
			break
		}
	}
	if err := s.store.RemoveWalletMember(ctx, walletID, email); err != nil {
		return err
	}

	if s.recorder != nil {
		if removed.Email == "" {
			removed.Email = email
		}
		s.recorder.RecordForWallet(ctx, w, core.ActivityEntry{
			ActorID:    caller.UID,
			ActorName:  caller.Name,
			Action:     core.ActionMemberRemoved,
			EntityType: "wallet",
			EntityID:   w.ID,
			Message:    core.MemberMessage(core.ActionMemberRemoved, removed, w.Name),
		})
	}
	return nil
}

// Comment posts to a wallet thread. Any participant may write to the
// chat, viewers included; the thread is readable, not a ledger
// mutation.
func (s *WalletService) Comment(ctx context.Context, caller core.Identity, walletID, entityID, message string) (core.CommentEntry, error) {
	w, err := s.store.GetWallet(ctx, walletID)
	if err != nil {
		return core.CommentEntry{}, err
	}
	if err := authorizeRead(w, caller); err != nil {
		return core.CommentEntry{}, err
	}
	if message == "" {
		return core.CommentEntry{}, core.ErrEmptyMessage
	}

	entry, err := s.recorder.AddComment(ctx, core.CommentEntry{
		WalletID: walletID,
		EntityID: entityID,
		UserID:   caller.UID,
		AuthorID: caller.UID,
		Author:   caller.Name,
		Message:  message,
	})
	if err != nil {
		return core.CommentEntry{}, err
	}

	s.recorder.RecordForWallet(ctx, w, core.ActivityEntry{
		ActorID:    caller.UID,
		ActorName:  caller.Name,
		Action:     core.ActionCommentAdded,
		EntityType: "comment",
		EntityID:   entry.ID,
		Message:    fmt.Sprintf("commented on %s", w.Name),
	})
	return entry, nil
}

func (s *WalletService) Comments(ctx context.Context, caller core.Identity, walletID, entityID string, limit int) ([]core.CommentEntry, error) {
	w, err := s.store.GetWallet(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if err := authorizeRead(w, caller); err != nil {
		return nil, err
	}
	return s.recorder.ListComments(ctx, walletID, entityID, limit)
}

// authorizeRead gates read access: any role on a shared wallet, record
// ownership on a personal one. Personal wallets of other users report
// not-found rather than forbidden so their existence does not leak.
func authorizeRead(w core.Wallet, caller core.Identity) error {
	if w.Plan == core.PlanShared {
		if !core.CanView(w, caller.UID, caller.Email) {
			return fmt.Errorf("wallet %q: %w", w.Name, core.ErrForbidden)
		}
		return nil
	}
	if w.OwnerID != caller.UID {
		return fmt.Errorf("wallet: %w", core.ErrNotFound)
	}
	return nil
}

// authorizeOwner gates membership changes and deletion.
func authorizeOwner(w core.Wallet, caller core.Identity) error {
	if w.Plan == core.PlanShared {
		if !core.IsOwner(w, caller.UID, caller.Email) {
			return fmt.Errorf("wallet %q: %w", w.Name, core.ErrForbidden)
		}
		return nil
	}
	if w.OwnerID != caller.UID {
		return fmt.Errorf("wallet: %w", core.ErrNotFound)
	}
	return nil
}
