package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/storage"
)

const (
	// DefaultActivityCap and DefaultCommentCap bound each user's feed;
	// the oldest entries are evicted once the cap is exceeded.
	DefaultActivityCap = 200
	DefaultCommentCap  = 200
)

// ActivityRecorder appends audit entries and wallet chat messages and
// keeps both under their retention caps. Activity recording is a
// post-commit side effect: every failure here is logged and swallowed
// so it can never roll back or fail the ledger operation that
// triggered it.
type ActivityRecorder struct {
	store       ActivityStore
	activityCap int
	commentCap  int
}

func NewActivityRecorder(store ActivityStore) *ActivityRecorder {
	return &ActivityRecorder{
		store:       store,
		activityCap: DefaultActivityCap,
		commentCap:  DefaultCommentCap,
	}
}

// WithCaps overrides the retention caps. Values outside 1..10000 keep
// the current cap.
func (r *ActivityRecorder) WithCaps(activityCap, commentCap int) *ActivityRecorder {
	if activityCap >= 1 && activityCap <= 10000 {
		r.activityCap = activityCap
	}
	if commentCap >= 1 && commentCap <= 10000 {
		r.commentCap = commentCap
	}
	return r
}

// Record appends one entry to a single user's feed and trims it.
func (r *ActivityRecorder) Record(ctx context.Context, e core.ActivityEntry) {
	if r == nil || r.store == nil {
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if err := r.store.InsertActivity(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to record activity entry",
			"error", err, "action", e.Action, "wallet_id", e.WalletID, "user_id", e.UserID)
		return
	}
	if _, err := r.store.EnforceCap(ctx, storage.KindActivity, e.UserID, r.activityCap); err != nil {
		slog.ErrorContext(ctx, "Failed to trim activity feed",
			"error", err, "user_id", e.UserID)
	}
}

// RecordForWallet fans the entry out to every participant's feed: the
// owner plus each collaborator with a known identity. The message is a
// snapshot; participants keep it even if the source record changes.
func (r *ActivityRecorder) RecordForWallet(ctx context.Context, w core.Wallet, e core.ActivityEntry) {
	if r == nil {
		return
	}
	e.WalletID = w.ID
	seen := map[string]bool{}
	for _, uid := range walletParticipants(w) {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		entry := e
		entry.ID = uuid.NewString()
		entry.UserID = uid
		r.Record(ctx, entry)
	}
}

func walletParticipants(w core.Wallet) []string {
	ids := []string{w.OwnerID}
	for _, c := range w.Collaborators {
		if c.UserID != "" {
			ids = append(ids, c.UserID)
		}
	}
	return ids
}

// AddComment appends a chat message. Unlike activity recording this is
// a primary operation: the caller asked for it, so failures surface.
// Only the retention trim stays fire-and-forget.
func (r *ActivityRecorder) AddComment(ctx context.Context, e core.CommentEntry) (core.CommentEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.EntityID == "" {
		// General thread is keyed by the wallet itself.
		e.EntityID = e.WalletID
	}
	if err := r.store.InsertComment(ctx, e); err != nil {
		return core.CommentEntry{}, err
	}
	if _, err := r.store.EnforceCap(ctx, storage.KindComment, e.UserID, r.commentCap); err != nil {
		slog.ErrorContext(ctx, "Failed to trim comment thread",
			"error", err, "user_id", e.UserID)
	}
	return e, nil
}

func (r *ActivityRecorder) ListActivity(ctx context.Context, userID string, limit int) ([]core.ActivityEntry, error) {
	if limit <= 0 || limit > r.activityCap {
		limit = r.activityCap
	}
	return r.store.ListActivity(ctx, userID, limit)
}

func (r *ActivityRecorder) ListComments(ctx context.Context, walletID, entityID string, limit int) ([]core.CommentEntry, error) {
	if limit <= 0 || limit > r.commentCap {
		limit = r.commentCap
	}
	if entityID == "" {
		entityID = walletID
	}
	return r.store.ListComments(ctx, walletID, entityID, limit)
}
