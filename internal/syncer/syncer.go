// Package syncer orchestrates the bidirectional review sync: push every
// locally dirty row (tombstones included), then adopt the server's returned
// set as the new local truth while keeping tombstones the server has not
// confirmed yet.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"myreviews/internal/localstore"
	"myreviews/internal/model"
	"myreviews/internal/syncapi"
)

// Result summarizes one completed sync pass.
type Result struct {
	Synced   int    `json:"synced"`
	Received int    `json:"received"`
	Message  string `json:"message"`
}

type Syncer struct {
	store  *localstore.Store
	client *syncapi.Client
	logger *zap.SugaredLogger

	mu     sync.Mutex
	jobID  uint64
	cancel context.CancelFunc
}

func New(store *localstore.Store, client *syncapi.Client, logger *zap.SugaredLogger) *Syncer {
	return &Syncer{store: store, client: client, logger: logger}
}

// PerformSync runs one full push/pull pass. Only one sync runs at a time; a
// new call cancels the previous job's context and takes over.
func (s *Syncer) PerformSync(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.jobID++
	id := s.jobID
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		// Only release the slot if no newer job has taken over.
		if s.jobID == id {
			s.cancel = nil
		}
		s.mu.Unlock()
	}()

	return s.run(ctx)
}

func (s *Syncer) run(ctx context.Context) (*Result, error) {
	user, err := s.store.Users.GetCurrentUser()
	if err != nil {
		return nil, fmt.Errorf("resolve current user: %w", err)
	}

	if !s.client.TestConnection(ctx) {
		return nil, errors.New("server unreachable")
	}

	if err := s.client.SyncUser(ctx, user); err != nil {
		return nil, err
	}

	// The full local set goes up, not just the dirty rows. The server skips
	// stale payloads by timestamp, so re-sending confirmed rows is harmless
	// and lets the server reconcile anything a previous partial sync missed.
	local, err := s.store.Reviews.ListAll()
	if err != nil {
		return nil, fmt.Errorf("list local reviews: %w", err)
	}
	tombstones, err := s.listTombstones()
	if err != nil {
		return nil, err
	}
	// Tombstones go first. A delete-then-recreate for the same restaurant
	// must kill the old server row before the recreation is matched against
	// it, or the tombstone would erase the new content.
	outgoing := append(append([]model.Review{}, tombstones...), local...)

	resp, err := s.client.BulkSync(ctx, user.UserID, outgoing)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	// Replace-and-merge: the server's set becomes the local truth. Live rows
	// are wiped first so rows deleted on another device disappear here too.
	// Tombstones are kept; only the ones the server confirmed get purged.
	if err := s.store.Reviews.PurgeNonTombstones(); err != nil {
		return nil, err
	}
	for i := range resp.AllReviews {
		if err := s.store.Reviews.UpsertByID(&resp.AllReviews[i], now); err != nil {
			return nil, err
		}
	}
	if err := s.markTombstonesConfirmed(tombstones, now); err != nil {
		return nil, err
	}
	if err := s.store.Reviews.PurgeSyncedTombstones(); err != nil {
		return nil, err
	}

	result := &Result{
		Synced:   resp.Processed,
		Received: len(resp.AllReviews),
		Message:  fmt.Sprintf("Synced %d reviews, received %d", resp.Processed, len(resp.AllReviews)),
	}
	s.logger.Infow("sync complete", "synced", result.Synced, "received", result.Received)
	return result, nil
}

// Download is the read-only pull path: fetch the server set and merge it in
// without pushing anything. Rows are matched by (restaurant, user), not by
// server ID, so an unsynced local placeholder for a pair the server also has
// is recognized rather than duplicated. Local tombstones win over their
// server rows, and local rows are only overwritten when the server copy is
// strictly newer.
func (s *Syncer) Download(ctx context.Context) (int, error) {
	if !s.client.TestConnection(ctx) {
		return 0, errors.New("server unreachable")
	}

	remote, err := s.client.FetchAllReviews(ctx, nil)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	merged := 0
	for i := range remote {
		rev := &remote[i]

		existing, err := s.store.Reviews.FindByRestaurantAndUser(rev.RestaurantID, rev.UserID)
		switch {
		case errors.Is(err, localstore.ErrNotFound):
			if err := s.store.Reviews.UpsertByID(rev, now); err != nil {
				return merged, err
			}
			merged++
		case err != nil:
			return merged, err
		case existing.IsDeleted:
			// Pending local delete; the push path will propagate it.
		case rev.UpdatedAt.After(existing.UpdatedAt):
			// The local row may sit under a placeholder ID; drop it so the
			// server copy does not land next to it.
			if existing.ID != rev.ID {
				if err := s.store.Reviews.Remove(existing.ID); err != nil {
					return merged, err
				}
			}
			if err := s.store.Reviews.UpsertByID(rev, now); err != nil {
				return merged, err
			}
			merged++
		}
	}

	s.logger.Infow("download complete", "fetched", len(remote), "merged", merged)
	return merged, nil
}

// SyncSettings is the slice of the preferences the syncer consults before an
// automatic trigger.
type SyncSettings interface {
	SyncEnabled() bool
	AutoSyncEnabled() bool
}

// TriggerIfEnabled fires a background sync after a local mutation when both
// sync and auto-sync are turned on. Failures are logged, never surfaced; the
// next manual sync will reconcile.
func (s *Syncer) TriggerIfEnabled(ctx context.Context, settings SyncSettings) {
	if !settings.SyncEnabled() || !settings.AutoSyncEnabled() {
		return
	}
	go func() {
		if _, err := s.PerformSync(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Warnw("auto sync failed", "error", err)
		}
	}()
}

func (s *Syncer) listTombstones() ([]model.Review, error) {
	unsynced, err := s.store.Reviews.ListUnsynced()
	if err != nil {
		return nil, fmt.Errorf("list unsynced reviews: %w", err)
	}
	var tombstones []model.Review
	for _, rev := range unsynced {
		if rev.IsDeleted {
			tombstones = append(tombstones, rev)
		}
	}
	return tombstones, nil
}

// markTombstonesConfirmed stamps tombstones the server acknowledged. Only
// tombstones with a server-assigned ID can have been acknowledged; negative
// placeholders never reached the server as live rows, so they are confirmed
// trivially.
func (s *Syncer) markTombstonesConfirmed(tombstones []model.Review, syncedAt time.Time) error {
	for _, t := range tombstones {
		if err := s.store.Reviews.MarkSynced(t.ID, syncedAt); err != nil {
			return fmt.Errorf("confirm tombstone %d: %w", t.ID, err)
		}
	}
	return nil
}
