package localstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myreviews/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testReview(restaurantID int64) *model.Review {
	return &model.Review{
		RestaurantID:   restaurantID,
		RestaurantName: "Goldener Anker",
		RestaurantLat:  49.41,
		RestaurantLon:  8.69,
		Rating:         4.0,
		Comment:        "solid schnitzel",
		VisitDate:      model.NewDate(2025, time.March, 1),
		UserID:         "user-1",
		UserName:       "Anna",
	}
}

func TestInsertAssignsNegativePlaceholderIDs(t *testing.T) {
	store := openTestStore(t)

	first := testReview(100)
	require.NoError(t, store.Reviews.Insert(first))
	second := testReview(101)
	require.NoError(t, store.Reviews.Insert(second))

	assert.Equal(t, int64(-1), first.ID)
	assert.Equal(t, int64(-2), second.ID)
	assert.Nil(t, first.SyncedAt)

	got, err := store.Reviews.GetByID(-1)
	require.NoError(t, err)
	assert.Equal(t, "Goldener Anker", got.RestaurantName)
	assert.Nil(t, got.SyncedAt)
	assert.False(t, got.IsDeleted)
}

func TestPlaceholderIDsSkipServerRows(t *testing.T) {
	store := openTestStore(t)

	// A pulled server row must not affect placeholder allocation.
	server := testReview(100)
	server.ID = 7
	server.CreatedAt = time.Now().UTC()
	server.UpdatedAt = server.CreatedAt
	require.NoError(t, store.Reviews.UpsertByID(server, time.Now().UTC()))

	local := testReview(101)
	require.NoError(t, store.Reviews.Insert(local))
	assert.Equal(t, int64(-1), local.ID)
}

func TestUpdateClearsSyncedAt(t *testing.T) {
	store := openTestStore(t)

	review := testReview(100)
	require.NoError(t, store.Reviews.Insert(review))
	require.NoError(t, store.Reviews.MarkSynced(review.ID, time.Now().UTC()))

	unsynced, err := store.Reviews.ListUnsynced()
	require.NoError(t, err)
	assert.Empty(t, unsynced)

	review.Rating = 2.5
	require.NoError(t, store.Reviews.Update(review))

	unsynced, err = store.Reviews.ListUnsynced()
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.Equal(t, 2.5, unsynced[0].Rating)
	assert.Nil(t, unsynced[0].SyncedAt)
}

func TestUpdateMissingReview(t *testing.T) {
	store := openTestStore(t)

	review := testReview(100)
	review.ID = 999
	assert.ErrorIs(t, store.Reviews.Update(review), ErrNotFound)
}

func TestMarkDeletedKeepsTombstone(t *testing.T) {
	store := openTestStore(t)

	review := testReview(100)
	require.NoError(t, store.Reviews.Insert(review))
	require.NoError(t, store.Reviews.MarkDeleted(review.ID))

	all, err := store.Reviews.ListAll()
	require.NoError(t, err)
	assert.Empty(t, all, "tombstones must not show in listings")

	unsynced, err := store.Reviews.ListUnsynced()
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.True(t, unsynced[0].IsDeleted)
}

func TestPurgeSyncedTombstones(t *testing.T) {
	store := openTestStore(t)

	confirmed := testReview(100)
	require.NoError(t, store.Reviews.Insert(confirmed))
	require.NoError(t, store.Reviews.MarkDeleted(confirmed.ID))
	require.NoError(t, store.Reviews.MarkSynced(confirmed.ID, time.Now().UTC()))

	pending := testReview(101)
	require.NoError(t, store.Reviews.Insert(pending))
	require.NoError(t, store.Reviews.MarkDeleted(pending.ID))

	require.NoError(t, store.Reviews.PurgeSyncedTombstones())

	// Only the unconfirmed tombstone survives the purge.
	unsynced, err := store.Reviews.ListUnsynced()
	require.NoError(t, err)
	require.Len(t, unsynced, 1)
	assert.Equal(t, pending.ID, unsynced[0].ID)

	_, err = store.Reviews.GetByID(confirmed.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPurgeNonTombstonesSparesTombstones(t *testing.T) {
	store := openTestStore(t)

	live := testReview(100)
	require.NoError(t, store.Reviews.Insert(live))
	deleted := testReview(101)
	require.NoError(t, store.Reviews.Insert(deleted))
	require.NoError(t, store.Reviews.MarkDeleted(deleted.ID))

	require.NoError(t, store.Reviews.PurgeNonTombstones())

	_, err := store.Reviews.GetByID(live.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := store.Reviews.GetByID(deleted.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
}

func TestUpsertByIDReplacesPlaceholder(t *testing.T) {
	store := openTestStore(t)

	now := time.Now().UTC()
	server := testReview(100)
	server.ID = 55
	server.CreatedAt = now
	server.UpdatedAt = now
	require.NoError(t, store.Reviews.UpsertByID(server, now))

	got, err := store.Reviews.GetByID(55)
	require.NoError(t, err)
	require.NotNil(t, got.SyncedAt)
	assert.False(t, got.IsDeleted)

	// Re-upserting the same ID replaces in place.
	server.Rating = 5.0
	require.NoError(t, store.Reviews.UpsertByID(server, now))
	got, err = store.Reviews.GetByID(55)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Rating)

	all, err := store.Reviews.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFindByRestaurantAndUser(t *testing.T) {
	store := openTestStore(t)

	review := testReview(100)
	require.NoError(t, store.Reviews.Insert(review))

	got, err := store.Reviews.FindByRestaurantAndUser(100, "user-1")
	require.NoError(t, err)
	assert.Equal(t, review.ID, got.ID)

	_, err = store.Reviews.FindByRestaurantAndUser(100, "someone-else")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Reviews.FindByRestaurantAndUser(999, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByRestaurantAndUserPrefersTombstone(t *testing.T) {
	store := openTestStore(t)

	// Delete-then-recreate leaves a tombstone and a live row for one pair;
	// lookups must surface the tombstone so it keeps winning merges.
	deleted := testReview(100)
	require.NoError(t, store.Reviews.Insert(deleted))
	require.NoError(t, store.Reviews.MarkDeleted(deleted.ID))

	recreated := testReview(100)
	require.NoError(t, store.Reviews.Insert(recreated))

	got, err := store.Reviews.FindByRestaurantAndUser(100, "user-1")
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	assert.Equal(t, deleted.ID, got.ID)
}

func TestRemove(t *testing.T) {
	store := openTestStore(t)

	review := testReview(100)
	require.NoError(t, store.Reviews.Insert(review))
	require.NoError(t, store.Reviews.Remove(review.ID))

	_, err := store.Reviews.GetByID(review.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRestaurantStats(t *testing.T) {
	store := openTestStore(t)

	for _, rating := range []float64{3.0, 5.0} {
		r := testReview(100)
		r.Rating = rating
		require.NoError(t, store.Reviews.Insert(r))
	}
	other := testReview(200)
	require.NoError(t, store.Reviews.Insert(other))

	avg, count, err := store.Reviews.RestaurantStats(100)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.InDelta(t, 4.0, avg, 0.001)

	avg, count, err = store.Reviews.RestaurantStats(999)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Zero(t, avg)
}

func TestEnsureDefaultUserIsIdempotent(t *testing.T) {
	store := openTestStore(t)

	first, err := store.Users.EnsureDefaultUser()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultUserName, first.UserName)
	assert.NotEmpty(t, first.UserID)

	second, err := store.Users.EnsureDefaultUser()
	require.NoError(t, err)
	assert.Equal(t, first.UserID, second.UserID)
}

func TestSetCurrentUserKeepsSingleFlag(t *testing.T) {
	store := openTestStore(t)

	first, err := store.Users.EnsureDefaultUser()
	require.NoError(t, err)

	_, err = store.db.Exec(`
        INSERT INTO users (user_id, user_name, created_at, is_current_user)
        VALUES ('other', 'Ben', ?, 0)
    `, formatTime(time.Now()))
	require.NoError(t, err)

	require.NoError(t, store.Users.SetCurrentUser("other"))

	current, err := store.Users.GetCurrentUser()
	require.NoError(t, err)
	assert.Equal(t, "other", current.UserID)

	old, err := store.Users.GetByID(first.UserID)
	require.NoError(t, err)
	assert.False(t, old.IsCurrentUser)

	assert.ErrorIs(t, store.Users.SetCurrentUser("missing"), ErrNotFound)
}

func TestUpdateUserName(t *testing.T) {
	store := openTestStore(t)

	user, err := store.Users.EnsureDefaultUser()
	require.NoError(t, err)
	require.NoError(t, store.Users.UpdateUserName(user.UserID, "Clara"))

	got, err := store.Users.GetByID(user.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Clara", got.UserName)
}
