package localstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"myreviews/internal/model"
)

type ReviewStore struct {
	db *sql.DB
}

// Insert saves a brand-new review. The assigned ID is a negative local
// placeholder; the server hands out the real one on first sync, and negative
// placeholders can never collide with server IDs during the pull upsert.
func (r *ReviewStore) Insert(review *model.Review) error {
	var minID sql.NullInt64
	if err := r.db.QueryRow(`SELECT MIN(id) FROM reviews WHERE id < 0`).Scan(&minID); err != nil {
		return fmt.Errorf("allocate placeholder id: %w", err)
	}
	review.ID = -1
	if minID.Valid {
		review.ID = minID.Int64 - 1
	}

	now := time.Now().UTC()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}
	review.UpdatedAt = now
	review.SyncedAt = nil

	_, err := r.db.Exec(`
        INSERT INTO reviews (id, restaurant_id, restaurant_name, restaurant_lat, restaurant_lon,
                             restaurant_address, rating, comment, visit_date, user_id, user_name,
                             created_at, updated_at, synced_at, is_deleted)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, 0)
    `,
		review.ID, review.RestaurantID, review.RestaurantName, review.RestaurantLat,
		review.RestaurantLon, review.RestaurantAddress, review.Rating, review.Comment,
		review.VisitDate.String(), review.UserID, review.UserName,
		formatTime(review.CreatedAt), formatTime(review.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// Update rewrites an edited review, bumps updated_at and clears synced_at so
// the next sync picks it up.
func (r *ReviewStore) Update(review *model.Review) error {
	review.UpdatedAt = time.Now().UTC()
	review.SyncedAt = nil

	res, err := r.db.Exec(`
        UPDATE reviews
        SET restaurant_name = ?, restaurant_lat = ?, restaurant_lon = ?,
            restaurant_address = ?, rating = ?, comment = ?, visit_date = ?,
            user_name = ?, updated_at = ?, synced_at = NULL
        WHERE id = ?
    `,
		review.RestaurantName, review.RestaurantLat, review.RestaurantLon,
		review.RestaurantAddress, review.Rating, review.Comment, review.VisitDate.String(),
		review.UserName, formatTime(review.UpdatedAt), review.ID,
	)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkDeleted turns a review into a tombstone. The row survives until a sync
// confirms the server recorded the delete.
func (r *ReviewStore) MarkDeleted(reviewID int64) error {
	res, err := r.db.Exec(`
        UPDATE reviews
        SET is_deleted = 1, updated_at = ?, synced_at = NULL
        WHERE id = ?
    `, formatTime(time.Now()), reviewID)
	if err != nil {
		return fmt.Errorf("mark review deleted: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReviewStore) GetByID(reviewID int64) (*model.Review, error) {
	review, err := scanReview(r.db.QueryRow(`
        SELECT `+reviewColumns+` FROM reviews WHERE id = ?
    `, reviewID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return review, err
}

// FindByRestaurantAndUser returns the local row for one (restaurant, user)
// pair. A pending tombstone takes precedence over a recreated live row so a
// download cannot resurrect a deleted review.
func (r *ReviewStore) FindByRestaurantAndUser(restaurantID int64, userID string) (*model.Review, error) {
	review, err := scanReview(r.db.QueryRow(`
        SELECT `+reviewColumns+` FROM reviews
        WHERE restaurant_id = ? AND user_id = ?
        ORDER BY is_deleted DESC, id
        LIMIT 1
    `, restaurantID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return review, err
}

// Remove hard-deletes a row. Used when a download replaces a placeholder row
// with its server-assigned copy.
func (r *ReviewStore) Remove(reviewID int64) error {
	_, err := r.db.Exec(`DELETE FROM reviews WHERE id = ?`, reviewID)
	if err != nil {
		return fmt.Errorf("remove review: %w", err)
	}
	return nil
}

// ListAll returns every non-deleted review, newest visit first.
func (r *ReviewStore) ListAll() ([]model.Review, error) {
	return r.queryReviews(`
        SELECT ` + reviewColumns + ` FROM reviews
        WHERE is_deleted = 0
        ORDER BY visit_date DESC
    `)
}

func (r *ReviewStore) ListByRestaurant(restaurantID int64) ([]model.Review, error) {
	return r.queryReviews(`
        SELECT `+reviewColumns+` FROM reviews
        WHERE restaurant_id = ? AND is_deleted = 0
        ORDER BY visit_date DESC
    `, restaurantID)
}

// ListUnsynced returns every review the server has not confirmed yet:
// never synced, modified since the last sync, or tombstoned.
func (r *ReviewStore) ListUnsynced() ([]model.Review, error) {
	return r.queryReviews(`
        SELECT ` + reviewColumns + ` FROM reviews
        WHERE synced_at IS NULL OR updated_at > synced_at OR is_deleted = 1
    `)
}

func (r *ReviewStore) MarkSynced(reviewID int64, syncedAt time.Time) error {
	_, err := r.db.Exec(`
        UPDATE reviews SET synced_at = ? WHERE id = ?
    `, formatTime(syncedAt), reviewID)
	if err != nil {
		return fmt.Errorf("mark review synced: %w", err)
	}
	return nil
}

// UpsertByID writes a server-authoritative row under its server ID and stamps
// it synced.
func (r *ReviewStore) UpsertByID(review *model.Review, syncedAt time.Time) error {
	_, err := r.db.Exec(`
        INSERT OR REPLACE INTO reviews
            (id, restaurant_id, restaurant_name, restaurant_lat, restaurant_lon,
             restaurant_address, rating, comment, visit_date, user_id, user_name,
             created_at, updated_at, synced_at, is_deleted)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
    `,
		review.ID, review.RestaurantID, review.RestaurantName, review.RestaurantLat,
		review.RestaurantLon, review.RestaurantAddress, review.Rating, review.Comment,
		review.VisitDate.String(), review.UserID, review.UserName,
		formatTime(review.CreatedAt), formatTime(review.UpdatedAt),
		formatTime(syncedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}
	return nil
}

// PurgeNonTombstones wipes every live row. Used right before the server's
// returned set is written back as the new truth.
func (r *ReviewStore) PurgeNonTombstones() error {
	_, err := r.db.Exec(`DELETE FROM reviews WHERE is_deleted = 0`)
	if err != nil {
		return fmt.Errorf("purge non-tombstones: %w", err)
	}
	return nil
}

// PurgeSyncedTombstones removes tombstones the server has confirmed.
func (r *ReviewStore) PurgeSyncedTombstones() error {
	_, err := r.db.Exec(`DELETE FROM reviews WHERE is_deleted = 1 AND synced_at IS NOT NULL`)
	if err != nil {
		return fmt.Errorf("purge synced tombstones: %w", err)
	}
	return nil
}

// RestaurantStats aggregates the local live reviews for one restaurant.
func (r *ReviewStore) RestaurantStats(restaurantID int64) (average float64, count int, err error) {
	err = r.db.QueryRow(`
        SELECT COALESCE(AVG(rating), 0), COUNT(*)
        FROM reviews
        WHERE restaurant_id = ? AND is_deleted = 0
    `, restaurantID).Scan(&average, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("restaurant stats: %w", err)
	}
	return average, count, nil
}

const reviewColumns = `
        id, restaurant_id, restaurant_name, restaurant_lat, restaurant_lon,
        restaurant_address, rating, comment, visit_date, user_id, user_name,
        created_at, updated_at, synced_at, is_deleted
    `

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReview(row rowScanner) (*model.Review, error) {
	var review model.Review
	var visitDate, createdAt, updatedAt string
	var syncedAt sql.NullString

	err := row.Scan(
		&review.ID, &review.RestaurantID, &review.RestaurantName,
		&review.RestaurantLat, &review.RestaurantLon, &review.RestaurantAddress,
		&review.Rating, &review.Comment, &visitDate, &review.UserID, &review.UserName,
		&createdAt, &updatedAt, &syncedAt, &review.IsDeleted,
	)
	if err != nil {
		return nil, err
	}

	if review.VisitDate, err = model.ParseDate(visitDate); err != nil {
		return nil, err
	}
	if review.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if review.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if syncedAt.Valid {
		t, err := parseTime(syncedAt.String)
		if err != nil {
			return nil, err
		}
		review.SyncedAt = &t
	}
	return &review, nil
}

func (r *ReviewStore) queryReviews(query string, args ...any) ([]model.Review, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *review)
	}
	return reviews, rows.Err()
}
