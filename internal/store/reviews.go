package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"myreviews/internal/model"
)

type ReviewStore struct {
	db *pgxpool.Pool
}

const reviewColumns = `
        id, restaurant_id, restaurant_name, restaurant_lat, restaurant_lon,
        restaurant_address, rating, comment, visit_date, user_id, user_name,
        created_at, updated_at, reaction_counts
    `

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanReview(row pgx.Row, review *model.Review) error {
	var visitDate time.Time
	err := row.Scan(
		&review.ID,
		&review.RestaurantID,
		&review.RestaurantName,
		&review.RestaurantLat,
		&review.RestaurantLon,
		&review.RestaurantAddress,
		&review.Rating,
		&review.Comment,
		&visitDate,
		&review.UserID,
		&review.UserName,
		&review.CreatedAt,
		&review.UpdatedAt,
		&review.ReactionCounts,
	)
	if err != nil {
		return err
	}
	review.VisitDate = model.DateOf(visitDate)
	return nil
}

func queryReviews(ctx context.Context, q rowQuerier, sql string, args ...any) ([]model.Review, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var review model.Review
		if err := scanReview(rows, &review); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (r *ReviewStore) Create(ctx context.Context, review *model.Review) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Make sure the author exists before the review references it.
	_, err = tx.Exec(ctx, `
        INSERT INTO users (user_id, user_name)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO NOTHING
    `, review.UserID, review.UserName)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx, `
        INSERT INTO reviews
            (restaurant_id, restaurant_name, restaurant_lat, restaurant_lon,
             restaurant_address, rating, comment, visit_date, user_id, user_name,
             created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
                COALESCE($11, NOW()), COALESCE($12, NOW()))
        RETURNING id, created_at, updated_at
    `,
		review.RestaurantID,
		review.RestaurantName,
		review.RestaurantLat,
		review.RestaurantLon,
		review.RestaurantAddress,
		review.Rating,
		review.Comment,
		review.VisitDate.Time,
		review.UserID,
		review.UserName,
		nullableTime(review.CreatedAt),
		nullableTime(review.UpdatedAt),
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *ReviewStore) GetByID(ctx context.Context, reviewID int64) (*model.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var review model.Review
	err := scanReview(r.db.QueryRow(ctx, `
        SELECT `+reviewColumns+`
        FROM reviews
        WHERE id = $1
    `, reviewID), &review)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// Update is the strict single-row path: it enforces ownership and rejects a
// payload whose updatedAt is older than the stored row.
func (r *ReviewStore) Update(ctx context.Context, review *model.Review) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var ownerID string
	var storedUpdatedAt time.Time
	err := r.db.QueryRow(ctx, `
        SELECT user_id, updated_at FROM reviews WHERE id = $1
    `, review.ID).Scan(&ownerID, &storedUpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if ownerID != review.UserID {
		return ErrForbidden
	}
	if payloadIsStale(review.UpdatedAt, storedUpdatedAt) {
		return ErrVersionConflict
	}

	err = scanReview(r.db.QueryRow(ctx, `
        UPDATE reviews
        SET rating = $1, comment = $2, visit_date = $3, updated_at = NOW()
        WHERE id = $4
        RETURNING `+reviewColumns+`
    `, review.Rating, review.Comment, review.VisitDate.Time, review.ID), review)
	return err
}

func (r *ReviewStore) SoftDelete(ctx context.Context, reviewID int64, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var ownerID string
	err := r.db.QueryRow(ctx, `
        SELECT user_id FROM reviews WHERE id = $1
    `, reviewID).Scan(&ownerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != userID {
		return ErrForbidden
	}

	_, err = r.db.Exec(ctx, `
        UPDATE reviews SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1
    `, reviewID)
	return err
}

func (r *ReviewStore) ListSince(ctx context.Context, since *time.Time) ([]model.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
        SELECT ` + reviewColumns + `
        FROM reviews
        WHERE is_deleted = FALSE
    `
	args := []any{}
	if since != nil {
		query += ` AND updated_at > $1`
		args = append(args, *since)
	}
	query += ` ORDER BY visit_date DESC`

	return queryReviews(ctx, r.db, query, args...)
}

func (r *ReviewStore) ListByUser(ctx context.Context, userID string, since *time.Time) ([]model.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	query := `
        SELECT ` + reviewColumns + `
        FROM reviews
        WHERE user_id = $1 AND is_deleted = FALSE
    `
	args := []any{userID}
	if since != nil {
		query += ` AND updated_at > $2`
		args = append(args, *since)
	}
	query += ` ORDER BY visit_date DESC`

	return queryReviews(ctx, r.db, query, args...)
}

func (r *ReviewStore) ListByRestaurant(ctx context.Context, restaurantID int64) ([]model.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return queryReviews(ctx, r.db, `
        SELECT `+reviewColumns+`
        FROM reviews
        WHERE restaurant_id = $1 AND is_deleted = FALSE
        ORDER BY visit_date DESC
    `, restaurantID)
}

// BulkSync applies a client's full batch inside one transaction and returns
// the authoritative non-deleted set afterwards.
//
// Tombstones are applied first, regardless of their position in the batch:
// a delete-then-recreate for the same restaurant must not see the recreation
// matched against the row the tombstone is about to kill. A tombstone marks
// the matching server row deleted (one the server has never seen is a no-op).
// Live rows follow: each is matched by (restaurant_id, user_id) and
// overwritten unless the stored row carries a newer updated_at; an unmatched
// live row is inserted, preserving the client's timestamps when present.
func (r *ReviewStore) BulkSync(ctx context.Context, userID string, reviews []model.Review) (int, []model.Review, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, nil, err
	}
	defer tx.Rollback(ctx)

	// The author row must exist before any review insert references it.
	userName := model.DefaultUserName
	for i := range reviews {
		if reviews[i].UserName != "" {
			userName = reviews[i].UserName
			break
		}
	}
	_, err = tx.Exec(ctx, `
        INSERT INTO users (user_id, user_name)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO NOTHING
    `, userID, userName)
	if err != nil {
		return 0, nil, err
	}

	processed := 0
	for i := range reviews {
		review := &reviews[i]
		if !review.IsDeleted {
			continue
		}
		if review.ID > 0 {
			_, err = tx.Exec(ctx, `
                UPDATE reviews SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1
            `, review.ID)
			if err != nil {
				return 0, nil, err
			}
		}
		processed++
	}

	for i := range reviews {
		review := &reviews[i]
		if review.IsDeleted {
			continue
		}

		var existingID int64
		var existingUpdatedAt time.Time
		err = tx.QueryRow(ctx, `
            SELECT id, updated_at FROM reviews
            WHERE restaurant_id = $1 AND user_id = $2 AND is_deleted = FALSE
            ORDER BY id
            LIMIT 1
        `, review.RestaurantID, review.UserID).Scan(&existingID, &existingUpdatedAt)

		switch {
		case err == nil:
			// Skip stale payloads instead of overwriting unconditionally.
			if payloadIsStale(review.UpdatedAt, existingUpdatedAt) {
				processed++
				continue
			}
			_, err = tx.Exec(ctx, `
                UPDATE reviews
                SET rating = $1, comment = $2, visit_date = $3,
                    restaurant_name = $4, restaurant_lat = $5,
                    restaurant_lon = $6, restaurant_address = $7,
                    user_name = $8, updated_at = COALESCE($9, NOW())
                WHERE id = $10
            `,
				review.Rating, review.Comment, review.VisitDate.Time,
				review.RestaurantName, review.RestaurantLat,
				review.RestaurantLon, review.RestaurantAddress,
				review.UserName, nullableTime(review.UpdatedAt), existingID)
			if err != nil {
				return 0, nil, err
			}

		case errors.Is(err, pgx.ErrNoRows):
			_, err = tx.Exec(ctx, `
                INSERT INTO reviews
                    (restaurant_id, restaurant_name, restaurant_lat, restaurant_lon,
                     restaurant_address, rating, comment, visit_date, user_id, user_name,
                     created_at, updated_at)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
                        COALESCE($11, NOW()), COALESCE($12, NOW()))
            `,
				review.RestaurantID, review.RestaurantName, review.RestaurantLat,
				review.RestaurantLon, review.RestaurantAddress, review.Rating,
				review.Comment, review.VisitDate.Time, review.UserID, review.UserName,
				nullableTime(review.CreatedAt), nullableTime(review.UpdatedAt))
			if err != nil {
				return 0, nil, err
			}

		default:
			return 0, nil, err
		}
		processed++
	}

	all, err := queryReviews(ctx, tx, `
        SELECT `+reviewColumns+`
        FROM reviews
        WHERE is_deleted = FALSE
        ORDER BY visit_date DESC
    `)
	if err != nil {
		return 0, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, nil, err
	}
	return processed, all, nil
}

// payloadIsStale reports whether an incoming payload loses against the stored
// row under last-write-wins. A payload without a timestamp always wins.
func payloadIsStale(incoming, stored time.Time) bool {
	return !incoming.IsZero() && incoming.Before(stored)
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
