package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AllowedEmojis is the closed set of reaction emojis clients may send.
var AllowedEmojis = []string{"❤️", "👍", "😂", "🤔", "😮"}

func IsAllowedEmoji(emoji string) bool {
	for _, e := range AllowedEmojis {
		if e == emoji {
			return true
		}
	}
	return false
}

type Reaction struct {
	ID        int64     `json:"id"`
	ReviewID  int64     `json:"reviewId"`
	UserID    string    `json:"userId"`
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"createdAt"`

	// Joined fields
	UserName       string `json:"userName,omitempty"`
	RestaurantName string `json:"restaurantName,omitempty"`
}

type ReactionStore struct {
	db *pgxpool.Pool
}

// Upsert sets a user's reaction on a review, replacing any previous emoji,
// and refreshes the cached counts on the review row.
func (s *ReactionStore) Upsert(ctx context.Context, reaction *Reaction) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `
        SELECT EXISTS (SELECT 1 FROM reviews WHERE id = $1)
    `, reaction.ReviewID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	err = tx.QueryRow(ctx, `
        INSERT INTO reactions (review_id, user_id, emoji)
        VALUES ($1, $2, $3)
        ON CONFLICT (review_id, user_id)
        DO UPDATE SET emoji = $3, created_at = NOW()
        RETURNING id, created_at
    `, reaction.ReviewID, reaction.UserID, reaction.Emoji).Scan(
		&reaction.ID, &reaction.CreatedAt,
	)
	if err != nil {
		return err
	}

	if err := refreshReactionCounts(ctx, tx, reaction.ReviewID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *ReactionStore) Delete(ctx context.Context, reviewID int64, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
        DELETE FROM reactions WHERE review_id = $1 AND user_id = $2
    `, reviewID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := refreshReactionCounts(ctx, tx, reviewID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *ReactionStore) ListForReview(ctx context.Context, reviewID int64) ([]Reaction, map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, `
        SELECT r.id, r.review_id, r.user_id, r.emoji, r.created_at, u.user_name
        FROM reactions r
        JOIN users u ON r.user_id = u.user_id
        WHERE r.review_id = $1
        ORDER BY r.created_at DESC
    `, reviewID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var reactions []Reaction
	counts := map[string]int{}
	for rows.Next() {
		var reaction Reaction
		if err := rows.Scan(
			&reaction.ID, &reaction.ReviewID, &reaction.UserID,
			&reaction.Emoji, &reaction.CreatedAt, &reaction.UserName,
		); err != nil {
			return nil, nil, err
		}
		counts[reaction.Emoji]++
		reactions = append(reactions, reaction)
	}
	return reactions, counts, rows.Err()
}

func (s *ReactionStore) ListByUser(ctx context.Context, userID string) ([]Reaction, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, `
        SELECT r.id, r.review_id, r.user_id, r.emoji, r.created_at, rev.restaurant_name
        FROM reactions r
        JOIN reviews rev ON r.review_id = rev.id
        WHERE r.user_id = $1
        ORDER BY r.created_at DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reactions []Reaction
	for rows.Next() {
		var reaction Reaction
		if err := rows.Scan(
			&reaction.ID, &reaction.ReviewID, &reaction.UserID,
			&reaction.Emoji, &reaction.CreatedAt, &reaction.RestaurantName,
		); err != nil {
			return nil, err
		}
		reactions = append(reactions, reaction)
	}
	return reactions, rows.Err()
}

func refreshReactionCounts(ctx context.Context, tx pgx.Tx, reviewID int64) error {
	rows, err := tx.Query(ctx, `
        SELECT emoji, COUNT(*) FROM reactions WHERE review_id = $1 GROUP BY emoji
    `, reviewID)
	if err != nil {
		return err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var emoji string
		var count int
		if err := rows.Scan(&emoji, &count); err != nil {
			return err
		}
		counts[emoji] = count
	}
	if err := rows.Err(); err != nil {
		return err
	}

	encoded, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
        UPDATE reviews SET reaction_counts = $1 WHERE id = $2
    `, encoded, reviewID)
	return err
}
