package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"myreviews/internal/model"
)

type UsersStore struct {
	db *pgxpool.Pool
}

// Upsert creates or renames a user and cascades the new display name onto
// every review the user has written, in one transaction. Reviews carry a
// denormalized user_name snapshot, so a rename has to touch them all.
func (s *UsersStore) Upsert(ctx context.Context, user *model.User) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
        INSERT INTO users (user_id, user_name)
        VALUES ($1, $2)
        ON CONFLICT (user_id)
        DO UPDATE SET user_name = $2, updated_at = NOW()
        RETURNING user_id, user_name, created_at, updated_at
    `, user.UserID, user.UserName).Scan(
		&user.UserID, &user.UserName, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
        UPDATE reviews SET user_name = $1, updated_at = NOW() WHERE user_id = $2
    `, user.UserName, user.UserID)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *UsersStore) GetByID(ctx context.Context, userID string) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var user model.User
	err := s.db.QueryRow(ctx, `
        SELECT user_id, user_name, avatar_url, created_at, updated_at
        FROM users
        WHERE user_id = $1
    `, userID).Scan(
		&user.UserID, &user.UserName, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UsersStore) List(ctx context.Context) ([]model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, `
        SELECT user_id, user_name, avatar_url, created_at, updated_at
        FROM users
        ORDER BY created_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(
			&user.UserID, &user.UserName, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// SetAvatarURL updates the stored avatar location; nil clears it.
func (s *UsersStore) SetAvatarURL(ctx context.Context, userID string, avatarURL *string) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var user model.User
	err := s.db.QueryRow(ctx, `
        UPDATE users
        SET avatar_url = $1, updated_at = NOW()
        WHERE user_id = $2
        RETURNING user_id, user_name, avatar_url, created_at, updated_at
    `, avatarURL, userID).Scan(
		&user.UserID, &user.UserName, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
