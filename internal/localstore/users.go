package localstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"myreviews/internal/model"
)

type UserStore struct {
	db *sql.DB
}

// GetCurrentUser returns the active local identity, or ErrNotFound when the
// device has not been initialized yet.
func (s *UserStore) GetCurrentUser() (*model.User, error) {
	user, err := scanUser(s.db.QueryRow(`
        SELECT user_id, user_name, created_at, is_current_user
        FROM users WHERE is_current_user = 1 LIMIT 1
    `))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

func (s *UserStore) GetByID(userID string) (*model.User, error) {
	user, err := scanUser(s.db.QueryRow(`
        SELECT user_id, user_name, created_at, is_current_user
        FROM users WHERE user_id = ?
    `, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

func (s *UserStore) List() ([]model.User, error) {
	rows, err := s.db.Query(`
        SELECT user_id, user_name, created_at, is_current_user FROM users
    `)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// SetCurrentUser makes userID the single active identity. Clearing the old
// flag and setting the new one happens in one transaction so the
// one-current-user invariant holds even on a crash in between.
func (s *UserStore) SetCurrentUser(userID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE users SET is_current_user = 0`); err != nil {
		return fmt.Errorf("clear current user: %w", err)
	}

	res, err := tx.Exec(`UPDATE users SET is_current_user = 1 WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("set current user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (s *UserStore) UpdateUserName(userID, userName string) error {
	_, err := s.db.Exec(`UPDATE users SET user_name = ? WHERE user_id = ?`, userName, userID)
	if err != nil {
		return fmt.Errorf("update user name: %w", err)
	}
	return nil
}

// EnsureDefaultUser returns the current user, creating a fresh device
// identity with a random UUID when none exists.
func (s *UserStore) EnsureDefaultUser() (*model.User, error) {
	current, err := s.GetCurrentUser()
	if err == nil {
		return current, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user := &model.User{
		UserID:        uuid.NewString(),
		UserName:      model.DefaultUserName,
		CreatedAt:     time.Now().UTC(),
		IsCurrentUser: true,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE users SET is_current_user = 0`); err != nil {
		return nil, fmt.Errorf("clear current user: %w", err)
	}
	_, err = tx.Exec(`
        INSERT INTO users (user_id, user_name, created_at, is_current_user)
        VALUES (?, ?, ?, 1)
    `, user.UserID, user.UserName, formatTime(user.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("create default user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return user, nil
}

func scanUser(row rowScanner) (*model.User, error) {
	var user model.User
	var createdAt string
	if err := row.Scan(&user.UserID, &user.UserName, &createdAt, &user.IsCurrentUser); err != nil {
		return nil, err
	}
	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &user, nil
}
