package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"myreviews/internal/model"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	ErrForbidden         = errors.New("not the owner of this resource")
	ErrVersionConflict   = errors.New("stored version is newer")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		Upsert(context.Context, *model.User) error
		GetByID(context.Context, string) (*model.User, error)
		List(context.Context) ([]model.User, error)
		SetAvatarURL(context.Context, string, *string) (*model.User, error)
	}
	Reviews interface {
		Create(context.Context, *model.Review) error
		GetByID(context.Context, int64) (*model.Review, error)
		Update(context.Context, *model.Review) error
		SoftDelete(ctx context.Context, reviewID int64, userID string) error
		ListSince(context.Context, *time.Time) ([]model.Review, error)
		ListByUser(ctx context.Context, userID string, since *time.Time) ([]model.Review, error)
		ListByRestaurant(context.Context, int64) ([]model.Review, error)
		BulkSync(ctx context.Context, userID string, reviews []model.Review) (int, []model.Review, error)
	}
	Reactions interface {
		Upsert(context.Context, *Reaction) error
		Delete(ctx context.Context, reviewID int64, userID string) error
		ListForReview(context.Context, int64) ([]Reaction, map[string]int, error)
		ListByUser(ctx context.Context, userID string) ([]Reaction, error)
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Users:     &UsersStore{db},
		Reviews:   &ReviewStore{db},
		Reactions: &ReactionStore{db},
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
