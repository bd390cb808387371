package store

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("plain error")))
	assert.False(t, isUniqueViolation(nil))
}

func TestNullableTime(t *testing.T) {
	assert.Nil(t, nullableTime(time.Time{}))

	now := time.Now()
	got := nullableTime(now)
	if assert.NotNil(t, got) {
		assert.True(t, got.Equal(now))
	}
}

func TestPayloadIsStale(t *testing.T) {
	stored := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		incoming time.Time
		want     bool
	}{
		{"older payload loses", stored.Add(-time.Minute), true},
		{"newer payload wins", stored.Add(time.Minute), false},
		{"equal timestamps win", stored, false},
		{"missing timestamp wins", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, payloadIsStale(tt.incoming, stored))
		})
	}
}

func TestIsAllowedEmoji(t *testing.T) {
	for _, emoji := range AllowedEmojis {
		assert.True(t, IsAllowedEmoji(emoji))
	}
	assert.False(t, IsAllowedEmoji("🍕"))
	assert.False(t, IsAllowedEmoji(""))
}
