package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidRating(t *testing.T) {
	tests := []struct {
		name   string
		rating float64
		valid  bool
	}{
		{"lower bound", 1.0, true},
		{"upper bound", 5.0, true},
		{"half star", 3.5, true},
		{"zero", 0.0, false},
		{"just below lower bound", 0.9, false},
		{"just above upper bound", 5.1, false},
		{"negative", -2.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidRating(tt.rating))
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-14")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", d.String())

	_, err = ParseDate("14.03.2025")
	assert.Error(t, err)

	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2025, time.March, 14)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-03-14"`, string(out))

	var parsed Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-14"`), &parsed))
	assert.Equal(t, d, parsed)
}

func TestDateJSONAcceptsFullTimestamp(t *testing.T) {
	// Some clients send visit dates as full timestamps; only the day matters.
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2025-03-14T18:30:00Z"`), &d))
	assert.Equal(t, "2025-03-14", d.String())
}

func TestReviewJSONShape(t *testing.T) {
	now := time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)
	review := Review{
		ID:             42,
		RestaurantID:   1001,
		RestaurantName: "Trattoria Da Mario",
		Rating:         4.5,
		VisitDate:      NewDate(2025, time.March, 10),
		UserID:         "user-1",
		UserName:       "Anna",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	out, err := json.Marshal(review)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))

	assert.Equal(t, float64(42), decoded["id"])
	assert.Equal(t, "Trattoria Da Mario", decoded["restaurantName"])
	assert.Equal(t, "2025-03-10", decoded["visitDate"])
	// Live, unsynced reviews omit the flag fields entirely.
	_, present := decoded["isDeleted"]
	assert.False(t, present)
	_, present = decoded["syncedAt"]
	assert.False(t, present)
}
