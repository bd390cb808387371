package model

import (
	"fmt"
	"strings"
	"time"
)

// Date is a date-only value. Visit dates carry no time component, so the
// wire format is a plain "2006-01-02" string.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	// Tolerate full timestamps; Postgres drivers and older clients send those.
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Review is the synchronized entity. The restaurant fields are a denormalized
// snapshot taken at review time; restaurants are not a stored entity on the
// server. SyncedAt only exists client-side and is never sent by the server.
type Review struct {
	ID                int64          `json:"id"`
	RestaurantID      int64          `json:"restaurantId"`
	RestaurantName    string         `json:"restaurantName"`
	RestaurantLat     float64        `json:"restaurantLat"`
	RestaurantLon     float64        `json:"restaurantLon"`
	RestaurantAddress string         `json:"restaurantAddress"`
	Rating            float64        `json:"rating"`
	Comment           string         `json:"comment"`
	VisitDate         Date           `json:"visitDate"`
	UserID            string         `json:"userId"`
	UserName          string         `json:"userName"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
	SyncedAt          *time.Time     `json:"syncedAt,omitempty"`
	IsDeleted         bool           `json:"isDeleted,omitempty"`
	ReactionCounts    map[string]int `json:"reactionCounts,omitempty"`
}

// IsValidRating reports whether a rating is inside the accepted 1..5 range.
func IsValidRating(rating float64) bool {
	return rating >= 1.0 && rating <= 5.0
}
