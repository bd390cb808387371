// Package search finds restaurants through OpenStreetMap services. Providers
// take their configuration and map bounds explicitly; there is no process-wide
// provider or viewport state.
package search

import (
	"context"
	"math"
	"net/http"
	"time"
)

// Restaurant is a search hit. The OSM element ID doubles as the restaurant ID
// reviews snapshot.
type Restaurant struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Address     string  `json:"address"`
	AmenityType string  `json:"amenityType"`
}

// Bounds is a geographic viewport, passed in by the caller instead of read
// from shared state.
type Bounds struct {
	South float64
	West  float64
	North float64
	East  float64
}

// BoundsAround builds a bounding box of roughly radiusMeters around a point.
func BoundsAround(lat, lon float64, radiusMeters int) Bounds {
	km := float64(radiusMeters) / 1000.0
	latDiff := km / 111.0
	lonDiff := km / (111.0 * math.Cos(lat*math.Pi/180))
	return Bounds{
		South: lat - latDiff,
		West:  lon - lonDiff,
		North: lat + latDiff,
		East:  lon + lonDiff,
	}
}

type RestaurantSearchService interface {
	// Search finds restaurants matching query inside bounds. A nil bounds
	// falls back to a box around the configured default center.
	Search(ctx context.Context, query string, bounds *Bounds) ([]Restaurant, error)
	// Nearby finds restaurants within radiusMeters of a point.
	Nearby(ctx context.Context, lat, lon float64, radiusMeters int) ([]Restaurant, error)
	// InBounds lists restaurants inside a viewport regardless of name.
	InBounds(ctx context.Context, bounds Bounds) ([]Restaurant, error)
}

// Config is shared provider configuration. Zero values get sensible defaults
// from each provider's constructor.
type Config struct {
	BaseURL   string
	UserAgent string
	// DefaultLat and DefaultLon center the fallback box used when a search
	// arrives without bounds.
	DefaultLat float64
	DefaultLon float64
	HTTPClient *http.Client
}

const defaultUserAgent = "MyReviews CLI"

func (c *Config) applyDefaults(baseURL string) {
	if c.BaseURL == "" {
		c.BaseURL = baseURL
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
}
