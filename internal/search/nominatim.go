package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Nominatim searches restaurants via the Nominatim geocoder. Best for
// name-based queries; nearby and bounds lookups are approximated with an
// empty-query bounded search.
type Nominatim struct {
	cfg Config
}

func NewNominatim(cfg Config) *Nominatim {
	cfg.applyDefaults("https://nominatim.openstreetmap.org")
	return &Nominatim{cfg: cfg}
}

type nominatimResult struct {
	PlaceID     int64              `json:"place_id"`
	Lat         string             `json:"lat"`
	Lon         string             `json:"lon"`
	DisplayName string             `json:"display_name"`
	Name        string             `json:"name"`
	Address     *nominatimAddress  `json:"address"`
}

type nominatimAddress struct {
	Road        string `json:"road"`
	HouseNumber string `json:"house_number"`
	Postcode    string `json:"postcode"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
}

func (n *Nominatim) Search(ctx context.Context, query string, bounds *Bounds) ([]Restaurant, error) {
	if bounds == nil {
		b := BoundsAround(n.cfg.DefaultLat, n.cfg.DefaultLon, 20000)
		bounds = &b
	}

	params := url.Values{}
	params.Set("q", strings.TrimSpace(query+" restaurant"))
	params.Set("format", "json")
	params.Set("limit", "50")
	params.Set("addressdetails", "1")
	params.Set("bounded", "1")
	params.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f", bounds.West, bounds.South, bounds.East, bounds.North))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.cfg.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.cfg.UserAgent)

	resp, err := n.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim search: status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("nominatim search: decode: %w", err)
	}

	restaurants := make([]Restaurant, 0, len(results))
	for _, r := range results {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lon, lonErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}

		name := r.Name
		if name == "" {
			name = strings.TrimSpace(strings.Split(r.DisplayName, ",")[0])
		}

		restaurants = append(restaurants, Restaurant{
			ID:          r.PlaceID,
			Name:        name,
			Latitude:    lat,
			Longitude:   lon,
			Address:     r.address(),
			AmenityType: "restaurant",
		})
	}
	return restaurants, nil
}

func (n *Nominatim) Nearby(ctx context.Context, lat, lon float64, radiusMeters int) ([]Restaurant, error) {
	// Nominatim has no radius search; approximate with a bounding box.
	b := BoundsAround(lat, lon, radiusMeters)
	return n.Search(ctx, "", &b)
}

func (n *Nominatim) InBounds(ctx context.Context, bounds Bounds) ([]Restaurant, error) {
	return n.Search(ctx, "", &bounds)
}

// address assembles "Road 12, 69115 City" from the structured address,
// falling back to the display name.
func (r nominatimResult) address() string {
	if r.Address == nil {
		return r.DisplayName
	}
	var b strings.Builder
	if r.Address.Road != "" {
		b.WriteString(r.Address.Road)
		if r.Address.HouseNumber != "" {
			b.WriteString(" " + r.Address.HouseNumber)
		}
	}
	city := r.Address.City
	if city == "" {
		city = r.Address.Town
	}
	if city == "" {
		city = r.Address.Village
	}
	if city != "" {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		if r.Address.Postcode != "" {
			b.WriteString(r.Address.Postcode + " ")
		}
		b.WriteString(city)
	}
	if b.Len() == 0 {
		return r.DisplayName
	}
	return b.String()
}
