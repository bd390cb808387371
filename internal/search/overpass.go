package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Overpass searches restaurants via the Overpass API. Richer than Nominatim
// for amenity queries: it matches name, brand, cuisine and operator tags and
// supports true radius search.
type Overpass struct {
	cfg Config
}

func NewOverpass(cfg Config) *Overpass {
	cfg.applyDefaults("https://overpass-api.de/api")
	return &Overpass{cfg: cfg}
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *overpassCenter   `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

const amenityFilter = `"amenity"~"restaurant|fast_food|cafe"`

func (o *Overpass) Search(ctx context.Context, query string, bounds *Bounds) ([]Restaurant, error) {
	if bounds == nil {
		b := BoundsAround(o.cfg.DefaultLat, o.cfg.DefaultLon, 5000)
		bounds = &b
	}
	bbox := bboxOf(*bounds)
	q := sanitizeRegex(query)

	var b strings.Builder
	b.WriteString("[out:json][timeout:10];\n(\n")
	for _, tag := range []string{"name", "brand", "cuisine", "operator"} {
		fmt.Fprintf(&b, "  node[%s][%q~%q,i](%s);\n", amenityFilter, tag, q, bbox)
	}
	for _, tag := range []string{"name", "brand", "cuisine"} {
		fmt.Fprintf(&b, "  way[%s][%q~%q,i](%s);\n", amenityFilter, tag, q, bbox)
	}
	b.WriteString(");\nout center;")

	return o.run(ctx, b.String())
}

func (o *Overpass) Nearby(ctx context.Context, lat, lon float64, radiusMeters int) ([]Restaurant, error) {
	query := fmt.Sprintf(`[out:json][timeout:25];
(
  node[%s](around:%d,%f,%f);
  way[%s](around:%d,%f,%f);
);
out center;`, amenityFilter, radiusMeters, lat, lon, amenityFilter, radiusMeters, lat, lon)

	return o.run(ctx, query)
}

func (o *Overpass) InBounds(ctx context.Context, bounds Bounds) ([]Restaurant, error) {
	bbox := bboxOf(bounds)
	query := fmt.Sprintf(`[out:json][timeout:25];
(
  node[%s](%s);
  way[%s](%s);
);
out center;`, amenityFilter, bbox, amenityFilter, bbox)

	return o.run(ctx, query)
}

func (o *Overpass) run(ctx context.Context, query string) ([]Restaurant, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/interpreter",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", o.cfg.UserAgent)

	resp, err := o.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass query: status %d", resp.StatusCode)
	}

	var decoded overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("overpass query: decode: %w", err)
	}

	restaurants := make([]Restaurant, 0, len(decoded.Elements))
	for _, el := range decoded.Elements {
		lat, lon, ok := el.position()
		if !ok || el.Tags == nil {
			continue
		}

		name := firstTag(el.Tags, "name", "brand", "operator")
		if name == "" {
			name = "Unnamed restaurant"
		}

		amenity := el.Tags["amenity"]
		if amenity == "" {
			amenity = "restaurant"
		}

		restaurants = append(restaurants, Restaurant{
			ID:          el.ID,
			Name:        name,
			Latitude:    lat,
			Longitude:   lon,
			Address:     osmAddress(el.Tags),
			AmenityType: amenity,
		})
	}
	return restaurants, nil
}

func (el overpassElement) position() (lat, lon float64, ok bool) {
	if el.Lat != nil && el.Lon != nil {
		return *el.Lat, *el.Lon, true
	}
	if el.Center != nil {
		return el.Center.Lat, el.Center.Lon, true
	}
	return 0, 0, false
}

func bboxOf(b Bounds) string {
	return fmt.Sprintf("%f,%f,%f,%f", b.South, b.West, b.North, b.East)
}

// sanitizeRegex strips characters that would break out of the Overpass QL
// regex literal.
func sanitizeRegex(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '\n', '\r':
			return -1
		}
		return r
	}, s)
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, key := range keys {
		if v := tags[key]; v != "" {
			return v
		}
	}
	return ""
}

func osmAddress(tags map[string]string) string {
	var b strings.Builder
	if street := tags["addr:street"]; street != "" {
		b.WriteString(street)
		if num := tags["addr:housenumber"]; num != "" {
			b.WriteString(" " + num)
		}
	}
	if city := tags["addr:city"]; city != "" {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		if postcode := tags["addr:postcode"]; postcode != "" {
			b.WriteString(postcode + " ")
		}
		b.WriteString(city)
	}
	if b.Len() == 0 {
		if full := tags["addr:full"]; full != "" {
			return full
		}
		return ""
	}
	return b.String()
}
