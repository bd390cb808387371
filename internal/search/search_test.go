package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nominatimFixture = `[
  {
    "place_id": 12345,
    "lat": "49.4093",
    "lon": "8.6937",
    "display_name": "Zur Goldenen Gans, Hauptstrasse 25, 69117 Heidelberg, Germany",
    "name": "Zur Goldenen Gans",
    "address": {
      "road": "Hauptstrasse",
      "house_number": "25",
      "postcode": "69117",
      "city": "Heidelberg"
    }
  },
  {
    "place_id": 67890,
    "lat": "49.4100",
    "lon": "8.7000",
    "display_name": "Unnamed Place, Somewhere",
    "name": "",
    "address": null
  }
]`

func TestNominatimSearch(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "MyReviews CLI", r.Header.Get("User-Agent"))
		gotQuery = r.URL.Query()
		w.Write([]byte(nominatimFixture))
	}))
	defer srv.Close()

	svc := NewNominatim(Config{BaseURL: srv.URL})
	bounds := Bounds{South: 49.3, West: 8.6, North: 49.5, East: 8.8}

	restaurants, err := svc.Search(context.Background(), "gans", &bounds)
	require.NoError(t, err)

	assert.Equal(t, "gans restaurant", gotQuery.Get("q"))
	assert.Equal(t, "1", gotQuery.Get("bounded"))
	assert.Equal(t, "8.600000,49.300000,8.800000,49.500000", gotQuery.Get("viewbox"))

	require.Len(t, restaurants, 2)
	assert.Equal(t, int64(12345), restaurants[0].ID)
	assert.Equal(t, "Zur Goldenen Gans", restaurants[0].Name)
	assert.Equal(t, "Hauptstrasse 25, 69117 Heidelberg", restaurants[0].Address)
	assert.InDelta(t, 49.4093, restaurants[0].Latitude, 0.0001)

	// Nameless result falls back to the first display name segment.
	assert.Equal(t, "Unnamed Place", restaurants[1].Name)
	assert.Equal(t, "Unnamed Place, Somewhere", restaurants[1].Address)
}

const overpassFixture = `{
  "elements": [
    {
      "id": 111,
      "lat": 49.41,
      "lon": 8.69,
      "tags": {
        "amenity": "restaurant",
        "name": "Trattoria Toscana",
        "addr:street": "Plöck",
        "addr:housenumber": "7",
        "addr:postcode": "69117",
        "addr:city": "Heidelberg"
      }
    },
    {
      "id": 222,
      "center": {"lat": 49.42, "lon": 8.70},
      "tags": {"amenity": "cafe", "brand": "Koffie"}
    },
    {
      "id": 333,
      "lat": 49.43,
      "lon": 8.71
    }
  ]
}`

func TestOverpassSearch(t *testing.T) {
	var gotData string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/interpreter", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotData = r.PostForm.Get("data")
		w.Write([]byte(overpassFixture))
	}))
	defer srv.Close()

	svc := NewOverpass(Config{BaseURL: srv.URL})
	bounds := Bounds{South: 49.3, West: 8.6, North: 49.5, East: 8.8}

	restaurants, err := svc.Search(context.Background(), "pizza", &bounds)
	require.NoError(t, err)

	assert.Contains(t, gotData, `"name"~"pizza",i`)
	assert.Contains(t, gotData, "49.300000,8.600000,49.500000,8.800000")

	// Tagless elements are dropped; ways use their center position.
	require.Len(t, restaurants, 2)
	assert.Equal(t, "Trattoria Toscana", restaurants[0].Name)
	assert.Equal(t, "Plöck 7, 69117 Heidelberg", restaurants[0].Address)
	assert.Equal(t, "restaurant", restaurants[0].AmenityType)

	assert.Equal(t, "Koffie", restaurants[1].Name)
	assert.Equal(t, "cafe", restaurants[1].AmenityType)
	assert.InDelta(t, 49.42, restaurants[1].Latitude, 0.0001)
}

func TestOverpassNearbyQuery(t *testing.T) {
	var gotData string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotData = r.PostForm.Get("data")
		w.Write([]byte(`{"elements": []}`))
	}))
	defer srv.Close()

	svc := NewOverpass(Config{BaseURL: srv.URL})
	restaurants, err := svc.Nearby(context.Background(), 49.41, 8.69, 500)
	require.NoError(t, err)

	assert.Empty(t, restaurants)
	assert.Contains(t, gotData, "around:500,49.410000,8.690000")
}

func TestSanitizeRegex(t *testing.T) {
	assert.Equal(t, "pizza", sanitizeRegex("pizza"))
	assert.Equal(t, "burger)(;", sanitizeRegex("burger\")(\";\n"))
}

func TestBoundsAround(t *testing.T) {
	b := BoundsAround(49.0, 8.0, 11100)
	assert.InDelta(t, 48.9, b.South, 0.001)
	assert.InDelta(t, 49.1, b.North, 0.001)
	assert.Less(t, b.West, 8.0)
	assert.Greater(t, b.East, 8.0)
}

func TestErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewOverpass(Config{BaseURL: srv.URL}).InBounds(context.Background(), Bounds{})
	assert.Error(t, err)

	_, err = NewNominatim(Config{BaseURL: srv.URL}).Search(context.Background(), "x", &Bounds{})
	assert.Error(t, err)
}
