package syncapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myreviews/internal/model"
)

func TestTestConnection(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	assert.True(t, NewClient(healthy.URL).TestConnection(context.Background()))

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	assert.False(t, NewClient(broken.URL).TestConnection(context.Background()))
	assert.False(t, NewClient("http://127.0.0.1:1").TestConnection(context.Background()))
}

func TestSyncUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/users/user-1", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Anna", body["userName"])

		json.NewEncoder(w).Encode(map[string]string{"userId": "user-1", "userName": "Anna"})
	}))
	defer srv.Close()

	user := &model.User{UserID: "user-1", UserName: "Anna"}
	require.NoError(t, NewClient(srv.URL).SyncUser(context.Background(), user))
}

func TestBulkSync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/reviews/sync", r.URL.Path)

		var body struct {
			UserID  string         `json:"userId"`
			Reviews []model.Review `json:"reviews"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user-1", body.UserID)
		require.Len(t, body.Reviews, 1)

		json.NewEncoder(w).Encode(map[string]any{
			"processed": 1,
			"allReviews": []model.Review{
				{ID: 10, RestaurantID: 100, RestaurantName: "Goldener Anker", Rating: 4, UserID: "user-1"},
			},
		})
	}))
	defer srv.Close()

	reviews := []model.Review{{ID: -1, RestaurantID: 100, RestaurantName: "Goldener Anker", Rating: 4, UserID: "user-1"}}
	resp, err := NewClient(srv.URL).BulkSync(context.Background(), "user-1", reviews)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Processed)
	require.Len(t, resp.AllReviews, 1)
	assert.Equal(t, int64(10), resp.AllReviews[0].ID)
}

func TestBulkSyncSendsEmptyArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		// Must be [], not null; the server rejects a missing array.
		assert.JSONEq(t, `[]`, string(body["reviews"]))

		json.NewEncoder(w).Encode(map[string]any{"processed": 0, "allReviews": []model.Review{}})
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).BulkSync(context.Background(), "user-1", nil)
	require.NoError(t, err)
	assert.Zero(t, resp.Processed)
}

func TestFetchAllReviewsSinceParam(t *testing.T) {
	since := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reviews", r.URL.Path)
		assert.Equal(t, "2025-03-01T10:00:00Z", r.URL.Query().Get("since"))
		json.NewEncoder(w).Encode([]model.Review{{ID: 1}})
	}))
	defer srv.Close()

	reviews, err := NewClient(srv.URL).FetchAllReviews(context.Background(), &since)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
}

func TestFetchUserReviews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reviews/user/user-1", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("since"))
		json.NewEncoder(w).Encode([]model.Review{})
	}))
	defer srv.Close()

	reviews, err := NewClient(srv.URL).FetchUserReviews(context.Background(), "user-1", nil)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestErrorStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).BulkSync(context.Background(), "user-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
