// Package syncapi is the HTTP transport between the local store and the sync
// backend. Every call is synchronous request/response and independently
// retryable; failures come back as errors, never panics, so the orchestrator
// can wrap them into a sync result.
package syncapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"myreviews/internal/model"
)

type Client struct {
	baseURL    string
	httpClient *http.Client

	// The connectivity probe uses a short dedicated timeout so a dead server
	// fails fast; the sync calls themselves run on the default client.
	probeClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		probeClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// TestConnection reports whether the server answers its health endpoint.
func (c *Client) TestConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.probeClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// SyncUser upserts the user's display name server-side. The server cascades
// the name onto all of the user's existing reviews in the same operation.
func (c *Client) SyncUser(ctx context.Context, user *model.User) error {
	body := map[string]string{"userName": user.UserName}

	var synced model.User
	err := c.doJSON(ctx, http.MethodPut, "/api/users/"+url.PathEscape(user.UserID), body, &synced)
	if err != nil {
		return fmt.Errorf("sync user: %w", err)
	}
	return nil
}

type BulkSyncResponse struct {
	Processed  int            `json:"processed"`
	AllReviews []model.Review `json:"allReviews"`
}

// BulkSync pushes the full local batch (tombstones included) and returns the
// server's authoritative non-deleted set.
func (c *Client) BulkSync(ctx context.Context, userID string, reviews []model.Review) (*BulkSyncResponse, error) {
	if reviews == nil {
		reviews = []model.Review{}
	}
	body := map[string]any{
		"userId":  userID,
		"reviews": reviews,
	}

	var resp BulkSyncResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/reviews/sync", body, &resp); err != nil {
		return nil, fmt.Errorf("bulk sync: %w", err)
	}
	return &resp, nil
}

// FetchAllReviews pulls every non-deleted review, optionally only those
// updated after since. Read-only; triggers no server-side merge.
func (c *Client) FetchAllReviews(ctx context.Context, since *time.Time) ([]model.Review, error) {
	path := "/api/reviews"
	if since != nil {
		path += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
	}

	var reviews []model.Review
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &reviews); err != nil {
		return nil, fmt.Errorf("fetch reviews: %w", err)
	}
	return reviews, nil
}

// FetchUserReviews pulls one user's non-deleted reviews.
func (c *Client) FetchUserReviews(ctx context.Context, userID string, since *time.Time) ([]model.Review, error) {
	path := "/api/reviews/user/" + url.PathEscape(userID)
	if since != nil {
		path += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
	}

	var reviews []model.Review
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &reviews); err != nil {
		return nil, fmt.Errorf("fetch user reviews: %w", err)
	}
	return reviews, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
