package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"myreviews/internal/model"
	"myreviews/internal/store"
)

type createReviewPayload struct {
	RestaurantID      int64      `json:"restaurantId" validate:"required"`
	RestaurantName    string     `json:"restaurantName" validate:"required"`
	RestaurantLat     float64    `json:"restaurantLat" validate:"required"`
	RestaurantLon     float64    `json:"restaurantLon" validate:"required"`
	RestaurantAddress string     `json:"restaurantAddress"`
	Rating            float64    `json:"rating" validate:"required,min=1,max=5"`
	Comment           string     `json:"comment" validate:"max=500"`
	VisitDate         model.Date `json:"visitDate" validate:"required"`
	UserID            string     `json:"userId" validate:"required"`
	UserName          string     `json:"userName" validate:"required"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// createReviewHandler godoc
//
//	@Summary		Create a review
//	@Description	Creates a review carrying a denormalized restaurant snapshot.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		createReviewPayload	true	"Review"
//	@Success		201		{object}	model.Review
//	@Failure		400		{object}	error
//	@Router			/reviews [post]
func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	var payload createReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review := &model.Review{
		RestaurantID:      payload.RestaurantID,
		RestaurantName:    payload.RestaurantName,
		RestaurantLat:     payload.RestaurantLat,
		RestaurantLon:     payload.RestaurantLon,
		RestaurantAddress: payload.RestaurantAddress,
		Rating:            payload.Rating,
		Comment:           payload.Comment,
		VisitDate:         payload.VisitDate,
		UserID:            payload.UserID,
		UserName:          payload.UserName,
		CreatedAt:         payload.CreatedAt,
		UpdatedAt:         payload.UpdatedAt,
	}

	if err := app.store.Reviews.Create(r.Context(), review); err != nil {
		if errors.Is(err, store.ErrConflict) {
			app.conflictResponse(w, r, errors.New("a review for this restaurant by this user already exists"))
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

type updateReviewPayload struct {
	Rating    float64    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string     `json:"comment" validate:"max=500"`
	VisitDate model.Date `json:"visitDate" validate:"required"`
	UserID    string     `json:"userId" validate:"required"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// updateReviewHandler godoc
//
//	@Summary		Update a review
//	@Description	Owner-only. Rejected with 409 when the stored row is newer than the payload.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		int					true	"Review ID"
//	@Param			payload		body		updateReviewPayload	true	"Changes"
//	@Success		200			{object}	model.Review
//	@Failure		403			{object}	error
//	@Failure		404			{object}	error
//	@Failure		409			{object}	error
//	@Router			/reviews/{reviewID} [put]
func (app *application) updateReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}

	var payload updateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review := &model.Review{
		ID:        reviewID,
		Rating:    payload.Rating,
		Comment:   payload.Comment,
		VisitDate: payload.VisitDate,
		UserID:    payload.UserID,
		UpdatedAt: payload.UpdatedAt,
	}

	if err := app.store.Reviews.Update(r.Context(), review); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrForbidden):
			app.forbiddenResponse(w, r)
		case errors.Is(err, store.ErrVersionConflict):
			app.conflictResponse(w, r, errors.New("server version is newer"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, review)
}

// deleteReviewHandler godoc
//
//	@Summary		Delete a review
//	@Description	Owner-only soft delete; the row is kept as a tombstone for sync.
//	@Tags			reviews
//	@Param			reviewID	path	int		true	"Review ID"
//	@Param			userId		query	string	true	"Requesting user"
//	@Success		204
//	@Failure		403	{object}	error
//	@Failure		404	{object}	error
//	@Router			/reviews/{reviewID} [delete]
func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		app.badRequestResponse(w, r, errors.New("userId is required"))
		return
	}

	if err := app.store.Reviews.SoftDelete(r.Context(), reviewID, userID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrForbidden):
			app.forbiddenResponse(w, r)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listReviewsHandler godoc
//
//	@Summary		List all reviews
//	@Description	All non-deleted reviews, optionally only those updated after ?since= (RFC3339).
//	@Tags			reviews
//	@Produce		json
//	@Param			since	query		string	false	"RFC3339 timestamp"
//	@Success		200		{array}		model.Review
//	@Router			/reviews [get]
func (app *application) listReviewsHandler(w http.ResponseWriter, r *http.Request) {
	since, err := parseSinceParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	reviews, err := app.store.Reviews.ListSince(r.Context(), since)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, emptyIfNil(reviews))
}

// listUserReviewsHandler godoc
//
//	@Summary	List a user's reviews
//	@Tags		reviews
//	@Produce	json
//	@Param		userID	path		string	true	"User ID"
//	@Param		since	query		string	false	"RFC3339 timestamp"
//	@Success	200		{array}		model.Review
//	@Router		/reviews/user/{userID} [get]
func (app *application) listUserReviewsHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	since, err := parseSinceParam(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	reviews, err := app.store.Reviews.ListByUser(r.Context(), userID, since)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, emptyIfNil(reviews))
}

// listRestaurantReviewsHandler godoc
//
//	@Summary	List reviews for a restaurant
//	@Tags		reviews
//	@Produce	json
//	@Param		restaurantID	path		int	true	"Restaurant ID"
//	@Success	200				{array}		model.Review
//	@Router		/reviews/restaurant/{restaurantID} [get]
func (app *application) listRestaurantReviewsHandler(w http.ResponseWriter, r *http.Request) {
	restaurantID, err := strconv.ParseInt(chi.URLParam(r, "restaurantID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid restaurant ID"))
		return
	}

	reviews, err := app.store.Reviews.ListByRestaurant(r.Context(), restaurantID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, emptyIfNil(reviews))
}

// Reviews carries no required tag; a fresh client legitimately syncs an
// empty batch.
type syncReviewsPayload struct {
	UserID  string         `json:"userId" validate:"required"`
	Reviews []model.Review `json:"reviews"`
}

type syncReviewsResponse struct {
	Processed  int            `json:"processed"`
	AllReviews []model.Review `json:"allReviews"`
}

// syncReviewsHandler godoc
//
//	@Summary		Bulk review sync
//	@Description	Applies a client's full batch (tombstones included) in one transaction and returns the authoritative non-deleted set.
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		syncReviewsPayload	true	"Batch"
//	@Success		200		{object}	syncReviewsResponse
//	@Failure		400		{object}	error
//	@Router			/reviews/sync [post]
func (app *application) syncReviewsHandler(w http.ResponseWriter, r *http.Request) {
	var payload syncReviewsPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	for _, review := range payload.Reviews {
		if !review.IsDeleted && !model.IsValidRating(review.Rating) {
			app.badRequestResponse(w, r, errors.New("rating must be between 1 and 5"))
			return
		}
	}

	app.logger.Infow("sync request", "user_id", payload.UserID, "reviews", len(payload.Reviews))

	processed, all, err := app.store.Reviews.BulkSync(r.Context(), payload.UserID, payload.Reviews)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, syncReviewsResponse{
		Processed:  processed,
		AllReviews: emptyIfNil(all),
	})
}

func parseSinceParam(r *http.Request) (*time.Time, error) {
	raw := r.URL.Query().Get("since")
	if raw == "" {
		return nil, nil
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errors.New("since must be an RFC3339 timestamp")
	}
	return &since, nil
}

func emptyIfNil(reviews []model.Review) []model.Review {
	if reviews == nil {
		return []model.Review{}
	}
	return reviews
}
