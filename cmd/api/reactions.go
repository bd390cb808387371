package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"myreviews/internal/store"
)

type addReactionPayload struct {
	UserID string `json:"userId" validate:"required"`
	Emoji  string `json:"emoji" validate:"required"`
}

// addReactionHandler godoc
//
//	@Summary		React to a review
//	@Description	Sets the user's reaction emoji, replacing any previous one.
//	@Tags			reactions
//	@Accept			json
//	@Produce		json
//	@Param			reviewID	path		int					true	"Review ID"
//	@Param			payload		body		addReactionPayload	true	"Reaction"
//	@Success		200			{object}	store.Reaction
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Router			/reactions/review/{reviewID} [post]
func (app *application) addReactionHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}

	var payload addReactionPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if !store.IsAllowedEmoji(payload.Emoji) {
		app.badRequestResponse(w, r, errors.New("invalid emoji"))
		return
	}

	reaction := &store.Reaction{
		ReviewID: reviewID,
		UserID:   payload.UserID,
		Emoji:    payload.Emoji,
	}

	if err := app.store.Reactions.Upsert(r.Context(), reaction); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reaction)
}

// removeReactionHandler godoc
//
//	@Summary	Remove a reaction
//	@Tags		reactions
//	@Param		reviewID	path	int		true	"Review ID"
//	@Param		userID		path	string	true	"User ID"
//	@Success	200
//	@Failure	404	{object}	error
//	@Router		/reactions/review/{reviewID}/user/{userID} [delete]
func (app *application) removeReactionHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}
	userID := chi.URLParam(r, "userID")

	if err := app.store.Reactions.Delete(r.Context(), reviewID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "reaction removed"})
}

// getReactionsHandler godoc
//
//	@Summary	List reactions on a review
//	@Tags		reactions
//	@Produce	json
//	@Param		reviewID	path		int	true	"Review ID"
//	@Success	200			{object}	map[string]any
//	@Router		/reactions/review/{reviewID} [get]
func (app *application) getReactionsHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := strconv.ParseInt(chi.URLParam(r, "reviewID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}

	reactions, counts, err := app.store.Reactions.ListForReview(r.Context(), reviewID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if reactions == nil {
		reactions = []store.Reaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reactions": reactions,
		"counts":    counts,
	})
}

// getUserReactionsHandler godoc
//
//	@Summary	List a user's reactions
//	@Tags		reactions
//	@Produce	json
//	@Param		userID	path	string	true	"User ID"
//	@Success	200		{array}	store.Reaction
//	@Router		/reactions/user/{userID} [get]
func (app *application) getUserReactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	reactions, err := app.store.Reactions.ListByUser(r.Context(), userID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if reactions == nil {
		reactions = []store.Reaction{}
	}
	writeJSON(w, http.StatusOK, reactions)
}
