package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"myreviews/internal/model"
	"myreviews/internal/store"
)

type upsertUserPayload struct {
	UserName string `json:"userName" validate:"required,max=100"`
}

// upsertUserHandler godoc
//
//	@Summary		Create or rename a user
//	@Description	Upserts the user and cascades the display name onto all of their reviews.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			userID	path		string				true	"User ID"
//	@Param			payload	body		upsertUserPayload	true	"User name"
//	@Success		200		{object}	model.User
//	@Failure		400		{object}	error
//	@Router			/users/{userID} [put]
func (app *application) upsertUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var payload upsertUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user := &model.User{
		UserID:   userID,
		UserName: payload.UserName,
	}

	if err := app.store.Users.Upsert(r.Context(), user); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// getUserHandler godoc
//
//	@Summary	Get a user
//	@Tags		users
//	@Produce	json
//	@Param		userID	path		string	true	"User ID"
//	@Success	200		{object}	model.User
//	@Failure	404		{object}	error
//	@Router		/users/{userID} [get]
func (app *application) getUserHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	user, err := app.store.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// getUsersHandler godoc
//
//	@Summary	List users
//	@Tags		users
//	@Produce	json
//	@Success	200	{array}	model.User
//	@Router		/users [get]
func (app *application) getUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := app.store.Users.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}
