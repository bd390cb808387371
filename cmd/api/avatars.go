package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/go-chi/chi/v5"

	"myreviews/internal/store"
)

const maxAvatarSize = 5 * 1024 * 1024 // 5MB

// uploadAvatarHandler godoc
//
//	@Summary		Upload a user avatar
//	@Description	Accepts a multipart "avatar" image, stores it on Cloudinary and records the URL.
//	@Tags			avatars
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			userID	path		string	true	"User ID"
//	@Param			avatar	formData	file	true	"Image file"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	error
//	@Failure		404		{object}	error
//	@Router			/avatars/{userID} [post]
func (app *application) uploadAvatarHandler(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		app.badRequestResponse(w, r, errors.New("file too large or malformed form"))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("no file uploaded"))
		return
	}
	defer file.Close()

	if !isAllowedImage(header.Filename) {
		app.badRequestResponse(w, r, errors.New("only image files are allowed"))
		return
	}

	// Reject uploads for unknown users before touching Cloudinary.
	if _, err := app.store.Users.GetByID(r.Context(), userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	// The timestamp in the public ID busts client-side caches after a change.
	publicID := fmt.Sprintf("avatar_%s_%d", userID, time.Now().UnixNano())
	resp, err := app.cld.Upload.Upload(
		context.Background(),
		file,
		uploader.UploadParams{
			Folder:    "avatars",
			PublicID:  publicID,
			Overwrite: api.Bool(false),
		},
	)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("cloudinary upload: %w", err))
		return
	}

	user, err := app.store.Users.SetAvatarURL(r.Context(), userID, &resp.SecureURL)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"avatarUrl": *user.AvatarURL,
		"message":   "avatar uploaded successfully",
	})
}

// deleteAvatarHandler godoc
//
//	@Summary	Delete a user avatar
//	@Tags		avatars
//	@Param		userID	path	string	true	"User ID"
//	@Success	200
//	@Failure	404	{object}	error
//	@Router		/avatars/{userID} [delete]
func (app *application) deleteAvatarHandler(w http.ResponseWriter, r *http.Request) {
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

	if user.AvatarURL != nil {
		if err := app.deleteAvatarFromCloudinary(*user.AvatarURL); err != nil {
			// The DB row is still cleared; a stale Cloudinary asset is harmless.
			app.logger.Warnw("failed to delete cloudinary asset", "user_id", userID, "error", err)
		}
	}

	if _, err := app.store.Users.SetAvatarURL(r.Context(), userID, nil); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "avatar deleted"})
}

func (app *application) deleteAvatarFromCloudinary(avatarURL string) error {
	publicID, err := extractPublicIDFromURL(avatarURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	_, err = app.cld.Upload.Destroy(context.Background(), uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete avatar from Cloudinary: %w", err)
	}
	return nil
}

// extractPublicIDFromURL pulls the public ID out of a Cloudinary delivery URL.
func extractPublicIDFromURL(rawURL string) (string, error) {
	parts := strings.Split(rawURL, "/")
	for i, part := range parts {
		if part == "upload" && i+1 < len(parts) {
			rest := parts[i+1:]
			// Skip the version segment (v123...) when present.
			if len(rest) > 1 && strings.HasPrefix(rest[0], "v") {
				rest = rest[1:]
			}
			publicID := strings.Join(rest, "/")
			if dot := strings.LastIndex(publicID, "."); dot > 0 {
				publicID = publicID[:dot]
			}
			return publicID, nil
		}
	}
	return "", errors.New("failed to extract public ID from URL")
}

func isAllowedImage(filename string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
