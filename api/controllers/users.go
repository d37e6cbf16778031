package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/nmarin/marketloop-backend/api/responses"
	"github.com/nmarin/marketloop-backend/api/validators"
	"github.com/nmarin/marketloop-backend/internal/media"
	"github.com/nmarin/marketloop-backend/internal/users"
	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
	"github.com/nmarin/marketloop-backend/pkg/logger"
)

type upsertUserPayload struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=BUYER SELLER"`
}

// UserUpsert provisions the account record after the auth provider signs a
// user in. Repeated calls with the same email return the existing account.
func UserUpsert(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		var payload upsertUserPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		profile, err := svc.Upsert(ctx, users.UpsertInput{
			Email:    payload.Email,
			FullName: payload.FullName,
			Role:     payload.Role,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// UserProfile returns the caller's account.
func UserProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		profile, err := svc.Get(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// UserUpdateProfile applies a partial multipart update to the caller's
// account. A profile_image file replaces the current image.
func UserUpdateProfile(svc users.Service, mediaSvc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil || mediaSvc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		var input users.UpdateProfileInput

		if values, ok := r.MultipartForm.Value["full_name"]; ok && len(values) > 0 {
			fullName := strings.TrimSpace(values[0])
			input.FullName = &fullName
		}
		if values, ok := r.MultipartForm.Value["phone"]; ok && len(values) > 0 {
			phone := strings.TrimSpace(values[0])
			input.Phone = &phone
		}
		if values, ok := r.MultipartForm.Value["notifications"]; ok && len(values) > 0 {
			flag, err := parseBoolField("notifications", values[0])
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.Notifications = &flag
		}
		if values, ok := r.MultipartForm.Value["dark_mode"]; ok && len(values) > 0 {
			flag, err := parseBoolField("dark_mode", values[0])
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.DarkMode = &flag
		}

		uploaded, closeFiles, err := uploadFormImages(r, mediaSvc, "profile_image")
		defer closeFiles()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if len(uploaded) > 1 {
			mediaSvc.DeleteObjects(ctx, objectKeys(uploaded))
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "only one profile image is allowed"))
			return
		}
		if len(uploaded) == 1 {
			input.ProfileImage = &uploaded[0]
		}

		profile, err := svc.UpdateProfile(ctx, userID, input)
		if err != nil {
			mediaSvc.DeleteObjects(ctx, objectKeys(uploaded))
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// UserDelete removes the caller's account, listings, and media.
func UserDelete(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}

		userID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, userID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

func parseBoolField(field, raw string) (bool, error) {
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, field+" must be a boolean")
	}
	return value, nil
}
