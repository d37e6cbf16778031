package controllers

import (
	"net/http"

	"github.com/nmarin/marketloop-backend/api/responses"
	"github.com/nmarin/marketloop-backend/internal/media"
	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
	"github.com/nmarin/marketloop-backend/pkg/logger"
)

// MediaUpload stores the multipart files under "files" and returns their
// hosted URLs. Callers attach the URLs to listings or profiles afterwards.
func MediaUpload(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		if _, err := currentUserID(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		uploaded, closeFiles, err := uploadFormImages(r, svc, "files")
		defer closeFiles()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if len(uploaded) == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "at least one file is required"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, uploaded)
	}
}
