package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nmarin/marketloop-backend/api/middleware"
	"github.com/nmarin/marketloop-backend/api/responses"
	"github.com/nmarin/marketloop-backend/internal/views"
	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
	"github.com/nmarin/marketloop-backend/pkg/logger"
)

// ListingView records one view event. Anonymous callers are accepted; a
// bearer token, when present, attributes the view.
func ListingView(svc views.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "views service unavailable"))
			return
		}

		listingID, err := pathUUID(r, "listingId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var viewerID *uuid.UUID
		if raw := middleware.UserIDFromContext(ctx); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				viewerID = &id
			}
		}

		if err := svc.Record(ctx, listingID, viewerID, clientIP(r), r.UserAgent()); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]bool{"recorded": true})
	}
}
