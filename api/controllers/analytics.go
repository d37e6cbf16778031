package controllers

import (
	"net/http"
	"time"

	"github.com/nmarin/marketloop-backend/api/responses"
	"github.com/nmarin/marketloop-backend/internal/analytics"
	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
	"github.com/nmarin/marketloop-backend/pkg/logger"
)

// AnalyticsSummary serves the caller's seller dashboard.
func AnalyticsSummary(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		sellerID, err := currentUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		summary, err := svc.Summarize(ctx, sellerID, time.Now())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
