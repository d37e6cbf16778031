package controllers

import (
	"net/http"

	"github.com/nmarin/marketloop-backend/api/responses"
	"github.com/nmarin/marketloop-backend/internal/categories"
	pkgerrors "github.com/nmarin/marketloop-backend/pkg/errors"
	"github.com/nmarin/marketloop-backend/pkg/logger"
)

// CategoryList returns the directory with live listing counts.
func CategoryList(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "categories service unavailable"))
			return
		}

		items, err := svc.List(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}
