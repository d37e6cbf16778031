package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/nmarin/marketloop-backend/api/responses"
	"github.com/nmarin/marketloop-backend/pkg/config"
	"github.com/nmarin/marketloop-backend/pkg/logger"
)

// Pinger is anything the readiness probe can exercise.
type Pinger interface {
	Ping(ctx context.Context) error
}

const envHeader = "X-MarketLoop-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings each wired dependency and reports per-check status.
// A nil Pinger means the dependency is not configured and is skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		results := map[string]string{}
		ready := true
		for name, check := range checks {
			if check == nil {
				results[name] = "skipped"
				continue
			}
			if err := check.Ping(ctx); err != nil {
				ready = false
				results[name] = "down"
				if logg != nil {
					logg.Error(logg.WithField(ctx, "check", name), "readiness check failed", err)
				}
				continue
			}
			results[name] = "ok"
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"status": state,
			"checks": results,
		})
	}
}
