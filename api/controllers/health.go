package controllers

import (
	"context"
	"net/http"

	"github.com/voltbridge/markethub/api/responses"
	"github.com/voltbridge/markethub/pkg/config"
	pkgerrors "github.com/voltbridge/markethub/pkg/errors"
	"github.com/voltbridge/markethub/pkg/logger"
)

// Pinger exposes the health check surface of a backing dependency.
type Pinger interface {
	Ping(context.Context) error
}

// HealthCheck names one dependency the readiness probe verifies.
type HealthCheck struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MarketHub-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MarketHub-Env", cfg.App.Env)
		for _, check := range checks {
			if check.Pinger == nil {
				continue
			}
			if err := check.Pinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.Name+" unavailable").
						WithDetails(map[string]string{"dependency": check.Name}))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
