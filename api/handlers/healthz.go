package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/shopcase-backend/api/responses"
	"github.com/angelmondragon/shopcase-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/shopcase-backend/pkg/errors"
	"github.com/angelmondragon/shopcase-backend/pkg/logger"
)

const readyCheckTimeout = 3 * time.Second

const envHeader = "X-ShopCase-Env"

// Pinger is any dependency the readiness probe can check.
type Pinger interface {
	Ping(context.Context) error
}

// HealthLive answers as soon as the process serves HTTP.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database plus any optional dependencies. Failures
// are combined so one probe reports every broken dependency at once.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP Pinger, optional ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		var errs error
		if dbP == nil {
			errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeDependency, "database not wired"))
		} else if err := dbP.Ping(ctx); err != nil {
			errs = multierr.Append(errs, err)
		}

		for _, p := range optional {
			if p == nil {
				continue
			}
			if err := p.Ping(ctx); err != nil {
				errs = multierr.Append(errs, err)
			}
		}

		if errs != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "dependencies unavailable"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
