package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/afrifurn-storefront/api/responses"
	"github.com/angelmondragon/afrifurn-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/afrifurn-storefront/pkg/errors"
	"github.com/angelmondragon/afrifurn-storefront/pkg/logger"
	"github.com/angelmondragon/afrifurn-storefront/pkg/redis"
)

const envHeader = "X-Afrifurn-Env"

const readyTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings redis when it is wired. Running without a cache is a valid deployment.
func HealthReady(cfg *config.Config, cache redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		checks := map[string]string{"redis": "disabled"}
		if cache != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := cache.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "redis not ready"))
				return
			}
			checks["redis"] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
