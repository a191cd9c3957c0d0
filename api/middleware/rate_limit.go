package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/angelmondragon/afrifurn-storefront/api/responses"
	pkgerrors "github.com/angelmondragon/afrifurn-storefront/pkg/errors"
	"github.com/angelmondragon/afrifurn-storefront/pkg/logger"
)

// RateLimit throttles each client IP to requests per window. Non-positive limits disable it.
func RateLimit(requests int, window time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if requests <= 0 || window <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			err := pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests, slow down")
			responses.WriteError(r.Context(), logg, w, err)
		}),
	)
}
