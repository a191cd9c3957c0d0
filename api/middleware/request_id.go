package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/afrifurn-storefront/pkg/logger"
)

const RequestIDHeader = "X-Request-Id"

// maxRequestIDLen bounds client supplied ids before they reach the logs.
const maxRequestIDLen = 128

func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" || len(reqID) > maxRequestIDLen {
				reqID = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, reqID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
