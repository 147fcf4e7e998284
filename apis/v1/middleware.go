package v1

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	logcontext "github.com/va6996/tripchat/context"
	"github.com/va6996/tripchat/log"
)

const (
	headerUserID            = "X-User-ID"
	headerSessionID         = "X-Session-ID"
	headerCurrencyOverride  = "X-Currency-Override"
	headerGeoCountry        = "X-Geo-Country"
	headerCloudflareCountry = "CF-IPCountry"
	headerCurrencyContext   = "X-Currency-Context"
)

// requestContext copies the request id and the gateway identity headers
// into the context so every log line and tool sees them.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := chimiddleware.GetReqID(ctx)
		if requestID == "" {
			requestID = logcontext.NewRequestID()
		}
		ctx = logcontext.WithRequestID(ctx, requestID)
		if user := r.Header.Get(headerUserID); user != "" {
			ctx = logcontext.WithUserID(ctx, user)
		}
		if session := r.Header.Get(headerSessionID); session != "" {
			ctx = logcontext.WithSessionID(ctx, session)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger writes one line per request once the handler returns.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.WithFields(r.Context(), logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("request")
	})
}

func newCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Content-Type", "Connect-Protocol-Version",
			headerUserID, headerSessionID, headerCurrencyOverride, headerGeoCountry, headerCurrencyContext,
		},
	})
	return c.Handler
}
