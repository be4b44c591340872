package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RohitVelivela/vijaybrothers/internal/logger"
)

// GuestIDHeader carries the anonymous shopper id. Session handling lives
// outside this service.
const GuestIDHeader = "X-Guest-ID"

type guestKey struct{}

// RequestLogger stores a logger tagged with the chi request id in the request
// context and logs one line per completed request.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			l := base.With(zap.String("request_id", middleware.GetReqID(r.Context())))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), l)))

			l.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

// GuestMiddleware requires a UUID guest id on every request it wraps.
func GuestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(GuestIDHeader)
		if raw == "" {
			respondError(w, http.StatusUnauthorized, "missing_guest_id", "missing "+GuestIDHeader+" header")
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_guest_id", GuestIDHeader+" must be a UUID")
			return
		}

		ctx := context.WithValue(r.Context(), guestKey{}, id.String())
		ctx = logger.With(ctx, zap.String("guest_id", id.String()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func guestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(guestKey{}).(string)
	return id
}
