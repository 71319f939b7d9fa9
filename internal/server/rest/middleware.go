package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/revocation"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// TokenVerifier validates a session token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type requestInfoKey struct{}

// requestInfo is filled in by inner handlers and read back by the logging
// middleware once the request completes.
type requestInfo struct {
	userID string
}

func requestInfoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

// Authenticator admits a request only when it carries a session token that
// is not revoked and verifies. A failing revocation lookup is logged and
// treated as not revoked. Every request is checked afresh.
func Authenticator(verifier TokenVerifier, store revocation.Store, rec metrics.Recorder, logger logging.Logger) func(http.Handler) http.Handler {
	logger = logger.With("module", "authenticator")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := auth.TokenFromRequest(r)
			if !ok {
				writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			result, err := store.Check(ctx, token)
			rec.RecordRevocationCheck(result.String())
			switch result {
			case revocation.Revoked:
				writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
				return
			case revocation.CheckFailed:
				logger.Warn(ctx, "revocation check failed, admitting token", "error", err)
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			if info := requestInfoFrom(ctx); info != nil {
				info.userID = claims.Subject
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSession(ctx, claims.Identity(), token)))
		})
	}
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// unmatchedRoute labels requests that hit no route, keeping the metric
// label set bounded.
const unmatchedRoute = "unmatched"

// RequestLogger emits one http_request line per request and feeds the
// HTTP metrics. 4xx responses log at WARN and 5xx at ERROR.
func RequestLogger(logger logging.Logger, rec metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			info := &requestInfo{}
			r = r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info))

			next.ServeHTTP(sr, r)

			duration := time.Since(start)

			route := unmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			rec.RecordHTTPRequest(route, sr.statusCode, duration)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", sr.statusCode,
				"duration_ms", float64(duration.Nanoseconds()) / float64(time.Millisecond),
			}
			if id := chimw.GetReqID(r.Context()); id != "" {
				args = append(args, "request_id", id)
			}
			if info.userID != "" {
				args = append(args, "user_id", info.userID)
			}

			switch {
			case sr.statusCode >= 500:
				logger.Error(r.Context(), "http_request", args...)
			case sr.statusCode >= 400:
				logger.Warn(r.Context(), "http_request", args...)
			default:
				logger.Info(r.Context(), "http_request", args...)
			}
		})
	}
}

// SecurityHeaders sets conservative response headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
