package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/revocation"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	result revocation.CheckResult
	err    error
	calls  int
}

func (f *fakeStore) Revoke(context.Context, string, time.Duration) error { return nil }
func (f *fakeStore) Ping(context.Context) error                          { return nil }
func (f *fakeStore) Check(context.Context, string) (revocation.CheckResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeVerifier struct {
	claims *auth.Claims
	calls  int
}

func (f *fakeVerifier) Verify(string) (*auth.Claims, error) {
	f.calls++
	if f.claims == nil {
		return nil, common.ErrInvalidToken
	}
	return f.claims, nil
}

func validClaims() *auth.Claims {
	c := &auth.Claims{Role: models.RoleSeller}
	c.Subject = "user-1"
	return c
}

func protected(t *testing.T, store revocation.Store, v TokenVerifier, rec metrics.Recorder, logger logging.Logger) (http.Handler, *bool) {
	t.Helper()
	reached := false
	h := Authenticator(v, store, rec, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		id, ok := auth.IdentityFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "user-1", id.UserID)
		assert.Equal(t, models.RoleSeller, id.Role)
		tok, ok := auth.TokenFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "tok", tok)
		w.WriteHeader(http.StatusNoContent)
	}))
	return h, &reached
}

func requestWithToken(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		r.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: token})
	}
	return r
}

func TestAuthenticator_NoCookie(t *testing.T) {
	store := &fakeStore{}
	v := &fakeVerifier{claims: validClaims()}
	h, reached := protected(t, store, v, metrics.Nop(), logging.Nop())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestWithToken(""))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, *reached)
	assert.Zero(t, store.calls)
	assert.Zero(t, v.calls)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, rr.Body.String())
}

func TestAuthenticator_Revoked(t *testing.T) {
	store := &fakeStore{result: revocation.Revoked}
	v := &fakeVerifier{claims: validClaims()}
	h, reached := protected(t, store, v, metrics.Nop(), logging.Nop())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestWithToken("tok"))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, *reached)
	assert.Zero(t, v.calls)
}

func TestAuthenticator_InvalidToken(t *testing.T) {
	store := &fakeStore{result: revocation.NotRevoked}
	v := &fakeVerifier{}
	h, reached := protected(t, store, v, metrics.Nop(), logging.Nop())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestWithToken("tok"))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, *reached)
	assert.Equal(t, 1, v.calls)
}

func TestAuthenticator_Accepts(t *testing.T) {
	store := &fakeStore{result: revocation.NotRevoked}
	v := &fakeVerifier{claims: validClaims()}
	h, reached := protected(t, store, v, metrics.Nop(), logging.Nop())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestWithToken("tok"))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, *reached)
	assert.Equal(t, 1, store.calls)
}

func TestAuthenticator_FailsOpenWhenStoreDown(t *testing.T) {
	var logs bytes.Buffer
	logger := logging.NewJSONLogger(&logs, slog.LevelDebug)

	reg := prometheus.NewRegistry()
	rec := metrics.NewCollector(reg)

	store := &fakeStore{result: revocation.CheckFailed, err: errors.New("redis error: connection refused")}
	v := &fakeVerifier{claims: validClaims()}
	h, reached := protected(t, store, v, rec, logger)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestWithToken("tok"))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.True(t, *reached)
	assert.Contains(t, logs.String(), "revocation check failed")
	assert.Contains(t, logs.String(), `"level":"WARN"`)
	assert.NotContains(t, rr.Body.String(), "redis")

	n, err := testutil.GatherAndCount(reg, "auth_revocation_checks_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAuthenticator_FailOpenStillVerifies(t *testing.T) {
	store := &fakeStore{result: revocation.CheckFailed, err: errors.New("down")}
	v := &fakeVerifier{}
	h, reached := protected(t, store, v, metrics.Nop(), logging.Nop())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestWithToken("tok"))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, *reached)
}

func TestRequestLogger_LevelsAndUserID(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		var logs bytes.Buffer
		logger := logging.NewJSONLogger(&logs, slog.LevelDebug)

		r := chi.NewRouter()
		r.Use(RequestLogger(logger, metrics.Nop()))
		r.Use(Authenticator(&fakeVerifier{claims: validClaims()}, &fakeStore{}, metrics.Nop(), logging.Nop()))
		r.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})

		req := httptest.NewRequest(http.MethodGet, "/things/7", nil)
		req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: "tok"})
		r.ServeHTTP(httptest.NewRecorder(), req)

		var line map[string]any
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &line))
		assert.Equal(t, "http_request", line["msg"])
		assert.Equal(t, tt.level, line["level"])
		assert.Equal(t, float64(tt.status), line["status"])
		assert.Equal(t, "/things/7", line["path"])
		assert.Equal(t, "user-1", line["user_id"])
	}
}

func TestRequestLogger_RecordsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewCollector(reg)

	r := chi.NewRouter()
	r.Use(RequestLogger(logging.Nop(), rec))
	r.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/2", nil))

	expected := `
# HELP auth_http_requests_total HTTP responses by route and status code.
# TYPE auth_http_requests_total counter
auth_http_requests_total{route="/things/{id}",status_code="200"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "auth_http_requests_total"))
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}
