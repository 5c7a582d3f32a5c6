package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/gulfair/api"
	"github.com/Domenick1991/gulfair/config"
	"github.com/Domenick1991/gulfair/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(checks map[string]HealthCheck) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	h := Handlers{
		Users:    api.NewUserHandler(nil, log),
		Flights:  api.NewFlightHandler(nil, log),
		Bookings: api.NewBookingHandler(nil, log),
		Loyalty:  api.NewLoyaltyHandler(nil, log),
	}
	cfg := config.HTTPConfig{AllowedOrigins: []string{"http://localhost:3000"}}
	return NewRouter(cfg, log, auth.NewTokenService("secret", time.Hour), h, checks)
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestRouter_Welcome(t *testing.T) {
	w := get(newTestRouter(nil), "/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Welcome to Gulf Air API!"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_OpenAPI(t *testing.T) {
	w := get(newTestRouter(nil), "/openapi.json")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/api/bookings/{id}/checkin"`)
}

func TestRouter_ProtectedRoutesNeedToken(t *testing.T) {
	r := newTestRouter(nil)

	for _, target := range []string{"/api/bookings", "/api/loyalty/status", "/auth/users"} {
		w := get(r, target)
		assert.Equal(t, http.StatusUnauthorized, w.Code, target)
	}
}

func TestRouter_Healthz(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		r := newTestRouter(map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
		})

		w := get(r, "/healthz")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"postgres":"ok"}`, w.Body.String())
	})

	t.Run("Redis Down", func(t *testing.T) {
		r := newTestRouter(map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		})

		w := get(r, "/healthz")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "connection refused")
	})
}

func TestRun_StopsOnCancel(t *testing.T) {
	log, _ := test.NewNullLogger()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- Run(ctx, config.HTTPConfig{Address: "127.0.0.1:0", ShutdownSeconds: 1}, http.NotFoundHandler(), log)
	}()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestCorsConfig(t *testing.T) {
	all := corsConfig([]string{"*"})
	assert.True(t, all.AllowAllOrigins)
	assert.False(t, all.AllowCredentials)

	listed := corsConfig([]string{"https://gulfair.com"})
	assert.False(t, listed.AllowAllOrigins)
	assert.True(t, listed.AllowCredentials)
	assert.Equal(t, []string{"https://gulfair.com"}, listed.AllowOrigins)
}
