// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sessiongate/internal/api"
	"github.com/taibuivan/sessiongate/internal/gate"
	"github.com/taibuivan/sessiongate/internal/oauth"
	"github.com/taibuivan/sessiongate/internal/platform/config"
	"github.com/taibuivan/sessiongate/internal/platform/constants"
	"github.com/taibuivan/sessiongate/internal/platform/sec"
	"github.com/taibuivan/sessiongate/internal/session"
	"github.com/taibuivan/sessiongate/internal/users/account"
	"github.com/taibuivan/sessiongate/internal/users/auth"
	"github.com/taibuivan/sessiongate/internal/web"
)

const secret = "0123456789abcdef0123456789abcdef"

func newServer(t *testing.T, checks ...api.HealthCheck) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	manager := session.NewManager(session.NewMemoryStore())
	cookies := session.NewCookies(sec.NewSessionSigner(secret, constants.SessionIssuer), time.Hour, false)
	loader := session.NewLoader(manager, cookies)
	guard := gate.NewGuard(loader)
	policy := auth.NewTwoFactorPolicy([]string{"admin"})

	authService := auth.NewService(nil, auth.Tokens{}, manager, policy, auth.NewTOTP("test"), nil)
	pages, err := web.NewHandler(guard, "sessiongate")
	require.NoError(t, err)

	liveness, readiness := api.NewHealthHandlers(logger, checks...)
	cfg := &config.Config{ServerPort: "0", Environment: "test"}

	server := api.NewServer(t.Context(), cfg, logger, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Guard:     guard,
		Session:   gate.NewHandler(loader, manager),
		Auth:      auth.NewHandler(authService, cookies, guard, nil, oauth.NewFlowCookies(secret, false)),
		Account:   account.NewHandler(account.NewService(nil, policy, logger)),
		Web:       pages,
	})
	return server.Handler()
}

/*
TestServer_Routing verifies that each surface sits behind the right guard.
*/
func TestServer_Routing(t *testing.T) {
	router := newServer(t)

	tests := []struct {
		name     string
		method   string
		target   string
		status   int
		location string
	}{
		{"liveness", http.MethodGet, "/health", http.StatusOK, ""},
		{"session record", http.MethodGet, "/api/v1/session", http.StatusOK, ""},
		{"gate evaluation", http.MethodGet, "/api/v1/session/gate?path=/tasks&kind=protected", http.StatusOK, ""},
		{"admin api anonymous", http.MethodGet, "/api/v1/admin/users", http.StatusUnauthorized, ""},
		{"auth api is reachable", http.MethodPost, "/api/v1/auth/logout", http.StatusOK, ""},
		{"protected page", http.MethodGet, "/webhooks", http.StatusSeeOther, "/login?redirect=%2Fwebhooks"},
		{"public page", http.MethodGet, "/login", http.StatusOK, ""},
		{"gate destination", http.MethodGet, "/verify-2fa", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(tt.method, tt.target, nil))

			assert.Equal(t, tt.status, recorder.Code, recorder.Body.String())
			assert.Equal(t, tt.location, recorder.Header().Get("Location"))
			assert.NotEmpty(t, recorder.Header().Get(constants.HeaderXRequestID))
		})
	}
}

/*
TestServer_Readiness verifies the degraded answer when a dependency fails.
*/
func TestServer_Readiness(t *testing.T) {
	ok := api.HealthCheck{Name: "postgres", Check: func(context.Context) error { return nil }}
	down := api.HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }}

	tests := []struct {
		name   string
		checks []api.HealthCheck
		status int
		want   string
	}{
		{"all healthy", []api.HealthCheck{ok}, http.StatusOK, "ready"},
		{"redis down", []api.HealthCheck{ok, down}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			newServer(t, tt.checks...).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ready", nil))
			require.Equal(t, tt.status, recorder.Code)

			var body struct {
				Data struct {
					Status string `json:"status"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Data.Status)
		})
	}
}
