// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sessiongate/internal/gate"
	"github.com/taibuivan/sessiongate/internal/session"
)

func boolPtr(v bool) *bool { return &v }

/*
TestRouteAfterAuthentication covers every shape of the authentication payload.
*/
func TestRouteAfterAuthentication(t *testing.T) {
	tests := []struct {
		name       string
		result     session.AuthResult
		wantStatus *session.TwoFactorStatus
		wantPath   string
	}{
		{
			name:   "flag absent",
			result: session.AuthResult{TwoFactorEnabled: boolPtr(true)},
		},
		{
			name:   "not required",
			result: session.AuthResult{RequiresTwoFactor: boolPtr(false), TwoFactorEnabled: boolPtr(true)},
		},
		{
			name:   "required but enabled flag absent",
			result: session.AuthResult{RequiresTwoFactor: boolPtr(true)},
		},
		{
			name:       "required and not enabled",
			result:     session.AuthResult{RequiresTwoFactor: boolPtr(true), TwoFactorEnabled: boolPtr(false)},
			wantStatus: &session.TwoFactorStatus{Enabled: false, Verified: false, RequiresSetup: true},
			wantPath:   "/setup-2fa",
		},
		{
			name:       "required and enabled",
			result:     session.AuthResult{RequiresTwoFactor: boolPtr(true), TwoFactorEnabled: boolPtr(true)},
			wantStatus: &session.TwoFactorStatus{Enabled: true, Verified: false, RequiresSetup: false},
			wantPath:   "/verify-2fa",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, destination := gate.RouteAfterAuthentication(tt.result)
			assert.Equal(t, tt.wantStatus, status)

			if tt.wantPath == "" {
				assert.Nil(t, destination)
				return
			}
			require.NotNil(t, destination)
			assert.Equal(t, tt.wantPath, destination.URL())
		})
	}
}

/*
TestRouteAfterAuthentication_CommittedBeforeRedirect verifies that after the
login write the gate reaches the same destination the routing returned.
*/
func TestRouteAfterAuthentication_CommittedBeforeRedirect(t *testing.T) {
	manager := session.NewManager(session.NewMemoryStore())
	ctx := context.Background()

	result := session.AuthResult{RequiresTwoFactor: boolPtr(true), TwoFactorEnabled: boolPtr(false)}
	status, destination := gate.RouteAfterAuthentication(result)
	require.NotNil(t, destination)

	_, err := manager.Login(ctx, "sid", session.LoginInput{
		User:      session.User{ID: "u1", Email: ada},
		TwoFactor: status,
	})
	require.NoError(t, err)

	state := manager.Load(ctx, "sid")
	assert.True(t, state.RequiresTwoFactorSetup)

	decision := gate.Evaluate(gate.Protected, state, "/dashboard")
	require.NotNil(t, decision.Redirect)
	assert.Equal(t, destination.URL(), decision.Redirect.URL())
}

/*
TestRouteAfterAuthentication_EnabledFlagAbsentFailsOpen verifies that a payload
demanding a second factor without saying whether one is enrolled is routed as
a plain login: no status is committed and the gate lets the user through.
*/
func TestRouteAfterAuthentication_EnabledFlagAbsentFailsOpen(t *testing.T) {
	manager := session.NewManager(session.NewMemoryStore())
	ctx := context.Background()

	status, destination := gate.RouteAfterAuthentication(session.AuthResult{RequiresTwoFactor: boolPtr(true)})
	assert.Nil(t, status)
	assert.Nil(t, destination)

	state, err := manager.Login(ctx, "sid", session.LoginInput{
		User:      session.User{ID: "u1", Email: ada, EmailVerified: true},
		TwoFactor: status,
	})
	require.NoError(t, err)

	assert.Equal(t, session.TwoFactorStatus{}, state.TwoFactor())
	assert.Equal(t, "/tasks", gate.NextAfterLogin(state, destination, "/tasks").URL())
}

/*
TestNextAfterLogin verifies where the browser goes after a committed login.
*/
func TestNextAfterLogin(t *testing.T) {
	verified := session.State{IsAuthenticated: true, EmailVerified: true, User: &session.User{ID: "u1", Email: ada, EmailVerified: true}}
	unverified := session.State{IsAuthenticated: true, User: &session.User{ID: "u1", Email: ada}}
	setup := &gate.Destination{Path: gate.PathTwoFactorSetup}

	assert.Equal(t, "/setup-2fa", gate.NextAfterLogin(verified, setup, "/tasks").URL())
	assert.Equal(t, "/tasks", gate.NextAfterLogin(verified, nil, "/tasks").URL())
	assert.Equal(t, "/", gate.NextAfterLogin(verified, nil, "").URL())
	assert.Equal(t, "/", gate.NextAfterLogin(verified, nil, "//evil.example").URL())
	assert.Equal(t, "/verify-email-pending?email=ada%40example.com", gate.NextAfterLogin(unverified, nil, "/tasks").URL())
}
