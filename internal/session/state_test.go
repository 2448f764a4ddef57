// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sessiongate/internal/session"
)

func ptr[T any](v T) *T { return &v }

/*
TestDecode_ForwardCompatible verifies that unknown keys are ignored and
missing keys keep their zero value.
*/
func TestDecode_ForwardCompatible(t *testing.T) {
	raw := []byte(`{
		"isAuthenticated": true,
		"user": {"id": "u1", "email": "ada@example.com", "emailVerified": false, "theme": "dark"},
		"twoFactorEnabled": true,
		"someFutureFlag": 42
	}`)

	state, err := session.Decode(raw)
	require.NoError(t, err)

	assert.True(t, state.IsAuthenticated)
	assert.False(t, state.EmailVerified)
	assert.True(t, state.TwoFactorEnabled)
	assert.False(t, state.TwoFactorVerified)
	assert.Nil(t, state.OAuthProvider)
	require.NotNil(t, state.User)
	assert.Equal(t, "ada@example.com", state.User.Email)
}

/*
TestDecode_MalformedFailsClosed verifies that broken records load as the default.
*/
func TestDecode_MalformedFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ``},
		{"truncated", `{"isAuthenticated": tr`},
		{"wrong type", `{"isAuthenticated": "yes"}`},
		{"array", `[true]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := session.Decode([]byte(tt.raw))
			assert.Error(t, err)
			assert.Equal(t, session.Default(), state)
		})
	}
}

/*
TestDecode_NullIsDefault verifies that a JSON null loads as the logged-out record.
*/
func TestDecode_NullIsDefault(t *testing.T) {
	state, err := session.Decode([]byte(`null`))
	require.NoError(t, err)
	assert.True(t, state.IsDefault())
}

/*
TestNormalize_Invariants verifies the three record invariants.
*/
func TestNormalize_Invariants(t *testing.T) {
	tests := []struct {
		name  string
		input session.State
		want  session.State
	}{
		{
			name: "logged out clears everything",
			input: session.State{
				EmailVerified:          true,
				User:                   &session.User{ID: "u1"},
				OAuthProvider:          ptr("google"),
				TwoFactorEnabled:       true,
				TwoFactorVerified:      true,
				RequiresTwoFactorSetup: true,
			},
			want: session.Default(),
		},
		{
			name:  "verified without enabled factor",
			input: session.State{IsAuthenticated: true, TwoFactorVerified: true},
			want:  session.State{IsAuthenticated: true},
		},
		{
			name:  "setup with enabled factor keeps the factor",
			input: session.State{IsAuthenticated: true, TwoFactorEnabled: true, RequiresTwoFactorSetup: true},
			want:  session.State{IsAuthenticated: true, TwoFactorEnabled: true},
		},
		{
			name:  "consistent record is untouched",
			input: session.State{IsAuthenticated: true, EmailVerified: true, TwoFactorEnabled: true, TwoFactorVerified: true},
			want:  session.State{IsAuthenticated: true, EmailVerified: true, TwoFactorEnabled: true, TwoFactorVerified: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.input.Normalize())
		})
	}
}

/*
TestNormalize_CopiesUser verifies that the normalized record does not alias the input user.
*/
func TestNormalize_CopiesUser(t *testing.T) {
	user := &session.User{ID: "u1", Email: "a@example.com"}
	state := session.State{IsAuthenticated: true, User: user}.Normalize()

	user.Email = "changed@example.com"
	assert.Equal(t, "a@example.com", state.User.Email)
}

/*
TestEncode_WireKeys verifies the persisted JSON key names.
*/
func TestEncode_WireKeys(t *testing.T) {
	state := session.State{
		IsAuthenticated: true,
		User:            &session.User{ID: "u1", Email: "a@example.com", AvatarURL: ptr("https://cdn/a.png")},
		OAuthProvider:   ptr("github"),
	}

	data, err := state.Encode()
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))

	for _, key := range []string{"isAuthenticated", "emailVerified", "user", "oauthProvider", "twoFactorEnabled", "twoFactorVerified", "requiresTwoFactorSetup"} {
		assert.Contains(t, generic, key)
	}
	assert.Equal(t, "https://cdn/a.png", generic["user"].(map[string]any)["avatarUrl"])
}

/*
TestAuthResult_Presence verifies that absent two-factor keys are not "required".
*/
func TestAuthResult_Presence(t *testing.T) {
	var absent session.AuthResult
	require.NoError(t, json.Unmarshal([]byte(`{"email_verified": true}`), &absent))
	assert.Nil(t, absent.RequiresTwoFactor)
	assert.False(t, absent.TwoFactorRequired())

	var explicit session.AuthResult
	require.NoError(t, json.Unmarshal([]byte(`{"requires_two_factor": true, "two_factor_enabled": false}`), &explicit))
	assert.True(t, explicit.TwoFactorRequired())
	require.NotNil(t, explicit.TwoFactorEnabled)
	assert.False(t, *explicit.TwoFactorEnabled)
}
