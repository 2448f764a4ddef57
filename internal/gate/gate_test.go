// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sessiongate/internal/gate"
	"github.com/taibuivan/sessiongate/internal/session"
)

const ada = "ada@example.com"

// allStates enumerates every combination of the gate inputs.
func allStates() []session.State {
	var states []session.State
	for mask := 0; mask < 1<<6; mask++ {
		state := session.State{
			IsAuthenticated:        mask&1 != 0,
			EmailVerified:          mask&2 != 0,
			TwoFactorEnabled:       mask&4 != 0,
			TwoFactorVerified:      mask&8 != 0,
			RequiresTwoFactorSetup: mask&16 != 0,
		}
		if mask&32 != 0 {
			state.User = &session.User{ID: "u1", Email: ada}
		}
		states = append(states, state)
	}
	return states
}

/*
TestEvaluate_ExactlyOneOutcome verifies that every state yields either render or
one redirect, and that evaluation leaves the state untouched.
*/
func TestEvaluate_ExactlyOneOutcome(t *testing.T) {
	for _, kind := range []gate.RouteKind{gate.Protected, gate.PublicOnly} {
		for _, state := range allStates() {
			before := state
			decision := gate.Evaluate(kind, state, "/tasks")

			assert.NotEmpty(t, decision.Rule)
			assert.Equal(t, decision.Render(), decision.Redirect == nil)
			assert.Equal(t, before, state)
		}
	}
}

/*
TestEvaluate_UnauthenticatedGoesToLogin verifies rule 1 for every combination of other flags.
*/
func TestEvaluate_UnauthenticatedGoesToLogin(t *testing.T) {
	for _, state := range allStates() {
		if state.IsAuthenticated {
			continue
		}

		decision := gate.Evaluate(gate.Protected, state, "/admin/users?page=2")
		require.NotNil(t, decision.Redirect)
		assert.Equal(t, gate.RuleLogin, decision.Rule)
		assert.Equal(t, "/login?redirect=%2Fadmin%2Fusers%3Fpage%3D2", decision.Redirect.URL())
	}
}

/*
TestEvaluate_SetupBeatsEverything verifies rule 2 regardless of email and factor flags.
*/
func TestEvaluate_SetupBeatsEverything(t *testing.T) {
	for _, state := range allStates() {
		if !state.IsAuthenticated || !state.RequiresTwoFactorSetup {
			continue
		}

		decision := gate.Evaluate(gate.Protected, state, "/")
		require.NotNil(t, decision.Redirect)
		assert.Equal(t, "/setup-2fa", decision.Redirect.URL())
	}
}

/*
TestEvaluate_VerifyBeatsEmail verifies rule 3 regardless of the email flag.
*/
func TestEvaluate_VerifyBeatsEmail(t *testing.T) {
	for _, state := range allStates() {
		if !state.IsAuthenticated || state.RequiresTwoFactorSetup || !state.TwoFactorEnabled || state.TwoFactorVerified {
			continue
		}

		decision := gate.Evaluate(gate.Protected, state, "/")
		require.NotNil(t, decision.Redirect)
		assert.Equal(t, "/verify-2fa", decision.Redirect.URL())
	}
}

/*
TestEvaluate_EmailPending verifies rule 4 and that the address is carried along.
*/
func TestEvaluate_EmailPending(t *testing.T) {
	checked := 0
	for _, state := range allStates() {
		twoFactorSettled := !state.TwoFactorEnabled || state.TwoFactorVerified
		if !state.IsAuthenticated || state.RequiresTwoFactorSetup || !twoFactorSettled || state.EmailVerified || state.User == nil {
			continue
		}

		decision := gate.Evaluate(gate.Protected, state, "/")
		require.NotNil(t, decision.Redirect)
		assert.Equal(t, "/verify-email-pending?email=ada%40example.com", decision.Redirect.URL())
		checked++
	}
	assert.Equal(t, 3, checked)
}

/*
TestEvaluate_Render verifies the catch-all for fully established sessions.
*/
func TestEvaluate_Render(t *testing.T) {
	state := session.State{
		IsAuthenticated:   true,
		EmailVerified:     true,
		User:              &session.User{ID: "u1", Email: ada, EmailVerified: true},
		TwoFactorEnabled:  true,
		TwoFactorVerified: true,
	}

	decision := gate.Evaluate(gate.Protected, state, "/dashboard")
	assert.True(t, decision.Render())
	assert.Equal(t, gate.RuleAllow, decision.Rule)

	// Without a user snapshot there is no address to confirm.
	decision = gate.Evaluate(gate.Protected, session.State{IsAuthenticated: true}, "/")
	assert.True(t, decision.Render())
}

/*
TestEvaluate_PriorityScenario verifies that verification wins over email confirmation.
*/
func TestEvaluate_PriorityScenario(t *testing.T) {
	state := session.State{
		IsAuthenticated:        true,
		RequiresTwoFactorSetup: false,
		TwoFactorEnabled:       true,
		TwoFactorVerified:      false,
		EmailVerified:          false,
		User:                   &session.User{ID: "u1", Email: ada},
	}

	decision := gate.Evaluate(gate.Protected, state, "/")
	require.NotNil(t, decision.Redirect)
	assert.Equal(t, "/verify-2fa", decision.Redirect.URL())
	assert.Equal(t, gate.RuleTwoFactorVerify, decision.Rule)
}

/*
TestEvaluate_PublicOnly verifies the inverse short-circuit.
*/
func TestEvaluate_PublicOnly(t *testing.T) {
	for _, state := range allStates() {
		decision := gate.Evaluate(gate.PublicOnly, state, "/login")
		if state.IsAuthenticated {
			require.NotNil(t, decision.Redirect)
			assert.Equal(t, "/", decision.Redirect.URL())
		} else {
			assert.True(t, decision.Render())
		}
	}
}

/*
TestLoginDestination_RejectsOffsiteReturn verifies that only site-relative paths are carried.
*/
func TestLoginDestination_RejectsOffsiteReturn(t *testing.T) {
	tests := map[string]string{
		"/tasks":               "/login?redirect=%2Ftasks",
		"//evil.example":       "/login?redirect=%2F",
		"https://evil.example": "/login?redirect=%2F",
		"":                     "/login?redirect=%2F",
	}

	for input, want := range tests {
		assert.Equal(t, want, gate.LoginDestination(input).URL(), input)
	}
}

/*
TestRules_Order pins the rule order.
*/
func TestRules_Order(t *testing.T) {
	var names []string
	for _, rule := range gate.ProtectedRules {
		names = append(names, rule.Name)
	}
	assert.Equal(t, []string{"login", "two_factor_setup", "two_factor_verify", "email_verification", "allow"}, names)
}

/*
TestEvaluateRules_EmptyListRenders verifies the fallback for a custom list with no catch-all.
*/
func TestEvaluateRules_EmptyListRenders(t *testing.T) {
	decision := gate.EvaluateRules(nil, session.Default(), "/")
	assert.True(t, decision.Render())
}

func TestDecision_JSON(t *testing.T) {
	decision := gate.Evaluate(gate.Protected, session.Default(), "/tasks")

	data, err := json.Marshal(decision)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rule":"login","render":false,"redirect":"/login?redirect=%2Ftasks"}`, string(data))
}

func TestParseRouteKind(t *testing.T) {
	kind, err := gate.ParseRouteKind("public")
	require.NoError(t, err)
	assert.Equal(t, gate.PublicOnly, kind)

	kind, err = gate.ParseRouteKind("")
	require.NoError(t, err)
	assert.Equal(t, gate.Protected, kind)

	_, err = gate.ParseRouteKind("admin")
	assert.Error(t, err)
}
