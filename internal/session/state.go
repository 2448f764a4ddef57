// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session owns the per-browser authentication record that the gate reads.

A session is a small JSON document stored server-side under a random id. The
browser only holds a signed cookie naming that id. All writes go through
[Manager], which exposes exactly four mutations (login, logout,
set-email-verified, set-two-factor-status), so the record has a single owner.

Architecture:

  - State: The persisted record and its invariants ([State.Normalize]).
  - Store: get/set/subscribe capability (Redis in production, memory in tests).
  - Manager: The single writer. Every mutation is one whole-record Set.
  - Loader: Resolves the cookie of an HTTP request into a [Current] session.

Reads are fail-closed: anything that cannot be decoded or fetched becomes
[Default], which the gate routes to login.
*/
package session

import (
	"encoding/json"
	"fmt"

	"github.com/taibuivan/sessiongate/internal/platform/sec"
)

// # Data Model

// User is the account snapshot embedded in an authenticated session.
//
// It is replaced wholesale on login and cleared on logout.
type User struct {
	ID            string       `json:"id"`
	Email         string       `json:"email"`
	EmailVerified bool         `json:"emailVerified"`
	DisplayName   *string      `json:"displayName,omitempty"`
	AvatarURL     *string      `json:"avatarUrl,omitempty"`
	Role          sec.UserRole `json:"role,omitempty"`
}

// State is the persisted session record.
//
// The JSON shape is shared with browser clients that cache it locally, so the
// keys are camelCase and must stay stable.
type State struct {
	IsAuthenticated        bool    `json:"isAuthenticated"`
	EmailVerified          bool    `json:"emailVerified"`
	User                   *User   `json:"user"`
	OAuthProvider          *string `json:"oauthProvider"`
	TwoFactorEnabled       bool    `json:"twoFactorEnabled"`
	TwoFactorVerified      bool    `json:"twoFactorVerified"`
	RequiresTwoFactorSetup bool    `json:"requiresTwoFactorSetup"`
}

// TwoFactorStatus is the argument of the set-two-factor-status mutation.
type TwoFactorStatus struct {
	Enabled       bool `json:"twoFactorEnabled"`
	Verified      bool `json:"twoFactorVerified"`
	RequiresSetup bool `json:"requiresTwoFactorSetup"`
}

// Default returns the logged-out record: every flag false, every pointer nil.
func Default() State {
	return State{}
}

// IsDefault reports whether s carries no authentication at all.
func (s State) IsDefault() bool {
	return !s.IsAuthenticated && !s.EmailVerified && s.User == nil && s.OAuthProvider == nil &&
		!s.TwoFactorEnabled && !s.TwoFactorVerified && !s.RequiresTwoFactorSetup
}

// TwoFactor extracts the two-factor flags of s.
func (s State) TwoFactor() TwoFactorStatus {
	return TwoFactorStatus{
		Enabled:       s.TwoFactorEnabled,
		Verified:      s.TwoFactorVerified,
		RequiresSetup: s.RequiresTwoFactorSetup,
	}
}

// WithTwoFactor returns a copy of s with the given two-factor flags applied.
func (s State) WithTwoFactor(status TwoFactorStatus) State {
	s.TwoFactorEnabled = status.Enabled
	s.TwoFactorVerified = status.Verified
	s.RequiresTwoFactorSetup = status.RequiresSetup
	return s.Normalize()
}

// UserID returns the id of the session user, or "" when anonymous.
func (s State) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// # Invariants

/*
Normalize returns a copy of s that satisfies the record invariants.

Rules:
  - Not authenticated: everything else is reset to the default.
  - Verified two-factor requires an enabled factor.
  - Mandatory setup only applies while no factor is enabled.

When setup is flagged and a factor is already enabled, the enabled factor
wins and the session still has to verify it. This never grants more access
than either flag alone.
*/
func (s State) Normalize() State {
	if !s.IsAuthenticated {
		return Default()
	}

	if s.TwoFactorVerified && !s.TwoFactorEnabled {
		s.TwoFactorVerified = false
	}

	if s.RequiresTwoFactorSetup && s.TwoFactorEnabled {
		s.RequiresTwoFactorSetup = false
	}

	if s.User != nil {
		user := *s.User
		s.User = &user
	}

	return s
}

// # Serialization

/*
Decode parses a persisted record.

Unknown keys are ignored and missing keys keep their zero value, so records
written by older or newer builds still load. On any error the returned state
is [Default] so that callers which ignore the error still fail closed.
*/
func Decode(data []byte) (State, error) {
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return Default(), fmt.Errorf("session_state_decode_failed: %w", err)
	}
	return state.Normalize(), nil
}

// Encode serializes the normalized form of s.
func (s State) Encode() ([]byte, error) {
	data, err := json.Marshal(s.Normalize())
	if err != nil {
		return nil, fmt.Errorf("session_state_encode_failed: %w", err)
	}
	return data, nil
}

// # Authentication Payload

/*
AuthResult is the payload an authentication backend returns after a password
or provider login.

The two-factor fields are pointers so that an absent key can be told apart
from an explicit false. Absence means "not required".
*/
type AuthResult struct {
	RequiresTwoFactor *bool `json:"requires_two_factor,omitempty"`
	TwoFactorEnabled  *bool `json:"two_factor_enabled,omitempty"`
	EmailVerified     *bool `json:"email_verified,omitempty"`
	User              *User `json:"user,omitempty"`
}

// TwoFactorRequired reports whether the payload explicitly demands a second factor.
func (r AuthResult) TwoFactorRequired() bool {
	return r.RequiresTwoFactor != nil && *r.RequiresTwoFactor
}
