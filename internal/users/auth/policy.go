// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"slices"

	"github.com/taibuivan/sessiongate/internal/platform/sec"
	"github.com/taibuivan/sessiongate/internal/session"
	"github.com/taibuivan/sessiongate/pkg/pointer"
)

// # Two-Factor Policy

// TwoFactorPolicy decides which accounts must present a second factor.
type TwoFactorPolicy struct {
	requiredRoles []sec.UserRole
}

// NewTwoFactorPolicy builds a policy from role names. Unknown names are ignored.
func NewTwoFactorPolicy(roles []string) TwoFactorPolicy {
	policy := TwoFactorPolicy{}
	for _, raw := range roles {
		if role, err := sec.ParseRole(raw); err == nil {
			policy.requiredRoles = append(policy.requiredRoles, role)
		}
	}
	return policy
}

// Mandatory reports whether the role must enroll even when the account never opted in.
func (policy TwoFactorPolicy) Mandatory(role sec.UserRole) bool {
	return slices.Contains(policy.requiredRoles, role)
}

/*
AuthResultFor builds the authentication payload for a user that just proved
their first factor.

A second factor is required when the account enabled one, or when the policy
makes it mandatory for the account's role. Every field is present, so the
post-authentication routing never falls back to its missing-field defaults
for accounts issued by this service.
*/
func (policy TwoFactorPolicy) AuthResultFor(user *User) session.AuthResult {
	snapshot := user.ToSessionUser()
	return session.AuthResult{
		RequiresTwoFactor: pointer.To(user.TwoFactorEnabled || policy.Mandatory(user.Role)),
		TwoFactorEnabled:  pointer.To(user.TwoFactorEnabled),
		EmailVerified:     pointer.To(user.IsVerified),
		User:              &snapshot,
	}
}
