// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate

import (
	"github.com/taibuivan/sessiongate/internal/platform/validate"
	"github.com/taibuivan/sessiongate/internal/session"
)

/*
RouteAfterAuthentication decides which screen follows a successful login.

It runs before the session is committed. The returned status must be written
together with the login (see [session.LoginInput]) and only then may the
returned destination be followed.

Outcomes:
  - requires_two_factor absent or false: nil, nil (continue to the gate).
  - required, two_factor_enabled absent: treated as not required (fails
    open; account-backed payloads always carry both flags).
  - required, not enabled: mandatory setup, /setup-2fa.
  - required, enabled: verification pending, /verify-2fa.
*/
func RouteAfterAuthentication(result session.AuthResult) (*session.TwoFactorStatus, *Destination) {
	if !result.TwoFactorRequired() || result.TwoFactorEnabled == nil {
		return nil, nil
	}

	if !*result.TwoFactorEnabled {
		return &session.TwoFactorStatus{RequiresSetup: true},
			&Destination{Path: PathTwoFactorSetup}
	}

	return &session.TwoFactorStatus{Enabled: true},
		&Destination{Path: PathTwoFactorVerify}
}

/*
NextAfterLogin returns where the browser goes once the login is committed.

The two-factor destination wins. Otherwise the freshly committed state is run
through the protected rules for returnTo, so an unverified email still lands
on the pending page.
*/
func NextAfterLogin(state session.State, twoFactor *Destination, returnTo string) Destination {
	if twoFactor != nil {
		return *twoFactor
	}

	if returnTo == "" || returnTo == PathLogin {
		returnTo = PathHome
	}

	decision := Evaluate(Protected, state, returnTo)
	if decision.Redirect != nil {
		return *decision.Redirect
	}

	if validate.IsSafePath(returnTo) {
		return Destination{Path: returnTo}
	}
	return Destination{Path: PathHome}
}
