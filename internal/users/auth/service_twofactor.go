// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/sessiongate/internal/platform/apperr"
	"github.com/taibuivan/sessiongate/internal/platform/ctxutil"
	"github.com/taibuivan/sessiongate/internal/session"
)

// # Two-Factor Lifecycle

var (
	errInvalidCode       = apperr.Unauthorized("Invalid verification code")
	errTwoFactorEnabled  = apperr.Conflict("Two-factor authentication is already enabled")
	errTwoFactorDisabled = apperr.Conflict("Two-factor authentication is not enabled")
)

/*
BeginTwoFactorSetup generates a TOTP secret awaiting confirmation.

Description: The secret is parked in Redis under the user ID for
[PendingTOTPTTL]; nothing changes on the account until a valid code confirms it.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - Enrollment: Secret and otpauth:// URL
  - error: Conflict if already enabled, or storage errors
*/
func (service *Service) BeginTwoFactorSetup(context context.Context, userID string) (Enrollment, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return Enrollment{}, err
	}
	if user.TwoFactorEnabled {
		return Enrollment{}, errTwoFactorEnabled
	}

	enrollment, err := service.totp.Generate(user.Email)
	if err != nil {
		return Enrollment{}, err
	}

	if err := service.tokens.PendingTOTP.Set(context, user.ID, enrollment.Secret, PendingTOTPTTL); err != nil {
		return Enrollment{}, fmt.Errorf("auth_service_pending_totp_failed: %w", err)
	}
	return enrollment, nil
}

/*
ConfirmTwoFactorSetup enables the second factor once the user proves possession.

Parameters:
  - context: context.Context
  - sessionID: string
  - userID: string
  - code: string

Returns:
  - session.State: Session with the factor enabled and verified
  - error: Unauthorized for bad codes, NotFound if setup expired
*/
func (service *Service) ConfirmTwoFactorSetup(context context.Context, sessionID, userID, code string) (session.State, error) {
	secret, err := service.tokens.PendingTOTP.Get(context, userID)
	if err != nil {
		return session.State{}, err
	}
	if !service.totp.Validate(code, secret) {
		return session.State{}, errInvalidCode
	}

	if err := service.userRepository.SetTwoFactor(context, userID, true, secret); err != nil {
		return session.State{}, fmt.Errorf("auth_service_enable_two_factor_failed: %w", err)
	}
	// The secret is already persisted; a stale pending copy expires on its own.
	if err := service.tokens.PendingTOTP.Delete(context, userID); err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "auth_pending_totp_delete_failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	return service.commitTwoFactor(context, sessionID, session.TwoFactorStatus{Enabled: true, Verified: true})
}

/*
VerifyTwoFactor completes a login that is waiting on the second factor.

Parameters:
  - context: context.Context
  - sessionID: string
  - userID: string
  - code: string

Returns:
  - session.State: Session with the factor verified
  - error: Unauthorized for bad codes, Conflict if the account has no factor
*/
func (service *Service) VerifyTwoFactor(context context.Context, sessionID, userID, code string) (session.State, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return session.State{}, err
	}
	if !user.TwoFactorEnabled {
		return session.State{}, errTwoFactorDisabled
	}
	if !service.totp.Validate(code, user.TwoFactorSecret) {
		return session.State{}, errInvalidCode
	}

	return service.commitTwoFactor(context, sessionID, session.TwoFactorStatus{Enabled: true, Verified: true})
}

/*
DisableTwoFactor removes the second factor after a final code check.

Description: If the role makes the factor mandatory, the session is flagged
for setup again and the gate routes straight back to enrolment.

Parameters:
  - context: context.Context
  - sessionID: string
  - userID: string
  - code: string

Returns:
  - session.State: Session after the change
  - error: Unauthorized for bad codes, Conflict if not enabled
*/
func (service *Service) DisableTwoFactor(context context.Context, sessionID, userID, code string) (session.State, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return session.State{}, err
	}
	if !user.TwoFactorEnabled {
		return session.State{}, errTwoFactorDisabled
	}
	if !service.totp.Validate(code, user.TwoFactorSecret) {
		return session.State{}, errInvalidCode
	}

	if err := service.userRepository.SetTwoFactor(context, userID, false, ""); err != nil {
		return session.State{}, fmt.Errorf("auth_service_disable_two_factor_failed: %w", err)
	}

	return service.commitTwoFactor(context, sessionID, session.TwoFactorStatus{
		RequiresSetup: service.policy.Mandatory(user.Role),
	})
}

func (service *Service) commitTwoFactor(context context.Context, sessionID string, status session.TwoFactorStatus) (session.State, error) {
	state, err := service.sessions.SetTwoFactorStatus(context, sessionID, status)
	if err != nil {
		return session.State{}, fmt.Errorf("auth_service_two_factor_session_failed: %w", err)
	}
	return state, nil
}
