// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/sessiongate/internal/gate"
	"github.com/taibuivan/sessiongate/internal/platform/apperr"
	"github.com/taibuivan/sessiongate/internal/platform/ctxutil"
	"github.com/taibuivan/sessiongate/internal/platform/sec"
	"github.com/taibuivan/sessiongate/internal/session"
	"github.com/taibuivan/sessiongate/pkg/uuid"
)

// # Contracts & Types

// Tokens groups the volatile token stores used by the service.
type Tokens struct {
	Reset        TokenRepository
	Verification TokenRepository
	PendingTOTP  TokenRepository
}

// Service implements user authentication use cases.
//
// # Session Writes
//
// The service never writes session records itself. Every change that the gate
// must observe goes through [session.Manager], and a destination is only
// returned after that write has committed.
type Service struct {
	userRepository UserRepository
	tokens         Tokens
	sessions       *session.Manager
	policy         TwoFactorPolicy
	totp           *TOTP
	notifier       Notifier
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	tokens Tokens,
	sessions *session.Manager,
	policy TwoFactorPolicy,
	totp *TOTP,
	notifier Notifier,
) *Service {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Service{
		userRepository: userRepo,
		tokens:         tokens,
		sessions:       sessions,
		policy:         policy,
		totp:           totp,
		notifier:       notifier,
	}
}

// LoginOutcome is a committed login: the new session and where to go next.
type LoginOutcome struct {
	SessionID string
	State     session.State
	Redirect  gate.Destination
	User      *User
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	ReturnTo    string
}

/*
Register validates, hashes, and persists a brand new user account, then
signs it in.

Description: New accounts start unverified, so the committed session routes
to the verification-pending page until the emailed token is redeemed.

Parameters:
  - context: context.Context
  - sessionID: string (the caller's current session, rotated away)
  - input: RegisterInput

Returns:
  - *LoginOutcome: Committed session and next destination
  - error: Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, sessionID string, input RegisterInput) (*LoginOutcome, error) {

	// Verify email uniqueness. Return a client-safe Conflict err.
	if _, err := service.userRepository.FindByEmail(context, input.Email); err == nil {
		return nil, apperr.Conflict("Email is already registered")
	} else if !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}

	// Verify username uniqueness.
	if _, err := service.userRepository.FindByUsername(context, input.Username); err == nil {
		return nil, apperr.Conflict("Username is already taken")
	} else if !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		Role:         sec.RoleMember,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	// A lost verification mail is recoverable through resend.
	if err := service.issueVerification(context, user); err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "auth_verification_issue_failed",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	return service.CompleteLogin(context, sessionID, user, "", input.ReturnTo)
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Login    string // Can be Username or Email
	Password string
	ReturnTo string
}

/*
Authenticate verifies a password and builds the authentication payload.

Parameters:
  - context: context.Context
  - login: string (username or email)
  - password: string

Returns:
  - *User: The authenticated account
  - session.AuthResult: Payload for post-authentication routing
  - error: apperr.Unauthorized with a generic message
*/
func (service *Service) Authenticate(context context.Context, login, password string) (*User, session.AuthResult, error) {

	// Flexible login: look up by Email or Username
	user, err := service.userRepository.FindByEmail(context, login)
	if err != nil {
		user, err = service.userRepository.FindByUsername(context, login)
	}

	// Generic message to prevent enumeration.
	if err != nil || !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, session.AuthResult{}, apperr.Unauthorized("Invalid login credentials")
	}

	return user, service.policy.AuthResultFor(user), nil
}

/*
Login authenticates credentials and commits the session.

Parameters:
  - context: context.Context
  - sessionID: string (current, possibly anonymous, session)
  - input: LoginInput

Returns:
  - *LoginOutcome: Committed session and next destination
  - error: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, sessionID string, input LoginInput) (*LoginOutcome, error) {
	user, _, err := service.Authenticate(context, input.Login, input.Password)
	if err != nil {
		return nil, err
	}
	return service.CompleteLogin(context, sessionID, user, "", input.ReturnTo)
}

/*
CompleteLogin commits an authenticated user into a fresh session.

Description: Runs the post-authentication two-factor routing, writes the
login and its two-factor status in a single session write under a new
session ID, retires the previous session ID, and only then resolves the
destination.

Parameters:
  - context: context.Context
  - previousSessionID: string (may be empty)
  - user: *User
  - provider: string (OAuth provider name, empty for passwords)
  - returnTo: string (requested path to resume)

Returns:
  - *LoginOutcome: Committed session and next destination
  - error: Session store failures
*/
func (service *Service) CompleteLogin(context context.Context, previousSessionID string, user *User, provider, returnTo string) (*LoginOutcome, error) {
	result := service.policy.AuthResultFor(user)
	status, twoFactorDestination := gate.RouteAfterAuthentication(result)

	// Rotate the identifier so a pre-login cookie cannot ride the new session.
	sessionID, err := session.NewID()
	if err != nil {
		return nil, fmt.Errorf("auth_service_session_id_failed: %w", err)
	}

	state, err := service.sessions.Login(context, sessionID, session.LoginInput{
		User:          *result.User,
		OAuthProvider: provider,
		TwoFactor:     status,
	})
	if err != nil {
		return nil, fmt.Errorf("auth_service_session_commit_failed: %w", err)
	}

	if previousSessionID != "" && previousSessionID != sessionID {
		if err := service.sessions.Logout(context, previousSessionID); err != nil {
			ctxutil.GetLogger(context).WarnContext(context, "auth_previous_session_retire_failed",
				slog.String("error", err.Error()),
			)
		}
	}

	return &LoginOutcome{
		SessionID: sessionID,
		State:     state,
		Redirect:  gate.NextAfterLogin(state, twoFactorDestination, returnTo),
		User:      user,
	}, nil
}

/*
Logout resets the session to the anonymous record.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: Session store failures
*/
func (service *Service) Logout(context context.Context, sessionID string) error {
	if err := service.sessions.Logout(context, sessionID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

// # Email Verification

func (service *Service) issueVerification(context context.Context, user *User) error {
	token, err := sec.GenerateSecureToken(VerificationTokenLength)
	if err != nil {
		return err
	}
	if err := service.tokens.Verification.Set(context, token, user.ID, VerificationTokenTTL); err != nil {
		return err
	}
	return service.notifier.SendVerification(context, user, token)
}

/*
VerifyEmail confirms a user's email address using a secure token.

Description: The token is single-use. When the caller's own session belongs
to the verified account, the session flag is committed too so the gate stops
routing to the pending page.

Parameters:
  - context: context.Context
  - current: session.Current (caller session, may be anonymous)
  - token: string

Returns:
  - session.State: The caller's session after the update
  - error: apperr.NotFound for bad tokens, or storage errors
*/
func (service *Service) VerifyEmail(context context.Context, current session.Current, token string) (session.State, error) {
	userID, err := service.tokens.Verification.Take(context, token)
	if err != nil {
		return current.State, err
	}

	if err := service.userRepository.MarkVerified(context, userID); err != nil {
		return current.State, fmt.Errorf("auth_service_verify_email_failed: %w", err)
	}

	if current.ID == "" || current.State.UserID() != userID {
		return current.State, nil
	}

	state, err := service.sessions.SetEmailVerified(context, current.ID, true)
	if err != nil {
		return current.State, fmt.Errorf("auth_service_verify_email_session_failed: %w", err)
	}
	return state, nil
}

/*
ResendVerification issues a new verification token.

Description: Silent for unknown or already verified addresses to prevent
user enumeration.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: Generation or storage errors
*/
func (service *Service) ResendVerification(context context.Context, email string) error {
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil || user.IsVerified {
		return nil
	}
	if err := service.issueVerification(context, user); err != nil {
		return fmt.Errorf("auth_service_resend_verification_failed: %w", err)
	}
	return nil
}

// # Password Recovery

/*
RequestPasswordReset initiates the forgot-password flow.

Description: Generates a secure token, saves it to Redis and hands it to
the notifier. Unknown emails succeed silently.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - error: Generation errors
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) error {
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		return nil
	}

	token, err := sec.GenerateSecureToken(ResetTokenLength)
	if err != nil {
		return fmt.Errorf("auth_service_generate_reset_token_failed: %w", err)
	}

	if err := service.tokens.Reset.Set(context, token, user.ID, ResetTokenTTL); err != nil {
		return fmt.Errorf("auth_service_save_reset_token_failed: %w", err)
	}

	if err := service.notifier.SendPasswordReset(context, user, token); err != nil {
		return fmt.Errorf("auth_service_send_reset_failed: %w", err)
	}
	return nil
}

/*
ResetPassword completes the forgot-password flow.

Parameters:
  - context: context.Context
  - token: string
  - newPassword: string

Returns:
  - error: apperr.NotFound for bad tokens, or update failures
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {
	userID, err := service.tokens.Reset.Take(context, token)
	if err != nil {
		return err
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}
	return nil
}

/*
ChangePassword allows an authenticated user to update their credentials.

Parameters:
  - context: context.Context
  - userID: string
  - currentPassword: string
  - newPassword: string

Returns:
  - error: Unauthorized or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID, currentPassword, newPassword string) error {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}
	return nil
}
