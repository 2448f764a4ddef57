// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/sessiongate/internal/oauth"
	"github.com/taibuivan/sessiongate/internal/platform/apperr"
	"github.com/taibuivan/sessiongate/internal/platform/ctxutil"
	"github.com/taibuivan/sessiongate/internal/platform/sec"
	"github.com/taibuivan/sessiongate/pkg/slug"
	"github.com/taibuivan/sessiongate/pkg/uuid"
)

// # Provider Login

// usernameAttempts bounds suffix retries when a derived username is taken.
const usernameAttempts = 5

var errOAuthEmailTaken = apperr.Conflict("An account with this email exists, sign in with your password first")

/*
LoginWithOAuth signs in a verified provider identity.

Resolution order:
  - an account already linked to (provider, subject);
  - a verified account with the same email, linked now, when the provider
    vouches for the email;
  - a new verified member account.

Parameters:
  - context: context.Context
  - sessionID: string (current session, rotated away)
  - identity: oauth.Identity
  - returnTo: string

Returns:
  - *LoginOutcome: Committed session and next destination
  - error: Conflict when the email belongs to an account that cannot be
    linked (unverified on either side)
*/
func (service *Service) LoginWithOAuth(context context.Context, sessionID string, identity oauth.Identity, returnTo string) (*LoginOutcome, error) {
	user, err := service.resolveOAuthUser(context, identity)
	if err != nil {
		return nil, err
	}
	return service.CompleteLogin(context, sessionID, user, identity.Provider, returnTo)
}

func (service *Service) resolveOAuthUser(context context.Context, identity oauth.Identity) (*User, error) {
	user, err := service.userRepository.FindByOAuth(context, identity.Provider, identity.Subject)
	if err == nil {
		return user, nil
	}
	if !apperr.IsNotFound(err) {
		return nil, fmt.Errorf("auth_service_oauth_lookup_failed: %w", err)
	}

	if identity.Email == "" {
		return nil, apperr.Unprocessable("Provider did not share an email address")
	}

	existing, err := service.userRepository.FindByEmail(context, identity.Email)
	switch {
	case err == nil && (!identity.EmailVerified || !existing.IsVerified):
		// Nobody has proven ownership of the local account; its password may
		// belong to whoever registered the address first.
		return nil, errOAuthEmailTaken
	case err == nil:
		return service.linkOAuth(context, existing, identity)
	case !apperr.IsNotFound(err):
		return nil, fmt.Errorf("auth_service_oauth_lookup_failed: %w", err)
	}

	return service.createOAuthUser(context, identity)
}

func (service *Service) linkOAuth(context context.Context, user *User, identity oauth.Identity) (*User, error) {
	if err := service.userRepository.LinkOAuth(context, user.ID, identity.Provider, identity.Subject); err != nil {
		return nil, fmt.Errorf("auth_service_oauth_link_failed: %w", err)
	}
	user.OAuthProvider = identity.Provider
	user.OAuthSubject = identity.Subject
	return user, nil
}

func (service *Service) createOAuthUser(context context.Context, identity oauth.Identity) (*User, error) {
	localPart, _, _ := strings.Cut(identity.Email, "@")
	base := slug.Username(MaxUsernameLength, "user", identity.Name, localPart)

	username, err := service.availableUsername(context, base)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:            uuid.New(),
		Username:      username,
		Email:         identity.Email,
		DisplayName:   identity.Name,
		AvatarURL:     identity.Picture,
		Role:          sec.RoleMember,
		IsVerified:    identity.EmailVerified,
		OAuthProvider: identity.Provider,
		OAuthSubject:  identity.Subject,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_oauth_create_failed: %w", err)
	}

	if !user.IsVerified {
		if err := service.issueVerification(context, user); err != nil {
			ctxutil.GetLogger(context).WarnContext(context, "auth_verification_issue_failed",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return user, nil
}

func (service *Service) availableUsername(context context.Context, base string) (string, error) {
	candidate := base
	for range usernameAttempts {
		_, err := service.userRepository.FindByUsername(context, candidate)
		if apperr.IsNotFound(err) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("auth_service_username_lookup_failed: %w", err)
		}

		id := uuid.New()
		prefix := base
		if len(prefix) > MaxUsernameLength-5 {
			prefix = strings.TrimRight(prefix[:MaxUsernameLength-5], "-")
		}
		candidate = prefix + "-" + id[len(id)-4:]
	}
	return "", apperr.Conflict("Could not derive a free username")
}
