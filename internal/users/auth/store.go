// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByUsername returns the account with the given username.

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		FindByOAuth returns the account linked to a provider identity.

		Parameters:
		  - context: context.Context
		  - provider: string (configured provider name)
		  - subject: string (the provider's stable 'sub' claim)

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByOAuth(context context.Context, provider, subject string) (*User, error)

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict on duplicate identity, or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		LinkOAuth attaches a provider identity to an existing account.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - provider: string
		  - subject: string

		Returns:
		  - error: Persistence failures
	*/
	LinkOAuth(context context.Context, userID, provider, subject string) error

	/*
		MarkVerified updates the user's status to isverified = true.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	MarkVerified(context context.Context, userID string) error

	/*
		UpdatePassword replaces only the user's password hash.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, userID, newHash string) error

	/*
		SetTwoFactor enables (with secret) or disables (empty secret) the second factor.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - enabled: bool
		  - secret: string

		Returns:
		  - error: Persistence failures
	*/
	SetTwoFactor(context context.Context, userID string, enabled bool, secret string) error
}

// # Volatile Data Access

// TokenRepository stores short-lived single-purpose values keyed by a secret token.
//
// Reset tokens, verification tokens and pending TOTP secrets all share this
// contract; each is a separate instance with its own key prefix.
type TokenRepository interface {

	/*
		Set stores value under token for a limited duration.

		Parameters:
		  - context: context.Context
		  - token: string
		  - value: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Set(context context.Context, token, value string, ttl time.Duration) error

	/*
		Get retrieves the value stored under token.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - string: Stored value
		  - error: apperr.NotFound if absent or expired
	*/
	Get(context context.Context, token string) (string, error)

	/*
		Take retrieves and deletes the value in one step, so a token is single-use
		even under concurrent redemption.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - string: Stored value
		  - error: apperr.NotFound if absent, expired, or already taken
	*/
	Take(context context.Context, token string) (string, error)

	/*
		Delete removes a token.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, token string) error
}
