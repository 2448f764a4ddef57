// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements account identity and the login lifecycle.

It defines the account entity and the logic for registration, password and
provider login, email verification, password recovery, and the TOTP second
factor. Every outcome that affects what the browser may see is committed
through the session manager before a redirect is handed back.
*/
package auth

import (
	"time"

	"github.com/taibuivan/sessiongate/internal/platform/sec"
	"github.com/taibuivan/sessiongate/internal/session"
	"github.com/taibuivan/sessiongate/pkg/pointer"
)

// # Domain Entities

// User represents a registered account.
type User struct {
	ID               string       `json:"id"`
	Username         string       `json:"username"`
	Email            string       `json:"email"`
	PasswordHash     string       `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName      string       `json:"display_name"`
	AvatarURL        string       `json:"avatar_url,omitempty"`
	Role             sec.UserRole `json:"role"`
	IsVerified       bool         `json:"is_verified"`
	TwoFactorEnabled bool         `json:"two_factor_enabled"`
	TwoFactorSecret  string       `json:"-"`
	OAuthProvider    string       `json:"oauth_provider,omitempty"`
	OAuthSubject     string       `json:"-"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// ToSessionUser returns the snapshot embedded in the session record.
func (user *User) ToSessionUser() session.User {
	snapshot := session.User{
		ID:            user.ID,
		Email:         user.Email,
		EmailVerified: user.IsVerified,
		Role:          user.Role,
	}
	if user.DisplayName != "" {
		snapshot.DisplayName = pointer.To(user.DisplayName)
	}
	if user.AvatarURL != "" {
		snapshot.AvatarURL = pointer.To(user.AvatarURL)
	}
	return snapshot
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldDisplayName     = "display_name"
	FieldLogin           = "login"
	FieldToken           = "token"
	FieldCode            = "code"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldReturnTo        = "return_to"
	FieldUser            = "user"
	FieldMessage         = "message"
	FieldSecret          = "secret"
	FieldOTPAuthURL      = "otpauth_url"
)
