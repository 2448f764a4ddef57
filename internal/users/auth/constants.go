// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// ResetTokenTTL is the duration a password reset token remains valid.
	// Short-lived (1 hour) for security.
	ResetTokenTTL = 1 * time.Hour

	// ResetTokenLength is the byte length of the random password reset token.
	ResetTokenLength = 32

	// VerificationTokenTTL is the duration an email verification token remains valid.
	// Long-lived (24 hours) as users might not check email immediately.
	VerificationTokenTTL = 24 * time.Hour

	// VerificationTokenLength is the byte length of the random verification token.
	VerificationTokenLength = 32

	// PendingTOTPTTL bounds the window between showing a QR code and confirming it.
	PendingTOTPTTL = 10 * time.Minute

	// TOTPDigits is the length of one-time codes.
	TOTPDigits = 6

	// TOTPSkew is the number of 30-second periods accepted on either side of now.
	TOTPSkew = 1

	// MinPasswordLength applies to registration, reset, and change.
	MinPasswordLength = 8

	// MinUsernameLength applies to registration.
	MinUsernameLength = 3

	// MaxUsernameLength also caps usernames derived from provider profiles.
	MaxUsernameLength = 32
)
