// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// # TOTP (RFC 6238)

// TOTP issues and checks time-based one-time passwords.
type TOTP struct {
	issuer string
	now    func() time.Time
}

// NewTOTP creates a TOTP helper labelling enrolments with issuer.
func NewTOTP(issuer string) *TOTP {
	return &TOTP{issuer: issuer, now: time.Now}
}

// Enrollment is a freshly generated secret and its provisioning URI.
type Enrollment struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
}

/*
Generate creates a new secret for accountName.

Returns:
  - Enrollment: base32 secret and otpauth:// URL for QR rendering
  - error: Random source failures
*/
func (t *TOTP) Generate(accountName string) (Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      t.issuer,
		AccountName: accountName,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return Enrollment{}, fmt.Errorf("totp_generate_failed: %w", err)
	}
	return Enrollment{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

// Validate reports whether code is valid for secret at the current time.
func (t *TOTP) Validate(code, secret string) bool {
	if secret == "" {
		return false
	}
	valid, err := totp.ValidateCustom(code, secret, t.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      TOTPSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && valid
}
