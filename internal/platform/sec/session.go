// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, cookie signing,
// random tokens) from the domain logic. The session package consumes it to
// mint and verify the browser cookie that points at a server-side session.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSessionToken is returned for any cookie that fails verification.
var ErrInvalidSessionToken = errors.New("sec: invalid session token")

// SessionClaims is the payload of the signed session cookie.
//
// The cookie only carries the session identifier. Authentication state lives
// in the session store so it can be revoked and updated server-side.
type SessionClaims struct {
	jwt.RegisteredClaims

	// SessionID is abbreviated to keep the cookie small.
	SessionID string `json:"sid"`
}

// SessionSigner signs and verifies session cookies using HS256.
type SessionSigner struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewSessionSigner creates a signer keyed by secret.
func NewSessionSigner(secret, issuer string) *SessionSigner {
	return &SessionSigner{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Sign returns a compact JWT referencing sessionID that expires after ttl.
func (signer *SessionSigner) Sign(sessionID string, ttl time.Duration) (string, error) {
	currentTime := signer.now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    signer.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(ttl)),
		},
		SessionID: sessionID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(signer.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer and expiry of tokenString and returns
// the embedded session identifier.
func (signer *SessionSigner) Verify(tokenString string) (string, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return signer.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(signer.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(signer.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSessionToken, err)
	}

	if !token.Valid || claims.SessionID == "" {
		return "", ErrInvalidSessionToken
	}
	return claims.SessionID, nil
}
