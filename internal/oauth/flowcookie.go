// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package oauth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/sessiongate/internal/platform/constants"
)

// Flow is a pending authorization code flow.
type Flow struct {
	Provider string
	State    string
	Verifier string
	Nonce    string
	ReturnTo string

	// AuthURL is where the browser is sent. Not persisted.
	AuthURL string
}

type flowClaims struct {
	jwt.RegisteredClaims
	Provider string `json:"prv"`
	State    string `json:"st"`
	Verifier string `json:"cv"`
	Nonce    string `json:"nc"`
	ReturnTo string `json:"rt,omitempty"`
}

// flowAudience keeps a flow token from ever verifying as a session token.
const flowAudience = "oauth_flow"

// FlowCookies persists [Flow] values in an HS256-signed cookie.
type FlowCookies struct {
	secret []byte
	secure bool
	now    func() time.Time
}

// NewFlowCookies creates a flow cookie codec signed with secret.
func NewFlowCookies(secret string, secure bool) *FlowCookies {
	return &FlowCookies{secret: []byte(secret), secure: secure, now: time.Now}
}

// Issue writes flow to the response as a cookie valid for [constants.OAuthFlowTTL].
func (cookies *FlowCookies) Issue(writer http.ResponseWriter, flow Flow) error {
	now := cookies.now()
	claims := flowClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    constants.SessionIssuer,
			Audience:  jwt.ClaimStrings{flowAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(constants.OAuthFlowTTL)),
		},
		Provider: flow.Provider,
		State:    flow.State,
		Verifier: flow.Verifier,
		Nonce:    flow.Nonce,
		ReturnTo: flow.ReturnTo,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cookies.secret)
	if err != nil {
		return fmt.Errorf("oauth_flow_sign_failed: %w", err)
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.OAuthFlowCookieName,
		Value:    signed,
		Path:     constants.CookiePath,
		MaxAge:   int(constants.OAuthFlowTTL / time.Second),
		Secure:   cookies.secure,
		HttpOnly: true,
		// Lax so the cookie survives the top-level redirect back from the provider.
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read returns the pending flow or [ErrStateMismatch] if it is missing, forged or expired.
func (cookies *FlowCookies) Read(request *http.Request) (Flow, error) {
	cookie, err := request.Cookie(constants.OAuthFlowCookieName)
	if err != nil || cookie.Value == "" {
		return Flow{}, ErrStateMismatch
	}

	claims := &flowClaims{}
	_, err = jwt.ParseWithClaims(cookie.Value, claims,
		func(*jwt.Token) (interface{}, error) { return cookies.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(constants.SessionIssuer),
		jwt.WithAudience(flowAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(cookies.now),
	)
	if err != nil {
		return Flow{}, errors.Join(ErrStateMismatch, err)
	}

	return Flow{
		Provider: claims.Provider,
		State:    claims.State,
		Verifier: claims.Verifier,
		Nonce:    claims.Nonce,
		ReturnTo: claims.ReturnTo,
	}, nil
}

// Clear expires the flow cookie. Each flow is single-use.
func (cookies *FlowCookies) Clear(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.OAuthFlowCookieName,
		Value:    "",
		Path:     constants.CookiePath,
		MaxAge:   -1,
		Secure:   cookies.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
