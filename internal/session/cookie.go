// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"net/http"
	"time"

	"github.com/taibuivan/sessiongate/internal/platform/constants"
	"github.com/taibuivan/sessiongate/internal/platform/ctxkey"
	"github.com/taibuivan/sessiongate/internal/platform/sec"
)

// # Cookie Transport

// Cookies reads and writes the signed session cookie.
type Cookies struct {
	signer *sec.SessionSigner
	ttl    time.Duration
	secure bool
}

// NewCookies creates the cookie codec. secure should be true behind TLS.
func NewCookies(signer *sec.SessionSigner, ttl time.Duration, secure bool) *Cookies {
	return &Cookies{signer: signer, ttl: ttl, secure: secure}
}

// Read returns the session id named by the request cookie.
// Missing, expired and tampered cookies all report ok=false.
func (cookies *Cookies) Read(request *http.Request) (sessionID string, ok bool) {
	cookie, err := request.Cookie(constants.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	sessionID, err = cookies.signer.Verify(cookie.Value)
	if err != nil {
		return "", false
	}
	return sessionID, true
}

// Issue sets a cookie pointing at sessionID.
func (cookies *Cookies) Issue(writer http.ResponseWriter, sessionID string) error {
	token, err := cookies.signer.Sign(sessionID, cookies.ttl)
	if err != nil {
		return err
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    token,
		Path:     constants.CookiePath,
		MaxAge:   int(cookies.ttl.Seconds()),
		HttpOnly: true,
		Secure:   cookies.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie in the browser.
func (cookies *Cookies) Clear(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     constants.CookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cookies.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// # Request Resolution

// Current is the session attached to one request.
type Current struct {
	// ID is empty when the request carried no valid cookie.
	ID    string
	State State
}

// Loader resolves requests into sessions.
type Loader struct {
	manager *Manager
	cookies *Cookies
}

// NewLoader combines the cookie codec and the manager.
func NewLoader(manager *Manager, cookies *Cookies) *Loader {
	return &Loader{manager: manager, cookies: cookies}
}

// Load returns the session named by the request cookie, failing closed.
func (loader *Loader) Load(request *http.Request) Current {
	sessionID, ok := loader.cookies.Read(request)
	if !ok {
		return Current{State: Default()}
	}
	return Current{ID: sessionID, State: loader.manager.Load(request.Context(), sessionID)}
}

// Manager exposes the writer for handlers that mutate the loaded session.
func (loader *Loader) Manager() *Manager {
	return loader.manager
}

// Cookies exposes the cookie codec for handlers that rotate the session.
func (loader *Loader) Cookies() *Cookies {
	return loader.cookies
}

// # Context Propagation

// WithCurrent stores the loaded session in ctx.
func WithCurrent(ctx context.Context, current Current) context.Context {
	return context.WithValue(ctx, ctxkey.KeySession, current)
}

// FromContext returns the session stored by [WithCurrent].
func FromContext(ctx context.Context) (Current, bool) {
	current, ok := ctx.Value(ctxkey.KeySession).(Current)
	return current, ok
}

// UserFromContext returns the session user, or nil when the request is anonymous.
func UserFromContext(ctx context.Context) *User {
	current, ok := FromContext(ctx)
	if !ok || !current.State.IsAuthenticated {
		return nil
	}
	return current.State.User
}
