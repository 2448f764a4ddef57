// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sessiongate/internal/platform/constants"
	"github.com/taibuivan/sessiongate/internal/platform/sec"
	"github.com/taibuivan/sessiongate/internal/session"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newLoader(t *testing.T) (*session.Loader, *session.Manager) {
	t.Helper()
	manager := session.NewManager(session.NewMemoryStore())
	cookies := session.NewCookies(sec.NewSessionSigner(testSecret, constants.SessionIssuer), time.Hour, true)
	return session.NewLoader(manager, cookies), manager
}

func requestWithCookies(recorder *httptest.ResponseRecorder) *http.Request {
	request := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, cookie := range recorder.Result().Cookies() {
		request.AddCookie(cookie)
	}
	return request
}

/*
TestLoader_IssuedCookieResolvesSession verifies the full cookie round trip.
*/
func TestLoader_IssuedCookieResolvesSession(t *testing.T) {
	loader, manager := newLoader(t)

	_, err := manager.Login(context.Background(), "sid-1", session.LoginInput{User: session.User{ID: "u1", EmailVerified: true}})
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	require.NoError(t, loader.Cookies().Issue(recorder, "sid-1"))

	cookie := recorder.Result().Cookies()[0]
	assert.Equal(t, constants.SessionCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	current := loader.Load(requestWithCookies(recorder))
	assert.Equal(t, "sid-1", current.ID)
	assert.True(t, current.State.IsAuthenticated)
}

/*
TestLoader_FailsClosed verifies that missing and forged cookies load as the default.
*/
func TestLoader_FailsClosed(t *testing.T) {
	loader, manager := newLoader(t)
	_, err := manager.Login(context.Background(), "sid-1", session.LoginInput{User: session.User{ID: "u1"}})
	require.NoError(t, err)

	forger := sec.NewSessionSigner("ffffffffffffffffffffffffffffffff", constants.SessionIssuer)
	forged, err := forger.Sign("sid-1", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"raw session id", &http.Cookie{Name: constants.SessionCookieName, Value: "sid-1"}},
		{"forged signature", &http.Cookie{Name: constants.SessionCookieName, Value: forged}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				request.AddCookie(tt.cookie)
			}

			current := loader.Load(request)
			assert.Empty(t, current.ID)
			assert.Equal(t, session.Default(), current.State)
		})
	}
}

/*
TestCookies_Clear verifies that logout expires the browser cookie.
*/
func TestCookies_Clear(t *testing.T) {
	loader, _ := newLoader(t)

	recorder := httptest.NewRecorder()
	loader.Cookies().Clear(recorder)

	cookie := recorder.Result().Cookies()[0]
	assert.Equal(t, constants.SessionCookieName, cookie.Name)
	assert.Negative(t, cookie.MaxAge)
}

/*
TestContext verifies session propagation through the request context.
*/
func TestContext(t *testing.T) {
	ctx := context.Background()
	_, ok := session.FromContext(ctx)
	assert.False(t, ok)
	assert.Nil(t, session.UserFromContext(ctx))

	user := &session.User{ID: "u1"}
	ctx = session.WithCurrent(ctx, session.Current{ID: "sid", State: session.State{IsAuthenticated: true, User: user}})

	current, ok := session.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "sid", current.ID)
	assert.Equal(t, "u1", session.UserFromContext(ctx).ID)
}
