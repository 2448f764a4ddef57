// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package oauth_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sessiongate/internal/oauth"
	"github.com/taibuivan/sessiongate/internal/platform/constants"
)

const flowSecret = "0123456789abcdef0123456789abcdef"

func requestWith(cookies ...*http.Cookie) *http.Request {
	request := httptest.NewRequest(http.MethodGet, "/api/v1/auth/oauth/test/callback", nil)
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	return request
}

/*
TestFlowCookies_RoundTrip verifies every persisted field survives and AuthURL does not.
*/
func TestFlowCookies_RoundTrip(t *testing.T) {
	codec := oauth.NewFlowCookies(flowSecret, true)
	flow := oauth.Flow{
		Provider: "test",
		State:    "state",
		Verifier: "verifier",
		Nonce:    "nonce",
		ReturnTo: "/tasks",
		AuthURL:  "https://idp.example/auth",
	}

	recorder := httptest.NewRecorder()
	require.NoError(t, codec.Issue(recorder, flow))

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.OAuthFlowCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	got, err := codec.Read(requestWith(cookies[0]))
	require.NoError(t, err)

	flow.AuthURL = ""
	assert.Equal(t, flow, got)
}

/*
TestFlowCookies_Rejects verifies that missing, foreign and tampered cookies fail.
*/
func TestFlowCookies_Rejects(t *testing.T) {
	codec := oauth.NewFlowCookies(flowSecret, false)
	other := oauth.NewFlowCookies("ffffffffffffffffffffffffffffffff", false)

	recorder := httptest.NewRecorder()
	require.NoError(t, other.Issue(recorder, oauth.Flow{Provider: "test", State: "s"}))
	foreign := recorder.Result().Cookies()[0]

	recorder = httptest.NewRecorder()
	require.NoError(t, codec.Issue(recorder, oauth.Flow{Provider: "test", State: "s"}))
	tampered := recorder.Result().Cookies()[0]
	suffix := "xx"
	if strings.HasSuffix(tampered.Value, suffix) {
		suffix = "yy"
	}
	tampered.Value = tampered.Value[:len(tampered.Value)-2] + suffix

	tests := []struct {
		name    string
		request *http.Request
	}{
		{"missing", requestWith()},
		{"foreign secret", requestWith(foreign)},
		{"tampered", requestWith(tampered)},
		{"garbage", requestWith(&http.Cookie{Name: constants.OAuthFlowCookieName, Value: "not-a-jwt"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Read(tt.request)
			assert.ErrorIs(t, err, oauth.ErrStateMismatch)
		})
	}
}

/*
TestFlowCookies_Clear verifies the cookie is expired immediately.
*/
func TestFlowCookies_Clear(t *testing.T) {
	recorder := httptest.NewRecorder()
	oauth.NewFlowCookies(flowSecret, false).Clear(recorder)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
