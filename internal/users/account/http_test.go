// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sessiongate/internal/platform/middleware"
	"github.com/taibuivan/sessiongate/internal/platform/sec"
	"github.com/taibuivan/sessiongate/internal/session"
	"github.com/taibuivan/sessiongate/internal/users/account"
)

// asUser attaches an established session the way the gate would.
func asUser(id string, role sec.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			current := session.Current{ID: "sid-" + id, State: session.State{
				IsAuthenticated: true,
				EmailVerified:   true,
				User:            &session.User{ID: id, Email: id + "@example.com", EmailVerified: true, Role: role},
			}}
			next.ServeHTTP(writer, request.WithContext(session.WithCurrent(request.Context(), current)))
		})
	}
}

func newAdminRouter(repo account.AccountRepository, id string, role sec.UserRole) http.Handler {
	router := chi.NewRouter()
	router.Use(asUser(id, role))
	router.Use(middleware.RequireRole(sec.RoleAdmin))
	router.Mount("/admin", account.NewHandler(newService(repo)).Routes())
	return router
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

/*
TestHandler_Endpoints verifies status codes across the directory routes.
*/
func TestHandler_Endpoints(t *testing.T) {
	tests := []struct {
		name   string
		role   sec.UserRole
		method string
		target string
		body   string
		want   int
	}{
		{"list", sec.RoleAdmin, http.MethodGet, "/admin/users?role=member&role=bogus", "", http.StatusOK},
		{"get", sec.RoleAdmin, http.MethodGet, "/admin/users/" + memberID, "", http.StatusOK},
		{"get malformed id", sec.RoleAdmin, http.MethodGet, "/admin/users/nope", "", http.StatusBadRequest},
		{"get missing", sec.RoleAdmin, http.MethodGet, "/admin/users/" + missing, "", http.StatusNotFound},
		{"promote", sec.RoleAdmin, http.MethodPatch, "/admin/users/" + memberID + "/role", `{"role":"operator"}`, http.StatusOK},
		{"unknown role", sec.RoleAdmin, http.MethodPatch, "/admin/users/" + memberID + "/role", `{"role":"root"}`, http.StatusBadRequest},
		{"self demotion", sec.RoleAdmin, http.MethodPatch, "/admin/users/" + adminID + "/role", `{"role":"member"}`, http.StatusForbidden},
		{"roles", sec.RoleAdmin, http.MethodGet, "/admin/roles", "", http.StatusOK},
		{"operator denied", sec.RoleOperator, http.MethodGet, "/admin/users", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAdminRouter(newDirectory(), adminID, tt.role)
			recorder := serve(router, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, recorder.Code, recorder.Body.String())
		})
	}
}

/*
TestHandler_ListFilters verifies that query parameters reach the listing.
*/
func TestHandler_ListFilters(t *testing.T) {
	router := newAdminRouter(newDirectory(), adminID, sec.RoleAdmin)
	recorder := serve(router, http.MethodGet, "/admin/users?verified=true&limit=1", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Data []struct {
			ID       string `json:"id"`
			Password string `json:"password_hash"`
		} `json:"data"`
		Meta struct {
			Total      int `json:"total"`
			TotalPages int `json:"total_pages"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))

	require.Len(t, body.Data, 1)
	assert.Equal(t, opID, body.Data[0].ID)
	assert.Empty(t, body.Data[0].Password)
	assert.Equal(t, 2, body.Meta.Total)
	assert.Equal(t, 2, body.Meta.TotalPages)
}
