// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package web serves the HTML shell of the single-page client.

Every page is the same document: a mount point plus the caller's session,
embedded as JSON so the client router starts from the state the server saw.
What differs is the guard in front of it.

  - Protected pages run behind [gate.Guard.Protect].
  - Public-only pages run behind [gate.Guard.PublicOnly].
  - Gate destinations only attach the session. They must render in exactly
    the states the gate sends visitors there.
*/
package web

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/sessiongate/internal/gate"
	"github.com/taibuivan/sessiongate/internal/platform/apperr"
	"github.com/taibuivan/sessiongate/internal/platform/ctxutil"
	"github.com/taibuivan/sessiongate/internal/platform/respond"
	"github.com/taibuivan/sessiongate/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page is one client route served by the shell.
type Page struct {
	Path  string
	Title string
}

// Page tables. The client router owns everything below these paths.
var (
	ProtectedPages = []Page{
		{Path: "/", Title: "Home"},
		{Path: "/dashboard", Title: "Dashboard"},
		{Path: "/tasks", Title: "Tasks"},
		{Path: "/webhooks", Title: "Webhooks"},
		{Path: "/admin/users", Title: "Users"},
		{Path: "/admin/roles", Title: "Roles"},
		{Path: "/admin/permissions", Title: "Permissions"},
		{Path: "/settings", Title: "Settings"},
	}

	PublicOnlyPages = []Page{
		{Path: gate.PathLogin, Title: "Sign in"},
		{Path: "/register", Title: "Create account"},
		{Path: "/forgot-password", Title: "Forgot password"},
		{Path: "/reset-password", Title: "Reset password"},
	}

	DestinationPages = []Page{
		{Path: gate.PathTwoFactorSetup, Title: "Set up two-factor authentication"},
		{Path: gate.PathTwoFactorVerify, Title: "Two-factor verification"},
		{Path: gate.PathEmailVerifyPending, Title: "Confirm your email"},
		{Path: "/verify-email", Title: "Verifying email"},
	}
)

// Handler renders the shell.
type Handler struct {
	guard    *gate.Guard
	shell    *template.Template
	appTitle string
}

// NewHandler parses the embedded templates. It fails only on a broken build.
func NewHandler(guard *gate.Guard, appTitle string) (*Handler, error) {
	shell, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{guard: guard, shell: shell, appTitle: appTitle}, nil
}

// Routes registers every page with its guard.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(r chi.Router) {
		r.Use(handler.guard.Protect)
		handler.mount(r, ProtectedPages, "protected")
	})

	router.Group(func(r chi.Router) {
		r.Use(handler.guard.PublicOnly)
		handler.mount(r, PublicOnlyPages, "public")
	})

	router.Group(func(r chi.Router) {
		r.Use(handler.guard.Attach)
		handler.mount(r, DestinationPages, "destination")
	})

	return router
}

func (handler *Handler) mount(router chi.Router, pages []Page, kind string) {
	for _, page := range pages {
		router.Get(page.Path, handler.render(page, kind))
	}
}

// view is the template model.
type view struct {
	AppTitle string
	Title    string
	Path     string
	Kind     string
	Session  session.State
}

func (handler *Handler) render(page Page, kind string) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		state := session.Default()
		if current, ok := session.FromContext(request.Context()); ok {
			state = current.State
		}

		// Render into a buffer so a template failure still yields a clean 500.
		var body bytes.Buffer
		err := handler.shell.ExecuteTemplate(&body, "shell.html", view{
			AppTitle: handler.appTitle,
			Title:    page.Title,
			Path:     page.Path,
			Kind:     kind,
			Session:  state,
		})
		if err != nil {
			ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "page_render_failed",
				slog.String("page", page.Path),
				slog.Any("error", err),
			)
			respond.Error(writer, request, apperr.Internal(err))
			return
		}

		header := writer.Header()
		header.Set("Content-Type", "text/html; charset=utf-8")
		header.Set("Cache-Control", "no-store")
		header.Set("X-Frame-Options", "DENY")
		writer.WriteHeader(http.StatusOK)
		_, _ = body.WriteTo(writer)
	}
}
