// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package gate

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/taibuivan/sessiongate/internal/platform/apperr"
	"github.com/taibuivan/sessiongate/internal/platform/ctxutil"
	"github.com/taibuivan/sessiongate/internal/platform/middleware"
	"github.com/taibuivan/sessiongate/internal/platform/respond"
	"github.com/taibuivan/sessiongate/internal/session"
)

// StateLoader resolves the session of a request. It must fail closed.
type StateLoader interface {
	Load(request *http.Request) session.Current
}

// Guard mounts the gate on chi route groups.
//
// # Usage
//
//	router.With(guard.Protect).Get("/dashboard", pages.Dashboard)
//	router.With(guard.PublicOnly).Get("/login", pages.Login)
//	router.With(guard.RequireAPI).Get("/api/v1/admin/users", users.List)
type Guard struct {
	loader StateLoader
}

// NewGuard creates a guard reading sessions through loader.
func NewGuard(loader StateLoader) *Guard {
	return &Guard{loader: loader}
}

// Protect gates page requests with the protected rules. Redirects use 303.
func (guard *Guard) Protect(next http.Handler) http.Handler {
	return guard.pages(Protected, next)
}

// PublicOnly gates page requests with the public-only rules.
func (guard *Guard) PublicOnly(next http.Handler) http.Handler {
	return guard.pages(PublicOnly, next)
}

// Attach loads the session into the context without gating.
//
// Gate destinations (/setup-2fa, /verify-2fa) and the auth API use it: they
// must be reachable in exactly the states the gate sends people there.
func (guard *Guard) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		current := guard.loader.Load(request)
		next.ServeHTTP(writer, request.WithContext(attach(request, current)))
	})
}

/*
RequireAPI gates JSON endpoints with the protected rules.

Instead of redirecting, it answers with the standard error envelope and puts
the destination in "redirect", so the client router can navigate itself.

  - login: 401 UNAUTHORIZED
  - any other redirect: 403 FORBIDDEN
*/
func (guard *Guard) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		current := guard.loader.Load(request)
		decision := Evaluate(Protected, current.State, refererPath(request))

		if !decision.Render() {
			logDecision(request, decision)
			respond.Error(writer, request, apiError(decision))
			return
		}

		next.ServeHTTP(writer, request.WithContext(attach(request, current)))
	})
}

func (guard *Guard) pages(kind RouteKind, next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		current := guard.loader.Load(request)
		decision := Evaluate(kind, current.State, request.URL.RequestURI())

		if !decision.Render() {
			logDecision(request, decision)

			// The answer depends on the cookie, never on the URL alone.
			writer.Header().Set("Cache-Control", "no-store")
			http.Redirect(writer, request, decision.Redirect.URL(), http.StatusSeeOther)
			return
		}

		next.ServeHTTP(writer, request.WithContext(attach(request, current)))
	})
}

// attach stores the session in the context and tags the request logger.
func attach(request *http.Request, current session.Current) context.Context {
	ctx := session.WithCurrent(request.Context(), current)
	if userID := current.State.UserID(); userID != "" {
		ctx = middleware.EnrichLogger(ctx, slog.String("user_id", userID))
	}
	return ctx
}

func logDecision(request *http.Request, decision Decision) {
	ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "gate_redirect",
		slog.String("rule", decision.Rule),
		slog.String("location", decision.Redirect.URL()),
	)
}

func apiError(decision Decision) *apperr.AppError {
	var err *apperr.AppError
	switch decision.Rule {
	case RuleLogin:
		err = apperr.Unauthorized("Authentication required")
	case RuleTwoFactorSetup:
		err = apperr.Forbidden("Two-factor setup required")
	case RuleTwoFactorVerify:
		err = apperr.Forbidden("Two-factor verification required")
	case RuleEmailVerification:
		err = apperr.Forbidden("Email verification required")
	default:
		err = apperr.Forbidden("Access denied")
	}
	return err.WithRedirect(decision.Redirect.URL())
}

// refererPath is the page an API caller is on, used as the post-login return path.
func refererPath(request *http.Request) string {
	referer, err := url.Parse(request.Referer())
	if err != nil || referer.Path == "" || (referer.Host != "" && referer.Host != request.Host) {
		return PathHome
	}
	return referer.RequestURI()
}
