// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/sessiongate/internal/gate"
	"github.com/taibuivan/sessiongate/internal/oauth"
	"github.com/taibuivan/sessiongate/internal/platform/constants"
	"github.com/taibuivan/sessiongate/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/sessiongate/internal/platform/request"
	"github.com/taibuivan/sessiongate/internal/platform/respond"
	"github.com/taibuivan/sessiongate/internal/platform/validate"
	"github.com/taibuivan/sessiongate/internal/session"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// Every endpoint that changes who the caller is answers with a "redirect"
// the client must follow. The session cookie is (re)issued before the body
// is written, so the follow-up navigation already carries the new session.
type Handler struct {
	authService *Service
	cookies     *session.Cookies
	guard       *gate.Guard
	providers   *oauth.Registry
	flows       *oauth.FlowCookies
}

// NewHandler constructs a new [Handler] with its service dependency.
// providers may be nil when no identity provider is configured.
func NewHandler(service *Service, cookies *session.Cookies, guard *gate.Guard, providers *oauth.Registry, flows *oauth.FlowCookies) *Handler {
	return &Handler{
		authService: service,
		cookies:     cookies,
		guard:       guard,
		providers:   providers,
		flows:       flows,
	}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// The router expects [gate.Guard.Attach] upstream so the caller's session is
// in the context.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)
	router.Post("/verify-email", handler.verifyEmail)
	router.Post("/verify-email/resend", handler.resendVerification)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/reset-password", handler.resetPassword)

	// Two-factor endpoints run mid-login, before the gate would let the caller through.
	router.Route("/2fa", func(r chi.Router) {
		r.Post("/setup", handler.twoFactorSetup)
		r.Post("/enable", handler.twoFactorEnable)
		r.Post("/verify", handler.twoFactorVerify)
		r.Post("/disable", handler.twoFactorDisable)
	})

	// Fully gated endpoints
	router.Group(func(r chi.Router) {
		r.Use(handler.guard.RequireAPI)
		r.Post("/change-password", handler.changePassword)
	})

	// Provider login is a browser navigation, not an XHR.
	router.Get("/oauth/{provider}/start", handler.oauthStart)
	router.Get("/oauth/{provider}/callback", handler.oauthCallback)

	return router
}

// # Request Payloads

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	ReturnTo    string `json:"return_to"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	ReturnTo string `json:"return_to"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type codeRequest struct {
	Code string `json:"code"`
}

// # Response Payloads

type loginResponse struct {
	Redirect string        `json:"redirect"`
	User     *User         `json:"user"`
	Session  session.State `json:"session"`
}

type stateResponse struct {
	Redirect string        `json:"redirect"`
	Session  session.State `json:"session"`
}

func (handler *Handler) current(request *http.Request) session.Current {
	current, _ := session.FromContext(request.Context())
	return current
}

// establish issues the cookie for a committed login and writes the response.
func (handler *Handler) establish(writer http.ResponseWriter, request *http.Request, status int, outcome *LoginOutcome) {
	if err := handler.cookies.Issue(writer, outcome.SessionID); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.JSON(writer, status, respond.SuccessEnvelope{Data: loginResponse{
		Redirect: outcome.Redirect.URL(),
		User:     outcome.User,
		Session:  outcome.State,
	}})
}

/*
Register handles the creation of a new user account.

POST /api/v1/auth/register

Description: Validates input, persists the account and signs it in. The
redirect normally points at the verification-pending page.

Request:
  - Body: registerRequest (Username, Email, Password, DisplayName, ReturnTo)

Response:
  - 201: loginResponse
  - 400: VALIDATION_ERROR
  - 409: CONFLICT: Username or Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, MinUsernameLength).
		MaxLen(FieldUsername, input.Username, MaxUsernameLength).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength)
	if input.ReturnTo != "" {
		validator.SafePath(FieldReturnTo, input.ReturnTo)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	outcome, err := handler.authService.Register(request.Context(), handler.current(request).ID, RegisterInput{
		Username:    input.Username,
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		ReturnTo:    input.ReturnTo,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.establish(writer, request, http.StatusCreated, outcome)
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials, commits the session (including any
two-factor requirement) and returns where the client must go next.

Request:
  - Body: loginRequest (Login, Password, ReturnTo)

Response:
  - 200: loginResponse
  - 401: UNAUTHORIZED: Invalid credentials
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldLogin, input.Login).
		Required(FieldPassword, input.Password)
	if input.ReturnTo != "" {
		validator.SafePath(FieldReturnTo, input.ReturnTo)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	outcome, err := handler.authService.Login(request.Context(), handler.current(request).ID, LoginInput{
		Login:    input.Login,
		Password: input.Password,
		ReturnTo: input.ReturnTo,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.establish(writer, request, http.StatusOK, outcome)
}

/*
Logout terminates the current user session.

POST /api/v1/auth/logout

Response:
  - 200: stateResponse pointing at the login page
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if err := handler.authService.Logout(request.Context(), handler.current(request).ID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.cookies.Clear(writer)
	respond.OK(writer, stateResponse{
		Redirect: gate.PathLogin,
		Session:  session.Default(),
	})
}

/*
VerifyEmail confirms a user's email ownership.

POST /api/v1/auth/verify-email

Request:
  - Body: tokenRequest (Token)

Response:
  - 200: stateResponse
  - 404: NOT_FOUND: Token invalid, expired or already used
*/
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	var input tokenRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Token == "" {
		respond.Error(writer, request, validate.RequiredError(FieldToken, "This field is required"))
		return
	}

	state, err := handler.authService.VerifyEmail(request.Context(), handler.current(request), input.Token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, stateResponse{
		Redirect: gate.NextAfterLogin(state, nil, gate.PathHome).URL(),
		Session:  state,
	})
}

/*
ResendVerification issues a fresh verification link.

POST /api/v1/auth/verify-email/resend

Response:
  - 200: Generic message, whether or not the address is known
*/
func (handler *Handler) resendVerification(writer http.ResponseWriter, request *http.Request) {
	var input emailRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResendVerification(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "If this email awaits verification, a new link has been sent.",
	})
}

/*
ForgotPassword initiates the password recovery flow.

POST /api/v1/auth/forgot-password

Response:
  - 200: Generic security message
  - 400: VALIDATION_ERROR
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input emailRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.RequestPasswordReset(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "If this email is registered, a reset link has been sent.",
	})
}

/*
ResetPassword completes the password recovery flow.

POST /api/v1/auth/reset-password

Response:
  - 200: Password updated, redirect to login
  - 404: NOT_FOUND: Bad or used token
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldToken, input.Token).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), input.Token, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage:            "Password updated successfully",
		constants.FieldRedirect: gate.PathLogin,
	})
}

/*
ChangePassword updates the authenticated user's password.

POST /api/v1/auth/change-password

Response:
  - 200: Password changed
  - 401/403: Gate envelope with redirect
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, MinPasswordLength)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ChangePassword(request.Context(), userID, input.CurrentPassword, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password changed successfully",
	})
}

// # Two-Factor Endpoints

/*
TwoFactorSetup starts TOTP enrolment.

POST /api/v1/auth/2fa/setup

Response:
  - 200: Enrollment (secret, otpauth_url)
  - 409: CONFLICT: Already enabled
*/
func (handler *Handler) twoFactorSetup(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	enrollment, err := handler.authService.BeginTwoFactorSetup(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, enrollment)
}

// twoFactorEnable confirms enrolment. POST /api/v1/auth/2fa/enable
func (handler *Handler) twoFactorEnable(writer http.ResponseWriter, request *http.Request) {
	handler.withCode(writer, request, handler.authService.ConfirmTwoFactorSetup)
}

// twoFactorVerify completes a pending second-factor login. POST /api/v1/auth/2fa/verify
func (handler *Handler) twoFactorVerify(writer http.ResponseWriter, request *http.Request) {
	handler.withCode(writer, request, handler.authService.VerifyTwoFactor)
}

// twoFactorDisable removes the factor. POST /api/v1/auth/2fa/disable
func (handler *Handler) twoFactorDisable(writer http.ResponseWriter, request *http.Request) {
	handler.withCode(writer, request, handler.authService.DisableTwoFactor)
}

// codeOperation is a two-factor service call keyed by session, user and code.
type codeOperation func(ctx context.Context, sessionID, userID, code string) (session.State, error)

func (handler *Handler) withCode(writer http.ResponseWriter, request *http.Request, operation codeOperation) {
	current, err := requestutil.RequiredSession(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input codeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldCode, input.Code).Digits(FieldCode, input.Code, TOTPDigits)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	state, err := operation(request.Context(), current.ID, current.State.User.ID, input.Code)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, stateResponse{
		Redirect: gate.NextAfterLogin(state, nil, gate.PathHome).URL(),
		Session:  state,
	})
}

// # Provider Login

/*
OAuthStart redirects the browser to the identity provider.

GET /api/v1/auth/oauth/{provider}/start?redirect=/path

Response:
  - 302: Provider authorization URL, flow cookie set
  - 404: NOT_FOUND: Unknown provider
*/
func (handler *Handler) oauthStart(writer http.ResponseWriter, request *http.Request) {
	provider, err := handler.providers.Get(requestutil.Param(request, "provider"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	returnTo := request.URL.Query().Get(gate.ParamRedirect)
	if !validate.IsSafePath(returnTo) {
		returnTo = gate.PathHome
	}

	flow, err := provider.Begin(returnTo)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.flows.Issue(writer, flow); err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.Redirect(writer, request, flow.AuthURL, http.StatusFound)
}

/*
OAuthCallback completes provider login.

GET /api/v1/auth/oauth/{provider}/callback?code=...&state=...

Response:
  - 303: Next destination on success
  - 303: /login?error=oauth_failed on any failure
*/
func (handler *Handler) oauthCallback(writer http.ResponseWriter, request *http.Request) {
	ctx := request.Context()
	logger := ctxutil.GetLogger(ctx)
	writer.Header().Set("Cache-Control", "no-store")

	flow, flowErr := handler.flows.Read(request)
	handler.flows.Clear(writer)

	fail := func(reason string, err error) {
		attrs := []any{slog.String("reason", reason)}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		logger.WarnContext(ctx, "oauth_login_failed", attrs...)

		target := url.URL{Path: gate.PathLogin, RawQuery: url.Values{"error": {"oauth_failed"}}.Encode()}
		http.Redirect(writer, request, target.String(), http.StatusSeeOther)
	}

	if flowErr != nil {
		fail("flow", flowErr)
		return
	}

	query := request.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		fail("provider_denied", nil)
		return
	}

	provider, err := handler.providers.Get(requestutil.Param(request, "provider"))
	if err != nil {
		fail("provider", err)
		return
	}

	identity, err := provider.Complete(ctx, flow, query.Get("state"), query.Get("code"))
	if err != nil {
		fail("exchange", err)
		return
	}

	outcome, err := handler.authService.LoginWithOAuth(ctx, handler.current(request).ID, identity, flow.ReturnTo)
	if err != nil {
		fail("account", err)
		return
	}

	if err := handler.cookies.Issue(writer, outcome.SessionID); err != nil {
		fail("cookie", err)
		return
	}

	http.Redirect(writer, request, outcome.Redirect.URL(), http.StatusSeeOther)
}
