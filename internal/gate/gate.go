// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package gate decides, before a page renders, whether the visitor may see it.

The decision is a pure function of the loaded [session.State] and the kind of
route being entered. Rules are plain data evaluated in order; the first match
wins and produces either a redirect or permission to render, never both.

Protected routes:

 1. login              not authenticated      /login?redirect=<path>
 2. two_factor_setup   setup is mandatory     /setup-2fa
 3. two_factor_verify  factor not presented   /verify-2fa
 4. email_verification email unconfirmed      /verify-email-pending?email=<email>
 5. allow              otherwise              render

Public-only routes (login, registration) send authenticated visitors home.

The order is significant. Security setup is always walked through before
email confirmation, and a visitor is never asked to verify a factor they
still have to set up.
*/
package gate

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/taibuivan/sessiongate/internal/platform/validate"
	"github.com/taibuivan/sessiongate/internal/session"
)

// # Destinations

// Navigation targets produced by the gate.
const (
	PathHome               = "/"
	PathLogin              = "/login"
	PathTwoFactorSetup     = "/setup-2fa"
	PathTwoFactorVerify    = "/verify-2fa"
	PathEmailVerifyPending = "/verify-email-pending"

	// ParamRedirect carries the originally requested path to the login page.
	ParamRedirect = "redirect"

	// ParamEmail carries the address awaiting confirmation.
	ParamEmail = "email"
)

// Destination is a redirect target.
type Destination struct {
	Path   string
	Params url.Values
}

// URL renders the destination as a site-relative URL.
func (d Destination) URL() string {
	if len(d.Params) == 0 {
		return d.Path
	}
	return d.Path + "?" + d.Params.Encode()
}

// String implements [fmt.Stringer].
func (d Destination) String() string {
	return d.URL()
}

// LoginDestination sends the visitor to login and back to requestedPath afterwards.
// Paths that are not site-relative are replaced with home.
func LoginDestination(requestedPath string) Destination {
	if !validate.IsSafePath(requestedPath) {
		requestedPath = PathHome
	}
	return Destination{Path: PathLogin, Params: url.Values{ParamRedirect: {requestedPath}}}
}

// # Route Kinds

// RouteKind selects the rule list a route is evaluated against.
type RouteKind int

const (
	// Protected routes need a fully established session.
	Protected RouteKind = iota

	// PublicOnly routes are only meaningful before login.
	PublicOnly
)

// String returns the wire name of the kind.
func (k RouteKind) String() string {
	switch k {
	case Protected:
		return "protected"
	case PublicOnly:
		return "public"
	default:
		return fmt.Sprintf("RouteKind(%d)", int(k))
	}
}

// ParseRouteKind accepts "protected" (or "") and "public".
func ParseRouteKind(raw string) (RouteKind, error) {
	switch raw {
	case "", "protected":
		return Protected, nil
	case "public", "public-only":
		return PublicOnly, nil
	default:
		return Protected, fmt.Errorf("gate: unknown route kind %q", raw)
	}
}

// # Rules

// Rule names.
const (
	RuleLogin             = "login"
	RuleTwoFactorSetup    = "two_factor_setup"
	RuleTwoFactorVerify   = "two_factor_verify"
	RuleEmailVerification = "email_verification"
	RuleHome              = "home"
	RuleAllow             = "allow"
)

// Rule pairs a predicate over the session with where it sends the visitor.
//
// A nil Target means the rule permits rendering.
type Rule struct {
	Name        string
	Description string
	Matches     func(state session.State) bool
	Target      func(state session.State, requestedPath string) Destination
}

func always(session.State) bool { return true }

// ProtectedRules is the ordered rule list for protected routes.
var ProtectedRules = []Rule{
	{
		Name:        RuleLogin,
		Description: "not authenticated",
		Matches:     func(s session.State) bool { return !s.IsAuthenticated },
		Target: func(_ session.State, requestedPath string) Destination {
			return LoginDestination(requestedPath)
		},
	},
	{
		Name:        RuleTwoFactorSetup,
		Description: "account must enroll a second factor",
		Matches:     func(s session.State) bool { return s.RequiresTwoFactorSetup },
		Target: func(session.State, string) Destination {
			return Destination{Path: PathTwoFactorSetup}
		},
	},
	{
		Name:        RuleTwoFactorVerify,
		Description: "second factor not presented in this session",
		Matches:     func(s session.State) bool { return s.TwoFactorEnabled && !s.TwoFactorVerified },
		Target: func(session.State, string) Destination {
			return Destination{Path: PathTwoFactorVerify}
		},
	},
	{
		Name:        RuleEmailVerification,
		Description: "email address not confirmed",
		Matches:     func(s session.State) bool { return !s.EmailVerified && s.User != nil },
		Target: func(s session.State, _ string) Destination {
			return Destination{Path: PathEmailVerifyPending, Params: url.Values{ParamEmail: {s.User.Email}}}
		},
	},
	{
		Name:        RuleAllow,
		Description: "session fully established",
		Matches:     always,
	},
}

// PublicOnlyRules is the ordered rule list for public-only routes.
var PublicOnlyRules = []Rule{
	{
		Name:        RuleHome,
		Description: "already authenticated",
		Matches:     func(s session.State) bool { return s.IsAuthenticated },
		Target: func(session.State, string) Destination {
			return Destination{Path: PathHome}
		},
	},
	{
		Name:        RuleAllow,
		Description: "anonymous visitor",
		Matches:     always,
	},
}

// RulesFor returns the rule list of kind.
func RulesFor(kind RouteKind) []Rule {
	if kind == PublicOnly {
		return PublicOnlyRules
	}
	return ProtectedRules
}

// # Evaluation

// Decision is the outcome of a gate evaluation.
type Decision struct {
	// Rule is the name of the rule that fired.
	Rule string

	// Redirect is nil when the page may render.
	Redirect *Destination
}

// Render reports whether the page may render in place.
func (d Decision) Render() bool {
	return d.Redirect == nil
}

type decisionView struct {
	Rule     string `json:"rule"     yaml:"rule"`
	Render   bool   `json:"render"   yaml:"render"`
	Redirect string `json:"redirect,omitempty" yaml:"redirect,omitempty"`
}

func (d Decision) view() decisionView {
	view := decisionView{Rule: d.Rule, Render: d.Render()}
	if d.Redirect != nil {
		view.Redirect = d.Redirect.URL()
	}
	return view
}

// MarshalJSON renders the decision as {rule, render, redirect}.
func (d Decision) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.view())
}

// MarshalYAML renders the decision like [Decision.MarshalJSON].
func (d Decision) MarshalYAML() (interface{}, error) {
	return d.view(), nil
}

/*
Evaluate runs the rules of kind against state.

It performs no I/O and never modifies state. requestedPath is only used by
the login rule, which carries it back to the page after authentication.
*/
func Evaluate(kind RouteKind, state session.State, requestedPath string) Decision {
	return EvaluateRules(RulesFor(kind), state, requestedPath)
}

// EvaluateRules runs an arbitrary ordered rule list. When no rule matches the
// page renders.
func EvaluateRules(rules []Rule, state session.State, requestedPath string) Decision {
	for _, rule := range rules {
		if !rule.Matches(state) {
			continue
		}
		if rule.Target == nil {
			return Decision{Rule: rule.Name}
		}
		destination := rule.Target(state, requestedPath)
		return Decision{Rule: rule.Name, Redirect: &destination}
	}
	return Decision{Rule: RuleAllow}
}
