// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taibuivan/sessiongate/internal/platform/ctxutil"
	"github.com/taibuivan/sessiongate/internal/platform/sec"
)

// sessionIDBytes is the entropy of a session id before encoding.
const sessionIDBytes = 32

// ErrNotAuthenticated is returned by mutations that only apply to a logged-in session.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// # Manager

// Manager is the only writer of session records.
//
// Each mutation computes the complete next record and commits it with a
// single [Store.Set]. Concurrent mutations of the same session resolve as
// last write wins.
type Manager struct {
	store Store
}

// NewManager wraps a store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// NewID returns a fresh, unguessable session id.
func NewID() (string, error) {
	id, err := sec.GenerateSecureToken(sessionIDBytes)
	if err != nil {
		return "", fmt.Errorf("session_id_generate_failed: %w", err)
	}
	return id, nil
}

/*
Load returns the record for sessionID, failing closed.

A blank id, a store outage or an undecodable record all produce [Default].
Failures are logged but never returned, so the gate always has a state to
evaluate.
*/
func (manager *Manager) Load(ctx context.Context, sessionID string) State {
	if sessionID == "" {
		return Default()
	}

	state, err := manager.store.Get(ctx, sessionID)
	if err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "session_load_failed_closed",
			slog.String("error", err.Error()),
		)
		return Default()
	}
	return state
}

// LoginInput carries everything committed by a successful authentication.
type LoginInput struct {
	User User

	// OAuthProvider names the external identity provider, empty for passwords.
	OAuthProvider string

	// TwoFactor is the post-authentication routing outcome. Nil means the
	// login did not require a second factor.
	TwoFactor *TwoFactorStatus
}

/*
Login marks sessionID as authenticated for input.User.

The user snapshot is replaced wholesale and the two-factor status is applied
in the same write, so a gate evaluation that follows the login redirect
observes the final record.
*/
func (manager *Manager) Login(ctx context.Context, sessionID string, input LoginInput) (State, error) {
	user := input.User

	state := State{
		IsAuthenticated: true,
		EmailVerified:   user.EmailVerified,
		User:            &user,
	}
	if input.OAuthProvider != "" {
		provider := input.OAuthProvider
		state.OAuthProvider = &provider
	}
	if input.TwoFactor != nil {
		state = state.WithTwoFactor(*input.TwoFactor)
	}

	return manager.commit(ctx, sessionID, state)
}

// Logout resets sessionID to [Default]. Logging out twice is harmless.
func (manager *Manager) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	_, err := manager.commit(ctx, sessionID, Default())
	return err
}

// SetEmailVerified updates the session flag and the embedded user together.
func (manager *Manager) SetEmailVerified(ctx context.Context, sessionID string, verified bool) (State, error) {
	return manager.update(ctx, sessionID, func(state State) State {
		state.EmailVerified = verified
		if state.User != nil {
			user := *state.User
			user.EmailVerified = verified
			state.User = &user
		}
		return state
	})
}

// SetTwoFactorStatus replaces the two-factor flags of an authenticated session.
func (manager *Manager) SetTwoFactorStatus(ctx context.Context, sessionID string, status TwoFactorStatus) (State, error) {
	return manager.update(ctx, sessionID, func(state State) State {
		return state.WithTwoFactor(status)
	})
}

// Watch subscribes to committed records of sessionID.
func (manager *Manager) Watch(ctx context.Context, sessionID string) (<-chan State, error) {
	return manager.store.Subscribe(ctx, sessionID)
}

// update applies mutate to the current authenticated record and commits it.
func (manager *Manager) update(ctx context.Context, sessionID string, mutate func(State) State) (State, error) {
	current, err := manager.store.Get(ctx, sessionID)
	if err != nil {
		return Default(), fmt.Errorf("session_update_read_failed: %w", err)
	}

	if !current.IsAuthenticated {
		return current, ErrNotAuthenticated
	}

	return manager.commit(ctx, sessionID, mutate(current))
}

func (manager *Manager) commit(ctx context.Context, sessionID string, state State) (State, error) {
	state = state.Normalize()
	if err := manager.store.Set(ctx, sessionID, state); err != nil {
		return Default(), fmt.Errorf("session_commit_failed: %w", err)
	}

	ctxutil.GetLogger(ctx).DebugContext(ctx, "session_committed",
		slog.Bool("authenticated", state.IsAuthenticated),
		slog.String("user_id", state.UserID()),
	)
	return state, nil
}
