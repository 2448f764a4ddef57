// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sessiongate/internal/platform/apperr"
	"github.com/taibuivan/sessiongate/internal/platform/sec"
	"github.com/taibuivan/sessiongate/internal/session"
	"github.com/taibuivan/sessiongate/internal/users/auth"
)

// memoryUsers is an in-process UserRepository.
type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[string]*auth.User{}}
}

func (m *memoryUsers) find(match func(*auth.User) bool) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if match(user) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (m *memoryUsers) FindByID(_ context.Context, id string) (*auth.User, error) {
	return m.find(func(u *auth.User) bool { return u.ID == id })
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	return m.find(func(u *auth.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *memoryUsers) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	return m.find(func(u *auth.User) bool { return u.Username == username })
}

func (m *memoryUsers) FindByOAuth(_ context.Context, provider, subject string) (*auth.User, error) {
	return m.find(func(u *auth.User) bool { return u.OAuthProvider == provider && u.OAuthSubject == subject })
}

func (m *memoryUsers) Create(_ context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return apperr.Conflict("Email is already registered")
		}
		if existing.Username == user.Username {
			return apperr.Conflict("Username is already taken")
		}
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *memoryUsers) update(id string, mutate func(*auth.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return apperr.NotFound("User")
	}
	mutate(user)
	return nil
}

func (m *memoryUsers) LinkOAuth(_ context.Context, userID, provider, subject string) error {
	return m.update(userID, func(u *auth.User) { u.OAuthProvider, u.OAuthSubject = provider, subject })
}

func (m *memoryUsers) MarkVerified(_ context.Context, userID string) error {
	return m.update(userID, func(u *auth.User) { u.IsVerified = true })
}

func (m *memoryUsers) UpdatePassword(_ context.Context, userID, newHash string) error {
	return m.update(userID, func(u *auth.User) { u.PasswordHash = newHash })
}

func (m *memoryUsers) SetTwoFactor(_ context.Context, userID string, enabled bool, secret string) error {
	return m.update(userID, func(u *auth.User) { u.TwoFactorEnabled, u.TwoFactorSecret = enabled, secret })
}

// seed stores a user with a bcrypt hash of password.
func (m *memoryUsers) seed(t *testing.T, user auth.User, password string) *auth.User {
	t.Helper()
	if password != "" {
		hash, err := sec.HashPassword(password)
		require.NoError(t, err)
		user.PasswordHash = hash
	}
	require.NoError(t, m.Create(context.Background(), &user))
	return &user
}

// recordingNotifier captures the last token per kind. A non-nil failure is
// returned from SendVerification instead of recording.
type recordingNotifier struct {
	mu           sync.Mutex
	verification map[string]string
	reset        map[string]string
	failure      error
}

func (n *recordingNotifier) SendVerification(_ context.Context, user *auth.User, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failure != nil {
		return n.failure
	}
	n.verification[user.ID] = token
	return nil
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, user *auth.User, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reset[user.ID] = token
	return nil
}

type fixture struct {
	service  *auth.Service
	users    *memoryUsers
	manager  *session.Manager
	store    *session.MemoryStore
	notifier *recordingNotifier
	redis    *miniredis.Miniredis
	client   *redis.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	users := newMemoryUsers()
	store := session.NewMemoryStore()
	manager := session.NewManager(store)
	notifier := &recordingNotifier{verification: map[string]string{}, reset: map[string]string{}}

	service := auth.NewService(
		users,
		auth.Tokens{
			Reset:        auth.NewResetTokenRepository(client),
			Verification: auth.NewVerificationTokenRepository(client),
			PendingTOTP:  auth.NewPendingTOTPRepository(client),
		},
		manager,
		auth.NewTwoFactorPolicy([]string{"admin"}),
		auth.NewTOTP("sessiongate-test"),
		notifier,
	)

	return &fixture{
		service:  service,
		users:    users,
		manager:  manager,
		store:    store,
		notifier: notifier,
		redis:    mr,
		client:   client,
	}
}
