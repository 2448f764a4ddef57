// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sessiongate/internal/platform/apperr"
	"github.com/taibuivan/sessiongate/internal/platform/sec"
	"github.com/taibuivan/sessiongate/internal/users/account"
	"github.com/taibuivan/sessiongate/internal/users/auth"
	"github.com/taibuivan/sessiongate/pkg/pagination"
	"github.com/taibuivan/sessiongate/pkg/slice"
)

const (
	adminID  = "00000000-0000-4000-8000-000000000001"
	memberID = "00000000-0000-4000-8000-000000000002"
	opID     = "00000000-0000-4000-8000-000000000003"
	missing  = "00000000-0000-4000-8000-0000000000ff"
)

// memoryAccounts is an in-process AccountRepository.
type memoryAccounts struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func (m *memoryAccounts) List(_ context.Context, filter account.Filter, page pagination.Params) ([]*auth.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]*auth.User, 0, len(m.users))
	for _, user := range m.users {
		all = append(all, user)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	matched := slice.Filter(all, func(user *auth.User) bool {
		if len(filter.Roles) > 0 && !containsRole(filter.Roles, user.Role) {
			return false
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(user.Username+" "+user.Email), strings.ToLower(filter.Search)) {
			return false
		}
		return filter.Verified == nil || *filter.Verified == user.IsVerified
	})

	start := min(page.Offset(), len(matched))
	end := min(start+page.Limit, len(matched))
	return matched[start:end], len(matched), nil
}

func containsRole(roles []sec.UserRole, role sec.UserRole) bool {
	for _, candidate := range roles {
		if candidate == role {
			return true
		}
	}
	return false
}

func (m *memoryAccounts) FindByID(_ context.Context, id string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (m *memoryAccounts) UpdateRole(_ context.Context, id string, role sec.UserRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return apperr.NotFound("User")
	}
	user.Role = role
	return nil
}

func (m *memoryAccounts) CountByRole(context.Context) (map[sec.UserRole]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[sec.UserRole]int{}
	for _, user := range m.users {
		counts[user.Role]++
	}
	return counts, nil
}

func newDirectory() *memoryAccounts {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	users := []*auth.User{
		{ID: adminID, Username: "root", Email: "root@example.com", Role: sec.RoleAdmin, IsVerified: true, CreatedAt: base},
		{ID: memberID, Username: "ada", Email: "ada@example.com", Role: sec.RoleMember, CreatedAt: base.Add(time.Hour)},
		{ID: opID, Username: "grace", Email: "grace@example.com", Role: sec.RoleOperator, IsVerified: true, CreatedAt: base.Add(2 * time.Hour)},
	}

	repo := &memoryAccounts{users: map[string]*auth.User{}}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func newService(repo account.AccountRepository) *account.Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return account.NewService(repo, auth.NewTwoFactorPolicy([]string{"admin"}), logger)
}

/*
TestService_ListUsers verifies filters and page metadata.
*/
func TestService_ListUsers(t *testing.T) {
	service := newService(newDirectory())
	verified := true

	tests := []struct {
		name      string
		filter    account.Filter
		page      pagination.Params
		wantIDs   []string
		wantTotal int
	}{
		{"all newest first", account.Filter{}, pagination.Params{Page: 1, Limit: 20}, []string{opID, memberID, adminID}, 3},
		{"second page", account.Filter{}, pagination.Params{Page: 2, Limit: 2}, []string{adminID}, 3},
		{"by role", account.Filter{Roles: []sec.UserRole{sec.RoleAdmin, sec.RoleOperator}}, pagination.Params{Page: 1, Limit: 20}, []string{opID, adminID}, 2},
		{"search", account.Filter{Search: "ADA"}, pagination.Params{Page: 1, Limit: 20}, []string{memberID}, 1},
		{"verified", account.Filter{Verified: &verified}, pagination.Params{Page: 1, Limit: 20}, []string{opID, adminID}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, meta, err := service.ListUsers(context.Background(), tt.filter, tt.page)
			require.NoError(t, err)

			ids := slice.Map(users, func(user *auth.User) string { return user.ID })
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantTotal, meta.Total)
			assert.Equal(t, tt.page.Page, meta.Page)
		})
	}
}

/*
TestService_ChangeRole verifies role changes and their guard rails.
*/
func TestService_ChangeRole(t *testing.T) {
	tests := []struct {
		name     string
		actor    string
		target   string
		role     sec.UserRole
		wantCode string
		wantRole sec.UserRole
	}{
		{"promote member", adminID, memberID, sec.RoleOperator, "", sec.RoleOperator},
		{"same role is a no-op", adminID, opID, sec.RoleOperator, "", sec.RoleOperator},
		{"own role", adminID, adminID, sec.RoleMember, "FORBIDDEN", ""},
		{"unknown target", adminID, missing, sec.RoleMember, "NOT_FOUND", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newDirectory()
			service := newService(repo)

			user, err := service.ChangeRole(context.Background(), tt.actor, tt.target, tt.role)
			if tt.wantCode != "" {
				ae := apperr.As(err)
				require.NotNil(t, ae, "%v", err)
				assert.Equal(t, tt.wantCode, ae.Code)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, user.Role)

			stored, err := repo.FindByID(context.Background(), tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, stored.Role)
		})
	}
}

/*
TestService_ListRoles verifies counts and the two-factor requirement per role.
*/
func TestService_ListRoles(t *testing.T) {
	roles, err := newService(newDirectory()).ListRoles(context.Background())
	require.NoError(t, err)

	require.Len(t, roles, len(sec.Roles))
	assert.Equal(t, account.RoleInfo{Role: sec.RoleAdmin, Members: 1, TwoFactorRequired: true}, roles[0])
	assert.Equal(t, account.RoleInfo{Role: sec.RoleMember, Members: 1}, roles[2])
}
