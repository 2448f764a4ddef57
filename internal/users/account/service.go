// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/sessiongate/internal/platform/apperr"
	"github.com/taibuivan/sessiongate/internal/platform/sec"
	"github.com/taibuivan/sessiongate/internal/users/auth"
	"github.com/taibuivan/sessiongate/pkg/pagination"
	"github.com/taibuivan/sessiongate/pkg/slice"
)

// # Service Layer

// Service orchestrates the admin directory use cases.
type Service struct {
	accountRepository AccountRepository
	policy            auth.TwoFactorPolicy
	logger            *slog.Logger
}

// NewService constructs a new [Service] with its repository dependencies.
func NewService(accountRepo AccountRepository, policy auth.TwoFactorPolicy, logger *slog.Logger) *Service {
	return &Service{
		accountRepository: accountRepo,
		policy:            policy,
		logger:            logger,
	}
}

/*
ListUsers returns one page of the directory.

Parameters:
  - context: context.Context
  - filter: Filter
  - page: pagination.Params

Returns:
  - []*auth.User: Page content
  - pagination.Meta: Page metadata
  - error: Storage failures
*/
func (service *Service) ListUsers(context context.Context, filter Filter, page pagination.Params) ([]*auth.User, pagination.Meta, error) {
	users, total, err := service.accountRepository.List(context, filter, page)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("account_service_list_failed: %w", err)
	}
	return users, pagination.NewMeta(page.Page, page.Limit, total), nil
}

// GetUser retrieves a single account.
func (service *Service) GetUser(context context.Context, id string) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, id)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_failed: %w", err)
	}
	return user, nil
}

/*
ChangeRole assigns a new role to an account.

Description: Admins cannot change their own role, so the last admin can
never lock everyone out by accident. Sessions already signed in keep the
role snapshot they logged in with until their next login.

Parameters:
  - context: context.Context
  - actorID: string (the admin performing the change)
  - targetID: string
  - role: sec.UserRole

Returns:
  - *auth.User: The updated account
  - error: Forbidden, NotFound or storage failures
*/
func (service *Service) ChangeRole(context context.Context, actorID, targetID string, role sec.UserRole) (*auth.User, error) {
	if actorID == targetID {
		return nil, apperr.Forbidden("You cannot change your own role")
	}

	user, err := service.accountRepository.FindByID(context, targetID)
	if err != nil {
		return nil, fmt.Errorf("account_service_role_lookup_failed: %w", err)
	}

	if user.Role == role {
		return user, nil
	}

	if err := service.accountRepository.UpdateRole(context, targetID, role); err != nil {
		return nil, fmt.Errorf("account_service_role_update_failed: %w", err)
	}

	service.logger.Info("user_role_changed",
		slog.String("actor_id", actorID),
		slog.String("user_id", targetID),
		slog.String("from", string(user.Role)),
		slog.String("to", string(role)),
	)

	user.Role = role
	return user, nil
}

// ListRoles returns the role table with member counts.
func (service *Service) ListRoles(context context.Context) ([]RoleInfo, error) {
	counts, err := service.accountRepository.CountByRole(context)
	if err != nil {
		return nil, fmt.Errorf("account_service_roles_failed: %w", err)
	}

	return slice.Map(sec.Roles, func(role sec.UserRole) RoleInfo {
		return RoleInfo{
			Role:              role,
			Members:           counts[role],
			TwoFactorRequired: service.policy.Mandatory(role),
		}
	}), nil
}
