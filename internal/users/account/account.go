// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account implements the admin directory of user accounts.

It lists and inspects accounts and changes roles. Every endpoint sits behind
the gate and an admin role check; the package itself never reads sessions.

# Architecture

  - Entities: reuses auth.User; RoleInfo is a read-only view of the role table.
  - Domain: This package depends on the auth package for the User entity.
*/
package account

import (
	"context"

	"github.com/taibuivan/sessiongate/internal/platform/sec"
	"github.com/taibuivan/sessiongate/internal/users/auth"
	"github.com/taibuivan/sessiongate/pkg/pagination"
)

// # Domain Entities

// Filter narrows the directory listing. Zero values match everything.
type Filter struct {
	Roles    []sec.UserRole
	Search   string
	Verified *bool
}

// RoleInfo describes one assignable role.
type RoleInfo struct {
	Role              sec.UserRole `json:"role"`
	Members           int          `json:"members"`
	TwoFactorRequired bool         `json:"two_factor_required"`
}

// # Repository Contracts

// AccountRepository defines the persistence contract for the directory.
type AccountRepository interface {
	/*
		List returns one page of live accounts ordered by creation time.

		Parameters:
		  - context: context.Context
		  - filter: Filter
		  - page: pagination.Params

		Returns:
		  - []*auth.User: Page content
		  - int: Total matching accounts
		  - error: Storage failures
	*/
	List(context context.Context, filter Filter, page pagination.Params) ([]*auth.User, int, error)

	/*
		FindByID retrieves a user record by their unique ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *auth.User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		UpdateRole replaces the role of an account.

		Parameters:
		  - context: context.Context
		  - id: string
		  - role: sec.UserRole

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	UpdateRole(context context.Context, id string, role sec.UserRole) error

	/*
		CountByRole returns the number of live accounts per role.

		Parameters:
		  - context: context.Context

		Returns:
		  - map[sec.UserRole]int: Counts (missing roles have zero members)
		  - error: Storage failures
	*/
	CountByRole(context context.Context) (map[sec.UserRole]int, error)
}
