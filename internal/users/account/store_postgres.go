// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/sessiongate/internal/platform/apperr"
	"github.com/taibuivan/sessiongate/internal/platform/database/schema"
	"github.com/taibuivan/sessiongate/internal/platform/dberr"
	"github.com/taibuivan/sessiongate/internal/platform/sec"
	"github.com/taibuivan/sessiongate/internal/users/auth"
	"github.com/taibuivan/sessiongate/pkg/pagination"
	"github.com/taibuivan/sessiongate/pkg/slice"
)

// # Account Repository

// PostgresAccountRepository implements [AccountRepository] using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// whereClause builds the shared WHERE body and its positional arguments.
func whereClause(filter Filter) (string, []any) {
	table := schema.UserAccount
	conditions := []string{table.DeletedAt + " IS NULL"}
	args := []any{}

	if len(filter.Roles) > 0 {
		args = append(args, slice.Map(filter.Roles, func(role sec.UserRole) string { return string(role) }))
		conditions = append(conditions, fmt.Sprintf("%s = ANY($%d)", table.Role, len(args)))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		conditions = append(conditions, fmt.Sprintf("(lower(%s) LIKE $%d OR lower(%s) LIKE $%d)",
			table.Username, len(args), table.Email, len(args)))
	}

	if filter.Verified != nil {
		args = append(args, *filter.Verified)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", table.IsVerified, len(args)))
	}

	return strings.Join(conditions, " AND "), args
}

// List returns one page of accounts plus the total match count.
func (repository *PostgresAccountRepository) List(context context.Context, filter Filter, page pagination.Params) ([]*auth.User, int, error) {
	table := schema.UserAccount
	where, args := whereClause(filter)

	// 1. Total
	var total int
	countQuery := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s`, table.Table, where)
	if err := repository.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "Account")
	}

	if total == 0 {
		return []*auth.User{}, 0, nil
	}

	// 2. Page content
	pageArgs := append(args, page.Limit, page.Offset())
	pageQuery := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s
		ORDER BY %s DESC, %s
		LIMIT $%d OFFSET $%d`,
		table.Select(), table.Table, where,
		table.CreatedAt, table.ID,
		len(pageArgs)-1, len(pageArgs),
	)

	rows, err := repository.pool.Query(context, pageQuery, pageArgs...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Account")
	}
	defer rows.Close()

	users := make([]*auth.User, 0, page.Limit)
	for rows.Next() {
		user, err := auth.ScanUser(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "Account")
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "Account")
	}
	return users, total, nil
}

// FindByID retrieves a live account.
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*auth.User, error) {
	table := schema.UserAccount
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s IS NULL`,
		table.Select(), table.Table, table.ID, table.DeletedAt,
	)

	user, err := auth.ScanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return user, nil
}

// UpdateRole replaces the role of a live account.
func (repository *PostgresAccountRepository) UpdateRole(context context.Context, id string, role sec.UserRole) error {
	table := schema.UserAccount
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = NOW()
		WHERE %s = $1 AND %s IS NULL`,
		table.Table, table.Role, table.UpdatedAt, table.ID, table.DeletedAt,
	)

	tag, err := repository.pool.Exec(context, query, id, string(role))
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// CountByRole groups live accounts by role.
func (repository *PostgresAccountRepository) CountByRole(context context.Context) (map[sec.UserRole]int, error) {
	table := schema.UserAccount
	query := fmt.Sprintf(`
		SELECT %s, count(*)
		FROM %s
		WHERE %s IS NULL
		GROUP BY %s`,
		table.Role, table.Table, table.DeletedAt, table.Role,
	)

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "Account")
	}
	defer rows.Close()

	counts := make(map[sec.UserRole]int, len(sec.Roles))
	for rows.Next() {
		var role string
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, dberr.Wrap(err, "Account")
		}
		counts[sec.UserRole(role)] = count
	}
	return counts, rows.Err()
}
