// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/sessiongate/internal/platform/apperr"
	"github.com/taibuivan/sessiongate/internal/platform/database/schema"
	"github.com/taibuivan/sessiongate/internal/platform/dberr"
)

// Unique index names from data/migrations/000001_accounts.up.sql.
const (
	constraintEmail    = "account_email_key"
	constraintUsername = "account_username_key"
	constraintOAuth    = "account_oauth_key"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// ScanUser hydrates a [User] from a row selected with [schema.UserAccountTable.Select].
func ScanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.AvatarURL,
		&user.Role,
		&user.IsVerified,
		&user.TwoFactorEnabled,
		&user.TwoFactorSecret,
		&user.OAuthProvider,
		&user.OAuthSubject,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// findOne runs a single-row lookup on live accounts filtered by where.
func (repository *PostgresUserRepository) findOne(context context.Context, where string, args ...any) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s AND %s IS NULL`,
		schema.UserAccount.Select(),
		schema.UserAccount.Table,
		where, schema.UserAccount.DeletedAt,
	)

	user, err := ScanUser(repository.pool.QueryRow(context, query, args...))
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	return user, nil
}

/*
Create persists a new user record into the users.account table.

Description: Ensures timestamps are initialized and maps unique index
violations onto client-safe conflicts.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, username, email, passwordhash, displayname, avatarurl, role, isverified,
			oauthprovider, oauthsubject, createdat, updatedat
		) VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8,
			NULLIF($9, ''), NULLIF($10, ''), $11, $12)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.AvatarURL,
		user.Role,
		user.IsVerified,
		user.OAuthProvider,
		user.OAuthSubject,
		user.CreatedAt,
		user.UpdatedAt,
	)

	switch {
	case err == nil:
		return nil
	case dberr.IsUniqueViolation(err, constraintEmail):
		return apperr.Conflict("Email is already registered")
	case dberr.IsUniqueViolation(err, constraintUsername):
		return apperr.Conflict("Username is already taken")
	case dberr.IsUniqueViolation(err, constraintOAuth):
		return apperr.Conflict("Provider identity is already linked")
	default:
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}
}

/*
FindByEmail retrieves a user record by their unique email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	return repository.findOne(context, "lower("+schema.UserAccount.Email+") = lower($1)", email)
}

// FindByUsername retrieves a user record by their unique username.
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	return repository.findOne(context, schema.UserAccount.Username+" = $1", username)
}

// FindByID retrieves a user record by their unique ID.
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	return repository.findOne(context, schema.UserAccount.ID+" = $1", id)
}

/*
FindByOAuth retrieves the account linked to a provider subject.

Parameters:
  - context: context.Context
  - provider: string
  - subject: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByOAuth(context context.Context, provider, subject string) (*User, error) {
	where := fmt.Sprintf("%s = $1 AND %s = $2", schema.UserAccount.OAuthProvider, schema.UserAccount.OAuthSubject)
	return repository.findOne(context, where, provider, subject)
}

/*
LinkOAuth records a provider identity on an existing account.

Parameters:
  - context: context.Context
  - userID: string
  - provider: string
  - subject: string

Returns:
  - error: apperr.Conflict if another account holds the identity
*/
func (repository *PostgresUserRepository) LinkOAuth(context context.Context, userID, provider, subject string) error {
	const query = `
		UPDATE users.account
		SET oauthprovider = $2, oauthsubject = $3, updatedat = $4
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, userID, provider, subject, time.Now())
	if dberr.IsUniqueViolation(err, constraintOAuth) {
		return apperr.Conflict("Provider identity is already linked")
	}
	if err != nil {
		return fmt.Errorf("postgres_user_repo_link_oauth_failed: %w", err)
	}
	return nil
}

/*
UpdatePassword updates only the password hash for a specific user.

Parameters:
  - context: context.Context
  - userID: string
  - newHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID, newHash string) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2, updatedat = $3
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, userID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}

	return nil
}

/*
MarkVerified updates the user's status to isverified = true.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Database errors
*/
func (repository *PostgresUserRepository) MarkVerified(context context.Context, userID string) error {
	const query = "UPDATE users.account SET isverified = TRUE, updatedat = $2 WHERE id = $1"
	_, err := repository.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_mark_verified_failed: %w", err)
	}
	return nil
}

/*
SetTwoFactor stores the second-factor flag and secret together.

Parameters:
  - context: context.Context
  - userID: string
  - enabled: bool
  - secret: string (empty clears the column)

Returns:
  - error: Database errors
*/
func (repository *PostgresUserRepository) SetTwoFactor(context context.Context, userID string, enabled bool, secret string) error {
	const query = `
		UPDATE users.account
		SET twofactorenabled = $2, twofactorsecret = NULLIF($3, ''), updatedat = $4
		WHERE id = $1 AND deletedat IS NULL`

	_, err := repository.pool.Exec(context, query, userID, enabled, secret, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_two_factor_failed: %w", err)
	}
	return nil
}
