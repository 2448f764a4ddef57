// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/sessiongate/internal/platform/apperr"
	"github.com/taibuivan/sessiongate/internal/platform/constants"
	"github.com/taibuivan/sessiongate/internal/platform/sec"
)

// RedisTokenRepository implements TokenRepository using Redis.
//
// Keys hold the SHA-256 of the token, never the token itself, so a dump of
// Redis does not hand out usable links.
type RedisTokenRepository struct {
	client   *redis.Client
	prefix   string
	resource string
}

// NewResetTokenRepository creates a Redis-backed store for password reset tokens.
func NewResetTokenRepository(client *redis.Client) *RedisTokenRepository {
	return &RedisTokenRepository{client: client, prefix: constants.RedisPrefixResetToken, resource: "Reset token"}
}

// NewVerificationTokenRepository creates a Redis-backed store for email verification tokens.
func NewVerificationTokenRepository(client *redis.Client) *RedisTokenRepository {
	return &RedisTokenRepository{client: client, prefix: constants.RedisPrefixVerifyToken, resource: "Verification token"}
}

// NewPendingTOTPRepository creates a Redis-backed store for TOTP secrets awaiting confirmation.
// The token is the user ID.
func NewPendingTOTPRepository(client *redis.Client) *RedisTokenRepository {
	return &RedisTokenRepository{client: client, prefix: constants.RedisPrefixPendingTOTP, resource: "Pending two-factor setup"}
}

func (repository *RedisTokenRepository) key(token string) string {
	return repository.prefix + sec.HashToken(token)
}

func (repository *RedisTokenRepository) notFound() error {
	return apperr.NotFound(repository.resource)
}

/*
Set stores a token with its associated value and TTL.

Parameters:
  - context: context.Context
  - token: string
  - value: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisTokenRepository) Set(context context.Context, token, value string, ttl time.Duration) error {
	if err := repository.client.Set(context, repository.key(token), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis_token_set_failed: %w", err)
	}
	return nil
}

/*
Get retrieves the value for a given token.

Description: Returns apperr.NotFound if the token is absent or expired.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - string: Stored value
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisTokenRepository) Get(context context.Context, token string) (string, error) {
	value, err := repository.client.Get(context, repository.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.notFound()
		}
		return "", fmt.Errorf("redis_token_get_failed: %w", err)
	}
	return value, nil
}

/*
Take atomically reads and deletes a token (GETDEL).

Parameters:
  - context: context.Context
  - token: string

Returns:
  - string: Stored value
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisTokenRepository) Take(context context.Context, token string) (string, error) {
	value, err := repository.client.GetDel(context, repository.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", repository.notFound()
		}
		return "", fmt.Errorf("redis_token_take_failed: %w", err)
	}
	return value, nil
}

/*
Delete removes the token from Redis.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Deletion failures
*/
func (repository *RedisTokenRepository) Delete(context context.Context, token string) error {
	if err := repository.client.Del(context, repository.key(token)).Err(); err != nil {
		return fmt.Errorf("redis_token_delete_failed: %w", err)
	}
	return nil
}
