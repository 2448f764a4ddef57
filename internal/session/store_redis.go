// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/sessiongate/internal/platform/constants"
)

// RedisStore implements [Store] using Redis.
//
// Records live at gate:session:<sid> as JSON with a sliding TTL: every read
// pushes the expiry forward. Commits are announced on gate:session:events:<sid>
// so that every open tab of the same browser sees logout immediately.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a store whose records expire after ttl of inactivity.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func recordKey(sessionID string) string {
	return constants.RedisPrefixSession + sessionID
}

func eventChannel(sessionID string) string {
	return constants.RedisPrefixSessionEvents + sessionID
}

/*
Get retrieves and decodes the record, refreshing its TTL.

Returns:
  - State: The stored record, or [Default] when absent
  - error: Connectivity or decode failures (state is [Default] in that case)
*/
func (store *RedisStore) Get(ctx context.Context, sessionID string) (State, error) {
	if sessionID == "" {
		return Default(), ErrEmptySessionID
	}

	data, err := store.client.GetEx(ctx, recordKey(sessionID), store.ttl).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("redis_session_get_failed: %w", err)
	}

	return Decode(data)
}

/*
Set writes the record and publishes it in one MULTI/EXEC transaction.

The default record deletes the key rather than storing an all-false document.
*/
func (store *RedisStore) Set(ctx context.Context, sessionID string, state State) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	state = state.Normalize()
	data, err := state.Encode()
	if err != nil {
		return err
	}

	_, err = store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if state.IsDefault() {
			pipe.Del(ctx, recordKey(sessionID))
		} else {
			pipe.Set(ctx, recordKey(sessionID), data, store.ttl)
		}
		pipe.Publish(ctx, eventChannel(sessionID), data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_session_set_failed: %w", err)
	}

	return nil
}

// Subscribe implements [Store] on top of Redis pub/sub.
func (store *RedisStore) Subscribe(ctx context.Context, sessionID string) (<-chan State, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	pubsub := store.client.Subscribe(ctx, eventChannel(sessionID))

	// Wait for the subscription confirmation so no commit is missed after return.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis_session_subscribe_failed: %w", err)
	}

	out := make(chan State, 1)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case message, ok := <-messages:
				if !ok {
					return
				}
				state, err := Decode([]byte(message.Payload))
				if err != nil {
					continue
				}
				publish(out, state)
			}
		}
	}()

	return out, nil
}

// TTL reports the remaining lifetime of a record, mainly for operators.
func (store *RedisStore) TTL(ctx context.Context, sessionID string) (time.Duration, error) {
	ttl, err := store.client.TTL(ctx, recordKey(sessionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis_session_ttl_failed: %w", err)
	}
	return ttl, nil
}
