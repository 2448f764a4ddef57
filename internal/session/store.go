// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
)

// ErrEmptySessionID is returned by stores when asked for a blank id.
var ErrEmptySessionID = errors.New("session: empty session id")

// Store is the persistence capability behind [Manager].
//
// Implementations must write the whole record as a single value so that
// readers never observe a partial update.
type Store interface {

	/*
		Get returns the record stored under sessionID.

		An absent record is not an error: it yields [Default].
	*/
	Get(ctx context.Context, sessionID string) (State, error)

	/*
		Set replaces the record stored under sessionID and notifies subscribers.

		Storing the default record may delete the key instead; a later Get
		returns [Default] either way.
	*/
	Set(ctx context.Context, sessionID string, state State) error

	// Subscribe delivers every record committed for sessionID until ctx ends.
	// The channel is closed when the subscription stops.
	Subscribe(ctx context.Context, sessionID string) (<-chan State, error)
}

// publish hands state to a subscriber without ever blocking the writer.
//
// Subscribers only care about the newest record, so a stale buffered value
// is replaced instead of queueing behind it.
func publish(ch chan State, state State) {
	select {
	case ch <- state:
		return
	default:
	}

	select {
	case <-ch:
	default:
	}

	select {
	case ch <- state:
	default:
	}
}
