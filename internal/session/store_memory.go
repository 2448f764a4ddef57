// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process memory.
//
// It backs unit tests; the server always runs on [RedisStore].
// Records are stored encoded so callers can never alias stored pointers.
type MemoryStore struct {
	mu          sync.Mutex
	records     map[string][]byte
	subscribers map[string]map[chan State]struct{}
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:     make(map[string][]byte),
		subscribers: make(map[string]map[chan State]struct{}),
	}
}

// Get implements [Store].
func (store *MemoryStore) Get(_ context.Context, sessionID string) (State, error) {
	if sessionID == "" {
		return Default(), ErrEmptySessionID
	}

	store.mu.Lock()
	data, ok := store.records[sessionID]
	store.mu.Unlock()

	if !ok {
		return Default(), nil
	}
	return Decode(data)
}

// Set implements [Store].
func (store *MemoryStore) Set(_ context.Context, sessionID string, state State) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}

	state = state.Normalize()
	data, err := state.Encode()
	if err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if state.IsDefault() {
		delete(store.records, sessionID)
	} else {
		store.records[sessionID] = data
	}

	for ch := range store.subscribers[sessionID] {
		// Each subscriber gets its own decoded copy.
		copied, _ := Decode(data)
		publish(ch, copied)
	}
	return nil
}

// Subscribe implements [Store].
func (store *MemoryStore) Subscribe(ctx context.Context, sessionID string) (<-chan State, error) {
	if sessionID == "" {
		return nil, ErrEmptySessionID
	}

	ch := make(chan State, 1)

	store.mu.Lock()
	if store.subscribers[sessionID] == nil {
		store.subscribers[sessionID] = make(map[chan State]struct{})
	}
	store.subscribers[sessionID][ch] = struct{}{}
	store.mu.Unlock()

	go func() {
		<-ctx.Done()

		store.mu.Lock()
		delete(store.subscribers[sessionID], ch)
		if len(store.subscribers[sessionID]) == 0 {
			delete(store.subscribers, sessionID)
		}
		close(ch)
		store.mu.Unlock()
	}()

	return ch, nil
}

// Len reports how many non-default records are held.
func (store *MemoryStore) Len() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.records)
}
