// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyKey is returned when a store operation receives an empty key.
var ErrEmptyKey = errors.New("state: empty key")

// Entry is a stored value together with the version it was written at.
// Versions start at 1; version 0 means the key does not exist.
type Entry struct {
	Value   []byte
	Version int64
}

// Store is a shared key-value cache with per-key expiry and optimistic
// concurrency. A ttl <= 0 means the key does not expire.
type Store interface {
	// Get returns nil, nil when the key is missing or expired.
	Get(ctx context.Context, key string) (*Entry, error)

	// Set writes value unconditionally and bumps the version.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// CompareAndSet writes value only if the stored version equals
	// expectedVersion (0: key must be absent). It never retries.
	CompareAndSet(ctx context.Context, key string, expectedVersion int64, value []byte, ttl time.Duration) (bool, error)

	// Increment adds one to a counter key and refreshes its ttl.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Count reads a counter key, 0 when missing.
	Count(ctx context.Context, key string) (int64, error)

	Delete(ctx context.Context, key string) error
}
