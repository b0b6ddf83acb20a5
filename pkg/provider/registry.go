// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package provider

import (
	"fmt"
	"sync"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
)

// Registry manages the configured adapters, one per source.
// It provides thread-safe registration and lookup.
type Registry struct {
	adapters map[offer.Source]Adapter
	mu       sync.RWMutex
}

// NewRegistry creates a new empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[offer.Source]Adapter),
	}
}

// Register adds an adapter to the registry.
// Returns an error if the source is unknown or already registered.
func (r *Registry) Register(adapter Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	source := adapter.Source()
	if !source.Valid() {
		return fmt.Errorf("unknown provider source: %s", source)
	}
	if _, exists := r.adapters[source]; exists {
		return fmt.Errorf("provider %s already registered", source)
	}

	r.adapters[source] = adapter
	return nil
}

// Get returns the adapter for source, or nil.
func (r *Registry) Get(source offer.Source) Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.adapters[source]
}

// Count returns the number of registered adapters.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.adapters)
}
