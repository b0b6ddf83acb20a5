// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package spam

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultLockIdleTTL = 10 * time.Minute
	DefaultMaxLocks    = 10000
)

// LockConfig bounds the lock registry.
type LockConfig struct {
	// IdleTTL evicts locks nobody held or waited for during this long.
	IdleTTL time.Duration

	// MaxEntries caps the registry. The oldest idle lock is evicted to make
	// room; when every lock is in use the registry grows past the cap.
	MaxEntries int
}

type lockEntry struct {
	sem      chan struct{}
	refs     int
	lastUsed time.Time
}

// LockRegistry hands out one mutex per key. Idle entries are evicted so the
// map does not grow with every user ever seen.
type LockRegistry struct {
	cfg LockConfig

	mu      sync.Mutex
	entries map[string]*lockEntry
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewLockRegistry creates a registry and starts its janitor.
func NewLockRegistry(cfg LockConfig) *LockRegistry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultLockIdleTTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxLocks
	}

	r := &LockRegistry{
		cfg:     cfg,
		entries: make(map[string]*lockEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go r.janitor()
	return r
}

// Lock blocks until the key's mutex is held or ctx is done. The returned
// function releases it and is safe to call more than once.
func (r *LockRegistry) Lock(ctx context.Context, key string) (func(), error) {
	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		if len(r.entries) >= r.cfg.MaxEntries {
			r.evictOldestLocked()
		}
		e = &lockEntry{sem: make(chan struct{}, 1)}
		r.entries[key] = e
	}
	e.refs++
	e.lastUsed = r.now()
	r.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		r.release(e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			r.release(e)
		})
	}, nil
}

func (r *LockRegistry) release(e *lockEntry) {
	r.mu.Lock()
	e.refs--
	e.lastUsed = r.now()
	r.mu.Unlock()
}

// evictOldestLocked drops the idle entry unused for the longest time.
func (r *LockRegistry) evictOldestLocked() {
	var (
		oldestKey string
		oldest    *lockEntry
	)
	for key, e := range r.entries {
		if e.refs > 0 {
			continue
		}
		if oldest == nil || e.lastUsed.Before(oldest.lastUsed) {
			oldestKey, oldest = key, e
		}
	}

	if oldest == nil {
		logrus.Warnf("lock registry over capacity (%d), every lock is in use", r.cfg.MaxEntries)
		return
	}
	delete(r.entries, oldestKey)
}

// evictIdle drops entries idle for longer than IdleTTL and returns how many
// were removed.
func (r *LockRegistry) evictIdle() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.cfg.IdleTTL)
	evicted := 0
	for key, e := range r.entries {
		if e.refs == 0 && e.lastUsed.Before(cutoff) {
			delete(r.entries, key)
			evicted++
		}
	}
	return evicted
}

func (r *LockRegistry) janitor() {
	defer close(r.done)

	interval := r.cfg.IdleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.evictIdle(); n > 0 {
				logrus.Debugf("evicted %d idle spam locks", n)
			}
		case <-r.stop:
			return
		}
	}
}

// Len returns the number of tracked keys.
func (r *LockRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close stops the janitor.
func (r *LockRegistry) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}
