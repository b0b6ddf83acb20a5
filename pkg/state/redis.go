// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultKeyPrefix is the prefix for all keys written by RedisStore
	DefaultKeyPrefix = "sponsor_unlock:"

	fieldVersion = "ver"
	fieldData    = "data"
)

// Values are kept in a hash {ver, data}. Both scripts bump ver and apply the
// ttl in the same call as the write.
var (
	setScript = redis.NewScript(`
local ver = redis.call('HINCRBY', KEYS[1], 'ver', 1)
redis.call('HSET', KEYS[1], 'data', ARGV[1])
if tonumber(ARGV[2]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
else
  redis.call('PERSIST', KEYS[1])
end
return ver
`)

	casScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'ver')
local expected = tonumber(ARGV[1])
if expected == 0 then
  if cur then return 0 end
else
  if (not cur) or tonumber(cur) ~= expected then return 0 end
end
local ver = redis.call('HINCRBY', KEYS[1], 'ver', 1)
redis.call('HSET', KEYS[1], 'data', ARGV[2])
if tonumber(ARGV[3]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[3])
else
  redis.call('PERSIST', KEYS[1])
end
return ver
`)
)

// RedisStore implements Store on a single Redis instance.
type RedisStore struct {
	client *redis.Client
	cfg    RedisStoreConfig
}

type RedisStoreConfig struct {
	KeyPrefix string
}

// NewRedisStore creates a new Redis-backed store.
func NewRedisStore(client *redis.Client, cfg RedisStoreConfig) *RedisStore {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultKeyPrefix
	}
	return &RedisStore{
		client: client,
		cfg:    cfg,
	}
}

func (r *RedisStore) makeKey(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	return r.cfg.KeyPrefix + key, nil
}

// Get returns the entry stored under key.
func (r *RedisStore) Get(ctx context.Context, key string) (*Entry, error) {
	k, err := r.makeKey(key)
	if err != nil {
		return nil, err
	}

	vals, err := r.client.HMGet(ctx, k, fieldVersion, fieldData).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if len(vals) != 2 || vals[0] == nil {
		return nil, nil
	}

	rawVersion, ok := vals[0].(string)
	if !ok {
		return nil, fmt.Errorf("failed to get %s: unexpected version type %T", key, vals[0])
	}
	version, err := strconv.ParseInt(rawVersion, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse version of %s: %w", key, err)
	}

	entry := &Entry{Version: version}
	if data, ok := vals[1].(string); ok {
		entry.Value = []byte(data)
	}

	return entry, nil
}

// Set writes value under key regardless of the current version.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	k, err := r.makeKey(key)
	if err != nil {
		return err
	}

	if err := setScript.Run(ctx, r.client, []string{k}, value, ttl.Milliseconds()).Err(); err != nil {
		logrus.Errorf("failed to set %s: %v", key, err)
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	return nil
}

// CompareAndSet writes value only when the stored version matches.
func (r *RedisStore) CompareAndSet(ctx context.Context, key string, expectedVersion int64, value []byte, ttl time.Duration) (bool, error) {
	k, err := r.makeKey(key)
	if err != nil {
		return false, err
	}

	ver, err := casScript.Run(ctx, r.client, []string{k}, expectedVersion, value, ttl.Milliseconds()).Int64()
	if err != nil {
		logrus.Errorf("compare-and-set failed for %s: %v", key, err)
		return false, fmt.Errorf("failed to compare-and-set %s: %w", key, err)
	}

	if ver == 0 {
		logrus.Debugf("compare-and-set rejected for %s (expected version %d)", key, expectedVersion)
		return false, nil
	}

	return true, nil
}

// Increment bumps a counter and resets its expiry in one transaction.
func (r *RedisStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	k, err := r.makeKey(key)
	if err != nil {
		return 0, err
	}

	var incr *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		if ttl > 0 {
			pipe.PExpire(ctx, k, ttl)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}

	return incr.Val(), nil
}

// Count reads a counter written by Increment.
func (r *RedisStore) Count(ctx context.Context, key string) (int64, error) {
	k, err := r.makeKey(key)
	if err != nil {
		return 0, err
	}

	n, err := r.client.Get(ctx, k).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read counter %s: %w", key, err)
	}

	return n, nil
}

// Delete removes key.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	k, err := r.makeKey(key)
	if err != nil {
		return err
	}

	if err := r.client.Del(ctx, k).Err(); err != nil {
		logrus.Errorf("failed to delete %s: %v", key, err)
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	return nil
}
