// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

//go:build integration
// +build integration

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/common"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/state"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// This is a manual integration test for the Redis state store
// Run this with: go run -tags integration test_redis_integration.go
// Requires: Redis running on REDIS_HOST:REDIS_PORT (default localhost:6379)

func main() {
	logrus.SetLevel(logrus.DebugLevel)
	logrus.Infof("Starting Redis integration test...")

	ctx := context.Background()

	client := redis.NewClient(&redis.Options{
		Addr:     common.GetEnv("REDIS_HOST", "localhost") + ":" + common.GetEnv("REDIS_PORT", "6379"),
		Password: common.GetEnv("REDIS_PASSWORD", ""),
	})
	defer client.Close()

	if err := state.NewHealthChecker(client).Check(ctx); err != nil {
		logrus.Fatalf("Redis is not reachable: %v", err)
	}

	store := state.NewRedisStore(client, state.RedisStoreConfig{KeyPrefix: "sponsor_unlock_it:"})
	key := fmt.Sprintf("pass:test-user-%d", time.Now().Unix())
	defer store.Delete(ctx, key)
	logrus.Infof("Testing with key: %s", key)

	// Test 1: Missing key
	logrus.Infof("\n=== Test 1: Get missing key ===")
	entry, err := store.Get(ctx, key)
	if err != nil || entry != nil {
		logrus.Fatalf("expected missing key, got %+v (err: %v)", entry, err)
	}
	logrus.Infof("✓ Missing key returns nil")

	// Test 2: Create with CAS
	logrus.Infof("\n=== Test 2: CompareAndSet on absent key ===")
	ok, err := store.CompareAndSet(ctx, key, 0, []byte(`{"entries":{}}`), time.Minute)
	if err != nil || !ok {
		logrus.Fatalf("CompareAndSet failed: ok=%v err=%v", ok, err)
	}
	entry, _ = store.Get(ctx, key)
	logrus.Infof("✓ Created at version %d", entry.Version)

	// Test 3: Stale CAS is rejected
	logrus.Infof("\n=== Test 3: Stale CompareAndSet ===")
	ok, err = store.CompareAndSet(ctx, key, 0, []byte(`{}`), time.Minute)
	if err != nil || ok {
		logrus.Fatalf("stale CompareAndSet should lose: ok=%v err=%v", ok, err)
	}
	logrus.Infof("✓ Stale write rejected")

	// Test 4: Transactional update
	logrus.Infof("\n=== Test 4: TransactionallyUpdate ===")
	updated, err := state.TransactionallyUpdate(ctx, store, key, time.Minute, func(current []byte) ([]byte, error) {
		return []byte(`{"entries":{},"completed":true}`), nil
	})
	if err != nil {
		logrus.Fatalf("TransactionallyUpdate failed: %v", err)
	}
	logrus.Infof("✓ Updated value: %s", updated)

	// Test 5: Daily counter
	logrus.Infof("\n=== Test 5: Daily counter ===")
	counter := state.NewDailyCounter(store, time.UTC)
	userID := fmt.Sprintf("test-user-%d", time.Now().UnixNano())
	for i := 0; i < 2; i++ {
		if _, err := counter.Increment(ctx, userID, "dart"); err != nil {
			logrus.Fatalf("Increment failed: %v", err)
		}
	}
	n, err := counter.Count(ctx, userID, "dart")
	if err != nil || n != 2 {
		logrus.Fatalf("expected count 2, got %d (err: %v)", n, err)
	}
	logrus.Infof("✓ Counted %d fallbacks today", n)

	logrus.Infof("\n=== All integration tests passed ===")
}
