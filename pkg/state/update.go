// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import (
	"context"
	"fmt"
	"time"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// MergeFunc receives the current value (nil when absent) and returns the
// value to write back.
type MergeFunc func(current []byte) ([]byte, error)

// TransactionallyUpdate runs read, merge and compare-and-set until the write
// wins. Conflicts are retried immediately with no attempt bound; the loop
// only stops early on a merge error, a store error or ctx cancellation.
func TransactionallyUpdate(ctx context.Context, store Store, key string, ttl time.Duration, merge MergeFunc) ([]byte, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry, err := store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}

		var current []byte
		var version int64
		if entry != nil {
			current, version = entry.Value, entry.Version
		}

		next, err := merge(current)
		if err != nil {
			return nil, err
		}

		ok, err := store.CompareAndSet(ctx, key, version, next, ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", key, err)
		}
		if ok {
			return next, nil
		}

		metrics.CASConflictsTotal.Inc()
		logrus.Debugf("lost compare-and-set race on %s (attempt %d), retrying", key, attempt)
	}
}
