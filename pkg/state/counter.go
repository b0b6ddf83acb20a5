// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package state

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const dailyCounterKeyPrefix = "daily:"

// NextMidnight returns the start of the calendar day after now, in now's location.
func NextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

// DailyCounter counts events per (user, feature, calendar day). Keys expire
// at the next local midnight so a new day always starts at zero.
type DailyCounter struct {
	store    Store
	location *time.Location
	now      func() time.Time
}

// NewDailyCounter creates a counter that uses loc for day boundaries.
// A nil loc means time.Local.
func NewDailyCounter(store Store, loc *time.Location) *DailyCounter {
	if loc == nil {
		loc = time.Local
	}
	return &DailyCounter{
		store:    store,
		location: loc,
		now:      time.Now,
	}
}

func (c *DailyCounter) key(userID, featureID string, now time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", dailyCounterKeyPrefix, featureID, userID, now.Format("20060102"))
}

// Count returns today's count.
func (c *DailyCounter) Count(ctx context.Context, userID, featureID string) (int64, error) {
	now := c.now().In(c.location)
	return c.store.Count(ctx, c.key(userID, featureID, now))
}

// Increment adds one to today's count and returns the new value.
func (c *DailyCounter) Increment(ctx context.Context, userID, featureID string) (int64, error) {
	now := c.now().In(c.location)
	ttl := NextMidnight(now).Sub(now)

	n, err := c.store.Increment(ctx, c.key(userID, featureID, now), ttl)
	if err != nil {
		return 0, err
	}

	logrus.Debugf("daily counter for user %s feature %s is now %d (resets in %v)", userID, featureID, n, ttl)
	return n, nil
}
