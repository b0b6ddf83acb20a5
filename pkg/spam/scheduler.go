// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package spam re-sends promotions to inactive users. At most one sequence
// runs per user; scheduling a new one cancels the previous.
package spam

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Run results reported to metrics.
const (
	ResultCompleted = "completed"
	ResultAborted   = "aborted"
	ResultCancelled = "cancelled"
	ResultEmpty     = "empty"
	ResultError     = "error"
)

// ErrClosed is returned when scheduling on a closed scheduler.
var ErrClosed = errors.New("scheduler is closed")

// Promotion is one message of a sequence.
type Promotion struct {
	ID         string
	FromChatID int64
	MessageID  int
}

// PromotionSource lists the promotions a user should receive.
type PromotionSource interface {
	Promotions(ctx context.Context, userID string) ([]Promotion, error)
}

// Sender delivers one promotion.
type Sender interface {
	SendPromotion(ctx context.Context, userID string, p Promotion) error
}

// Config paces a sequence.
type Config struct {
	RepeatPerPromotion int
	RepeatInterval     time.Duration
	BetweenInterval    time.Duration

	// MaxRetries is the number of send attempts per message.
	MaxRetries    int
	RetryInterval time.Duration

	Locks LockConfig
}

func (c *Config) applyDefaults() {
	if c.RepeatPerPromotion <= 0 {
		c.RepeatPerPromotion = 1
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
}

type run struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler starts and cancels promotion sequences.
type Scheduler struct {
	cfg    Config
	source PromotionSource
	sender Sender
	locks  *LockRegistry

	root   context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	runs   map[string]*run
	closed bool
}

// NewScheduler creates a scheduler. Close it to stop in-flight runs.
func NewScheduler(cfg Config, source PromotionSource, sender Sender) *Scheduler {
	cfg.applyDefaults()
	root, stop := context.WithCancel(context.Background())

	return &Scheduler{
		cfg:    cfg,
		source: source,
		sender: sender,
		locks:  NewLockRegistry(cfg.Locks),
		root:   root,
		stop:   stop,
		runs:   make(map[string]*run),
	}
}

// Schedule starts a sequence for the user in the background and cancels the
// previous one. It returns the run ID. ctx only contributes its values; the
// run outlives the caller.
func (s *Scheduler) Schedule(ctx context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrClosed
	}

	if prev, ok := s.runs[userID]; ok {
		logrus.Infof("cancelling spam run %s for user %s", prev.id, userID)
		prev.cancel()
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stopAfter := context.AfterFunc(s.root, cancel)

	r := &run{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.runs[userID] = r

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer stopAfter()
		defer cancel()
		s.execute(runCtx, r, userID)
	}()

	logrus.Infof("scheduled spam run %s for user %s", r.id, userID)
	return r.id, nil
}

func (s *Scheduler) execute(ctx context.Context, r *run, userID string) {
	defer close(r.done)
	defer s.forget(userID, r)

	result := s.sequence(ctx, userID)
	metrics.SpamRunsTotal.WithLabelValues(result).Inc()

	logrus.WithFields(logrus.Fields{
		"run_id":  r.id,
		"user_id": userID,
		"result":  result,
	}).Info("spam run finished")
}

func (s *Scheduler) sequence(ctx context.Context, userID string) string {
	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return ResultCancelled
	}
	defer unlock()

	promotions, err := s.source.Promotions(ctx, userID)
	if err != nil {
		if ctx.Err() != nil {
			return ResultCancelled
		}
		logrus.Errorf("failed to load promotions for user %s: %v", userID, err)
		return ResultError
	}
	if len(promotions) == 0 {
		return ResultEmpty
	}

	for i, p := range promotions {
		for show := 1; show <= s.cfg.RepeatPerPromotion; show++ {
			if err := s.send(ctx, userID, p); err != nil {
				if ctx.Err() != nil {
					return ResultCancelled
				}
				logrus.Warnf("failed to send promotion %s to user %s on show %d/%d after %d attempts: %v",
					p.ID, userID, show, s.cfg.RepeatPerPromotion, s.cfg.MaxRetries, err)
				return ResultAborted
			}

			logrus.Debugf("promotion %s sent to user %s (show %d/%d, promotion %d/%d)",
				p.ID, userID, show, s.cfg.RepeatPerPromotion, i+1, len(promotions))

			if show < s.cfg.RepeatPerPromotion {
				if err := sleep(ctx, s.cfg.RepeatInterval); err != nil {
					return ResultCancelled
				}
			}
		}

		if i < len(promotions)-1 {
			if err := sleep(ctx, s.cfg.BetweenInterval); err != nil {
				return ResultCancelled
			}
		}
	}

	return ResultCompleted
}

// send tries one message up to MaxRetries times.
func (s *Scheduler) send(ctx context.Context, userID string, p Promotion) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.cfg.RetryInterval), uint64(s.cfg.MaxRetries-1)),
		ctx,
	)

	return backoff.Retry(func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		return s.sender.SendPromotion(ctx, userID, p)
	}, policy)
}

func (s *Scheduler) forget(userID string, r *run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runs[userID] == r {
		delete(s.runs, userID)
	}
}

// Cancel stops the user's in-flight run, if any.
func (s *Scheduler) Cancel(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[userID]
	if ok {
		r.cancel()
	}
	return ok
}

// Wait blocks until the user's current run has finished.
func (s *Scheduler) Wait(userID string) {
	s.mu.Lock()
	r, ok := s.runs[userID]
	s.mu.Unlock()
	if ok {
		<-r.done
	}
}

// Running reports whether the user has a run in flight.
func (s *Scheduler) Running(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.runs[userID]
	return ok
}

// Close cancels every run and waits for them to exit.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.stop()
	s.wg.Wait()
	s.locks.Close()

	logrus.Info("spam scheduler stopped")
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("interrupted: %w", ctx.Err())
	}
}
