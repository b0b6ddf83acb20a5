package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const retryCreditKeyPrefix = "sponsor_unlock:retry_credits:"

// RetryCreditService stores retry credits as Redis counters.
type RetryCreditService struct {
	client redis.UniversalClient
	cfg    RetryCreditServiceConfig
}

type RetryCreditServiceConfig struct {
	// TTL expires unused credits, 0 keeps them forever.
	TTL time.Duration
}

func NewRetryCreditService(
	client redis.UniversalClient,
	cfg RetryCreditServiceConfig,
) *RetryCreditService {
	return &RetryCreditService{
		client: client,
		cfg:    cfg,
	}
}

func retryCreditKey(userID, featureID string) string {
	return retryCreditKeyPrefix + featureID + ":" + userID
}

// AddCredits adds n credits and returns the new balance.
func (s *RetryCreditService) AddCredits(ctx context.Context, userID, featureID string, n int) (int64, error) {
	key := retryCreditKey(userID, featureID)

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.IncrBy(ctx, key, int64(n))
		if s.cfg.TTL > 0 {
			pipe.Expire(ctx, key, s.cfg.TTL)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add retry credits for %s: %w", userID, err)
	}

	return incr.Val(), nil
}

// Credits returns the current balance.
func (s *RetryCreditService) Credits(ctx context.Context, userID, featureID string) (int64, error) {
	n, err := s.client.Get(ctx, retryCreditKey(userID, featureID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read retry credits for %s: %w", userID, err)
	}
	return n, nil
}
