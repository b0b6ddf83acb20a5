package service

import (
	"context"
	"fmt"

	"github.com/AccelByte/accelbyte-go-sdk/platform-sdk/pkg/platformclient/fulfillment"
	"github.com/AccelByte/accelbyte-go-sdk/platform-sdk/pkg/platformclientmodels"
	"github.com/AccelByte/accelbyte-go-sdk/services-api/pkg/service/platform"
	"github.com/AccelByte/accelbyte-go-sdk/services-api/pkg/service/social"
	"github.com/AccelByte/accelbyte-go-sdk/social-sdk/pkg/socialclient/user_statistic"
	"github.com/AccelByte/accelbyte-go-sdk/social-sdk/pkg/socialclientmodels"
	"github.com/sirupsen/logrus"
)

const DefaultCompletionStatCode = "sponsor-offers-completed"

type RewardService struct {
	fulfillmentClient *platform.FulfillmentService
	cfg               RewardServiceConfig
}

type RewardServiceConfig struct {
	Namespace string
}

func NewRewardService(
	fulfillmentClient *platform.FulfillmentService,
	cfg RewardServiceConfig,
) *RewardService {
	return &RewardService{
		fulfillmentClient: fulfillmentClient,
		cfg:               cfg,
	}
}

func (s *RewardService) GrantReward(
	ctx context.Context,
	userID string,
	itemID string,
	quantity int,
) error {
	qnty := int32(quantity)

	input := &fulfillment.FulfillItemParams{
		Namespace: s.cfg.Namespace,
		UserID:    userID,
		Body: &platformclientmodels.FulfillmentRequest{
			ItemID:   itemID,
			Quantity: &qnty,
			Source:   platformclientmodels.FulfillmentRequestSourceREWARD,
		},
	}

	fulfillmentResponse, err := s.fulfillmentClient.FulfillItemShort(input)
	if err != nil {
		return fmt.Errorf("failed to fulfill item %s for user %s: %w", itemID, userID, err)
	}

	if fulfillmentResponse == nil {
		return fmt.Errorf("could not grant item to user: empty response")
	}

	logrus.Infof("fulfilled item %s (quantity: %d) for user %s", itemID, quantity, userID)
	return nil
}

type StatisticService struct {
	statisticsService *social.UserStatisticService
	cfg               StatisticServiceConfig
}

type StatisticServiceConfig struct {
	Namespace string
	StatCode  string
}

func NewStatisticService(
	statisticsService *social.UserStatisticService,
	cfg StatisticServiceConfig,
) *StatisticService {
	if cfg.StatCode == "" {
		cfg.StatCode = DefaultCompletionStatCode
	}
	return &StatisticService{
		statisticsService: statisticsService,
		cfg:               cfg,
	}
}

// OffersCompleted increments the offers-completed statistic of the user.
func (s *StatisticService) OffersCompleted(ctx context.Context, userID string) error {
	input := &user_statistic.IncUserStatItemValueParams{
		Namespace: s.cfg.Namespace,
		UserID:    userID,
		StatCode:  s.cfg.StatCode,
		Body: &socialclientmodels.StatItemInc{
			Inc: 1,
		},
	}

	_, err := s.statisticsService.IncUserStatItemValueShort(input)
	if err != nil {
		return fmt.Errorf("failed to increment user %s statistic %s: %w", userID, s.cfg.StatCode, err)
	}

	return nil
}
