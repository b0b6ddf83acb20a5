package handler

import (
	"context"
	"errors"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/aggregator"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/common"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/pipeline"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/spam"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/unlock"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// StageRouter runs Begin and Advance on a feature. Implemented by *pipeline.Manager.
type StageRouter interface {
	Begin(ctx context.Context, featureID string, req unlock.BeginRequest) (*unlock.Result, error)
	Advance(ctx context.Context, featureID string, req unlock.AdvanceRequest) (*unlock.Result, error)
}

// OfferResolver is implemented by *aggregator.Aggregator.
type OfferResolver interface {
	Resolve(ctx context.Context, req aggregator.Request) ([]offer.Offer, error)
}

// PromotionScheduler is implemented by *spam.Scheduler.
type PromotionScheduler interface {
	Schedule(ctx context.Context, userID string) (string, error)
}

// Unlock serves the unlock service.
type Unlock struct {
	router    StageRouter
	resolver  OfferResolver
	scheduler PromotionScheduler
}

// NewUnlock creates the handler. scheduler may be nil when promotions are disabled.
func NewUnlock(router StageRouter, resolver OfferResolver, scheduler PromotionScheduler) *Unlock {
	return &Unlock{
		router:    router,
		resolver:  resolver,
		scheduler: scheduler,
	}
}

type userFields struct {
	featureID string
	userID    string
	chatID    int64
	language  string
	premium   bool
}

func readUser(in *structpb.Struct, needFeature bool) (userFields, error) {
	u := userFields{
		featureID: stringField(in, "feature_id"),
		userID:    stringField(in, "user_id"),
		language:  stringField(in, "language"),
		premium:   boolField(in, "premium"),
	}

	if u.userID == "" {
		return u, status.Error(codes.InvalidArgument, "user_id is required")
	}
	if needFeature && u.featureID == "" {
		return u, status.Error(codes.InvalidArgument, "feature_id is required")
	}

	chatID, err := intField(in, "chat_id")
	if err != nil {
		return u, status.Error(codes.InvalidArgument, err.Error())
	}
	u.chatID = chatID

	return u, nil
}

// Begin starts or re-renders an attempt.
func (h *Unlock) Begin(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "Unlock.Begin")
	defer scope.Finish()

	u, err := readUser(in, true)
	if err != nil {
		return nil, err
	}

	variant := unlock.Variant(stringField(in, "variant"))
	if variant != "" && !variant.Valid() {
		return nil, status.Errorf(codes.InvalidArgument, "unknown variant %q", variant)
	}

	scope.TagUser(u.userID, u.featureID)

	res, err := h.router.Begin(scope.Ctx, u.featureID, unlock.BeginRequest{
		UserID:   u.userID,
		ChatID:   u.chatID,
		Language: u.language,
		Premium:  u.premium,
		Variant:  variant,
	})
	if err != nil {
		return nil, toStatus(scope, err)
	}

	scope.Log.Infof("begin: %s", res.Outcome)
	return h.reply(scope, res)
}

// Advance checks the pending attempt.
func (h *Unlock) Advance(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "Unlock.Advance")
	defer scope.Finish()

	u, err := readUser(in, true)
	if err != nil {
		return nil, err
	}

	scope.TagUser(u.userID, u.featureID)

	res, err := h.router.Advance(scope.Ctx, u.featureID, unlock.AdvanceRequest{
		UserID:   u.userID,
		ChatID:   u.chatID,
		Language: u.language,
		Premium:  u.premium,
	})
	if err != nil {
		return nil, toStatus(scope, err)
	}

	scope.Log.Infof("advance: %s", res.Outcome)
	return h.reply(scope, res)
}

// Resolve returns the offers a user still has to clear, outside of any feature.
func (h *Unlock) Resolve(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "Unlock.Resolve")
	defer scope.Finish()

	u, err := readUser(in, false)
	if err != nil {
		return nil, err
	}

	budget, err := intField(in, "budget")
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	sources := offer.AllSources
	names := stringsField(in, "sources")
	if len(names) > 0 {
		sources = make([]offer.Source, 0, len(names))
		for _, name := range names {
			sources = append(sources, offer.Source(name))
		}
	}

	scope.TagUser(u.userID, "")
	scope.SetAttributes("budget", budget)
	scope.SetAttributes("sources", names)

	offers, err := h.resolver.Resolve(scope.Ctx, aggregator.Request{
		UserID:   u.userID,
		ChatID:   u.chatID,
		Language: u.language,
		Premium:  u.premium,
		Budget:   int(budget),
		Sources:  sources,
	})
	if err != nil {
		return nil, toStatus(scope, err)
	}

	out, err := structpb.NewStruct(map[string]interface{}{"offers": offerValues(offers)})
	if err != nil {
		return nil, toStatus(scope, err)
	}
	return out, nil
}

// SchedulePromotion starts the promotion sequence of a user.
func (h *Unlock) SchedulePromotion(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	scope := common.GetScopeFromContext(ctx, "Unlock.SchedulePromotion")
	defer scope.Finish()

	if h.scheduler == nil {
		return nil, status.Error(codes.Unavailable, "promotions are disabled")
	}

	userID := stringField(in, "user_id")
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id is required")
	}

	scope.TagUser(userID, "")

	runID, err := h.scheduler.Schedule(scope.Ctx, userID)
	if err != nil {
		return nil, toStatus(scope, err)
	}

	out, err := structpb.NewStruct(map[string]interface{}{"run_id": runID})
	if err != nil {
		return nil, toStatus(scope, err)
	}
	return out, nil
}

func (h *Unlock) reply(scope *common.Scope, res *unlock.Result) (*structpb.Struct, error) {
	scope.SetAttributes("outcome", string(res.Outcome))
	out, err := resultStruct(res)
	if err != nil {
		return nil, toStatus(scope, err)
	}
	return out, nil
}

func toStatus(scope *common.Scope, err error) error {
	scope.TraceError(err)

	code := codes.Internal
	switch {
	case errors.Is(err, pipeline.ErrUnknownFeature):
		code = codes.NotFound
	case errors.Is(err, aggregator.ErrUnknownSource):
		code = codes.InvalidArgument
	case errors.Is(err, spam.ErrClosed):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	}

	if code == codes.Internal {
		scope.Log.WithFields(logrus.Fields{"error": err}).Error("request failed")
	}
	return status.Error(code, err.Error())
}
