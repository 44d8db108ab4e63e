// internal/service/billing/billing_service.go
package billing

import (
	"context"
	"strings"
	"time"

	"tafiti-service/internal/gateway"
	xerrors "tafiti-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// SubscriptionGateway is the slice of the payment gateway used for
// tenant plan subscriptions.
type SubscriptionGateway interface {
	CreateCustomer(ctx context.Context, email, firstName, lastName string) (string, error)
	CreateSubscription(ctx context.Context, customerCode, planCode string) (*gateway.Subscription, error)
	DisableSubscription(ctx context.Context, subscriptionCode, emailToken string) error
}

type SubscribeInput struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	PlanCode  string `json:"plan_code" binding:"required"`
}

type SubscribeResult struct {
	CustomerCode     string `json:"customer_code"`
	SubscriptionCode string `json:"subscription_code"`
	EmailToken       string `json:"email_token"`
}

// BillingService is a thin passthrough to the gateway's subscription
// API. Subscription state lives at the gateway; we keep none locally.
type BillingService struct {
	gw          SubscriptionGateway
	callTimeout time.Duration
	logger      *zap.Logger
}

func NewBillingService(gw SubscriptionGateway, logger *zap.Logger) *BillingService {
	return &BillingService{
		gw:          gw,
		callTimeout: 15 * time.Second,
		logger:      logger,
	}
}

// Subscribe registers the tenant contact as a gateway customer and
// opens a subscription on the requested plan.
func (s *BillingService) Subscribe(ctx context.Context, tenantID int64, in *SubscribeInput) (*SubscribeResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	customerCode, err := s.gw.CreateCustomer(callCtx, strings.ToLower(in.Email), in.FirstName, in.LastName)
	if err != nil {
		s.logger.Error("customer creation failed",
			zap.Int64("tenant_id", tenantID),
			zap.Error(err),
		)
		return nil, xerrors.Wrap(err, "could not create billing customer")
	}

	sub, err := s.gw.CreateSubscription(callCtx, customerCode, in.PlanCode)
	if err != nil {
		s.logger.Error("subscription creation failed",
			zap.Int64("tenant_id", tenantID),
			zap.String("customer_code", customerCode),
			zap.Error(err),
		)
		return nil, xerrors.Wrap(err, "could not create subscription")
	}

	s.logger.Info("subscription created",
		zap.Int64("tenant_id", tenantID),
		zap.String("subscription_code", sub.SubscriptionCode),
		zap.String("plan_code", in.PlanCode),
	)
	return &SubscribeResult{
		CustomerCode:     customerCode,
		SubscriptionCode: sub.SubscriptionCode,
		EmailToken:       sub.EmailToken,
	}, nil
}

func (s *BillingService) Unsubscribe(ctx context.Context, tenantID int64, subscriptionCode, emailToken string) error {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	if err := s.gw.DisableSubscription(callCtx, subscriptionCode, emailToken); err != nil {
		s.logger.Error("subscription disable failed",
			zap.Int64("tenant_id", tenantID),
			zap.String("subscription_code", subscriptionCode),
			zap.Error(err),
		)
		return xerrors.Wrap(err, "could not disable subscription")
	}

	s.logger.Info("subscription disabled",
		zap.Int64("tenant_id", tenantID),
		zap.String("subscription_code", subscriptionCode),
	)
	return nil
}
