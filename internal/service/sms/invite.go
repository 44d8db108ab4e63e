// internal/service/sms/invite.go
package sms

import (
	"context"
	"fmt"
	"time"

	"tafiti-service/internal/domain/event"

	"go.uber.org/zap"
)

// Sender is the outbound messaging dependency of the invite service.
type Sender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// InviteService turns recorded mobile-money transactions into SMS
// survey invitations.
type InviteService struct {
	sender      Sender
	surveyURL   string
	callTimeout time.Duration
	logger      *zap.Logger
}

func NewInviteService(sender Sender, surveyURL string, logger *zap.Logger) *InviteService {
	return &InviteService{
		sender:      sender,
		surveyURL:   surveyURL,
		callTimeout: 10 * time.Second,
		logger:      logger,
	}
}

// HandleBusinessTransactionReceived sends one invitation per unique
// transaction. Delivery is best effort; a failed send is logged and
// dropped rather than retried, the customer can still be reached on
// their next purchase.
func (s *InviteService) HandleBusinessTransactionReceived(ctx context.Context, evt event.Event) error {
	e, ok := evt.(event.BusinessTransactionReceived)
	if !ok {
		return fmt.Errorf("unexpected event type %T", evt)
	}

	name := e.FullName
	if name == "" {
		name = "customer"
	}
	message := fmt.Sprintf(
		"Hi %s, thank you for your purchase. We'd love your feedback: %s/s/%s",
		name, s.surveyURL, e.SurveyRef,
	)

	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	if err := s.sender.SendSMS(callCtx, e.MSISDN, message); err != nil {
		s.logger.Error("survey invitation send failed",
			zap.String("msisdn", e.MSISDN),
			zap.String("survey_ref", e.SurveyRef),
			zap.Error(err),
		)
		return nil
	}

	s.logger.Info("survey invitation sent",
		zap.String("msisdn", e.MSISDN),
		zap.String("survey_ref", e.SurveyRef),
	)
	return nil
}
