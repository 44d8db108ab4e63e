// internal/service/payment/webhook_service.go
package payment

import (
	"context"
	"encoding/json"

	"tafiti-service/internal/domain/event"
	paymentdom "tafiti-service/internal/domain/payment"
	"tafiti-service/internal/eventbus"
	"tafiti-service/internal/metrics"
	xerrors "tafiti-service/internal/pkg/errors"
	"tafiti-service/internal/repository"

	"go.uber.org/zap"
)

// WebhookService authenticates and applies inbound gateway callbacks.
type WebhookService struct {
	attempts    repository.PaymentAttempts
	settlements repository.Settlements
	gateway     Gateway
	bus         *eventbus.Bus
	logger      *zap.Logger
}

func NewWebhookService(
	attempts repository.PaymentAttempts,
	settlements repository.Settlements,
	gw Gateway,
	bus *eventbus.Bus,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		attempts:    attempts,
		settlements: settlements,
		gateway:     gw,
		bus:         bus,
		logger:      logger,
	}
}

// Handle verifies the signature and dispatches the event. Everything
// after a valid signature is acknowledged to the gateway; internal
// failures are surfaced to the caller for logging only.
func (s *WebhookService) Handle(ctx context.Context, payload []byte, signature string) error {
	if !s.gateway.VerifySignature(payload, signature) {
		metrics.WebhooksTotal.WithLabelValues("rejected").Inc()
		return xerrors.ErrInvalidSignature
	}

	var evt paymentdom.GatewayWebhookEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		// Authenticated but malformed. Ack so the gateway stops retrying.
		s.logger.Warn("unparseable gateway webhook", zap.Error(err))
		metrics.WebhooksTotal.WithLabelValues("ignored").Inc()
		return nil
	}

	switch evt.Event {
	case paymentdom.WebhookEventChargeSuccess:
		return s.ApplySuccess(ctx, evt.Data.Reference, evt.Data.GatewayID, float64(evt.Data.Amount)/100, evt.Data.Currency)

	case paymentdom.WebhookEventChargeFailed:
		return s.applyFailure(ctx, evt.Data.Reference, evt.Data.Message)

	default:
		// Unknown event types are acknowledged and ignored so new gateway
		// features don't break us.
		metrics.WebhooksTotal.WithLabelValues("ignored").Inc()
		return nil
	}
}

// ApplySuccess settles a confirmed charge. Safe to call any number of
// times per gateway txn id; the settlement unique constraint makes
// replays no-ops. Shared by the webhook path and the reconciler.
func (s *WebhookService) ApplySuccess(ctx context.Context, chargeRef, gatewayTxnID string, amount float64, currency string) error {
	// Cheap replay check before opening a transaction. The Settle call
	// below re-checks under lock; this just skips obvious retries.
	if _, err := s.settlements.FindByGatewayTxnID(ctx, gatewayTxnID); err == nil {
		metrics.WebhooksTotal.WithLabelValues("replay").Inc()
		return nil
	}

	settlement := &paymentdom.Settlement{
		Type:         paymentdom.SettlementTypeCharge,
		Amount:       amount,
		Currency:     currency,
		GatewayTxnID: gatewayTxnID,
	}

	attempt, settled, err := s.attempts.Settle(ctx, chargeRef, settlement)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		// Local data inconsistency. Ack anyway: the gateway must not retry
		// forever over our missing row.
		s.logger.Warn("webhook for unknown charge reference",
			zap.String("charge_ref", chargeRef),
			zap.String("gateway_txn_id", gatewayTxnID),
		)
		metrics.WebhooksTotal.WithLabelValues("orphaned").Inc()
		return nil
	}
	if err != nil {
		return err
	}
	if !settled {
		if attempt.Status == paymentdom.StatusFailed {
			// Out-of-order success over a terminal failure. The financial
			// record keeps the failure; no settlement, no event.
			s.logger.Warn("success webhook for failed attempt ignored",
				zap.Int64("payment_id", attempt.ID),
				zap.String("charge_ref", chargeRef),
			)
			metrics.WebhooksTotal.WithLabelValues("conflict").Inc()
			return nil
		}
		metrics.WebhooksTotal.WithLabelValues("replay").Inc()
		return nil
	}

	metrics.WebhooksTotal.WithLabelValues("settled").Inc()
	metrics.SettlementsTotal.Inc()

	s.bus.Publish(event.PaymentSucceeded{
		PaymentID: attempt.ID,
		TenantID:  attempt.TenantID,
		UserID:    attempt.UserID,
		SurveyRef: attempt.SurveyRef,
		Amount:    settlement.Amount,
		Currency:  settlement.Currency,
	})

	s.logger.Info("payment settled",
		zap.Int64("payment_id", attempt.ID),
		zap.String("gateway_txn_id", gatewayTxnID),
	)
	return nil
}

func (s *WebhookService) applyFailure(ctx context.Context, chargeRef, reason string) error {
	if reason == "" {
		reason = "charge failed at gateway"
	}
	err := s.attempts.FailByGatewayRef(ctx, chargeRef, reason)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		s.logger.Warn("failure webhook for unknown or settled charge",
			zap.String("charge_ref", chargeRef),
		)
		metrics.WebhooksTotal.WithLabelValues("orphaned").Inc()
		return nil
	}
	if err != nil {
		return err
	}

	metrics.WebhooksTotal.WithLabelValues("failed_charge").Inc()
	s.logger.Info("payment failed at gateway",
		zap.String("charge_ref", chargeRef),
		zap.String("reason", reason),
	)
	return nil
}
