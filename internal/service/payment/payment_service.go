// internal/service/payment/payment_service.go
package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	paymentdom "tafiti-service/internal/domain/payment"
	"tafiti-service/internal/gateway"
	"tafiti-service/internal/metrics"
	xerrors "tafiti-service/internal/pkg/errors"
	"tafiti-service/internal/pkg/ref"
	"tafiti-service/internal/repository"

	"go.uber.org/zap"
)

// Gateway is the slice of the payment gateway client the intake path
// needs.
type Gateway interface {
	Name() string
	InitializeCharge(ctx context.Context, req gateway.ChargeRequest) (*gateway.Charge, error)
	VerifyTransaction(ctx context.Context, reference string) (*gateway.ChargeStatus, error)
	VerifySignature(payload []byte, signature string) bool
}

// IdempotencyCache is the optional Redis fast path for repeated keys.
type IdempotencyCache interface {
	Get(ctx context.Context, tenantID int64, key string) (string, bool)
	Set(ctx context.Context, tenantID int64, key, reference string)
}

type PaymentService struct {
	attempts    repository.PaymentAttempts
	settlements repository.Settlements
	gateway     Gateway
	cache       IdempotencyCache
	callTimeout time.Duration
	logger      *zap.Logger
}

func NewPaymentService(
	attempts repository.PaymentAttempts,
	settlements repository.Settlements,
	gw Gateway,
	cache IdempotencyCache,
	callTimeout time.Duration,
	logger *zap.Logger,
) *PaymentService {
	if callTimeout <= 0 {
		callTimeout = 15 * time.Second
	}
	return &PaymentService{
		attempts:    attempts,
		settlements: settlements,
		gateway:     gw,
		cache:       cache,
		callTimeout: callTimeout,
		logger:      logger,
	}
}

// Initiate records and starts a charge. Calling it again with the same
// (tenant, idempotency key) returns the existing attempt without a new
// gateway call. The exception is terminally FAILED attempts, which are
// re-armed and retried on the same row.
//
// A gateway rejection comes back as a FAILED attempt, not an error, so
// the caller can show the message and retry with the same key.
func (s *PaymentService) Initiate(ctx context.Context, tenantID, userID int64, in *paymentdom.InitiateInput) (*paymentdom.Attempt, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", xerrors.ErrInvalidInput)
	}
	currency := strings.ToUpper(in.Currency)
	if len(currency) != 3 {
		return nil, fmt.Errorf("%w: currency must be a 3-letter ISO code", xerrors.ErrInvalidInput)
	}
	if in.IdempotencyKey == "" {
		return nil, fmt.Errorf("%w: idempotency key is required", xerrors.ErrInvalidInput)
	}

	// Redis fast path. A hit that is not terminally FAILED short-circuits
	// before we even touch Postgres.
	if s.cache != nil {
		if reference, ok := s.cache.Get(ctx, tenantID, in.IdempotencyKey); ok {
			attempt, err := s.attempts.FindByReference(ctx, tenantID, reference)
			if err == nil && attempt.Status != paymentdom.StatusFailed {
				metrics.PaymentsInitiated.WithLabelValues("replayed").Inc()
				return attempt, nil
			}
		}
	}

	existing, err := s.attempts.FindByIdempotencyKey(ctx, tenantID, in.IdempotencyKey)
	switch {
	case err == nil && existing.Status != paymentdom.StatusFailed:
		metrics.PaymentsInitiated.WithLabelValues("replayed").Inc()
		s.cacheReference(ctx, tenantID, in.IdempotencyKey, existing.Reference)
		return existing, nil
	case err == nil:
		return s.retryFailed(ctx, existing)
	case !xerrors.Is(err, xerrors.ErrNotFound):
		return nil, err
	}

	attempt := &paymentdom.Attempt{
		TenantID:       tenantID,
		UserID:         userID,
		SurveyRef:      in.SurveyRef,
		IdempotencyKey: in.IdempotencyKey,
		Reference:      ref.NewPayment(),
		Amount:         in.Amount,
		Currency:       currency,
		Status:         paymentdom.StatusPending,
		GatewayName:    s.gateway.Name(),
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		if xerrors.Is(err, xerrors.ErrDuplicateEntry) {
			// Lost a concurrent race on the same key. The winner's row is
			// the attempt.
			winner, ferr := s.attempts.FindByIdempotencyKey(ctx, tenantID, in.IdempotencyKey)
			if ferr != nil {
				return nil, ferr
			}
			metrics.PaymentsInitiated.WithLabelValues("replayed").Inc()
			return winner, nil
		}
		return nil, err
	}

	s.cacheReference(ctx, tenantID, in.IdempotencyKey, attempt.Reference)

	// First charge uses the attempt reference as the gateway reference.
	return s.charge(ctx, attempt, attempt.Reference, false)
}

// retryFailed re-arms a FAILED attempt for one more gateway call with a
// fresh charge reference. The conditional FAILED->PROCESSING update
// makes concurrent retries collapse into one.
func (s *PaymentService) retryFailed(ctx context.Context, attempt *paymentdom.Attempt) (*paymentdom.Attempt, error) {
	chargeRef := ref.NewPayment()
	if err := s.attempts.ResetForRetry(ctx, attempt.ID, chargeRef); err != nil {
		if xerrors.Is(err, xerrors.ErrTerminalState) {
			// Another caller is already retrying; return the current state.
			current, ferr := s.attempts.FindByID(ctx, attempt.TenantID, attempt.ID)
			if ferr != nil {
				return nil, ferr
			}
			return current, nil
		}
		return nil, err
	}
	attempt.Status = paymentdom.StatusProcessing

	return s.charge(ctx, attempt, chargeRef, true)
}

// charge performs the outbound gateway call with a bounded timeout and
// records the outcome on the attempt row.
func (s *PaymentService) charge(ctx context.Context, attempt *paymentdom.Attempt, chargeRef string, isRetry bool) (*paymentdom.Attempt, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	_, err := s.gateway.InitializeCharge(callCtx, gateway.ChargeRequest{
		Reference: chargeRef,
		Amount:    attempt.Amount,
		Currency:  attempt.Currency,
	})

	switch {
	case err == nil:
		if !isRetry {
			if merr := s.attempts.MarkProcessing(ctx, attempt.ID, chargeRef); merr != nil {
				return nil, merr
			}
		}
		attempt.Status = paymentdom.StatusProcessing
		attempt.GatewayTxnID.String = chargeRef
		attempt.GatewayTxnID.Valid = true
		metrics.PaymentsInitiated.WithLabelValues("created").Inc()
		s.logger.Info("payment initiated",
			zap.Int64("payment_id", attempt.ID),
			zap.String("charge_ref", chargeRef),
			zap.Float64("amount", attempt.Amount),
			zap.String("currency", attempt.Currency),
		)
		return attempt, nil

	case gateway.IsTimeout(err):
		// A timeout is not a failure: the gateway may still complete the
		// charge. Leave the row PROCESSING for the webhook or reconciler.
		if !isRetry {
			if merr := s.attempts.MarkProcessing(ctx, attempt.ID, chargeRef); merr != nil {
				return nil, merr
			}
		}
		attempt.Status = paymentdom.StatusProcessing
		attempt.GatewayTxnID.String = chargeRef
		attempt.GatewayTxnID.Valid = true
		s.logger.Warn("gateway initialize timed out, leaving attempt processing",
			zap.Int64("payment_id", attempt.ID),
			zap.String("charge_ref", chargeRef),
		)
		return attempt, nil

	default:
		reason := err.Error()
		if merr := s.attempts.MarkFailed(ctx, attempt.ID, reason); merr != nil {
			return nil, merr
		}
		attempt.Status = paymentdom.StatusFailed
		attempt.ErrorMessage.String = reason
		attempt.ErrorMessage.Valid = true
		metrics.PaymentsInitiated.WithLabelValues("failed").Inc()
		s.logger.Warn("gateway rejected charge",
			zap.Int64("payment_id", attempt.ID),
			zap.String("reason", reason),
		)
		// The FAILED attempt is the result, not an error.
		return attempt, nil
	}
}

func (s *PaymentService) cacheReference(ctx context.Context, tenantID int64, key, reference string) {
	if s.cache != nil {
		s.cache.Set(ctx, tenantID, key, reference)
	}
}

// GetAttempt retrieves one attempt scoped to the tenant.
func (s *PaymentService) GetAttempt(ctx context.Context, tenantID, id int64) (*paymentdom.Attempt, error) {
	return s.attempts.FindByID(ctx, tenantID, id)
}

// ListSettlements returns the settlements recorded for an attempt.
func (s *PaymentService) ListSettlements(ctx context.Context, tenantID, paymentID int64) ([]paymentdom.Settlement, error) {
	if _, err := s.attempts.FindByID(ctx, tenantID, paymentID); err != nil {
		return nil, err
	}
	return s.settlements.ListByPayment(ctx, tenantID, paymentID)
}
