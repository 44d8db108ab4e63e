// internal/service/reconcile/reconciler.go
package reconcile

import (
	"context"
	"strings"
	"time"

	paymentdom "tafiti-service/internal/domain/payment"
	"tafiti-service/internal/gateway"
	xerrors "tafiti-service/internal/pkg/errors"
	"tafiti-service/internal/repository"

	"go.uber.org/zap"
)

const batchSize = 100

// Verifier polls the gateway for the authoritative charge status.
type Verifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*gateway.ChargeStatus, error)
}

// Settler applies a confirmed charge. Satisfied by the webhook service
// so both paths settle through the same replay-safe code.
type Settler interface {
	ApplySuccess(ctx context.Context, chargeRef, gatewayTxnID string, amount float64, currency string) error
}

// Reconciler sweeps PROCESSING attempts whose webhook never arrived
// and resolves them against the gateway's own record.
type Reconciler struct {
	attempts repository.PaymentAttempts
	verifier Verifier
	settler  Settler
	interval time.Duration
	stuckFor time.Duration
	logger   *zap.Logger
}

func NewReconciler(
	attempts repository.PaymentAttempts,
	verifier Verifier,
	settler Settler,
	interval, stuckFor time.Duration,
	logger *zap.Logger,
) *Reconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if stuckFor <= 0 {
		stuckFor = 15 * time.Minute
	}
	return &Reconciler{
		attempts: attempts,
		verifier: verifier,
		settler:  settler,
		interval: interval,
		stuckFor: stuckFor,
		logger:   logger,
	}
}

// Run loops until the context is cancelled. Intended for one goroutine
// started from the server.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started",
		zap.Duration("interval", r.interval),
		zap.Duration("stuck_for", r.stuckFor),
	)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				r.logger.Error("reconciliation sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep resolves one batch of stuck attempts. Exported so a sweep can
// also be triggered on demand.
func (r *Reconciler) Sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-r.stuckFor)
	stuck, err := r.attempts.ListProcessingOlderThan(ctx, cutoff, batchSize)
	if err != nil {
		return err
	}
	if len(stuck) == 0 {
		return nil
	}

	r.logger.Info("reconciling stuck attempts", zap.Int("count", len(stuck)))
	for i := range stuck {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.resolve(ctx, &stuck[i])
	}
	return nil
}

func (r *Reconciler) resolve(ctx context.Context, attempt *paymentdom.Attempt) {
	if !attempt.GatewayTxnID.Valid || attempt.GatewayTxnID.String == "" {
		// PROCESSING without a charge reference should not happen; there is
		// nothing to ask the gateway about.
		r.logger.Warn("stuck attempt has no charge reference", zap.Int64("payment_id", attempt.ID))
		return
	}
	chargeRef := attempt.GatewayTxnID.String

	status, err := r.verifier.VerifyTransaction(ctx, chargeRef)
	if err != nil {
		var apiErr *gateway.APIError
		if xerrors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			// The gateway never saw this charge. The initialize call was lost
			// entirely, so the attempt cannot succeed.
			r.fail(ctx, attempt, chargeRef, "charge unknown to gateway")
			return
		}
		r.logger.Warn("charge verification failed, will retry next sweep",
			zap.Int64("payment_id", attempt.ID),
			zap.String("charge_ref", chargeRef),
			zap.Error(err),
		)
		return
	}

	switch strings.ToLower(status.Status) {
	case "success":
		if err := r.settler.ApplySuccess(ctx, chargeRef, status.GatewayTxnID, status.AmountMajor(), status.Currency); err != nil {
			r.logger.Error("reconciled settlement failed",
				zap.Int64("payment_id", attempt.ID),
				zap.Error(err),
			)
			return
		}
		r.logger.Info("stuck attempt settled by reconciler",
			zap.Int64("payment_id", attempt.ID),
			zap.String("charge_ref", chargeRef),
		)

	case "failed", "abandoned":
		reason := status.Message
		if reason == "" {
			reason = "charge " + strings.ToLower(status.Status) + " at gateway"
		}
		r.fail(ctx, attempt, chargeRef, reason)

	default:
		// Still pending at the gateway. Leave it for the next sweep.
	}
}

func (r *Reconciler) fail(ctx context.Context, attempt *paymentdom.Attempt, chargeRef, reason string) {
	err := r.attempts.FailByGatewayRef(ctx, chargeRef, reason)
	if err != nil && !xerrors.Is(err, xerrors.ErrNotFound) {
		r.logger.Error("could not fail stuck attempt",
			zap.Int64("payment_id", attempt.ID),
			zap.Error(err),
		)
		return
	}
	r.logger.Info("stuck attempt failed by reconciler",
		zap.Int64("payment_id", attempt.ID),
		zap.String("reason", reason),
	)
}
