// internal/repository/interfaces.go
package repository

import (
	"context"
	"time"

	"tafiti-service/internal/domain/business"
	"tafiti-service/internal/domain/payment"
	"tafiti-service/internal/domain/reward"
)

// PaymentAttempts persists charge attempts and their settlements.
type PaymentAttempts interface {
	// Create inserts a PENDING attempt. Returns xerrors.ErrDuplicateEntry
	// when the (tenant, idempotency key) pair already exists.
	Create(ctx context.Context, a *payment.Attempt) error
	FindByID(ctx context.Context, tenantID, id int64) (*payment.Attempt, error)
	FindByIdempotencyKey(ctx context.Context, tenantID int64, key string) (*payment.Attempt, error)
	FindByReference(ctx context.Context, tenantID int64, reference string) (*payment.Attempt, error)
	MarkProcessing(ctx context.Context, id int64, gatewayTxnID string) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	// ResetForRetry moves a FAILED attempt back to PROCESSING with a fresh
	// gateway reference. No-op on rows in any other state.
	ResetForRetry(ctx context.Context, id int64, gatewayTxnID string) error
	// FailByGatewayRef marks the attempt behind a gateway charge reference
	// FAILED, unless it already reached a terminal state.
	FailByGatewayRef(ctx context.Context, chargeRef, reason string) error
	ListProcessingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]payment.Attempt, error)
	// Settle atomically: locates the attempt by its gateway charge
	// reference, inserts the settlement (deduplicated on the gateway's own
	// txn id), and transitions the attempt to SUCCEEDED, all in one
	// database transaction. The bool is false when nothing was written:
	// the settlement already existed (webhook replay) or the attempt is
	// already terminal (late delivery over SUCCEEDED or FAILED).
	Settle(ctx context.Context, chargeRef string, s *payment.Settlement) (*payment.Attempt, bool, error)
}

type Settlements interface {
	FindByGatewayTxnID(ctx context.Context, gatewayTxnID string) (*payment.Settlement, error)
	ListByPayment(ctx context.Context, tenantID, paymentID int64) ([]payment.Settlement, error)
}

// RewardCampaigns owns the campaign allocation counter. Remaining may
// only move through ReserveSlot / RestoreSlot, which are conditional
// single-statement updates enforced by the store.
type RewardCampaigns interface {
	Create(ctx context.Context, c *reward.Campaign) error
	FindByID(ctx context.Context, tenantID, id int64) (*reward.Campaign, error)
	FindBySurvey(ctx context.Context, tenantID int64, surveyRef string) (*reward.Campaign, error)
	List(ctx context.Context, tenantID int64, f *reward.CampaignListFilters) ([]reward.Campaign, int64, error)
	// ReserveSlot decrements remaining iff the campaign is ACTIVE with
	// remaining > 0, flipping status to DEPLETED when the decrement lands
	// on zero. ok=false means the reservation race was lost.
	ReserveSlot(ctx context.Context, id int64) (remaining int, ok bool, err error)
	// RestoreSlot gives back one slot consumed by a reservation whose
	// disbursement terminally failed, reviving DEPLETED campaigns.
	RestoreSlot(ctx context.Context, id int64) error
	Cancel(ctx context.Context, tenantID, id int64) error
}

type RewardDisbursements interface {
	// Create returns xerrors.ErrDuplicateEntry for an existing
	// (campaign, participant) pair.
	Create(ctx context.Context, d *reward.Disbursement) error
	FindByCampaignAndParticipant(ctx context.Context, campaignID int64, participantID string) (*reward.Disbursement, error)
	MarkOutcome(ctx context.Context, id int64, status reward.DisbursementStatus, providerTxnID, failureReason string) error
	ListByCampaign(ctx context.Context, tenantID, campaignID int64) ([]reward.Disbursement, error)
}

type LoyaltyLedger interface {
	Credit(ctx context.Context, c *reward.LoyaltyCredit) error
}

type BusinessIntegrations interface {
	Create(ctx context.Context, i *business.Integration) error
	FindByID(ctx context.Context, id int64) (*business.Integration, error)
}

type BusinessTransactions interface {
	// CreateIfAbsent records the confirmation unless its external txn id
	// is already in the ledger. The bool is true when a row was written.
	CreateIfAbsent(ctx context.Context, t *business.TransactionRecord) (bool, error)
}
