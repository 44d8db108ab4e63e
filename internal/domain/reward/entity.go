// internal/domain/reward/entity.go
package reward

import (
	"database/sql"
	"time"
)

type Kind string

const (
	KindAirtime       Kind = "AIRTIME"
	KindDataBundle    Kind = "DATA_BUNDLE"
	KindLoyaltyPoints Kind = "LOYALTY_POINTS"
	KindVoucher       Kind = "VOUCHER"
)

type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "ACTIVE"
	CampaignStatusDepleted  CampaignStatus = "DEPLETED"
	CampaignStatusCancelled CampaignStatus = "CANCELLED"
)

// Campaign is a capped pool of rewards tied to a survey, consumed one
// disbursement at a time. Remaining allocation may only be changed via
// the conditional reserve/restore repository operations.
type Campaign struct {
	ID            int64          `json:"id" db:"id"`
	TenantID      int64          `json:"tenant_id" db:"tenant_id"`
	OwnerID       int64          `json:"owner_id" db:"owner_id"`
	SurveyRef     string         `json:"survey_ref" db:"survey_ref"`
	Kind          Kind           `json:"kind" db:"kind"`
	UnitAmount    float64        `json:"unit_amount" db:"unit_amount"`
	Currency      sql.NullString `json:"currency,omitempty" db:"currency"`
	ProviderName  string         `json:"provider_name" db:"provider_name"`
	MaxRecipients int            `json:"max_recipients" db:"max_recipients"`
	Remaining     int            `json:"remaining" db:"remaining"`
	Status        CampaignStatus `json:"status" db:"status"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

type DisbursementStatus string

const (
	DisbursementStatusPending DisbursementStatus = "PENDING"
	DisbursementStatusSuccess DisbursementStatus = "SUCCESS"
	DisbursementStatusFailed  DisbursementStatus = "FAILED"
)

// Disbursement is one attempt to pay a specific respondent. Retries
// update the existing row for a (campaign, participant) pair rather
// than creating a new one.
type Disbursement struct {
	ID            int64              `json:"id" db:"id"`
	CampaignID    int64              `json:"campaign_id" db:"campaign_id"`
	TenantID      int64              `json:"tenant_id" db:"tenant_id"`
	ParticipantID string             `json:"participant_id" db:"participant_id"`
	RecipientID   string             `json:"recipient_id" db:"recipient_id"`
	Reference     string             `json:"reference" db:"reference"`
	Status        DisbursementStatus `json:"status" db:"status"`
	ProviderTxnID sql.NullString     `json:"provider_txn_id,omitempty" db:"provider_txn_id"`
	FailureReason sql.NullString     `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" db:"updated_at"`
}

// LoyaltyCredit is one append-only entry in the local points ledger,
// written by the loyalty provider instead of an external call.
type LoyaltyCredit struct {
	ID            int64     `json:"id" db:"id"`
	TenantID      int64     `json:"tenant_id" db:"tenant_id"`
	ParticipantID string    `json:"participant_id" db:"participant_id"`
	Points        float64   `json:"points" db:"points"`
	Reference     string    `json:"reference" db:"reference"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
