// internal/domain/event/events.go
package event

import "time"

// Event is a typed domain event carried by the in-process bus.
type Event interface {
	Name() string
}

const (
	NamePaymentSucceeded            = "payment.succeeded"
	NameSurveyCompleted             = "survey.completed"
	NameRewardDistributionRequested = "reward.distribution_requested"
	NameRewardDisbursed             = "reward.disbursed"
	NameBusinessTransactionReceived = "business.transaction_received"
)

// PaymentSucceeded is published exactly once per settled charge.
type PaymentSucceeded struct {
	PaymentID int64   `json:"payment_id"`
	TenantID  int64   `json:"tenant_id"`
	UserID    int64   `json:"user_id"`
	SurveyRef string  `json:"survey_ref"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

func (PaymentSucceeded) Name() string { return NamePaymentSucceeded }

// SurveyCompleted arrives from the survey module when a respondent
// finishes a survey.
type SurveyCompleted struct {
	TenantID      int64  `json:"tenant_id"`
	SurveyRef     string `json:"survey_ref"`
	ResponseRef   string `json:"response_ref"`
	ParticipantID string `json:"participant_id"`
}

func (SurveyCompleted) Name() string { return NameSurveyCompleted }

// RewardDistributionRequested asks the orchestrator to attempt one
// disbursement. The eligibility check behind it is advisory only.
type RewardDistributionRequested struct {
	TenantID      int64  `json:"tenant_id"`
	CampaignID    int64  `json:"campaign_id"`
	ParticipantID string `json:"participant_id"`
	RecipientID   string `json:"recipient_id"`
}

func (RewardDistributionRequested) Name() string { return NameRewardDistributionRequested }

// RewardDisbursed reports the terminal outcome of one disbursement.
type RewardDisbursed struct {
	TenantID       int64  `json:"tenant_id"`
	CampaignID     int64  `json:"campaign_id"`
	DisbursementID int64  `json:"disbursement_id"`
	ParticipantID  string `json:"participant_id"`
	Status         string `json:"status"`
	Provider       string `json:"provider"`
}

func (RewardDisbursed) Name() string { return NameRewardDisbursed }

// BusinessTransactionReceived is published once per unique inbound
// mobile-money confirmation and seeds an SMS survey invitation.
type BusinessTransactionReceived struct {
	TenantID        int64     `json:"tenant_id"`
	IntegrationID   int64     `json:"integration_id"`
	SurveyRef       string    `json:"survey_ref"`
	MSISDN          string    `json:"msisdn"`
	FullName        string    `json:"full_name"`
	Amount          float64   `json:"amount"`
	TransactionTime time.Time `json:"transaction_time"`
}

func (BusinessTransactionReceived) Name() string { return NameBusinessTransactionReceived }
