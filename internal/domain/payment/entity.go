// internal/domain/payment/entity.go
package payment

import (
	"database/sql"
	"time"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusSucceeded  Status = "SUCCEEDED"
	StatusFailed     Status = "FAILED"
)

// validTransitions encodes the attempt state machine. Terminal states
// have no outgoing edges.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusSucceeded, StatusFailed},
	StatusSucceeded:  {},
	StatusFailed:     {},
}

// CanTransition reports whether moving from one status to another is a
// legal state-machine edge.
func CanTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

type SettlementType string

const (
	SettlementTypeCharge SettlementType = "CHARGE"
	SettlementTypeRefund SettlementType = "REFUND"
)

// Attempt is one client-initiated charge. Rows are append-only financial
// records: attempts are never deleted, only transitioned.
type Attempt struct {
	ID             int64          `json:"id" db:"id"`
	TenantID       int64          `json:"tenant_id" db:"tenant_id"`
	UserID         int64          `json:"user_id" db:"user_id"`
	SurveyRef      string         `json:"survey_ref" db:"survey_ref"`
	IdempotencyKey string         `json:"idempotency_key" db:"idempotency_key"`
	Reference      string         `json:"reference" db:"reference"`
	Amount         float64        `json:"amount" db:"amount"`
	Currency       string         `json:"currency" db:"currency"`
	Status         Status         `json:"status" db:"status"`
	GatewayName    string         `json:"gateway_name" db:"gateway_name"`
	GatewayTxnID   sql.NullString `json:"gateway_txn_id,omitempty" db:"gateway_txn_id"`
	ErrorMessage   sql.NullString `json:"error_message,omitempty" db:"error_message"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// Settlement is one confirmed financial movement tied to an Attempt.
// At most one settlement exists per gateway transaction id; that unique
// constraint is the hard dedup key for webhook replays.
type Settlement struct {
	ID           int64          `json:"id" db:"id"`
	PaymentID    int64          `json:"payment_id" db:"payment_id"`
	TenantID     int64          `json:"tenant_id" db:"tenant_id"`
	Type         SettlementType `json:"type" db:"type"`
	Amount       float64        `json:"amount" db:"amount"`
	Currency     string         `json:"currency" db:"currency"`
	GatewayTxnID string         `json:"gateway_txn_id" db:"gateway_txn_id"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}
