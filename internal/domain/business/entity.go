// internal/domain/business/entity.go
package business

import (
	"time"

	"github.com/lib/pq"
)

type IntegrationStatus string

const (
	IntegrationStatusActive   IntegrationStatus = "ACTIVE"
	IntegrationStatusDisabled IntegrationStatus = "DISABLED"
)

// Integration is a configured mobile-money inbound channel for one
// tenant. The shared secret embedded in the callback URL is stored only
// as a bcrypt hash.
type Integration struct {
	ID         int64             `json:"id" db:"id"`
	TenantID   int64             `json:"tenant_id" db:"tenant_id"`
	SurveyRef  string            `json:"survey_ref" db:"survey_ref"`
	Name       string            `json:"name" db:"name"`
	SecretHash string            `json:"-" db:"secret_hash"`
	ShortCodes pq.StringArray    `json:"short_codes,omitempty" db:"short_codes"`
	Status     IntegrationStatus `json:"status" db:"status"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
}

// TransactionRecord is the immutable ledger of inbound mobile-money
// confirmations, deduplicated on the external transaction id.
type TransactionRecord struct {
	ID              int64     `json:"id" db:"id"`
	IntegrationID   int64     `json:"integration_id" db:"integration_id"`
	TenantID        int64     `json:"tenant_id" db:"tenant_id"`
	ExternalTxnID   string    `json:"external_txn_id" db:"external_txn_id"`
	MSISDN          string    `json:"msisdn" db:"msisdn"`
	FirstName       string    `json:"first_name" db:"first_name"`
	LastName        string    `json:"last_name" db:"last_name"`
	Amount          float64   `json:"amount" db:"amount"`
	ShortCode       string    `json:"short_code" db:"short_code"`
	TransactionTime time.Time `json:"transaction_time" db:"transaction_time"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
