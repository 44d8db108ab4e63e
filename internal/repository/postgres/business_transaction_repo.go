// internal/repository/postgres/business_transaction_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"tafiti-service/internal/domain/business"

	"github.com/jackc/pgx/v5"
)

type BusinessTransactionRepository struct {
	db *DB
}

func NewBusinessTransactionRepository(db *DB) *BusinessTransactionRepository {
	return &BusinessTransactionRepository{db: db}
}

// CreateIfAbsent appends the confirmation to the ledger unless its
// external txn id was already recorded. Dedup is enforced by the unique
// index, not by a read-then-write pair.
func (r *BusinessTransactionRepository) CreateIfAbsent(ctx context.Context, t *business.TransactionRecord) (bool, error) {
	query := `
		INSERT INTO business_transactions (
			integration_id, tenant_id, external_txn_id, msisdn,
			first_name, last_name, amount, short_code, transaction_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (external_txn_id) DO NOTHING
		RETURNING id, created_at
	`
	err := r.db.QueryRow(
		ctx, query,
		t.IntegrationID, t.TenantID, t.ExternalTxnID, t.MSISDN,
		t.FirstName, t.LastName, t.Amount, t.ShortCode, t.TransactionTime,
	).Scan(&t.ID, &t.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to record business transaction: %w", err)
	}
	return true, nil
}
