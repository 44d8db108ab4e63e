// internal/repository/postgres/settlement_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"tafiti-service/internal/domain/payment"
	xerrors "tafiti-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type SettlementRepository struct {
	db *DB
}

func NewSettlementRepository(db *DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

func (r *SettlementRepository) FindByGatewayTxnID(ctx context.Context, gatewayTxnID string) (*payment.Settlement, error) {
	query := `
		SELECT id, payment_id, tenant_id, type, amount, currency, gateway_txn_id, created_at
		FROM settlement_transactions
		WHERE gateway_txn_id = $1
	`
	var s payment.Settlement
	err := r.db.QueryRow(ctx, query, gatewayTxnID).Scan(
		&s.ID, &s.PaymentID, &s.TenantID, &s.Type, &s.Amount, &s.Currency, &s.GatewayTxnID, &s.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find settlement: %w", err)
	}
	return &s, nil
}

func (r *SettlementRepository) ListByPayment(ctx context.Context, tenantID, paymentID int64) ([]payment.Settlement, error) {
	query := `
		SELECT id, payment_id, tenant_id, type, amount, currency, gateway_txn_id, created_at
		FROM settlement_transactions
		WHERE tenant_id = $1 AND payment_id = $2
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, tenantID, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []payment.Settlement
	for rows.Next() {
		var s payment.Settlement
		if err := rows.Scan(
			&s.ID, &s.PaymentID, &s.TenantID, &s.Type, &s.Amount, &s.Currency, &s.GatewayTxnID, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}
	return settlements, rows.Err()
}
