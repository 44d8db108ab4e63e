// internal/repository/postgres/loyalty_ledger_repo.go
package postgres

import (
	"context"
	"fmt"

	"tafiti-service/internal/domain/reward"
)

// LoyaltyLedgerRepository is the append-only local points ledger backing
// the loyalty reward provider.
type LoyaltyLedgerRepository struct {
	db *DB
}

func NewLoyaltyLedgerRepository(db *DB) *LoyaltyLedgerRepository {
	return &LoyaltyLedgerRepository{db: db}
}

func (r *LoyaltyLedgerRepository) Credit(ctx context.Context, c *reward.LoyaltyCredit) error {
	query := `
		INSERT INTO loyalty_ledger (tenant_id, participant_id, points, reference)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, c.TenantID, c.ParticipantID, c.Points, c.Reference).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to credit loyalty ledger: %w", err)
	}
	return nil
}
