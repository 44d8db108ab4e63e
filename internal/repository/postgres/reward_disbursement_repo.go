// internal/repository/postgres/reward_disbursement_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"tafiti-service/internal/domain/reward"
	xerrors "tafiti-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type RewardDisbursementRepository struct {
	db *DB
}

func NewRewardDisbursementRepository(db *DB) *RewardDisbursementRepository {
	return &RewardDisbursementRepository{db: db}
}

const disbursementColumns = `
	id, campaign_id, tenant_id, participant_id, recipient_id, reference,
	status, provider_txn_id, failure_reason, created_at, updated_at
`

func scanDisbursement(row pgx.Row) (*reward.Disbursement, error) {
	var d reward.Disbursement
	err := row.Scan(
		&d.ID, &d.CampaignID, &d.TenantID, &d.ParticipantID, &d.RecipientID, &d.Reference,
		&d.Status, &d.ProviderTxnID, &d.FailureReason, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan disbursement: %w", err)
	}
	return &d, nil
}

func (r *RewardDisbursementRepository) Create(ctx context.Context, d *reward.Disbursement) error {
	query := `
		INSERT INTO reward_disbursements (
			campaign_id, tenant_id, participant_id, recipient_id, reference, status
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(
		ctx, query,
		d.CampaignID, d.TenantID, d.ParticipantID, d.RecipientID, d.Reference, d.Status,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)

	if isUniqueViolation(err) {
		return xerrors.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("failed to create disbursement: %w", err)
	}
	return nil
}

func (r *RewardDisbursementRepository) FindByCampaignAndParticipant(ctx context.Context, campaignID int64, participantID string) (*reward.Disbursement, error) {
	query := `SELECT ` + disbursementColumns + ` FROM reward_disbursements WHERE campaign_id = $1 AND participant_id = $2`
	return scanDisbursement(r.db.QueryRow(ctx, query, campaignID, participantID))
}

func (r *RewardDisbursementRepository) MarkOutcome(ctx context.Context, id int64, status reward.DisbursementStatus, providerTxnID, failureReason string) error {
	query := `
		UPDATE reward_disbursements
		SET status = $1,
		    provider_txn_id = NULLIF($2, ''),
		    failure_reason = NULLIF($3, ''),
		    updated_at = NOW()
		WHERE id = $4
	`
	tag, err := r.db.Exec(ctx, query, status, providerTxnID, failureReason, id)
	if err != nil {
		return fmt.Errorf("failed to mark disbursement outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *RewardDisbursementRepository) ListByCampaign(ctx context.Context, tenantID, campaignID int64) ([]reward.Disbursement, error) {
	query := `
		SELECT ` + disbursementColumns + `
		FROM reward_disbursements
		WHERE tenant_id = $1 AND campaign_id = $2
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, tenantID, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list disbursements: %w", err)
	}
	defer rows.Close()

	var disbursements []reward.Disbursement
	for rows.Next() {
		d, err := scanDisbursement(rows)
		if err != nil {
			return nil, err
		}
		disbursements = append(disbursements, *d)
	}
	return disbursements, rows.Err()
}
