// internal/repository/postgres/reward_campaign_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"tafiti-service/internal/domain/reward"
	xerrors "tafiti-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type RewardCampaignRepository struct {
	db *DB
}

func NewRewardCampaignRepository(db *DB) *RewardCampaignRepository {
	return &RewardCampaignRepository{db: db}
}

const campaignColumns = `
	id, tenant_id, owner_id, survey_ref, kind, unit_amount, currency,
	provider_name, max_recipients, remaining, status, created_at, updated_at
`

func scanCampaign(row pgx.Row) (*reward.Campaign, error) {
	var c reward.Campaign
	err := row.Scan(
		&c.ID, &c.TenantID, &c.OwnerID, &c.SurveyRef, &c.Kind, &c.UnitAmount, &c.Currency,
		&c.ProviderName, &c.MaxRecipients, &c.Remaining, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan campaign: %w", err)
	}
	return &c, nil
}

func (r *RewardCampaignRepository) Create(ctx context.Context, c *reward.Campaign) error {
	query := `
		INSERT INTO reward_campaigns (
			tenant_id, owner_id, survey_ref, kind, unit_amount, currency,
			provider_name, max_recipients, remaining, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(
		ctx, query,
		c.TenantID, c.OwnerID, c.SurveyRef, c.Kind, c.UnitAmount, c.Currency,
		c.ProviderName, c.MaxRecipients, c.Remaining, c.Status,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)

	if isUniqueViolation(err) {
		return xerrors.ErrDuplicateEntry
	}
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

func (r *RewardCampaignRepository) FindByID(ctx context.Context, tenantID, id int64) (*reward.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM reward_campaigns WHERE tenant_id = $1 AND id = $2`
	return scanCampaign(r.db.QueryRow(ctx, query, tenantID, id))
}

func (r *RewardCampaignRepository) FindBySurvey(ctx context.Context, tenantID int64, surveyRef string) (*reward.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM reward_campaigns WHERE tenant_id = $1 AND survey_ref = $2`
	return scanCampaign(r.db.QueryRow(ctx, query, tenantID, surveyRef))
}

func (r *RewardCampaignRepository) List(ctx context.Context, tenantID int64, f *reward.CampaignListFilters) ([]reward.Campaign, int64, error) {
	countQuery := `SELECT COUNT(*) FROM reward_campaigns WHERE tenant_id = $1 AND ($2::text IS NULL OR status = $2)`
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, tenantID, f.Status).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	offset := (f.Page - 1) * f.PageSize
	query := `
		SELECT ` + campaignColumns + `
		FROM reward_campaigns
		WHERE tenant_id = $1 AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, f.Status, f.PageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []reward.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, total, rows.Err()
}

// ReserveSlot is the authoritative allocation check: a single
// conditional update so concurrent requests can never drive remaining
// below zero. The DEPLETED flip happens in the same statement, at
// decrement time.
func (r *RewardCampaignRepository) ReserveSlot(ctx context.Context, id int64) (int, bool, error) {
	query := `
		UPDATE reward_campaigns
		SET remaining = remaining - 1,
		    status = CASE WHEN remaining - 1 = 0 THEN $1::text ELSE status END,
		    updated_at = NOW()
		WHERE id = $2 AND status = $3 AND remaining > 0
		RETURNING remaining
	`
	var remaining int
	err := r.db.QueryRow(ctx, query, reward.CampaignStatusDepleted, id, reward.CampaignStatusActive).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race, or the campaign is not ACTIVE.
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to reserve slot: %w", err)
	}
	return remaining, true, nil
}

// RestoreSlot returns a slot whose disbursement terminally failed.
// A DEPLETED campaign becomes ACTIVE again; CANCELLED stays CANCELLED.
func (r *RewardCampaignRepository) RestoreSlot(ctx context.Context, id int64) error {
	query := `
		UPDATE reward_campaigns
		SET remaining = remaining + 1,
		    status = CASE WHEN status = $1::text THEN $2::text ELSE status END,
		    updated_at = NOW()
		WHERE id = $3 AND remaining < max_recipients
	`
	tag, err := r.db.Exec(ctx, query, reward.CampaignStatusDepleted, reward.CampaignStatusActive, id)
	if err != nil {
		return fmt.Errorf("failed to restore slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrConflict
	}
	return nil
}

func (r *RewardCampaignRepository) Cancel(ctx context.Context, tenantID, id int64) error {
	query := `
		UPDATE reward_campaigns
		SET status = $1, updated_at = NOW()
		WHERE tenant_id = $2 AND id = $3 AND status != $1
	`
	tag, err := r.db.Exec(ctx, query, reward.CampaignStatusCancelled, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to cancel campaign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
