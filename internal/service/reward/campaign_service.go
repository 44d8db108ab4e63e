// internal/service/reward/campaign_service.go
package reward

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	rewarddom "tafiti-service/internal/domain/reward"
	xerrors "tafiti-service/internal/pkg/errors"
	"tafiti-service/internal/repository"

	"go.uber.org/zap"
)

// CampaignService is the owner-facing campaign management surface.
type CampaignService struct {
	campaigns     repository.RewardCampaigns
	disbursements repository.RewardDisbursements
	logger        *zap.Logger
}

func NewCampaignService(
	campaigns repository.RewardCampaigns,
	disbursements repository.RewardDisbursements,
	logger *zap.Logger,
) *CampaignService {
	return &CampaignService{
		campaigns:     campaigns,
		disbursements: disbursements,
		logger:        logger,
	}
}

func (s *CampaignService) Create(ctx context.Context, tenantID, ownerID int64, in *rewarddom.CreateCampaignInput) (*rewarddom.Campaign, error) {
	currency := strings.ToUpper(in.Currency)
	if in.Kind != rewarddom.KindLoyaltyPoints && len(currency) != 3 {
		return nil, fmt.Errorf("%w: currency is required for monetary rewards", xerrors.ErrInvalidInput)
	}

	campaign := &rewarddom.Campaign{
		TenantID:      tenantID,
		OwnerID:       ownerID,
		SurveyRef:     in.SurveyRef,
		Kind:          in.Kind,
		UnitAmount:    in.UnitAmount,
		ProviderName:  in.ProviderName,
		MaxRecipients: in.MaxRecipients,
		Remaining:     in.MaxRecipients,
		Status:        rewarddom.CampaignStatusActive,
	}
	if currency != "" {
		campaign.Currency = sql.NullString{String: currency, Valid: true}
	}

	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, err
	}

	s.logger.Info("reward campaign created",
		zap.Int64("campaign_id", campaign.ID),
		zap.String("survey_ref", campaign.SurveyRef),
		zap.String("kind", string(campaign.Kind)),
		zap.Int("max_recipients", campaign.MaxRecipients),
	)
	return campaign, nil
}

func (s *CampaignService) Get(ctx context.Context, tenantID, id int64) (*rewarddom.Campaign, error) {
	return s.campaigns.FindByID(ctx, tenantID, id)
}

func (s *CampaignService) List(ctx context.Context, tenantID int64, f *rewarddom.CampaignListFilters) (*rewarddom.CampaignListResponse, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}

	campaigns, total, err := s.campaigns.List(ctx, tenantID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	return &rewarddom.CampaignListResponse{
		Campaigns: campaigns,
		Total:     total,
		Page:      f.Page,
		PageSize:  f.PageSize,
	}, nil
}

func (s *CampaignService) Cancel(ctx context.Context, tenantID, id int64) error {
	return s.campaigns.Cancel(ctx, tenantID, id)
}

func (s *CampaignService) ListDisbursements(ctx context.Context, tenantID, campaignID int64) ([]rewarddom.Disbursement, error) {
	if _, err := s.Get(ctx, tenantID, campaignID); err != nil {
		return nil, err
	}
	return s.disbursements.ListByCampaign(ctx, tenantID, campaignID)
}
