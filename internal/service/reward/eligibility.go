// internal/service/reward/eligibility.go
package reward

import (
	"context"
	"fmt"

	"tafiti-service/internal/domain/event"
	rewarddom "tafiti-service/internal/domain/reward"
	"tafiti-service/internal/eventbus"
	xerrors "tafiti-service/internal/pkg/errors"
	"tafiti-service/internal/repository"

	"go.uber.org/zap"
)

// EligibilityService gates survey completions on cheap read-only
// checks. It never reserves allocation; the orchestrator's conditional
// decrement is the authoritative check.
type EligibilityService struct {
	campaigns repository.RewardCampaigns
	bus       *eventbus.Bus
	logger    *zap.Logger
}

func NewEligibilityService(campaigns repository.RewardCampaigns, bus *eventbus.Bus, logger *zap.Logger) *EligibilityService {
	return &EligibilityService{
		campaigns: campaigns,
		bus:       bus,
		logger:    logger,
	}
}

// HandleSurveyCompleted is the bus handler for survey.completed.
func (s *EligibilityService) HandleSurveyCompleted(ctx context.Context, evt event.Event) error {
	completed, ok := evt.(event.SurveyCompleted)
	if !ok {
		return fmt.Errorf("unexpected event type %T", evt)
	}

	campaign, err := s.campaigns.FindBySurvey(ctx, completed.TenantID, completed.SurveyRef)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		// Most surveys carry no reward.
		return nil
	}
	if err != nil {
		return err
	}

	if campaign.Status != rewarddom.CampaignStatusActive || campaign.Remaining <= 0 {
		s.logger.Info("reward skipped, campaign not disbursable",
			zap.Int64("campaign_id", campaign.ID),
			zap.String("status", string(campaign.Status)),
			zap.Int("remaining", campaign.Remaining),
		)
		return nil
	}

	s.bus.Publish(event.RewardDistributionRequested{
		TenantID:      campaign.TenantID,
		CampaignID:    campaign.ID,
		ParticipantID: completed.ParticipantID,
		RecipientID:   completed.ParticipantID,
	})
	return nil
}
