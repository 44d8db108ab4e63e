// internal/service/reward/orchestrator.go
package reward

import (
	"context"
	"fmt"
	"time"

	"tafiti-service/internal/domain/event"
	rewarddom "tafiti-service/internal/domain/reward"
	"tafiti-service/internal/eventbus"
	"tafiti-service/internal/metrics"
	xerrors "tafiti-service/internal/pkg/errors"
	"tafiti-service/internal/pkg/ref"
	"tafiti-service/internal/repository"

	"go.uber.org/zap"
)

const reasonNoProvider = "no provider available"

// Orchestrator consumes reward.distribution_requested events. It owns
// the authoritative allocation reservation and the provider dispatch.
// One participant's failure never affects others in the same campaign.
type Orchestrator struct {
	campaigns     repository.RewardCampaigns
	disbursements repository.RewardDisbursements
	registry      *Registry
	bus           *eventbus.Bus
	callTimeout   time.Duration
	logger        *zap.Logger
}

func NewOrchestrator(
	campaigns repository.RewardCampaigns,
	disbursements repository.RewardDisbursements,
	registry *Registry,
	bus *eventbus.Bus,
	callTimeout time.Duration,
	logger *zap.Logger,
) *Orchestrator {
	if callTimeout <= 0 {
		callTimeout = 20 * time.Second
	}
	return &Orchestrator{
		campaigns:     campaigns,
		disbursements: disbursements,
		registry:      registry,
		bus:           bus,
		callTimeout:   callTimeout,
		logger:        logger,
	}
}

// HandleDistributionRequested is the bus handler for
// reward.distribution_requested.
func (o *Orchestrator) HandleDistributionRequested(ctx context.Context, evt event.Event) error {
	req, ok := evt.(event.RewardDistributionRequested)
	if !ok {
		return fmt.Errorf("unexpected event type %T", evt)
	}

	campaign, err := o.campaigns.FindByID(ctx, req.TenantID, req.CampaignID)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		o.logger.Warn("distribution requested for missing campaign",
			zap.Int64("campaign_id", req.CampaignID))
		return nil
	}
	if err != nil {
		return err
	}

	existing, err := o.disbursements.FindByCampaignAndParticipant(ctx, campaign.ID, req.ParticipantID)
	switch {
	case err == nil && existing.Status == rewarddom.DisbursementStatusSuccess:
		// Already paid; exactly one terminal disbursement per
		// (campaign, participant).
		return nil
	case err == nil && existing.Status == rewarddom.DisbursementStatusPending:
		// In flight on another worker.
		return nil
	case err == nil:
		return o.retryFailed(ctx, campaign, existing)
	case !xerrors.Is(err, xerrors.ErrNotFound):
		return err
	}

	// The eligibility evaluator's check was advisory. Reserve here, in
	// one conditional update: zero rows affected means the race was lost.
	remaining, reserved, err := o.campaigns.ReserveSlot(ctx, campaign.ID)
	if err != nil {
		return err
	}
	if !reserved {
		metrics.ReservationsLost.Inc()
		o.logger.Info("allocation reservation lost",
			zap.Int64("campaign_id", campaign.ID),
			zap.String("participant_id", req.ParticipantID),
		)
		return nil
	}
	if remaining == 0 {
		metrics.CampaignsDepleted.Inc()
		o.logger.Info("campaign depleted", zap.Int64("campaign_id", campaign.ID))
	}

	d := &rewarddom.Disbursement{
		CampaignID:    campaign.ID,
		TenantID:      campaign.TenantID,
		ParticipantID: req.ParticipantID,
		RecipientID:   req.RecipientID,
		Reference:     ref.NewDisbursement(),
		Status:        rewarddom.DisbursementStatusPending,
	}
	if d.RecipientID == "" {
		d.RecipientID = req.ParticipantID
	}
	if err := o.disbursements.Create(ctx, d); err != nil {
		if xerrors.Is(err, xerrors.ErrDuplicateEntry) {
			// A concurrent request for the same participant won. Give the
			// reserved slot back.
			if rerr := o.campaigns.RestoreSlot(ctx, campaign.ID); rerr != nil {
				o.logger.Error("failed to restore slot after duplicate", zap.Error(rerr))
			}
			return nil
		}
		return err
	}

	return o.dispatch(ctx, campaign, d)
}

// retryFailed re-runs a terminally FAILED disbursement on its existing
// record. The failed attempt restored its slot, so a retry reserves
// again; net allocation impact of fail+retry is zero.
func (o *Orchestrator) retryFailed(ctx context.Context, campaign *rewarddom.Campaign, d *rewarddom.Disbursement) error {
	_, reserved, err := o.campaigns.ReserveSlot(ctx, campaign.ID)
	if err != nil {
		return err
	}
	if !reserved {
		metrics.ReservationsLost.Inc()
		return nil
	}

	if err := o.disbursements.MarkOutcome(ctx, d.ID, rewarddom.DisbursementStatusPending, "", ""); err != nil {
		return err
	}
	d.Status = rewarddom.DisbursementStatusPending

	return o.dispatch(ctx, campaign, d)
}

func (o *Orchestrator) dispatch(ctx context.Context, campaign *rewarddom.Campaign, d *rewarddom.Disbursement) error {
	provider, found := o.registry.ProviderFor(campaign.Kind)
	if !found {
		return o.fail(ctx, campaign, d, "", reasonNoProvider)
	}

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	providerTxnID, err := provider.Disburse(callCtx, campaign, d)
	if err != nil {
		// Timeouts included: most reward APIs are not safely re-callable,
		// so a timeout is a terminal failure, not a silent retry.
		return o.fail(ctx, campaign, d, provider.Name(), err.Error())
	}

	if err := o.disbursements.MarkOutcome(ctx, d.ID, rewarddom.DisbursementStatusSuccess, providerTxnID, ""); err != nil {
		return err
	}
	d.Status = rewarddom.DisbursementStatusSuccess

	metrics.DisbursementsTotal.WithLabelValues(provider.Name(), string(rewarddom.DisbursementStatusSuccess)).Inc()
	o.publishOutcome(campaign, d, provider.Name())

	o.logger.Info("reward disbursed",
		zap.Int64("campaign_id", campaign.ID),
		zap.Int64("disbursement_id", d.ID),
		zap.String("provider", provider.Name()),
		zap.String("provider_txn_id", providerTxnID),
	)
	return nil
}

// fail records the terminal failure and restores the reserved slot:
// the reward was never delivered, so the allocation goes back.
func (o *Orchestrator) fail(ctx context.Context, campaign *rewarddom.Campaign, d *rewarddom.Disbursement, providerName, reason string) error {
	if err := o.disbursements.MarkOutcome(ctx, d.ID, rewarddom.DisbursementStatusFailed, "", reason); err != nil {
		return err
	}
	d.Status = rewarddom.DisbursementStatusFailed

	if err := o.campaigns.RestoreSlot(ctx, campaign.ID); err != nil {
		o.logger.Error("failed to restore slot after failed disbursement",
			zap.Int64("campaign_id", campaign.ID),
			zap.Error(err),
		)
	}

	label := providerName
	if label == "" {
		label = "none"
	}
	metrics.DisbursementsTotal.WithLabelValues(label, string(rewarddom.DisbursementStatusFailed)).Inc()
	o.publishOutcome(campaign, d, providerName)

	o.logger.Warn("reward disbursement failed",
		zap.Int64("campaign_id", campaign.ID),
		zap.Int64("disbursement_id", d.ID),
		zap.String("reason", reason),
	)
	return nil
}

func (o *Orchestrator) publishOutcome(campaign *rewarddom.Campaign, d *rewarddom.Disbursement, providerName string) {
	o.bus.Publish(event.RewardDisbursed{
		TenantID:       campaign.TenantID,
		CampaignID:     campaign.ID,
		DisbursementID: d.ID,
		ParticipantID:  d.ParticipantID,
		Status:         string(d.Status),
		Provider:       providerName,
	})
}
