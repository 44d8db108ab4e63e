// internal/service/reward/orchestrator_test.go
package reward

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"tafiti-service/internal/domain/event"
	rewarddom "tafiti-service/internal/domain/reward"
	"tafiti-service/internal/eventbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orchestratorFixture struct {
	campaigns     *fakeCampaignStore
	disbursements *fakeDisbursementStore
	registry      *Registry
	bus           *eventbus.Bus
	orchestrator  *Orchestrator
	outcomes      *outcomeCollector
}

type outcomeCollector struct {
	mu     sync.Mutex
	events []event.RewardDisbursed
}

func (c *outcomeCollector) handle(_ context.Context, evt event.Event) error {
	e, ok := evt.(event.RewardDisbursed)
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *outcomeCollector) all() []event.RewardDisbursed {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]event.RewardDisbursed, len(c.events))
	copy(out, c.events)
	return out
}

func newOrchestratorFixture(providers ...Provider) *orchestratorFixture {
	logger := zap.NewNop()
	f := &orchestratorFixture{
		campaigns:     newFakeCampaignStore(),
		disbursements: newFakeDisbursementStore(),
		registry:      NewRegistry(logger),
		bus:           eventbus.New(2, logger),
		outcomes:      &outcomeCollector{},
	}
	for _, p := range providers {
		f.registry.Register(p)
	}
	f.bus.Subscribe(event.NameRewardDisbursed, "test.outcomes", f.outcomes.handle)
	f.orchestrator = NewOrchestrator(f.campaigns, f.disbursements, f.registry, f.bus, time.Second, logger)
	return f
}

func (f *orchestratorFixture) seedCampaign(kind rewarddom.Kind, max int) *rewarddom.Campaign {
	return f.campaigns.seed(&rewarddom.Campaign{
		TenantID:      1,
		OwnerID:       5,
		SurveyRef:     "SRV-001",
		Kind:          kind,
		UnitAmount:    10,
		MaxRecipients: max,
		Remaining:     max,
		Status:        rewarddom.CampaignStatusActive,
	})
}

func request(campaignID int64, participant string) event.RewardDistributionRequested {
	return event.RewardDistributionRequested{
		TenantID:      1,
		CampaignID:    campaignID,
		ParticipantID: participant,
		RecipientID:   participant,
	}
}

func TestDistributionSuccess(t *testing.T) {
	airtime := &fakeProvider{name: "airtime", kinds: map[rewarddom.Kind]bool{rewarddom.KindAirtime: true}}
	f := newOrchestratorFixture(airtime)
	campaign := f.seedCampaign(rewarddom.KindAirtime, 3)

	err := f.orchestrator.HandleDistributionRequested(context.Background(), request(campaign.ID, "p-1"))
	require.NoError(t, err)
	f.bus.Stop()

	d := f.disbursements.get(1)
	require.NotNil(t, d)
	assert.Equal(t, rewarddom.DisbursementStatusSuccess, d.Status)
	assert.True(t, d.ProviderTxnID.Valid)

	assert.Equal(t, 2, f.campaigns.get(campaign.ID).Remaining)
	assert.Equal(t, 1, airtime.callCount())

	outcomes := f.outcomes.all()
	require.Len(t, outcomes, 1)
	assert.Equal(t, string(rewarddom.DisbursementStatusSuccess), outcomes[0].Status)
}

func TestDistributionIsIdempotentPerParticipant(t *testing.T) {
	airtime := &fakeProvider{name: "airtime", kinds: map[rewarddom.Kind]bool{rewarddom.KindAirtime: true}}
	f := newOrchestratorFixture(airtime)
	campaign := f.seedCampaign(rewarddom.KindAirtime, 5)

	for i := 0; i < 4; i++ {
		require.NoError(t, f.orchestrator.HandleDistributionRequested(context.Background(), request(campaign.ID, "p-1")))
	}
	f.bus.Stop()

	assert.Equal(t, 1, airtime.callCount(), "one participant is paid at most once")
	assert.Equal(t, 4, f.campaigns.get(campaign.ID).Remaining)
	assert.Equal(t, 1, f.disbursements.countByStatus(rewarddom.DisbursementStatusSuccess))
}

func TestDistributionStopsAtAllocationCap(t *testing.T) {
	airtime := &fakeProvider{name: "airtime", kinds: map[rewarddom.Kind]bool{rewarddom.KindAirtime: true}}
	f := newOrchestratorFixture(airtime)
	campaign := f.seedCampaign(rewarddom.KindAirtime, 3)

	for i := 0; i < 10; i++ {
		participant := fmt.Sprintf("p-%d", i)
		require.NoError(t, f.orchestrator.HandleDistributionRequested(context.Background(), request(campaign.ID, participant)))
	}
	f.bus.Stop()

	assert.Equal(t, 3, airtime.callCount(), "never more disbursements than the cap")
	assert.Equal(t, 3, f.disbursements.countByStatus(rewarddom.DisbursementStatusSuccess))

	final := f.campaigns.get(campaign.ID)
	assert.Equal(t, 0, final.Remaining)
	assert.Equal(t, rewarddom.CampaignStatusDepleted, final.Status)
}

func TestConcurrentDistributionNeverOverspends(t *testing.T) {
	airtime := &fakeProvider{name: "airtime", kinds: map[rewarddom.Kind]bool{rewarddom.KindAirtime: true}}
	f := newOrchestratorFixture(airtime)
	campaign := f.seedCampaign(rewarddom.KindAirtime, 5)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			participant := fmt.Sprintf("p-%d", n)
			assert.NoError(t, f.orchestrator.HandleDistributionRequested(context.Background(), request(campaign.ID, participant)))
		}(i)
	}
	wg.Wait()
	f.bus.Stop()

	assert.Equal(t, 5, airtime.callCount())
	assert.Equal(t, 5, f.disbursements.countByStatus(rewarddom.DisbursementStatusSuccess))
	assert.Equal(t, 0, f.campaigns.get(campaign.ID).Remaining)
}

func TestProviderFailureRestoresAllocation(t *testing.T) {
	airtime := &fakeProvider{
		name:  "airtime",
		kinds: map[rewarddom.Kind]bool{rewarddom.KindAirtime: true},
		err:   errors.New("telco unavailable"),
	}
	f := newOrchestratorFixture(airtime)
	campaign := f.seedCampaign(rewarddom.KindAirtime, 2)

	require.NoError(t, f.orchestrator.HandleDistributionRequested(context.Background(), request(campaign.ID, "p-1")))
	f.bus.Stop()

	d := f.disbursements.get(1)
	require.NotNil(t, d)
	assert.Equal(t, rewarddom.DisbursementStatusFailed, d.Status)
	assert.Equal(t, "telco unavailable", d.FailureReason.String)

	assert.Equal(t, 2, f.campaigns.get(campaign.ID).Remaining,
		"a failed disbursement gives its slot back")
}

func TestFailureOnLastSlotRevivesDepletedCampaign(t *testing.T) {
	airtime := &fakeProvider{
		name:  "airtime",
		kinds: map[rewarddom.Kind]bool{rewarddom.KindAirtime: true},
		err:   errors.New("telco unavailable"),
	}
	f := newOrchestratorFixture(airtime)
	campaign := f.seedCampaign(rewarddom.KindAirtime, 1)

	require.NoError(t, f.orchestrator.HandleDistributionRequested(context.Background(), request(campaign.ID, "p-1")))
	f.bus.Stop()

	final := f.campaigns.get(campaign.ID)
	assert.Equal(t, 1, final.Remaining)
	assert.Equal(t, rewarddom.CampaignStatusActive, final.Status,
		"restoring the last slot reopens the campaign")
}

func TestFailedDisbursementCanBeRetried(t *testing.T) {
	airtime := &fakeProvider{
		name:  "airtime",
		kinds: map[rewarddom.Kind]bool{rewarddom.KindAirtime: true},
		err:   errors.New("telco unavailable"),
	}
	f := newOrchestratorFixture(airtime)
	campaign := f.seedCampaign(rewarddom.KindAirtime, 2)

	require.NoError(t, f.orchestrator.HandleDistributionRequested(context.Background(), request(campaign.ID, "p-1")))

	airtime.mu.Lock()
	airtime.err = nil
	airtime.mu.Unlock()

	require.NoError(t, f.orchestrator.HandleDistributionRequested(context.Background(), request(campaign.ID, "p-1")))
	f.bus.Stop()

	d := f.disbursements.get(1)
	assert.Equal(t, rewarddom.DisbursementStatusSuccess, d.Status)
	assert.Equal(t, 1, f.campaigns.get(campaign.ID).Remaining,
		"fail+retry consumes exactly one slot net")

	f.disbursements.mu.Lock()
	assert.Len(t, f.disbursements.rows, 1, "retries reuse the disbursement row")
	f.disbursements.mu.Unlock()
}

func TestNoProviderFailsTerminally(t *testing.T) {
	airtime := &fakeProvider{name: "airtime", kinds: map[rewarddom.Kind]bool{rewarddom.KindAirtime: true}}
	f := newOrchestratorFixture(airtime)
	campaign := f.seedCampaign(rewarddom.KindVoucher, 2)

	require.NoError(t, f.orchestrator.HandleDistributionRequested(context.Background(), request(campaign.ID, "p-1")))
	f.bus.Stop()

	d := f.disbursements.get(1)
	require.NotNil(t, d)
	assert.Equal(t, rewarddom.DisbursementStatusFailed, d.Status)
	assert.Equal(t, "no provider available", d.FailureReason.String)
	assert.Equal(t, 0, airtime.callCount(), "a voucher must never route to the airtime provider")
	assert.Equal(t, 2, f.campaigns.get(campaign.ID).Remaining)
}

func TestMissingCampaignIsDropped(t *testing.T) {
	f := newOrchestratorFixture()
	defer f.bus.Stop()

	assert.NoError(t, f.orchestrator.HandleDistributionRequested(context.Background(), request(999, "p-1")))
}

func TestLoyaltyProviderWritesLedger(t *testing.T) {
	ledger := &fakeLedger{}
	f := newOrchestratorFixture(NewLoyaltyProvider(ledger))
	campaign := f.campaigns.seed(&rewarddom.Campaign{
		TenantID:      1,
		SurveyRef:     "SRV-002",
		Kind:          rewarddom.KindLoyaltyPoints,
		UnitAmount:    100,
		MaxRecipients: 2,
		Remaining:     2,
		Status:        rewarddom.CampaignStatusActive,
	})

	require.NoError(t, f.orchestrator.HandleDistributionRequested(context.Background(), request(campaign.ID, "p-1")))
	f.bus.Stop()

	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	require.Len(t, ledger.credits, 1)
	assert.Equal(t, "p-1", ledger.credits[0].ParticipantID)
	assert.Equal(t, 100.0, ledger.credits[0].Points)
}
