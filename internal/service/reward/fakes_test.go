// internal/service/reward/fakes_test.go
package reward

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	rewarddom "tafiti-service/internal/domain/reward"
	xerrors "tafiti-service/internal/pkg/errors"
)

// fakeCampaignStore reproduces the conditional reserve/restore
// semantics of the Postgres repository under one mutex.
type fakeCampaignStore struct {
	mu        sync.Mutex
	nextID    int64
	campaigns map[int64]*rewarddom.Campaign
}

func newFakeCampaignStore() *fakeCampaignStore {
	return &fakeCampaignStore{campaigns: make(map[int64]*rewarddom.Campaign)}
}

func (f *fakeCampaignStore) seed(c *rewarddom.Campaign) *rewarddom.Campaign {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = f.nextID
	cp := *c
	f.campaigns[c.ID] = &cp
	return c
}

func (f *fakeCampaignStore) get(id int64) *rewarddom.Campaign {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.campaigns[id]
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

func (f *fakeCampaignStore) Create(_ context.Context, c *rewarddom.Campaign) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.campaigns {
		if existing.TenantID == c.TenantID && existing.SurveyRef == c.SurveyRef {
			return xerrors.ErrDuplicateEntry
		}
	}
	f.nextID++
	c.ID = f.nextID
	cp := *c
	f.campaigns[c.ID] = &cp
	return nil
}

func (f *fakeCampaignStore) FindByID(_ context.Context, tenantID, id int64) (*rewarddom.Campaign, error) {
	c := f.get(id)
	if c == nil || c.TenantID != tenantID {
		return nil, xerrors.ErrNotFound
	}
	return c, nil
}

func (f *fakeCampaignStore) FindBySurvey(_ context.Context, tenantID int64, surveyRef string) (*rewarddom.Campaign, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.campaigns {
		if c.TenantID == tenantID && c.SurveyRef == surveyRef {
			cp := *c
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeCampaignStore) List(_ context.Context, tenantID int64, _ *rewarddom.CampaignListFilters) ([]rewarddom.Campaign, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []rewarddom.Campaign
	for _, c := range f.campaigns {
		if c.TenantID == tenantID {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeCampaignStore) ReserveSlot(_ context.Context, id int64) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return 0, false, xerrors.ErrNotFound
	}
	if c.Status != rewarddom.CampaignStatusActive || c.Remaining <= 0 {
		return 0, false, nil
	}
	c.Remaining--
	if c.Remaining == 0 {
		c.Status = rewarddom.CampaignStatusDepleted
	}
	return c.Remaining, true, nil
}

func (f *fakeCampaignStore) RestoreSlot(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	if c.Remaining >= c.MaxRecipients {
		return xerrors.ErrConflict
	}
	c.Remaining++
	if c.Status == rewarddom.CampaignStatusDepleted {
		c.Status = rewarddom.CampaignStatusActive
	}
	return nil
}

func (f *fakeCampaignStore) Cancel(_ context.Context, tenantID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.campaigns[id]
	if !ok || c.TenantID != tenantID {
		return xerrors.ErrNotFound
	}
	c.Status = rewarddom.CampaignStatusCancelled
	return nil
}

type fakeDisbursementStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*rewarddom.Disbursement
}

func newFakeDisbursementStore() *fakeDisbursementStore {
	return &fakeDisbursementStore{rows: make(map[int64]*rewarddom.Disbursement)}
}

func (f *fakeDisbursementStore) get(id int64) *rewarddom.Disbursement {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.rows[id]
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}

func (f *fakeDisbursementStore) Create(_ context.Context, d *rewarddom.Disbursement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rows {
		if existing.CampaignID == d.CampaignID && existing.ParticipantID == d.ParticipantID {
			return xerrors.ErrDuplicateEntry
		}
	}
	f.nextID++
	d.ID = f.nextID
	cp := *d
	f.rows[d.ID] = &cp
	return nil
}

func (f *fakeDisbursementStore) FindByCampaignAndParticipant(_ context.Context, campaignID int64, participantID string) (*rewarddom.Disbursement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.rows {
		if d.CampaignID == campaignID && d.ParticipantID == participantID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeDisbursementStore) MarkOutcome(_ context.Context, id int64, status rewarddom.DisbursementStatus, providerTxnID, failureReason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.rows[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	d.Status = status
	d.ProviderTxnID = sql.NullString{String: providerTxnID, Valid: providerTxnID != ""}
	d.FailureReason = sql.NullString{String: failureReason, Valid: failureReason != ""}
	return nil
}

func (f *fakeDisbursementStore) ListByCampaign(_ context.Context, tenantID, campaignID int64) ([]rewarddom.Disbursement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []rewarddom.Disbursement
	for _, d := range f.rows {
		if d.TenantID == tenantID && d.CampaignID == campaignID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDisbursementStore) countByStatus(status rewarddom.DisbursementStatus) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, d := range f.rows {
		if d.Status == status {
			n++
		}
	}
	return n
}

type fakeLedger struct {
	mu      sync.Mutex
	credits []rewarddom.LoyaltyCredit
}

func (f *fakeLedger) Credit(_ context.Context, c *rewarddom.LoyaltyCredit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credits = append(f.credits, *c)
	return nil
}

// fakeProvider is a scriptable reward provider.
type fakeProvider struct {
	mu    sync.Mutex
	name  string
	kinds map[rewarddom.Kind]bool
	err   error
	calls int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Supports(kind rewarddom.Kind) bool { return p.kinds[kind] }

func (p *fakeProvider) Disburse(_ context.Context, _ *rewarddom.Campaign, d *rewarddom.Disbursement) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return fmt.Sprintf("%s-txn-%d", p.name, p.calls), nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
