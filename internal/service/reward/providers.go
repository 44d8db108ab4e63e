// internal/service/reward/providers.go
package reward

import (
	"context"
	"fmt"

	rewarddom "tafiti-service/internal/domain/reward"
	"tafiti-service/internal/payout"
	"tafiti-service/internal/pkg/ref"
	"tafiti-service/internal/repository"
)

// PayoutClient is the slice of the telco payout API the external
// providers use. The disbursement reference is passed as the
// provider-side idempotency key on every call.
type PayoutClient interface {
	SendAirtime(ctx context.Context, msisdn string, amount float64, currency, reference string) (string, error)
	SendDataBundle(ctx context.Context, msisdn string, amount float64, currency, reference string) (string, error)
	IssueVoucher(ctx context.Context, recipient string, amount float64, currency, reference string) (string, error)
}

var _ PayoutClient = (*payout.Client)(nil)

// ---------- Airtime ----------

type AirtimeProvider struct {
	payout PayoutClient
}

func NewAirtimeProvider(p PayoutClient) *AirtimeProvider {
	return &AirtimeProvider{payout: p}
}

func (p *AirtimeProvider) Name() string { return "airtime" }

func (p *AirtimeProvider) Supports(kind rewarddom.Kind) bool {
	return kind == rewarddom.KindAirtime
}

func (p *AirtimeProvider) Disburse(ctx context.Context, c *rewarddom.Campaign, d *rewarddom.Disbursement) (string, error) {
	return p.payout.SendAirtime(ctx, d.RecipientID, c.UnitAmount, c.Currency.String, d.Reference)
}

// ---------- Data bundle ----------

type DataBundleProvider struct {
	payout PayoutClient
}

func NewDataBundleProvider(p PayoutClient) *DataBundleProvider {
	return &DataBundleProvider{payout: p}
}

func (p *DataBundleProvider) Name() string { return "data_bundle" }

func (p *DataBundleProvider) Supports(kind rewarddom.Kind) bool {
	return kind == rewarddom.KindDataBundle
}

func (p *DataBundleProvider) Disburse(ctx context.Context, c *rewarddom.Campaign, d *rewarddom.Disbursement) (string, error) {
	return p.payout.SendDataBundle(ctx, d.RecipientID, c.UnitAmount, c.Currency.String, d.Reference)
}

// ---------- Loyalty points ----------

// LoyaltyProvider credits the local points ledger; no external call.
type LoyaltyProvider struct {
	ledger repository.LoyaltyLedger
}

func NewLoyaltyProvider(ledger repository.LoyaltyLedger) *LoyaltyProvider {
	return &LoyaltyProvider{ledger: ledger}
}

func (p *LoyaltyProvider) Name() string { return "loyalty" }

func (p *LoyaltyProvider) Supports(kind rewarddom.Kind) bool {
	return kind == rewarddom.KindLoyaltyPoints
}

func (p *LoyaltyProvider) Disburse(ctx context.Context, c *rewarddom.Campaign, d *rewarddom.Disbursement) (string, error) {
	credit := &rewarddom.LoyaltyCredit{
		TenantID:      c.TenantID,
		ParticipantID: d.ParticipantID,
		Points:        c.UnitAmount,
		Reference:     ref.NewLoyaltyCredit(),
	}
	if err := p.ledger.Credit(ctx, credit); err != nil {
		return "", fmt.Errorf("ledger credit failed: %w", err)
	}
	return credit.Reference, nil
}

// ---------- Voucher ----------

type VoucherProvider struct {
	payout PayoutClient
}

func NewVoucherProvider(p PayoutClient) *VoucherProvider {
	return &VoucherProvider{payout: p}
}

func (p *VoucherProvider) Name() string { return "voucher" }

func (p *VoucherProvider) Supports(kind rewarddom.Kind) bool {
	return kind == rewarddom.KindVoucher
}

func (p *VoucherProvider) Disburse(ctx context.Context, c *rewarddom.Campaign, d *rewarddom.Disbursement) (string, error) {
	return p.payout.IssueVoucher(ctx, d.RecipientID, c.UnitAmount, c.Currency.String, d.Reference)
}
