// internal/service/reward/provider.go
package reward

import (
	"context"

	rewarddom "tafiti-service/internal/domain/reward"

	"go.uber.org/zap"
)

// Provider is one disbursement strategy. Implementations are a small
// closed set registered at startup; dispatch is a linear scan in
// registration order.
type Provider interface {
	Name() string
	Supports(kind rewarddom.Kind) bool
	// Disburse pays the recipient and returns the provider-side
	// transaction id.
	Disburse(ctx context.Context, campaign *rewarddom.Campaign, d *rewarddom.Disbursement) (string, error)
}

// Registry holds providers in registration order.
type Registry struct {
	providers []Provider
	logger    *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register appends a provider. Overlapping kind coverage is a
// configuration error: it is logged, and the earlier registration wins.
func (r *Registry) Register(p Provider) {
	for _, kind := range []rewarddom.Kind{
		rewarddom.KindAirtime, rewarddom.KindDataBundle,
		rewarddom.KindLoyaltyPoints, rewarddom.KindVoucher,
	} {
		if !p.Supports(kind) {
			continue
		}
		for _, existing := range r.providers {
			if existing.Supports(kind) {
				r.logger.Error("multiple providers registered for reward kind",
					zap.String("kind", string(kind)),
					zap.String("kept", existing.Name()),
					zap.String("ignored_for_kind", p.Name()),
				)
			}
		}
	}
	r.providers = append(r.providers, p)
}

// ProviderFor returns the first registered provider supporting the kind.
func (r *Registry) ProviderFor(kind rewarddom.Kind) (Provider, bool) {
	for _, p := range r.providers {
		if p.Supports(kind) {
			return p, true
		}
	}
	return nil, false
}
