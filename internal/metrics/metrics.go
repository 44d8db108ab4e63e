// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Payments
	PaymentsInitiated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_initiated_total",
			Help: "Payment initiation requests",
		},
		[]string{"result"}, // created|replayed|failed
	)
	WebhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_webhooks_total",
			Help: "Inbound payment gateway webhooks",
		},
		[]string{"result"}, // settled|replay|failed_charge|ignored|rejected|orphaned
	)
	SettlementsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "settlements_total",
			Help: "Settlement transactions recorded",
		},
	)

	// Rewards
	DisbursementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reward_disbursements_total",
			Help: "Reward disbursement outcomes",
		},
		[]string{"provider", "status"},
	)
	ReservationsLost = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reward_reservations_lost_total",
			Help: "Allocation reservations lost to races or depletion",
		},
	)
	CampaignsDepleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reward_campaigns_depleted_total",
			Help: "Campaigns whose allocation reached zero",
		},
	)

	// Business transactions
	BusinessTransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "business_transactions_total",
			Help: "Inbound mobile-money confirmations",
		},
		[]string{"result"}, // recorded|duplicate|rejected
	)

	// Event bus
	EventQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_queue_depth",
			Help: "Domain events waiting for a handler",
		},
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(PaymentsInitiated)
	prometheus.MustRegister(WebhooksTotal)
	prometheus.MustRegister(SettlementsTotal)
	prometheus.MustRegister(DisbursementsTotal)
	prometheus.MustRegister(ReservationsLost)
	prometheus.MustRegister(CampaignsDepleted)
	prometheus.MustRegister(BusinessTransactionsTotal)
	prometheus.MustRegister(EventQueueDepth)
}
