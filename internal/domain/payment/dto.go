// internal/domain/payment/dto.go
package payment

// InitiateInput is the request body for starting a charge.
type InitiateInput struct {
	SurveyRef      string  `json:"survey_ref" binding:"required"`
	Amount         float64 `json:"amount" binding:"required,gt=0"`
	Currency       string  `json:"currency" binding:"required,len=3"`
	IdempotencyKey string  `json:"idempotency_key" binding:"required"`
}

// GatewayWebhookEvent is the parsed shape of an inbound gateway
// callback. The gateway's JSON contract is versioned and external;
// fields here mirror it, they are not ours to redesign.
type GatewayWebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		GatewayID string `json:"id"`
		// Amount is in the gateway's minor units.
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Status   string `json:"status"`
		Message  string `json:"gateway_response"`
	} `json:"data"`
}

const (
	WebhookEventChargeSuccess = "charge.success"
	WebhookEventChargeFailed  = "charge.failed"
)

type ListFilters struct {
	Status   *Status `form:"status"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}
