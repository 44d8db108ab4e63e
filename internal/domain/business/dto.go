// internal/domain/business/dto.go
package business

// ConfirmationInput mirrors the mobile-money gateway's C2B confirmation
// payload. Field names follow the gateway contract.
type ConfirmationInput struct {
	TransactionType string `json:"TransactionType"`
	TransID         string `json:"TransID" binding:"required"`
	TransTime       string `json:"TransTime"`
	TransAmount     string `json:"TransAmount" binding:"required"`
	BusinessShortCode string `json:"BusinessShortCode"`
	MSISDN          string `json:"MSISDN" binding:"required"`
	FirstName       string `json:"FirstName"`
	LastName        string `json:"LastName"`
}

// Ack is the fixed two-field acknowledgment the gateway expects back,
// regardless of internal outcome.
type Ack struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// Accepted is the only acknowledgment the upstream gateway understands.
func Accepted() Ack {
	return Ack{ResultCode: 0, ResultDesc: "Accepted"}
}

type CreateIntegrationInput struct {
	SurveyRef  string   `json:"survey_ref" binding:"required"`
	Name       string   `json:"name" binding:"required"`
	Secret     string   `json:"secret" binding:"required,min=16"`
	ShortCodes []string `json:"short_codes"`
}
