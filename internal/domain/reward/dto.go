// internal/domain/reward/dto.go
package reward

type CreateCampaignInput struct {
	SurveyRef     string  `json:"survey_ref" binding:"required"`
	Kind          Kind    `json:"kind" binding:"required,oneof=AIRTIME DATA_BUNDLE LOYALTY_POINTS VOUCHER"`
	UnitAmount    float64 `json:"unit_amount" binding:"required,gt=0"`
	Currency      string  `json:"currency" binding:"omitempty,len=3"`
	ProviderName  string  `json:"provider_name"`
	MaxRecipients int     `json:"max_recipients" binding:"required,gt=0"`
}

type CampaignListFilters struct {
	Status   *CampaignStatus `form:"status"`
	Page     int             `form:"page"`
	PageSize int             `form:"page_size"`
}

type CampaignListResponse struct {
	Campaigns []Campaign `json:"campaigns"`
	Total     int64      `json:"total"`
	Page      int        `json:"page"`
	PageSize  int        `json:"page_size"`
}
