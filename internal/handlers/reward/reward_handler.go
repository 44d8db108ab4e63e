// internal/handlers/reward/reward_handler.go
package reward

import (
	"net/http"
	"strconv"

	rewarddom "tafiti-service/internal/domain/reward"
	"tafiti-service/internal/middleware"
	xerrors "tafiti-service/internal/pkg/errors"
	"tafiti-service/internal/pkg/response"
	rewardsvc "tafiti-service/internal/service/reward"

	"github.com/gin-gonic/gin"
)

type RewardHandler struct {
	campaigns *rewardsvc.CampaignService
}

func NewRewardHandler(campaigns *rewardsvc.CampaignService) *RewardHandler {
	return &RewardHandler{campaigns: campaigns}
}

// CreateCampaign handles POST /campaigns.
func (h *RewardHandler) CreateCampaign(c *gin.Context) {
	var in rewarddom.CreateCampaignInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.ValidationError(c, "invalid campaign request", err)
		return
	}

	campaign, err := h.campaigns.Create(c.Request.Context(), middleware.MustGetTenantID(c), middleware.MustGetIdentityID(c), &in)
	if err != nil {
		switch {
		case xerrors.Is(err, xerrors.ErrInvalidInput):
			response.ValidationError(c, "invalid campaign request", err)
		case xerrors.Is(err, xerrors.ErrDuplicateEntry):
			response.Error(c, http.StatusConflict, "a campaign already exists for this survey", err)
		default:
			response.Error(c, http.StatusInternalServerError, "could not create campaign", err)
		}
		return
	}
	response.Success(c, http.StatusCreated, "campaign created", campaign)
}

// GetCampaign handles GET /campaigns/:id.
func (h *RewardHandler) GetCampaign(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid campaign id", err)
		return
	}

	campaign, err := h.campaigns.Get(c.Request.Context(), middleware.MustGetTenantID(c), id)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		response.NotFound(c, "campaign not found")
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "could not fetch campaign", err)
		return
	}
	response.Success(c, http.StatusOK, "campaign fetched", campaign)
}

// ListCampaigns handles GET /campaigns.
func (h *RewardHandler) ListCampaigns(c *gin.Context) {
	var f rewarddom.CampaignListFilters
	if err := c.ShouldBindQuery(&f); err != nil {
		response.ValidationError(c, "invalid filters", err)
		return
	}

	out, err := h.campaigns.List(c.Request.Context(), middleware.MustGetTenantID(c), &f)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "could not list campaigns", err)
		return
	}
	response.Success(c, http.StatusOK, "campaigns fetched", out)
}

// CancelCampaign handles POST /campaigns/:id/cancel.
func (h *RewardHandler) CancelCampaign(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid campaign id", err)
		return
	}

	err = h.campaigns.Cancel(c.Request.Context(), middleware.MustGetTenantID(c), id)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		response.NotFound(c, "campaign not found")
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "could not cancel campaign", err)
		return
	}
	response.Success(c, http.StatusOK, "campaign cancelled", nil)
}

// ListDisbursements handles GET /campaigns/:id/disbursements.
func (h *RewardHandler) ListDisbursements(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid campaign id", err)
		return
	}

	disbursements, err := h.campaigns.ListDisbursements(c.Request.Context(), middleware.MustGetTenantID(c), id)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		response.NotFound(c, "campaign not found")
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "could not fetch disbursements", err)
		return
	}
	response.Success(c, http.StatusOK, "disbursements fetched", disbursements)
}
