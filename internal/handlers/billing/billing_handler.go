// internal/handlers/billing/billing_handler.go
package billing

import (
	"net/http"

	"tafiti-service/internal/middleware"
	"tafiti-service/internal/pkg/response"
	billingsvc "tafiti-service/internal/service/billing"

	"github.com/gin-gonic/gin"
)

type BillingHandler struct {
	svc *billingsvc.BillingService
}

func NewBillingHandler(svc *billingsvc.BillingService) *BillingHandler {
	return &BillingHandler{svc: svc}
}

// Subscribe handles POST /billing/subscriptions.
func (h *BillingHandler) Subscribe(c *gin.Context) {
	var in billingsvc.SubscribeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.ValidationError(c, "invalid subscription request", err)
		return
	}

	result, err := h.svc.Subscribe(c.Request.Context(), middleware.MustGetTenantID(c), &in)
	if err != nil {
		response.Error(c, http.StatusBadGateway, "could not create subscription", err)
		return
	}
	response.Success(c, http.StatusCreated, "subscription created", result)
}

type unsubscribeInput struct {
	SubscriptionCode string `json:"subscription_code" binding:"required"`
	EmailToken       string `json:"email_token" binding:"required"`
}

// Unsubscribe handles POST /billing/subscriptions/disable.
func (h *BillingHandler) Unsubscribe(c *gin.Context) {
	var in unsubscribeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.ValidationError(c, "invalid request", err)
		return
	}

	if err := h.svc.Unsubscribe(c.Request.Context(), middleware.MustGetTenantID(c), in.SubscriptionCode, in.EmailToken); err != nil {
		response.Error(c, http.StatusBadGateway, "could not disable subscription", err)
		return
	}
	response.Success(c, http.StatusOK, "subscription disabled", nil)
}
