// internal/handlers/payment/payment_handler.go
package payment

import (
	"net/http"
	"strconv"

	paymentdom "tafiti-service/internal/domain/payment"
	"tafiti-service/internal/middleware"
	xerrors "tafiti-service/internal/pkg/errors"
	"tafiti-service/internal/pkg/response"
	paymentsvc "tafiti-service/internal/service/payment"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	svc *paymentsvc.PaymentService
}

func NewPaymentHandler(svc *paymentsvc.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// Initiate handles POST /payments. A replayed idempotency key returns
// the original attempt with 200 instead of 201.
func (h *PaymentHandler) Initiate(c *gin.Context) {
	var in paymentdom.InitiateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.ValidationError(c, "invalid payment request", err)
		return
	}

	tenantID := middleware.MustGetTenantID(c)
	userID := middleware.MustGetIdentityID(c)

	attempt, err := h.svc.Initiate(c.Request.Context(), tenantID, userID, &in)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrInvalidInput) {
			response.ValidationError(c, "invalid payment request", err)
			return
		}
		response.Error(c, http.StatusInternalServerError, "could not initiate payment", err)
		return
	}

	status := http.StatusCreated
	message := "payment initiated"
	if attempt.Status == paymentdom.StatusFailed {
		status = http.StatusOK
		message = "payment failed at gateway"
	}
	response.Success(c, status, message, attempt)
}

// Get handles GET /payments/:id.
func (h *PaymentHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid payment id", err)
		return
	}

	attempt, err := h.svc.GetAttempt(c.Request.Context(), middleware.MustGetTenantID(c), id)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		response.NotFound(c, "payment not found")
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "could not fetch payment", err)
		return
	}
	response.Success(c, http.StatusOK, "payment fetched", attempt)
}

// ListSettlements handles GET /payments/:id/settlements.
func (h *PaymentHandler) ListSettlements(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ValidationError(c, "invalid payment id", err)
		return
	}

	settlements, err := h.svc.ListSettlements(c.Request.Context(), middleware.MustGetTenantID(c), id)
	if xerrors.Is(err, xerrors.ErrNotFound) {
		response.NotFound(c, "payment not found")
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "could not fetch settlements", err)
		return
	}
	response.Success(c, http.StatusOK, "settlements fetched", settlements)
}
