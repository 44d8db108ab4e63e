// internal/handlers/webhook/webhook_handler.go
package webhook

import (
	"net/http"
	"strconv"

	businessdom "tafiti-service/internal/domain/business"
	xerrors "tafiti-service/internal/pkg/errors"
	"tafiti-service/internal/pkg/response"
	businesssvc "tafiti-service/internal/service/business"
	paymentsvc "tafiti-service/internal/service/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SignatureHeader carries the gateway's HMAC over the raw body.
const SignatureHeader = "X-Gateway-Signature"

type WebhookHandler struct {
	payments *paymentsvc.WebhookService
	business *businesssvc.BusinessService
	logger   *zap.Logger
}

func NewWebhookHandler(payments *paymentsvc.WebhookService, business *businesssvc.BusinessService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{payments: payments, business: business, logger: logger}
}

// Gateway handles POST /webhooks/gateway. Only a bad signature gets a
// 401; every authenticated delivery is acked with 200 so the gateway
// stops retrying, even when our own processing failed.
func (h *WebhookHandler) Gateway(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		response.ValidationError(c, "unreadable payload", err)
		return
	}

	err = h.payments.Handle(c.Request.Context(), payload, c.GetHeader(SignatureHeader))
	if xerrors.Is(err, xerrors.ErrInvalidSignature) {
		response.Unauthorized(c, "invalid signature")
		return
	}
	if err != nil {
		// Ack regardless; the settle is replay-safe and the reconciler picks
		// up whatever this delivery could not finish.
		h.logger.Error("webhook processing failed", zap.Error(err))
	}
	response.Success(c, http.StatusOK, "acknowledged", nil)
}

// BusinessConfirmation handles POST
// /webhooks/business/:integration_id/:secret/confirmation. The
// mobile-money gateway only understands the fixed Ack shape, so this
// endpoint never returns the standard envelope.
func (h *WebhookHandler) BusinessConfirmation(c *gin.Context) {
	integrationID, err := strconv.ParseInt(c.Param("integration_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, businessdom.Accepted())
		return
	}

	var in businessdom.ConfirmationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.logger.Warn("malformed business confirmation", zap.Error(err))
		c.JSON(http.StatusOK, businessdom.Accepted())
		return
	}

	err = h.business.Confirm(c.Request.Context(), integrationID, c.Param("secret"), &in)
	if xerrors.Is(err, xerrors.ErrUnauthorized) {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.logger.Error("business confirmation failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, businessdom.Accepted())
}

// BusinessValidation handles the gateway's pre-transaction validation
// ping. We accept everything; filtering happens at confirmation time.
func (h *WebhookHandler) BusinessValidation(c *gin.Context) {
	c.JSON(http.StatusOK, businessdom.Accepted())
}
