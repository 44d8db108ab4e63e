// internal/handlers/business/business_handler.go
package business

import (
	"net/http"

	businessdom "tafiti-service/internal/domain/business"
	"tafiti-service/internal/middleware"
	xerrors "tafiti-service/internal/pkg/errors"
	"tafiti-service/internal/pkg/response"
	businesssvc "tafiti-service/internal/service/business"

	"github.com/gin-gonic/gin"
)

type BusinessHandler struct {
	svc *businesssvc.BusinessService
}

func NewBusinessHandler(svc *businesssvc.BusinessService) *BusinessHandler {
	return &BusinessHandler{svc: svc}
}

// CreateIntegration handles POST /integrations. The plaintext secret is
// returned exactly once, in this response.
func (h *BusinessHandler) CreateIntegration(c *gin.Context) {
	var in businessdom.CreateIntegrationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.ValidationError(c, "invalid integration request", err)
		return
	}

	integration, err := h.svc.CreateIntegration(c.Request.Context(), middleware.MustGetTenantID(c), &in)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrDuplicateEntry) {
			response.Error(c, http.StatusConflict, "an integration with this name already exists", err)
			return
		}
		response.Error(c, http.StatusInternalServerError, "could not create integration", err)
		return
	}
	response.Success(c, http.StatusCreated, "integration created", integration)
}
