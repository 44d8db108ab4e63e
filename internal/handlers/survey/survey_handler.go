// internal/handlers/survey/survey_handler.go
package survey

import (
	"net/http"

	"tafiti-service/internal/domain/event"
	"tafiti-service/internal/eventbus"
	"tafiti-service/internal/middleware"
	"tafiti-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type completionInput struct {
	SurveyRef     string `json:"survey_ref" binding:"required"`
	ResponseRef   string `json:"response_ref" binding:"required"`
	ParticipantID string `json:"participant_id" binding:"required"`
}

// SurveyHandler is the intake seam for the survey module: it converts
// completion notifications into domain events for the reward pipeline.
type SurveyHandler struct {
	bus *eventbus.Bus
}

func NewSurveyHandler(bus *eventbus.Bus) *SurveyHandler {
	return &SurveyHandler{bus: bus}
}

// Completed handles POST /surveys/completions.
func (h *SurveyHandler) Completed(c *gin.Context) {
	var in completionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.ValidationError(c, "invalid completion", err)
		return
	}

	h.bus.Publish(event.SurveyCompleted{
		TenantID:      middleware.MustGetTenantID(c),
		SurveyRef:     in.SurveyRef,
		ResponseRef:   in.ResponseRef,
		ParticipantID: in.ParticipantID,
	})
	response.Success(c, http.StatusAccepted, "completion accepted", nil)
}
