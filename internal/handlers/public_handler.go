package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wwtech/onboarding-backend/internal/services"
)

// PublicHandler serves the offer link opened by candidates
type PublicHandler struct {
	workflow *services.WorkflowService
	audit    auditTrail
	logger   *logrus.Logger
}

// NewPublicHandler creates a new public handler. auditService may be nil.
func NewPublicHandler(workflow *services.WorkflowService, auditService *services.AuditService, logger *logrus.Logger) *PublicHandler {
	return &PublicHandler{
		workflow: workflow,
		audit:    auditTrail{service: auditService, logger: logger},
		logger:   logger,
	}
}

// VerifyOffer handles GET /api/public/verify-offer/:token
// @Summary Verify offer link
// @Tags Public
// @Produce json
// @Param token path string true "Offer token"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /public/verify-offer/{token} [get]
func (h *PublicHandler) VerifyOffer(c *gin.Context) {
	view, err := h.workflow.VerifyOffer(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":     true,
		"candidate": view,
	})
}

// AcceptOffer handles POST /api/public/accept-offer/:token
// @Summary Accept offer
// @Tags Public
// @Produce json
// @Param token path string true "Offer token"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Router /public/accept-offer/{token} [post]
func (h *PublicHandler) AcceptOffer(c *gin.Context) {
	candidate, err := h.workflow.AcceptOffer(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.safeLogTransition(c, nil, services.AuditOfferAccepted, services.EntityCandidate, candidate.ID, nil)

	c.JSON(http.StatusOK, gin.H{
		"message": "Offer accepted successfully! You will receive joining details via email shortly.",
		"candidate": gin.H{
			"fullName": candidate.FullName,
			"position": candidate.Position,
			"practice": candidate.Practice,
		},
	})
}
