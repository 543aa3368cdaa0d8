package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"github.com/wwtech/onboarding-backend/internal/middleware"
	"github.com/wwtech/onboarding-backend/internal/models"
	"github.com/wwtech/onboarding-backend/internal/services"
)

// EmployeeHandler serves the new hire's own joining request
type EmployeeHandler struct {
	workflow *services.WorkflowService
	audit    auditTrail
	logger   *logrus.Logger
}

// NewEmployeeHandler creates a new employee handler. auditService may be nil.
func NewEmployeeHandler(workflow *services.WorkflowService, auditService *services.AuditService, logger *logrus.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		workflow: workflow,
		audit:    auditTrail{service: auditService, logger: logger},
		logger:   logger,
	}
}

// GetJoiningRequest handles GET /api/employee/joining-request
// @Summary My joining request
// @Tags Employee
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.JoiningRequest
// @Failure 404 {object} ErrorResponse
// @Router /employee/joining-request [get]
func (h *EmployeeHandler) GetJoiningRequest(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	jr, err := h.workflow.GetMyJoiningRequest(c.Request.Context(), userCtx.Email)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, jr)
}

// SubmitJoiningForm handles POST /api/employee/submit-joining-form
// @Summary Submit joining form
// @Description Multipart text fields plus profilePhoto, idProof, addressProof, tenthDocument,
// @Description interDocument, btechDocument and experienceCertificate_<i> per experience entry
// @Tags Employee
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /employee/submit-joining-form [post]
func (h *EmployeeHandler) SubmitJoiningForm(c *gin.Context) {
	var fields models.JoiningFormFields
	if err := c.ShouldBindWith(&fields, binding.FormMultipart); err != nil {
		respondBadRequest(c, "Joining form must be sent as multipart/form-data", "INVALID_REQUEST")
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	jr, err := h.workflow.SubmitJoiningForm(c.Request.Context(), userCtx.Email, &models.SubmitJoiningFormInput{
		JoiningFormFields: fields,
		Files:             formUploads(c),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.safeLogTransition(c, &userCtx.UserID, services.AuditJoiningFormSubmitted, services.EntityJoiningRequest, jr.ID,
		map[string]interface{}{"experience_entries": len(jr.Experience)})

	c.JSON(http.StatusOK, gin.H{
		"message":        "Joining form submitted successfully",
		"joiningRequest": jr,
	})
}
