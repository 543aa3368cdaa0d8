package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wwtech/onboarding-backend/internal/middleware"
	"github.com/wwtech/onboarding-backend/internal/models"
	"github.com/wwtech/onboarding-backend/internal/services"
)

// AdminHandler serves the HR console: candidates, joining requests and employees
type AdminHandler struct {
	workflow  *services.WorkflowService
	dashboard *services.DashboardService
	audit     auditTrail
	logger    *logrus.Logger
}

// NewAdminHandler creates a new admin handler. auditService may be nil.
func NewAdminHandler(
	workflow *services.WorkflowService,
	dashboard *services.DashboardService,
	auditService *services.AuditService,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		workflow:  workflow,
		dashboard: dashboard,
		audit:     auditTrail{service: auditService, logger: logger},
		logger:    logger,
	}
}

// CreateCandidate handles POST /api/admin/candidates
// @Summary Create candidate
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body models.CreateCandidateRequest true "Candidate"
// @Success 201 {object} models.Candidate
// @Failure 400 {object} ErrorResponse
// @Router /admin/candidates [post]
func (h *AdminHandler) CreateCandidate(c *gin.Context) {
	var req models.CreateCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", "INVALID_REQUEST")
		return
	}

	admin := middleware.MustGetUserContext(c)
	candidate, err := h.workflow.CreateCandidate(c.Request.Context(), req, admin.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.safeLogTransition(c, &admin.UserID, services.AuditCandidateCreated, services.EntityCandidate, candidate.ID,
		map[string]interface{}{"email": candidate.Email})

	c.JSON(http.StatusCreated, candidate)
}

// BulkCreateCandidates handles POST /api/admin/candidates/bulk
// @Summary Import candidates
// @Description Creates each row independently and reports per-row outcomes
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body models.BulkCreateCandidatesRequest true "Candidates"
// @Success 200 {object} models.BulkCreateResult
// @Failure 400 {object} ErrorResponse
// @Router /admin/candidates/bulk [post]
func (h *AdminHandler) BulkCreateCandidates(c *gin.Context) {
	var req models.BulkCreateCandidatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", "INVALID_REQUEST")
		return
	}

	// an empty batch is a valid import with nothing to report
	admin := middleware.MustGetUserContext(c)
	result := h.workflow.BulkCreateCandidates(c.Request.Context(), req.Candidates, admin.UserID)

	for _, row := range result.Results {
		if row.Success {
			h.audit.safeLogTransition(c, &admin.UserID, services.AuditCandidatesImported, services.EntityCandidate, row.Candidate.ID,
				map[string]interface{}{"email": row.Email, "row": row.Row})
		}
	}

	h.logger.WithFields(logrus.Fields{
		"admin_id":  admin.UserID,
		"total":     result.Total,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}).Info("Bulk candidate import finished")

	c.JSON(http.StatusOK, result)
}

// ListCandidates handles GET /api/admin/candidates
// @Summary List candidates
// @Tags Admin
// @Produce json
// @Success 200 {array} models.Candidate
// @Router /admin/candidates [get]
func (h *AdminHandler) ListCandidates(c *gin.Context) {
	candidates, err := h.workflow.ListCandidates(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, candidates)
}

// SendOffer handles POST /api/admin/candidates/:id/send-offer
// @Summary Send offer letter
// @Description Multipart; an optional "document" file is attached to the email
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/candidates/{id}/send-offer [post]
func (h *AdminHandler) SendOffer(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	candidate, err := h.workflow.SendOffer(c.Request.Context(), id, optionalUpload(c, models.DocOfferDocument))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	admin := middleware.MustGetUserContext(c)
	h.audit.safeLogTransition(c, &admin.UserID, services.AuditOfferSent, services.EntityCandidate, candidate.ID,
		map[string]interface{}{"with_document": candidate.OfferDocument.Valid})

	c.JSON(http.StatusOK, gin.H{
		"message":   "Offer letter sent successfully",
		"candidate": candidate,
	})
}

// SendJoiningDetails handles POST /api/admin/candidates/:id/send-joining-details
// @Summary Send joining details
// @Description Creates the employee login and the pending joining request, then emails credentials
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/candidates/{id}/send-joining-details [post]
func (h *AdminHandler) SendJoiningDetails(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.workflow.SendJoiningDetails(c.Request.Context(), id, optionalUpload(c, models.DocOfferDocument)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	admin := middleware.MustGetUserContext(c)
	h.audit.safeLogTransition(c, &admin.UserID, services.AuditJoiningDetailsSent, services.EntityCandidate, id, nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Joining details sent successfully"})
}

// ListJoiningRequests handles GET /api/admin/joining-requests
// @Summary List joining requests
// @Tags Admin
// @Produce json
// @Param status query string false "pending, submitted, approved or rejected"
// @Success 200 {array} models.JoiningRequestDetail
// @Router /admin/joining-requests [get]
func (h *AdminHandler) ListJoiningRequests(c *gin.Context) {
	requests, err := h.workflow.ListJoiningRequests(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// GetJoiningRequest handles GET /api/admin/joining-requests/:id
// @Summary Joining request detail
// @Tags Admin
// @Produce json
// @Param id path string true "Joining request ID"
// @Success 200 {object} models.JoiningRequestDetail
// @Failure 404 {object} ErrorResponse
// @Router /admin/joining-requests/{id} [get]
func (h *AdminHandler) GetJoiningRequest(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	detail, err := h.workflow.GetJoiningRequest(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ReviewJoiningRequest handles POST /api/admin/joining-requests/:id/review
// @Summary Approve or reject a joining request
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Joining request ID"
// @Param request body models.ReviewRequest true "Decision"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/joining-requests/{id}/review [post]
func (h *AdminHandler) ReviewJoiningRequest(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", "INVALID_REQUEST")
		return
	}

	admin := middleware.MustGetUserContext(c)
	jr, err := h.workflow.ReviewJoiningRequest(c.Request.Context(), id, req, admin.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.audit.safeLogTransition(c, &admin.UserID, services.AuditJoiningReviewed, services.EntityJoiningRequest, jr.ID,
		map[string]interface{}{"status": jr.Status, "remarks": jr.ReviewRemarks})

	c.JSON(http.StatusOK, gin.H{
		"message":        fmt.Sprintf("Joining request %s successfully", jr.Status),
		"joiningRequest": jr,
	})
}

// editableFields maps multipart keys to the correction they carry
func editableFields(c *gin.Context) *models.EditJoiningDetailsInput {
	return &models.EditJoiningDetailsInput{
		DateOfBirth:              optionalFormValue(c, "dateOfBirth"),
		PresentAddress:           optionalFormValue(c, "presentAddress"),
		PresentCity:              optionalFormValue(c, "presentCity"),
		PresentState:             optionalFormValue(c, "presentState"),
		PresentPincode:           optionalFormValue(c, "presentPincode"),
		PermanentAddress:         optionalFormValue(c, "permanentAddress"),
		PermanentCity:            optionalFormValue(c, "permanentCity"),
		PermanentState:           optionalFormValue(c, "permanentState"),
		PermanentPincode:         optionalFormValue(c, "permanentPincode"),
		EmergencyContactName:     optionalFormValue(c, "emergencyContactName"),
		EmergencyContactPhone:    optionalFormValue(c, "emergencyContactPhone"),
		EmergencyContactRelation: optionalFormValue(c, "emergencyContactRelation"),
		BankAccountNumber:        optionalFormValue(c, "bankAccountNumber"),
		BankName:                 optionalFormValue(c, "bankName"),
		BankIFSC:                 optionalFormValue(c, "bankIFSC"),
		UAN:                      optionalFormValue(c, "uan"),
		TenthGrade:               optionalFormValue(c, "tenthGrade"),
		InterGrade:               optionalFormValue(c, "interGrade"),
		BTechGrade:               optionalFormValue(c, "btechGrade"),
		Experience:               optionalFormValue(c, "experience"),
		Files:                    formUploads(c),
	}
}

// EditJoiningDetails handles PUT /api/admin/joining-requests/:id/edit-details
// @Summary Correct a joining request
// @Description Multipart; only supplied fields change and documents are replaced only when a file is sent
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Joining request ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/joining-requests/{id}/edit-details [put]
func (h *AdminHandler) EditJoiningDetails(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	in := editableFields(c)
	jr, err := h.workflow.EditJoiningDetails(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	changedDocs := make([]string, 0, len(in.Files))
	for field := range in.Files {
		changedDocs = append(changedDocs, field)
	}
	admin := middleware.MustGetUserContext(c)
	h.audit.safeLogTransition(c, &admin.UserID, services.AuditJoiningEdited, services.EntityJoiningRequest, jr.ID,
		map[string]interface{}{"documents": changedDocs})

	c.JSON(http.StatusOK, gin.H{
		"message":        "Joining details updated successfully",
		"joiningRequest": jr,
	})
}

// ListEmployees handles GET /api/admin/employees
// @Summary List employees
// @Tags Admin
// @Produce json
// @Success 200 {array} models.Employee
// @Router /admin/employees [get]
func (h *AdminHandler) ListEmployees(c *gin.Context) {
	employees, err := h.workflow.ListEmployees(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, employees)
}

// DashboardStats handles GET /api/admin/dashboard-stats
// @Summary Dashboard counters
// @Tags Admin
// @Produce json
// @Success 200 {object} models.DashboardStats
// @Router /admin/dashboard-stats [get]
func (h *AdminHandler) DashboardStats(c *gin.Context) {
	stats, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
