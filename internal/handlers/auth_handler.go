package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wwtech/onboarding-backend/internal/middleware"
	"github.com/wwtech/onboarding-backend/internal/models"
	"github.com/wwtech/onboarding-backend/internal/services"
)

// AuthHandler handles login and profile requests for admins and employees
type AuthHandler struct {
	authService *services.AuthService
	audit       auditTrail
	logger      *logrus.Logger
}

// NewAuthHandler creates a new auth handler. auditService may be nil.
func NewAuthHandler(authService *services.AuthService, auditService *services.AuditService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		audit:       auditTrail{service: auditService, logger: logger},
		logger:      logger,
	}
}

// Login handles POST /api/auth/login
// @Summary Log in
// @Description Authenticate an admin or employee and return a session token
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginRequest body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", "INVALID_REQUEST")
		return
	}

	response, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if kind := services.KindOf(err); kind == services.KindAuth || kind == services.KindForbidden {
			h.logger.WithFields(logrus.Fields{
				"email": req.Email,
				"error": err.Error(),
			}).Warn("Login failed")
			h.audit.safeLogLogin(c, nil, req.Email, false, err.Error())
		}
		respondError(c, h.logger, err)
		return
	}

	h.audit.safeLogLogin(c, &response.ID, response.Email, true, "")
	h.logger.WithFields(logrus.Fields{
		"user_id": response.ID,
		"role":    response.Role,
	}).Info("Login successful")

	c.JSON(http.StatusOK, response)
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserAccount
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	account, err := h.authService.GetProfile(c.Request.Context(), userCtx.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, account)
}
