package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wwtech/onboarding-backend/internal/services"
	"github.com/wwtech/onboarding-backend/internal/utils"
)

// auditTrail writes audit rows on behalf of handlers. Failures are logged and
// never fail the request. A nil service disables auditing.
type auditTrail struct {
	service *services.AuditService
	logger  *logrus.Logger
}

func (a auditTrail) logAuditError(operation string, err error) {
	if err != nil {
		a.logger.WithError(err).WithField("operation", operation).Error("Audit write failed")
	}
}

// detached keeps the audit write alive when the client has already gone
func detached(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func (a auditTrail) safeLogLogin(c *gin.Context, userID *uuid.UUID, email string, success bool, reason string) {
	if a.service == nil {
		return
	}
	err := a.service.LogLogin(detached(c), userID, email, utils.ClientIP(c), utils.UserAgent(c), success, reason)
	a.logAuditError("LogLogin", err)
}

func (a auditTrail) safeLogTransition(c *gin.Context, actorID *uuid.UUID, action, entityType string, entityID uuid.UUID, details map[string]interface{}) {
	if a.service == nil {
		return
	}
	err := a.service.LogTransition(detached(c), actorID, action, entityType, entityID, utils.ClientIP(c), utils.UserAgent(c), details)
	a.logAuditError("LogTransition:"+action, err)
}
