package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/wwtech/onboarding-backend/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

// MessageResponse is the body of actions that return no entity
type MessageResponse struct {
	Message string `json:"message"`
}

func statusForKind(kind services.ErrorKind) (int, string) {
	switch kind {
	case services.KindValidation, services.KindDuplicate, services.KindInvalidState:
		return http.StatusBadRequest, "bad_request"
	case services.KindToken:
		return http.StatusBadRequest, "invalid_token"
	case services.KindAuth:
		return http.StatusUnauthorized, "unauthorized"
	case services.KindForbidden:
		return http.StatusForbidden, "forbidden"
	case services.KindNotFound:
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondError writes err as an ErrorResponse. Dependency and unclassified
// failures are logged and answered with a generic message.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	status, errCode := statusForKind(services.KindOf(err))

	var svcErr *services.Error
	if status == http.StatusInternalServerError || !errors.As(err, &svcErr) {
		logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("Request failed")
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Server error",
			Code:    "SERVER_ERROR",
		})
		return
	}

	c.JSON(status, ErrorResponse{
		Error:   errCode,
		Message: svcErr.Message,
		Code:    svcErr.Code,
		Fields:  svcErr.Fields,
	})
}

// respondBadRequest answers malformed input rejected before reaching a service
func respondBadRequest(c *gin.Context, message, code string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: message,
		Code:    code,
	})
}
