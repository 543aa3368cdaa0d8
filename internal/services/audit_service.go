package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wwtech/onboarding-backend/internal/database"
	"github.com/wwtech/onboarding-backend/internal/models"
	"github.com/wwtech/onboarding-backend/internal/utils"
)

// Audit actions written by the HTTP layer
const (
	AuditLoginSuccess         = "login_success"
	AuditLoginFailed          = "login_failed"
	AuditCandidateCreated     = "candidate_created"
	AuditCandidatesImported   = "candidates_imported"
	AuditOfferSent            = "offer_sent"
	AuditOfferAccepted        = "offer_accepted"
	AuditJoiningDetailsSent   = "joining_details_sent"
	AuditJoiningFormSubmitted = "joining_form_submitted"
	AuditJoiningReviewed      = "joining_request_reviewed"
	AuditJoiningEdited        = "joining_details_edited"
)

// Audit entity types
const (
	EntityUser           = "user"
	EntityCandidate      = "candidate"
	EntityJoiningRequest = "joining_request"
)

// AuditService records security and workflow events
type AuditService struct {
	store database.AuditStore
	now   func() time.Time
}

// NewAuditService creates a new audit service
func NewAuditService(store database.AuditStore) *AuditService {
	return &AuditService{
		store: store,
		now:   time.Now,
	}
}

// AuditEvent represents an event to be logged
type AuditEvent struct {
	ActorID    *uuid.UUID // nil for unauthenticated callers
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	IPAddress  string
	UserAgent  string
	Details    map[string]interface{}
}

// LogLogin logs a login attempt
func (s *AuditService) LogLogin(ctx context.Context, userID *uuid.UUID, email, ipAddress, userAgent string, success bool, reason string) error {
	details := map[string]interface{}{
		"email":   email,
		"success": success,
	}
	if reason != "" {
		details["reason"] = reason
	}

	action := AuditLoginFailed
	if success {
		action = AuditLoginSuccess
	}

	return s.LogEvent(ctx, AuditEvent{
		ActorID:    userID,
		Action:     action,
		EntityType: EntityUser,
		EntityID:   userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogTransition logs a workflow transition on one entity
func (s *AuditService) LogTransition(ctx context.Context, actorID *uuid.UUID, action, entityType string, entityID uuid.UUID, ipAddress, userAgent string, details map[string]interface{}) error {
	return s.LogEvent(ctx, AuditEvent{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   &entityID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    details,
	})
}

// LogEvent writes one audit row with parsed device info attached
func (s *AuditService) LogEvent(ctx context.Context, event AuditEvent) error {
	details := event.Details
	if details == nil {
		details = make(map[string]interface{})
	}
	details["device_info"] = utils.ParseUserAgent(event.UserAgent)

	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	entry := &models.AuditLog{
		Action:     event.Action,
		EntityType: models.NewNullString(event.EntityType),
		IPAddress:  models.NewNullString(event.IPAddress),
		UserAgent:  models.NewNullString(event.UserAgent),
		Details:    models.NewNullString(string(payload)),
		CreatedAt:  s.now(),
	}
	if event.ActorID != nil {
		entry.ActorID = uuid.NullUUID{UUID: *event.ActorID, Valid: true}
	}
	if event.EntityID != nil {
		entry.EntityID = uuid.NullUUID{UUID: *event.EntityID, Valid: true}
	}

	return s.store.Create(ctx, entry)
}

// GetEntityHistory returns the most recent events for one entity
func (s *AuditService) GetEntityHistory(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListByEntity(ctx, entityType, entityID, limit)
}

// CleanupOldAuditLogs removes audit logs older than the specified duration
func (s *AuditService) CleanupOldAuditLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	return s.store.DeleteOlderThan(ctx, s.now().Add(-olderThan))
}
