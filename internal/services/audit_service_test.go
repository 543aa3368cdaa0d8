package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestAuditService_LogLogin(t *testing.T) {
	env := newTestEnv(t, WorkflowConfig{})
	audit := NewAuditService(env.store.Stores().Audit)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, audit.LogLogin(ctx, &userID, "hr@example.com", "203.0.113.7", chromeUA, true, ""))
	require.NoError(t, audit.LogLogin(ctx, nil, "ghost@example.com", "203.0.113.7", "", false, "invalid_credentials"))

	assert.Equal(t, []string{AuditLoginSuccess, AuditLoginFailed}, env.store.AuditActions())

	history, err := audit.GetEntityHistory(ctx, EntityUser, userID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "203.0.113.7", history[0].IPAddress.String)

	var details map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(history[0].Details.String), &details))
	assert.Equal(t, "hr@example.com", details["email"])
	assert.Equal(t, true, details["success"])
	device, ok := details["device_info"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "desktop", device["device_type"])
}

func TestAuditService_HistoryNewestFirst(t *testing.T) {
	env := newTestEnv(t, WorkflowConfig{})
	audit := NewAuditService(env.store.Stores().Audit)
	ctx := context.Background()
	candidateID := uuid.New()

	for _, action := range []string{AuditCandidateCreated, AuditOfferSent, AuditOfferAccepted} {
		require.NoError(t, audit.LogTransition(ctx, &env.adminID, action, EntityCandidate, candidateID, "", "", nil))
	}
	require.NoError(t, audit.LogTransition(ctx, &env.adminID, AuditCandidateCreated, EntityCandidate, uuid.New(), "", "", nil))

	history, err := audit.GetEntityHistory(ctx, EntityCandidate, candidateID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, AuditOfferAccepted, history[0].Action)
	assert.Equal(t, AuditOfferSent, history[1].Action)
	assert.Equal(t, env.adminID, history[0].ActorID.UUID)
}

func TestAuditService_Cleanup(t *testing.T) {
	env := newTestEnv(t, WorkflowConfig{})
	audit := NewAuditService(env.store.Stores().Audit)
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	audit.now = func() time.Time { return now.AddDate(-2, 0, 0) }
	require.NoError(t, audit.LogTransition(ctx, nil, AuditOfferAccepted, EntityCandidate, uuid.New(), "", "", nil))
	audit.now = func() time.Time { return now }
	require.NoError(t, audit.LogTransition(ctx, nil, AuditOfferSent, EntityCandidate, uuid.New(), "", "", nil))

	n, err := audit.CleanupOldAuditLogs(ctx, 365*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []string{AuditOfferSent}, env.store.AuditActions())
}
