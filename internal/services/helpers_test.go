package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wwtech/onboarding-backend/internal/database/memstore"
	"github.com/wwtech/onboarding-backend/internal/metrics"
	"github.com/wwtech/onboarding-backend/internal/models"
	"github.com/wwtech/onboarding-backend/internal/notification"
	"github.com/wwtech/onboarding-backend/internal/storage"
	"github.com/wwtech/onboarding-backend/pkg/jwt"
	"github.com/wwtech/onboarding-backend/pkg/validator"
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
)

// recordingNotifier keeps every enqueued event
type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *recordingNotifier) Enqueue(e notification.Event) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return true
}

func (n *recordingNotifier) ofType(t notification.EventType) []notification.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notification.Event
	for _, e := range n.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (n *recordingNotifier) types() []notification.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification.EventType, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	store    *memstore.Store
	files    *storage.LocalStore
	notifier *recordingNotifier
	metrics  *metrics.Metrics
	workflow *WorkflowService
	auth     *AuthService
	tokens   *OfferTokenService
	adminID  uuid.UUID
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestEnv(t *testing.T, cfg WorkflowConfig) *testEnv {
	t.Helper()

	files, err := storage.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.MinCost
	}

	store := memstore.New()
	stores := store.Stores()
	notifier := &recordingNotifier{}
	m := metrics.NewNop()
	tokens := NewOfferTokenService(time.Hour)
	logger := testLogger()

	return &testEnv{
		store:    store,
		files:    files,
		notifier: notifier,
		metrics:  m,
		workflow: NewWorkflowService(stores, tokens, validator.NewFileIntake(0), files, notifier, m, logger, cfg),
		auth:     NewAuthService(stores.Accounts, jwt.NewService("test-secret", time.Hour, "test"), bcrypt.MinCost, logger),
		tokens:   tokens,
		adminID:  uuid.New(),
	}
}

func janeDoe() models.CreateCandidateRequest {
	return models.CreateCandidateRequest{
		FullName: "Jane Doe",
		Email:    "jane@x.com",
		Phone:    "+91 98765 43210",
		Practice: "Engineering",
		Position: "Engineer",
	}
}

func validForm() models.JoiningFormFields {
	return models.JoiningFormFields{
		DateOfBirth:              "1995-04-12",
		PresentAddress:           "12 MG Road",
		PresentCity:              "Bengaluru",
		PresentState:             "Karnataka",
		PresentPincode:           "560001",
		PermanentAddress:         "4 Lake View",
		PermanentCity:            "Kochi",
		PermanentState:           "Kerala",
		PermanentPincode:         "682001",
		EmergencyContactName:     "John Doe",
		EmergencyContactPhone:    "98765 12345",
		EmergencyContactRelation: "Father",
		SelfDescription:          "Backend engineer who likes queues.",
		BankAccountNumber:        "1234567890",
		BankName:                 "State Bank",
		BankIFSC:                 "SBIN0000001",
		TenthGrade:               "9.2",
		InterGrade:               "8.8",
		BTechGrade:               "8.1",
	}
}

func requiredFiles() map[string]*validator.FileUpload {
	files := map[string]*validator.FileUpload{
		models.DocProfilePhoto: validator.NewMemoryUpload(models.DocProfilePhoto, "me.png", pngBytes),
	}
	for _, field := range models.RequiredJoiningDocuments[1:] {
		files[field] = validator.NewMemoryUpload(field, field+".pdf", pdfBytes)
	}
	return files
}

// onboardTo drives a fresh candidate up to the credentials stage and returns its joining request
func (e *testEnv) onboardTo(t *testing.T, req models.CreateCandidateRequest) (*models.Candidate, *models.JoiningRequest) {
	t.Helper()
	ctx := context.Background()

	c, err := e.workflow.CreateCandidate(ctx, req, e.adminID)
	require.NoError(t, err)

	_, err = e.workflow.SendOffer(ctx, c.ID, nil)
	require.NoError(t, err)

	offers := e.notifier.ofType(notification.EventOfferSent)
	token := offers[len(offers)-1].OfferToken
	_, err = e.workflow.AcceptOffer(ctx, token)
	require.NoError(t, err)

	require.NoError(t, e.workflow.SendJoiningDetails(ctx, c.ID, nil))

	jr, err := e.workflow.GetMyJoiningRequest(ctx, c.Email)
	require.NoError(t, err)
	return c, jr
}

// submitted drives a candidate through form submission
func (e *testEnv) submitted(t *testing.T, req models.CreateCandidateRequest) *models.JoiningRequest {
	t.Helper()
	c, _ := e.onboardTo(t, req)
	jr, err := e.workflow.SubmitJoiningForm(context.Background(), c.Email, &models.SubmitJoiningFormInput{
		JoiningFormFields: validForm(),
		Files:             requiredFiles(),
	})
	require.NoError(t, err)
	return jr
}
