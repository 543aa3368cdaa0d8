package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wwtech/onboarding-backend/internal/database/memstore"
	"github.com/wwtech/onboarding-backend/internal/models"
	"github.com/wwtech/onboarding-backend/internal/notification"
	"github.com/wwtech/onboarding-backend/internal/services"
	"github.com/wwtech/onboarding-backend/internal/storage"
	"github.com/wwtech/onboarding-backend/pkg/jwt"
	"github.com/wwtech/onboarding-backend/pkg/validator"
)

const (
	adminEmail    = "hr@ww.tech"
	adminPassword = "hr-secret-1"
)

var (
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
)

type captureNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *captureNotifier) Enqueue(e notification.Event) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
	return true
}

func (n *captureNotifier) last(t notification.EventType) notification.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].Type == t {
			return n.events[i]
		}
	}
	return notification.Event{}
}

type testServer struct {
	router     *gin.Engine
	store      *memstore.Store
	notifier   *captureNotifier
	adminToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	files, err := storage.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	store := memstore.New()
	stores := store.Stores()
	notifier := &captureNotifier{}
	jwtService := jwt.NewService("handler-test-secret", time.Hour, "onboarding-test")

	workflow := services.NewWorkflowService(stores, services.NewOfferTokenService(time.Hour), validator.NewFileIntake(0),
		files, notifier, nil, logger, services.WorkflowConfig{BcryptCost: bcrypt.MinCost})
	authService := services.NewAuthService(stores.Accounts, jwtService, bcrypt.MinCost, logger)
	auditService := services.NewAuditService(stores.Audit)

	router := gin.New()
	routes := &Router{
		Auth:     NewAuthHandler(authService, auditService, logger),
		Admin:    NewAdminHandler(workflow, services.NewDashboardService(stores), auditService, logger),
		Employee: NewEmployeeHandler(workflow, auditService, logger),
		Public:   NewPublicHandler(workflow, auditService, logger),
	}
	routes.Register(router.Group("/api"), jwtService, logger)

	_, err = authService.CreateAdmin(context.Background(), adminEmail, adminPassword, "HR Admin")
	require.NoError(t, err)

	srv := &testServer{router: router, store: store, notifier: notifier}
	srv.adminToken = srv.login(t, adminEmail, adminPassword)
	return srv
}

func (s *testServer) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) doJSON(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.do(req, token)
}

type formField struct {
	key, value string
}

type formFile struct {
	field, filename string
	data            []byte
}

func (s *testServer) doMultipart(t *testing.T, method, path, token string, fields []formField, files []formFile) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range fields {
		require.NoError(t, writer.WriteField(f.key, f.value))
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return s.do(req, token)
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	w := s.doJSON(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func joiningFormFields() []formField {
	return []formField{
		{"dateOfBirth", "1995-04-12"},
		{"presentAddress", "12 MG Road"},
		{"presentCity", "Bengaluru"},
		{"presentState", "Karnataka"},
		{"presentPincode", "560001"},
		{"permanentAddress", "4 Lake View"},
		{"permanentCity", "Kochi"},
		{"permanentState", "Kerala"},
		{"permanentPincode", "682001"},
		{"emergencyContactName", "John Doe"},
		{"emergencyContactPhone", "98765 12345"},
		{"emergencyContactRelation", "Father"},
		{"selfDescription", "Backend engineer who likes queues."},
		{"bankAccountNumber", "1234567890"},
		{"bankName", "State Bank"},
		{"bankIFSC", "SBIN0000001"},
		{"tenthGrade", "9.2"},
		{"interGrade", "8.8"},
		{"btechGrade", "8.1"},
	}
}

func joiningFormFiles() []formFile {
	files := []formFile{{models.DocProfilePhoto, "me.png", pngBytes}}
	for _, field := range models.RequiredJoiningDocuments[1:] {
		files = append(files, formFile{field, field + ".pdf", pdfBytes})
	}
	return files
}

// createCandidate posts a candidate and returns its id
func (s *testServer) createCandidate(t *testing.T, name, email string) string {
	t.Helper()
	w := s.doJSON(http.MethodPost, "/api/admin/candidates", s.adminToken, models.CreateCandidateRequest{
		FullName: name,
		Email:    email,
		Phone:    "+91 98765 43210",
		Practice: "Engineering",
		Position: "Engineer",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["_id"].(string)
}

// issueCredentials drives a candidate through offer acceptance and joining
// details and returns the employee's session token
func (s *testServer) issueCredentials(t *testing.T, name, email string) (candidateID, employeeToken string) {
	t.Helper()
	candidateID = s.createCandidate(t, name, email)

	w := s.doJSON(http.MethodPost, "/api/admin/candidates/"+candidateID+"/send-offer", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token := s.notifier.last(notification.EventOfferSent).OfferToken
	w = s.doJSON(http.MethodPost, "/api/public/accept-offer/"+token, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.doJSON(http.MethodPost, "/api/admin/candidates/"+candidateID+"/send-joining-details", s.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	password := s.notifier.last(notification.EventCredentialsSent).TempPassword
	return candidateID, s.login(t, email, password)
}
