package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qri-io/jsonschema"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/wwtech/onboarding-backend/internal/database"
	"github.com/wwtech/onboarding-backend/internal/metrics"
	"github.com/wwtech/onboarding-backend/internal/models"
	"github.com/wwtech/onboarding-backend/internal/notification"
	"github.com/wwtech/onboarding-backend/pkg/validator"
)

// DefaultTempPasswordSuffix is appended to the first three characters of the full name
const DefaultTempPasswordSuffix = "@WW2025"

// FileStore persists accepted uploads and returns the stored name
type FileStore interface {
	Save(ctx context.Context, file *validator.AcceptedFile) (string, error)
	Delete(ctx context.Context, name string) error
}

// WorkflowConfig holds the onboarding policy knobs
type WorkflowConfig struct {
	TempPasswordSuffix string
	AllowReReview      bool
	BcryptCost         int
}

// WorkflowService drives a hire from candidate to employee
type WorkflowService struct {
	stores   *database.Stores
	tokens   *OfferTokenService
	intake   *validator.FileIntake
	phones   *validator.PhoneValidator
	files    FileStore
	notifier notification.Notifier
	metrics  *metrics.Metrics
	logger   *logrus.Logger
	tracer   trace.Tracer
	cfg      WorkflowConfig
	now      func() time.Time

	experienceSchema *jsonschema.Schema
}

// NewWorkflowService creates a new workflow service
func NewWorkflowService(
	stores *database.Stores,
	tokens *OfferTokenService,
	intake *validator.FileIntake,
	files FileStore,
	notifier notification.Notifier,
	m *metrics.Metrics,
	logger *logrus.Logger,
	cfg WorkflowConfig,
) *WorkflowService {
	if cfg.TempPasswordSuffix == "" {
		cfg.TempPasswordSuffix = DefaultTempPasswordSuffix
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &WorkflowService{
		stores:           stores,
		tokens:           tokens,
		intake:           intake,
		phones:           validator.NewPhoneValidator(),
		files:            files,
		notifier:         notifier,
		metrics:          m,
		logger:           logger,
		tracer:           otel.Tracer("github.com/wwtech/onboarding-backend/internal/services"),
		cfg:              cfg,
		now:              time.Now,
		experienceSchema: mustExperienceSchema(),
	}
}

// start opens a span for one workflow operation
func (s *WorkflowService) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "workflow."+op, trace.WithAttributes(attrs...))
}

// finish closes the span and counts the outcome. Caller-side failures count
// as rejected; everything else as error.
func (s *WorkflowService) finish(span trace.Span, op string, err error) {
	defer span.End()
	if err == nil {
		s.metrics.ObserveTransition(op, metrics.OutcomeSuccess)
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if KindOf(err) == KindDependency {
		s.metrics.ObserveTransition(op, metrics.OutcomeError)
		s.logger.WithError(err).WithField("operation", op).Error("Workflow operation failed")
		return
	}
	s.metrics.ObserveTransition(op, metrics.OutcomeRejected)
}

func (s *WorkflowService) notify(e notification.Event) {
	if s.notifier == nil {
		return
	}
	s.notifier.Enqueue(e)
}

// contactPhone strips separators from plausible numbers and keeps anything
// else as entered. Presence is checked by the caller.
func (s *WorkflowService) contactPhone(raw string) string {
	raw = strings.TrimSpace(raw)
	if phone, err := s.phones.Validate(raw); err == nil {
		return phone
	}
	return raw
}

// TempPassword derives the temporary password handed out with joining details
func (s *WorkflowService) TempPassword(fullName string) string {
	runes := []rune(fullName)
	if len(runes) > 3 {
		runes = runes[:3]
	}
	return string(runes) + s.cfg.TempPasswordSuffix
}

func (s *WorkflowService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", dependency("failed to hash password", err)
	}
	return string(hash), nil
}

// storeUploads validates then persists files. Nothing is stored unless every file passes.
func (s *WorkflowService) storeUploads(ctx context.Context, files map[string]*validator.FileUpload, req validator.Requirements) (map[string]string, error) {
	accepted, err := s.intake.Validate(files, req)
	if err != nil {
		var rejection *validator.RejectionError
		if errors.As(err, &rejection) {
			return nil, ErrInvalidFile.With(rejection.Error(), rejection.Fields...)
		}
		return nil, dependency("failed to validate uploads", err)
	}

	stored := make(map[string]string, len(accepted))
	for field, file := range accepted {
		name, err := s.files.Save(ctx, file)
		if err != nil {
			s.discardUploads(ctx, stored)
			return nil, dependency("failed to store upload", err)
		}
		stored[field] = name
	}
	return stored, nil
}

// discardUploads removes files written for an operation that did not commit
func (s *WorkflowService) discardUploads(ctx context.Context, stored map[string]string) {
	for field, name := range stored {
		if name == "" {
			continue
		}
		if err := s.files.Delete(ctx, name); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"field": field,
				"file":  name,
			}).Warn("Failed to remove orphaned upload")
		}
	}
}

func (s *WorkflowService) optionalDocument(ctx context.Context, doc *validator.FileUpload) (string, error) {
	if doc == nil {
		return "", nil
	}
	stored, err := s.storeUploads(ctx,
		map[string]*validator.FileUpload{models.DocOfferDocument: doc},
		validator.Requirements{Optional: []string{models.DocOfferDocument}})
	if err != nil {
		return "", err
	}
	return stored[models.DocOfferDocument], nil
}

func (s *WorkflowService) loadCandidate(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	c, err := s.stores.Candidates.GetByID(ctx, id)
	if err != nil {
		return nil, dependency("failed to load candidate", err)
	}
	if c == nil {
		return nil, ErrCandidateNotFound
	}
	return c, nil
}

// CreateCandidate registers a prospective hire
func (s *WorkflowService) CreateCandidate(ctx context.Context, req models.CreateCandidateRequest, actorID uuid.UUID) (c *models.Candidate, err error) {
	ctx, span := s.start(ctx, "CreateCandidate")
	defer func() { s.finish(span, "create_candidate", err) }()

	return s.createCandidate(ctx, req, actorID)
}

func (s *WorkflowService) createCandidate(ctx context.Context, req models.CreateCandidateRequest, actorID uuid.UUID) (*models.Candidate, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Practice = strings.TrimSpace(req.Practice)
	req.Position = strings.TrimSpace(req.Position)

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"fullName", req.FullName},
		{"email", req.Email},
		{"phone", req.Phone},
		{"practice", req.Practice},
		{"position", req.Position},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, ErrMissingFields.With("Please provide all required fields. Missing: "+strings.Join(missing, ", "), missing...)
	}
	if !strings.Contains(req.Email, "@") {
		return nil, ErrMissingFields.With("Please provide a valid email", "email")
	}
	phone := s.contactPhone(req.Phone)

	now := s.now()
	c := &models.Candidate{
		ID:        uuid.New(),
		FullName:  req.FullName,
		Email:     req.Email,
		Phone:     phone,
		Practice:  req.Practice,
		Position:  req.Position,
		CreatedBy: actorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.stores.Candidates.Create(ctx, c); err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, dependency("failed to create candidate", err)
	}

	s.logger.WithFields(logrus.Fields{
		"candidate_id": c.ID,
		"email":        c.Email,
	}).Info("Candidate created")
	return c, nil
}

// BulkCreateCandidates creates each row independently and reports per-row outcomes.
// The batch never fails as a whole.
func (s *WorkflowService) BulkCreateCandidates(ctx context.Context, rows []models.CreateCandidateRequest, actorID uuid.UUID) *models.BulkCreateResult {
	ctx, span := s.start(ctx, "BulkCreateCandidates", attribute.Int("rows", len(rows)))
	defer s.finish(span, "bulk_create_candidates", nil)

	result := &models.BulkCreateResult{
		Total:   len(rows),
		Results: make([]models.BulkRowResult, 0, len(rows)),
	}
	for i, row := range rows {
		entry := models.BulkRowResult{Row: i + 1, Email: strings.TrimSpace(row.Email)}
		c, err := s.createCandidate(ctx, row, actorID)
		if err != nil {
			entry.Error = publicMessage(err)
			result.Failed++
		} else {
			entry.Success = true
			entry.Candidate = c
			result.Succeeded++
		}
		result.Results = append(result.Results, entry)
	}
	span.SetAttributes(attribute.Int("succeeded", result.Succeeded), attribute.Int("failed", result.Failed))
	return result
}

// ListCandidates returns every candidate, newest first
func (s *WorkflowService) ListCandidates(ctx context.Context) ([]*models.Candidate, error) {
	candidates, err := s.stores.Candidates.List(ctx)
	if err != nil {
		return nil, dependency("failed to list candidates", err)
	}
	return candidates, nil
}

// SendOffer issues an offer token and schedules the offer email
func (s *WorkflowService) SendOffer(ctx context.Context, candidateID uuid.UUID, document *validator.FileUpload) (c *models.Candidate, err error) {
	ctx, span := s.start(ctx, "SendOffer", attribute.String("candidate_id", candidateID.String()))
	defer func() { s.finish(span, "send_offer", err) }()

	c, err = s.loadCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if c.OfferSent {
		return nil, ErrOfferAlreadySent
	}

	docName, err := s.optionalDocument(ctx, document)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue()
	if err != nil {
		s.discardUploads(ctx, map[string]string{models.DocOfferDocument: docName})
		return nil, dependency("failed to issue offer token", err)
	}

	now := s.now()
	ok, err := s.stores.Candidates.MarkOfferSent(ctx, c.ID, token.Hash, token.Expiry, models.NewNullString(docName), now)
	if err != nil || !ok {
		s.discardUploads(ctx, map[string]string{models.DocOfferDocument: docName})
		if err != nil {
			return nil, dependency("failed to mark offer sent", err)
		}
		return nil, ErrOfferAlreadySent
	}

	c.OfferSent = true
	c.OfferSentAt = models.NewNullTime(now)
	c.OfferTokenHash = models.NewNullString(token.Hash)
	c.OfferTokenExpiry = models.NewNullTime(token.Expiry)
	if docName != "" {
		c.OfferDocument = models.NewNullString(docName)
	}
	c.UpdatedAt = now

	s.notify(notification.OfferSent(c, token.Raw, docName))

	s.logger.WithFields(logrus.Fields{
		"candidate_id": c.ID,
		"expires_at":   token.Expiry,
	}).Info("Offer sent")
	return c, nil
}

func (s *WorkflowService) candidateByToken(ctx context.Context, token string) (*models.Candidate, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidOrExpiredToken
	}
	c, err := s.stores.Candidates.GetByOfferTokenHash(ctx, HashOfferToken(token))
	if err != nil {
		return nil, dependency("failed to look up offer token", err)
	}
	if !s.tokens.Verify(c, token) {
		return nil, ErrInvalidOrExpiredToken
	}
	return c, nil
}

// VerifyOffer returns the public view of the offer behind token
func (s *WorkflowService) VerifyOffer(ctx context.Context, token string) (*models.PublicOfferView, error) {
	c, err := s.candidateByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	view := c.PublicView()
	return &view, nil
}

// AcceptOffer records acceptance. A replay of the same token reports ErrOfferAlreadyAccepted.
func (s *WorkflowService) AcceptOffer(ctx context.Context, token string) (c *models.Candidate, err error) {
	ctx, span := s.start(ctx, "AcceptOffer")
	defer func() { s.finish(span, "accept_offer", err) }()

	c, err = s.candidateByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("candidate_id", c.ID.String()))
	if c.OfferAccepted {
		return nil, ErrOfferAlreadyAccepted
	}

	now := s.now()
	ok, err := s.stores.Candidates.MarkOfferAccepted(ctx, c.ID, now)
	if err != nil {
		return nil, dependency("failed to mark offer accepted", err)
	}
	if !ok {
		return nil, ErrOfferAlreadyAccepted
	}

	c.OfferAccepted = true
	c.OfferAcceptedAt = models.NewNullTime(now)
	c.UpdatedAt = now

	s.logger.WithField("candidate_id", c.ID).Info("Offer accepted")
	return c, nil
}

// SendJoiningDetails creates the inactive employee account and the pending
// joining request in one transaction, then schedules the credentials email.
func (s *WorkflowService) SendJoiningDetails(ctx context.Context, candidateID uuid.UUID, document *validator.FileUpload) (err error) {
	ctx, span := s.start(ctx, "SendJoiningDetails", attribute.String("candidate_id", candidateID.String()))
	defer func() { s.finish(span, "send_joining_details", err) }()

	c, err := s.loadCandidate(ctx, candidateID)
	if err != nil {
		return err
	}
	if !c.OfferAccepted {
		return ErrOfferNotAccepted
	}
	if c.JoiningDetailsSent {
		return ErrJoiningDetailsAlreadySent
	}
	existing, err := s.stores.Accounts.GetByEmail(ctx, c.Email)
	if err != nil {
		return dependency("failed to look up account", err)
	}
	if existing != nil {
		return ErrAccountExists
	}

	tempPassword := s.TempPassword(c.FullName)
	hash, err := s.hashPassword(tempPassword)
	if err != nil {
		return err
	}

	docName, err := s.optionalDocument(ctx, document)
	if err != nil {
		return err
	}

	now := s.now()
	account := &models.UserAccount{
		ID:           uuid.New(),
		Email:        c.Email,
		PasswordHash: hash,
		Role:         models.RoleEmployee,
		FullName:     c.FullName,
		Practice:     c.Practice,
		IsActive:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	jr := &models.JoiningRequest{
		ID:            uuid.New(),
		CandidateID:   c.ID,
		FullName:      c.FullName,
		Email:         c.Email,
		Phone:         c.Phone,
		Practice:      c.Practice,
		Position:      c.Position,
		Experience:    models.ExperienceList{},
		Status:        models.JoiningStatusPending,
		SchemaVersion: models.SchemaVersionCurrent,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.stores.Accounts.Create(ctx, account); err != nil {
			if isDuplicate(err) {
				return ErrAccountExists
			}
			return dependency("failed to create user account", err)
		}
		if err := s.stores.JoiningRequests.Create(ctx, jr); err != nil {
			if isDuplicate(err) {
				return ErrJoiningDetailsAlreadySent
			}
			return dependency("failed to create joining request", err)
		}
		ok, err := s.stores.Candidates.MarkJoiningDetailsSent(ctx, c.ID, now)
		if err != nil {
			return dependency("failed to mark joining details sent", err)
		}
		if !ok {
			return ErrJoiningDetailsAlreadySent
		}
		return nil
	})
	if err != nil {
		s.discardUploads(ctx, map[string]string{models.DocOfferDocument: docName})
		return err
	}

	s.notify(notification.CredentialsSent(c, tempPassword, docName))

	s.logger.WithFields(logrus.Fields{
		"candidate_id":       c.ID,
		"user_id":            account.ID,
		"joining_request_id": jr.ID,
	}).Info("Joining details sent")
	return nil
}

// ListEmployees returns every employee
func (s *WorkflowService) ListEmployees(ctx context.Context) ([]*models.Employee, error) {
	employees, err := s.stores.Employees.List(ctx)
	if err != nil {
		return nil, dependency("failed to list employees", err)
	}
	return employees, nil
}

// publicMessage is the caller-safe text of err
func publicMessage(err error) string {
	var svcErr *Error
	if errors.As(err, &svcErr) && svcErr.Kind != KindDependency {
		return svcErr.Message
	}
	return "Server error"
}

func missingList(fields []string) string {
	return fmt.Sprintf("Missing: %s", strings.Join(fields, ", "))
}
