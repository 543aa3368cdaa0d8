package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qri-io/jsonschema"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wwtech/onboarding-backend/internal/models"
	"github.com/wwtech/onboarding-backend/internal/notification"
	"github.com/wwtech/onboarding-backend/pkg/validator"
)

// experienceSchema constrains the JSON-encoded experience form field. Missing
// values are reported per entry afterwards, so nothing is required here.
const experienceSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"companyName": {"type": "string"},
			"years": {"type": ["number", "string"]},
			"certificate": {"type": "string"}
		}
	}
}`

func mustExperienceSchema() *jsonschema.Schema {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(experienceSchema), rs); err != nil {
		panic(fmt.Sprintf("invalid experience schema: %v", err))
	}
	return rs
}

type experienceInput struct {
	CompanyName string      `json:"companyName"`
	Years       interface{} `json:"years"`
}

// parseExperience decodes the experience payload. An empty payload means no entries.
func (s *WorkflowService) parseExperience(ctx context.Context, raw string) ([]experienceInput, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}

	keyErrs, err := s.experienceSchema.ValidateBytes(ctx, []byte(raw))
	if err != nil {
		return nil, ErrInvalidExperience.With(ErrInvalidExperience.Message, "experience")
	}
	if len(keyErrs) > 0 {
		s.logger.WithField("problem", keyErrs[0].Message).Debug("Experience payload failed schema")
		return nil, ErrInvalidExperience.With(ErrInvalidExperience.Message, "experience")
	}

	var entries []experienceInput
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, ErrInvalidExperience.With(ErrInvalidExperience.Message, "experience")
	}
	return entries, nil
}

// experienceYears accepts a JSON number or a numeric string. ok is false when absent.
func experienceYears(v interface{}) (years float64, ok bool, err error) {
	switch y := v.(type) {
	case nil:
		return 0, false, nil
	case float64:
		years = y
	case string:
		y = strings.TrimSpace(y)
		if y == "" {
			return 0, false, nil
		}
		years, err = strconv.ParseFloat(y, 64)
		if err != nil {
			return 0, true, err
		}
	default:
		return 0, true, fmt.Errorf("unsupported years value %T", v)
	}
	if years < 0 || math.IsNaN(years) || math.IsInf(years, 0) {
		return 0, true, fmt.Errorf("invalid years %v", years)
	}
	if years == 0 {
		years = 0 // drop the sign of -0
	}
	return years, true, nil
}

// experienceEntry validates the i-th submitted entry
func experienceEntry(i int, e experienceInput) (models.ExperienceEntry, error) {
	n := i + 1
	company := strings.TrimSpace(e.CompanyName)
	if company == "" {
		return models.ExperienceEntry{}, ErrIncompleteExperience.With(fmt.Sprintf("Company name is required for company %d", n), "experience")
	}
	years, ok, err := experienceYears(e.Years)
	if !ok {
		return models.ExperienceEntry{}, ErrIncompleteExperience.With(fmt.Sprintf("Years are required for company %d", n), "experience")
	}
	if err != nil {
		return models.ExperienceEntry{}, ErrIncompleteExperience.With(fmt.Sprintf("Years must be a non-negative number for company %d", n), "experience")
	}
	return models.ExperienceEntry{CompanyName: company, Years: years}, nil
}

func missingCertificate(i int) error {
	return ErrIncompleteExperience.With(fmt.Sprintf("Please upload certificate for company %d", i+1), models.ExperienceCertificateField(i))
}

// checkEditedEmployment enforces the employment rules on an edited record:
// every entry has a company and a certificate (stored or uploaded now), and a
// UAN is present exactly when there is at least one entry.
func checkEditedEmployment(jr *models.JoiningRequest, files map[string]*validator.FileUpload) error {
	for i, e := range jr.Experience {
		if e.CompanyName == "" {
			return ErrIncompleteExperience.With(fmt.Sprintf("Company name is required for company %d", i+1), "experience")
		}
		if e.Certificate == "" && files[models.ExperienceCertificateField(i)] == nil {
			return missingCertificate(i)
		}
	}
	if len(jr.Experience) == 0 {
		jr.BankDetails.UAN = ""
		return nil
	}
	if jr.BankDetails.UAN == "" {
		return ErrUANRequired.With(ErrUANRequired.Message, "uan")
	}
	return nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

func (s *WorkflowService) loadJoiningRequest(ctx context.Context, id uuid.UUID) (*models.JoiningRequest, error) {
	jr, err := s.stores.JoiningRequests.GetByID(ctx, id)
	if err != nil {
		return nil, dependency("failed to load joining request", err)
	}
	if jr == nil {
		return nil, ErrJoiningRequestNotFound
	}
	return jr, nil
}

// GetMyJoiningRequest returns the joining request of the logged-in employee
func (s *WorkflowService) GetMyJoiningRequest(ctx context.Context, email string) (*models.JoiningRequest, error) {
	jr, err := s.stores.JoiningRequests.GetByEmail(ctx, email)
	if err != nil {
		return nil, dependency("failed to load joining request", err)
	}
	if jr == nil {
		return nil, ErrJoiningRequestNotFound
	}
	return jr, nil
}

// GetJoiningRequest returns one joining request with its candidate
func (s *WorkflowService) GetJoiningRequest(ctx context.Context, id uuid.UUID) (*models.JoiningRequestDetail, error) {
	jr, err := s.loadJoiningRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := s.stores.Candidates.GetByID(ctx, jr.CandidateID)
	if err != nil {
		return nil, dependency("failed to load candidate", err)
	}
	return &models.JoiningRequestDetail{JoiningRequest: jr, Candidate: c}, nil
}

// ListJoiningRequests lists joining requests, optionally filtered by status
func (s *WorkflowService) ListJoiningRequests(ctx context.Context, status string) ([]*models.JoiningRequestDetail, error) {
	filter := models.JoiningStatus(strings.TrimSpace(status))
	if filter != "" && !filter.IsValid() {
		return nil, ErrInvalidField.With("Invalid status filter", "status")
	}

	requests, err := s.stores.JoiningRequests.List(ctx, filter)
	if err != nil {
		return nil, dependency("failed to list joining requests", err)
	}
	candidates, err := s.stores.Candidates.List(ctx)
	if err != nil {
		return nil, dependency("failed to list candidates", err)
	}
	byID := make(map[uuid.UUID]*models.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	out := make([]*models.JoiningRequestDetail, 0, len(requests))
	for _, jr := range requests {
		out = append(out, &models.JoiningRequestDetail{JoiningRequest: jr, Candidate: byID[jr.CandidateID]})
	}
	return out, nil
}

// SubmitJoiningForm stores the employee's completed form and documents
func (s *WorkflowService) SubmitJoiningForm(ctx context.Context, email string, in *models.SubmitJoiningFormInput) (jr *models.JoiningRequest, err error) {
	ctx, span := s.start(ctx, "SubmitJoiningForm")
	defer func() { s.finish(span, "submit_joining_form", err) }()

	jr, err = s.GetMyJoiningRequest(ctx, email)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("joining_request_id", jr.ID.String()))
	if jr.Status == models.JoiningStatusSubmitted || jr.Status == models.JoiningStatusApproved {
		return nil, ErrAlreadySubmitted
	}

	f := trimFields(in.JoiningFormFields)
	if missing := missingFormFields(f); len(missing) > 0 {
		return nil, ErrMissingFields.With("Please provide all required fields. "+missingList(missing), missing...)
	}

	dob, err := parseDate(f.DateOfBirth)
	if err != nil {
		return nil, ErrInvalidField.With("Invalid date of birth", "dateOfBirth")
	}
	emergencyPhone := s.contactPhone(f.EmergencyContactPhone)

	var missingDocs []string
	for _, field := range models.RequiredJoiningDocuments {
		if in.Files[field] == nil {
			missingDocs = append(missingDocs, field)
		}
	}
	if len(missingDocs) > 0 {
		return nil, ErrMissingDocuments.With("Please upload all required documents. "+missingList(missingDocs), missingDocs...)
	}

	entries, err := s.parseExperience(ctx, f.Experience)
	if err != nil {
		return nil, err
	}
	experience := make(models.ExperienceList, len(entries))
	for i, e := range entries {
		entry, err := experienceEntry(i, e)
		if err != nil {
			return nil, err
		}
		if in.Files[models.ExperienceCertificateField(i)] == nil {
			return nil, missingCertificate(i)
		}
		experience[i] = entry
	}

	uan := f.UAN
	if len(experience) > 0 {
		if uan == "" {
			return nil, ErrUANRequired.With(ErrUANRequired.Message, "uan")
		}
	} else {
		uan = ""
	}

	required := append([]string{}, models.RequiredJoiningDocuments...)
	for i := range experience {
		required = append(required, models.ExperienceCertificateField(i))
	}
	stored, err := s.storeUploads(ctx, in.Files, validator.Requirements{Required: required})
	if err != nil {
		return nil, err
	}

	now := s.now()
	previous := jr.Status

	jr.DateOfBirth = models.NewNullTime(dob)
	jr.PresentAddressLine = f.PresentAddress
	jr.PresentCity = f.PresentCity
	jr.PresentState = f.PresentState
	jr.PresentPincode = f.PresentPincode
	jr.PermanentAddressLine = f.PermanentAddress
	jr.PermanentCity = f.PermanentCity
	jr.PermanentState = f.PermanentState
	jr.PermanentPincode = f.PermanentPincode
	jr.EmergencyContactName = f.EmergencyContactName
	jr.EmergencyContactPhone = emergencyPhone
	jr.EmergencyContactRelation = f.EmergencyContactRelation
	jr.SelfDescription = f.SelfDescription
	jr.BankDetails = models.BankDetails{
		AccountNumber: f.BankAccountNumber,
		BankName:      f.BankName,
		IFSC:          f.BankIFSC,
		UAN:           uan,
	}
	jr.TenthGrade = f.TenthGrade
	jr.InterGrade = f.InterGrade
	jr.BTechGrade = f.BTechGrade
	for field, target := range documentTargets(jr) {
		if name, ok := stored[field]; ok {
			*target = name
		}
	}
	for i := range experience {
		experience[i].Certificate = stored[models.ExperienceCertificateField(i)]
	}
	jr.Experience = experience
	jr.Status = models.JoiningStatusSubmitted
	jr.SubmittedAt = models.NewNullTime(now)
	jr.SchemaVersion = models.SchemaVersionCurrent
	jr.UpdatedAt = now

	ok, err := s.stores.JoiningRequests.Save(ctx, jr, previous)
	if err != nil || !ok {
		s.discardUploads(ctx, stored)
		if err != nil {
			return nil, dependency("failed to save joining form", err)
		}
		return nil, ErrAlreadySubmitted
	}

	s.logger.WithFields(logrus.Fields{
		"joining_request_id": jr.ID,
		"experience_entries": len(experience),
		"resubmission":       previous == models.JoiningStatusRejected,
	}).Info("Joining form submitted")
	return jr, nil
}

// reviewable reports whether a request in status may be reviewed. Approved
// requests never are: the employee record must be created exactly once.
func (s *WorkflowService) reviewable(status models.JoiningStatus) bool {
	switch status {
	case models.JoiningStatusSubmitted:
		return true
	case models.JoiningStatusPending, models.JoiningStatusRejected:
		return s.cfg.AllowReReview
	default:
		return false
	}
}

// ReviewJoiningRequest approves or rejects a submitted form. Approval activates
// the account, allocates the employee ID and creates the employee record in one
// transaction.
func (s *WorkflowService) ReviewJoiningRequest(ctx context.Context, id uuid.UUID, req models.ReviewRequest, reviewerID uuid.UUID) (jr *models.JoiningRequest, err error) {
	ctx, span := s.start(ctx, "ReviewJoiningRequest",
		attribute.String("joining_request_id", id.String()),
		attribute.String("decision", req.Status))
	defer func() { s.finish(span, "review_joining_request", err) }()

	decision := models.JoiningStatus(strings.TrimSpace(req.Status))
	if decision != models.JoiningStatusApproved && decision != models.JoiningStatusRejected {
		return nil, ErrInvalidReviewStatus
	}

	jr, err = s.loadJoiningRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.reviewable(jr.Status) {
		return nil, ErrNotReviewable
	}

	var passwordHash string
	if decision == models.JoiningStatusApproved {
		if passwordHash, err = s.hashPassword(s.TempPassword(jr.FullName)); err != nil {
			return nil, err
		}
	}

	now := s.now()
	previous := jr.Status
	jr.Status = decision
	jr.ReviewRemarks = strings.TrimSpace(req.Remarks)
	jr.ReviewedBy = uuid.NullUUID{UUID: reviewerID, Valid: true}
	jr.ReviewedAt = models.NewNullTime(now)
	jr.UpdatedAt = now

	var employee *models.Employee
	err = s.stores.Tx.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.stores.JoiningRequests.Save(ctx, jr, previous)
		if err != nil {
			return dependency("failed to save review", err)
		}
		if !ok {
			return ErrNotReviewable
		}
		if decision != models.JoiningStatusApproved {
			return nil
		}

		account, err := s.stores.Accounts.GetByEmail(ctx, jr.Email)
		if err != nil {
			return dependency("failed to load account", err)
		}
		if account == nil {
			return ErrAccountNotFound
		}

		n, err := s.stores.Sequences.Next(ctx, models.EmployeeIDSequence)
		if err != nil {
			return dependency("failed to allocate employee ID", err)
		}
		employeeID := models.FormatEmployeeID(n)

		if err := s.stores.Accounts.Activate(ctx, account.ID, passwordHash, employeeID, now); err != nil {
			return dependency("failed to activate account", err)
		}

		employee = models.NewEmployeeFromJoiningRequest(employeeID, account, jr, now)
		if err := s.stores.Employees.Create(ctx, employee); err != nil {
			return dependency("failed to create employee", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := logrus.Fields{
		"joining_request_id": jr.ID,
		"decision":           decision,
		"reviewer_id":        reviewerID,
	}
	if employee != nil {
		s.metrics.EmployeesCreated.Inc()
		span.SetAttributes(attribute.String("employee_id", employee.EmployeeID))
		fields["employee_id"] = employee.EmployeeID
		s.notify(notification.NewHireAnnounced(employee, jr.SelfDescription))
	}
	s.notify(notification.ReviewDecided(jr))

	s.logger.WithFields(fields).Info("Joining request reviewed")
	return jr, nil
}

// EditJoiningDetails applies an HR correction. Only allow-listed fields are
// touched, documents are replaced only when a new file is supplied, and the
// status never changes.
func (s *WorkflowService) EditJoiningDetails(ctx context.Context, id uuid.UUID, in *models.EditJoiningDetailsInput) (jr *models.JoiningRequest, err error) {
	ctx, span := s.start(ctx, "EditJoiningDetails", attribute.String("joining_request_id", id.String()))
	defer func() { s.finish(span, "edit_joining_details", err) }()

	jr, err = s.loadJoiningRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.DateOfBirth != nil {
		value := strings.TrimSpace(*in.DateOfBirth)
		if value == "" {
			jr.DateOfBirth = models.NullTime{}
		} else {
			dob, err := parseDate(value)
			if err != nil {
				return nil, ErrInvalidField.With("Invalid date of birth", "dateOfBirth")
			}
			jr.DateOfBirth = models.NewNullTime(dob)
		}
	}

	for _, p := range []struct {
		value  *string
		target *string
	}{
		{in.PresentAddress, &jr.PresentAddressLine},
		{in.PresentCity, &jr.PresentCity},
		{in.PresentState, &jr.PresentState},
		{in.PresentPincode, &jr.PresentPincode},
		{in.PermanentAddress, &jr.PermanentAddressLine},
		{in.PermanentCity, &jr.PermanentCity},
		{in.PermanentState, &jr.PermanentState},
		{in.PermanentPincode, &jr.PermanentPincode},
		{in.EmergencyContactName, &jr.EmergencyContactName},
		{in.EmergencyContactPhone, &jr.EmergencyContactPhone},
		{in.EmergencyContactRelation, &jr.EmergencyContactRelation},
		{in.BankAccountNumber, &jr.BankDetails.AccountNumber},
		{in.BankName, &jr.BankDetails.BankName},
		{in.BankIFSC, &jr.BankDetails.IFSC},
		{in.UAN, &jr.BankDetails.UAN},
		{in.TenthGrade, &jr.TenthGrade},
		{in.InterGrade, &jr.InterGrade},
		{in.BTechGrade, &jr.BTechGrade},
	} {
		if p.value != nil {
			*p.target = strings.TrimSpace(*p.value)
		}
	}

	if in.Experience != nil {
		entries, err := s.parseExperience(ctx, *in.Experience)
		if err != nil {
			return nil, err
		}
		experience := make(models.ExperienceList, len(entries))
		for i, e := range entries {
			entry, err := experienceEntry(i, e)
			if err != nil {
				return nil, err
			}
			if i < len(jr.Experience) {
				entry.Certificate = jr.Experience[i].Certificate
			}
			experience[i] = entry
		}
		jr.Experience = experience
	}
	if in.EmergencyContactPhone != nil {
		jr.EmergencyContactPhone = s.contactPhone(*in.EmergencyContactPhone)
	}
	if err := checkEditedEmployment(jr, in.Files); err != nil {
		return nil, err
	}

	targets := documentTargets(jr)
	optional := make([]string, 0, len(targets))
	for field := range targets {
		if in.Files[field] != nil {
			optional = append(optional, field)
		}
	}
	stored, err := s.storeUploads(ctx, in.Files, validator.Requirements{Optional: optional})
	if err != nil {
		return nil, err
	}
	for field, name := range stored {
		*targets[field] = name
	}

	status := jr.Status
	jr.UpdatedAt = s.now()
	ok, err := s.stores.JoiningRequests.Save(ctx, jr, status)
	if err != nil || !ok {
		s.discardUploads(ctx, stored)
		if err != nil {
			return nil, dependency("failed to save joining details", err)
		}
		return nil, ErrConcurrentUpdate
	}

	s.logger.WithFields(logrus.Fields{
		"joining_request_id": jr.ID,
		"replaced_documents": len(stored),
	}).Info("Joining details edited")
	return jr, nil
}

// documentTargets maps upload field names to the document references they fill
func documentTargets(jr *models.JoiningRequest) map[string]*string {
	targets := map[string]*string{
		models.DocProfilePhoto: &jr.ProfilePhoto,
		models.DocIDProof:      &jr.IDProof,
		models.DocAddressProof: &jr.AddressProof,
		models.DocTenth:        &jr.TenthDocument,
		models.DocInter:        &jr.InterDocument,
		models.DocBTech:        &jr.BTechDocument,
	}
	for i := range jr.Experience {
		targets[models.ExperienceCertificateField(i)] = &jr.Experience[i].Certificate
	}
	return targets
}

func trimFields(f models.JoiningFormFields) models.JoiningFormFields {
	for _, p := range []*string{
		&f.DateOfBirth, &f.PresentAddress, &f.PresentCity, &f.PresentState, &f.PresentPincode,
		&f.PermanentAddress, &f.PermanentCity, &f.PermanentState, &f.PermanentPincode,
		&f.EmergencyContactName, &f.EmergencyContactPhone, &f.EmergencyContactRelation,
		&f.SelfDescription, &f.BankAccountNumber, &f.BankName, &f.BankIFSC, &f.UAN,
		&f.TenthGrade, &f.InterGrade, &f.BTechGrade, &f.Experience,
	} {
		*p = strings.TrimSpace(*p)
	}
	return f
}

// missingFormFields lists every empty required field in form order
func missingFormFields(f models.JoiningFormFields) []string {
	var missing []string
	for _, field := range []struct{ name, value string }{
		{"dateOfBirth", f.DateOfBirth},
		{"presentAddress", f.PresentAddress},
		{"presentCity", f.PresentCity},
		{"presentState", f.PresentState},
		{"presentPincode", f.PresentPincode},
		{"permanentAddress", f.PermanentAddress},
		{"permanentCity", f.PermanentCity},
		{"permanentState", f.PermanentState},
		{"permanentPincode", f.PermanentPincode},
		{"emergencyContactName", f.EmergencyContactName},
		{"emergencyContactPhone", f.EmergencyContactPhone},
		{"emergencyContactRelation", f.EmergencyContactRelation},
		{"selfDescription", f.SelfDescription},
		{"bankAccountNumber", f.BankAccountNumber},
		{"bankName", f.BankName},
		{"bankIFSC", f.BankIFSC},
		{"tenthGrade", f.TenthGrade},
		{"interGrade", f.InterGrade},
		{"btechGrade", f.BTechGrade},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}
