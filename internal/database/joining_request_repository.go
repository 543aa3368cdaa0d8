package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/wwtech/onboarding-backend/internal/models"
)

const joiningRequestColumns = `
	id, candidate_id, full_name, email, phone, practice, position, date_of_birth,
	present_address, present_city, present_state, present_pincode,
	permanent_address, permanent_city, permanent_state, permanent_pincode,
	address, city, state, pincode,
	emergency_contact_name, emergency_contact_phone, emergency_contact_relation,
	self_description, profile_photo, id_proof, address_proof,
	bank_details, uan,
	tenth_grade, tenth_document, inter_grade, inter_document, btech_grade, btech_document,
	experience, status, submitted_at, reviewed_at, reviewed_by, review_remarks,
	schema_version, created_at, updated_at`

// JoiningRequestRepository handles joining request database operations.
// Every read is normalized to the current schema version.
type JoiningRequestRepository struct {
	db DB
}

// NewJoiningRequestRepository creates a new joining request repository
func NewJoiningRequestRepository(db DB) *JoiningRequestRepository {
	return &JoiningRequestRepository{db: db}
}

// Create inserts a freshly seeded joining request
func (r *JoiningRequestRepository) Create(ctx context.Context, jr *models.JoiningRequest) error {
	query := `
		INSERT INTO joining_requests (
			id, candidate_id, full_name, email, phone, practice, position,
			bank_details, experience, status, schema_version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		jr.ID, jr.CandidateID, jr.FullName, jr.Email, jr.Phone, jr.Practice, jr.Position,
		jr.BankDetails, jr.Experience, jr.Status, jr.SchemaVersion, jr.CreatedAt, jr.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("failed to create joining request", err)
	}
	return nil
}

// GetByID retrieves a joining request by ID
func (r *JoiningRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.JoiningRequest, error) {
	return r.getOne(ctx, `SELECT`+joiningRequestColumns+` FROM joining_requests WHERE id = $1`, id)
}

// GetByEmail retrieves the joining request of the given employee email
func (r *JoiningRequestRepository) GetByEmail(ctx context.Context, email string) (*models.JoiningRequest, error) {
	return r.getOne(ctx, `SELECT`+joiningRequestColumns+` FROM joining_requests WHERE LOWER(email) = $1`, strings.ToLower(email))
}

func (r *JoiningRequestRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.JoiningRequest, error) {
	var jr models.JoiningRequest
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &jr, query, arg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get joining request: %w", err)
	}
	jr.Normalize()
	return &jr, nil
}

// List returns joining requests, newest first, optionally filtered by status
func (r *JoiningRequestRepository) List(ctx context.Context, status models.JoiningStatus) ([]*models.JoiningRequest, error) {
	requests := []*models.JoiningRequest{}
	var err error
	if status == "" {
		err = sqlx.SelectContext(ctx, conn(ctx, r.db), &requests,
			`SELECT`+joiningRequestColumns+` FROM joining_requests ORDER BY created_at DESC`)
	} else {
		err = sqlx.SelectContext(ctx, conn(ctx, r.db), &requests,
			`SELECT`+joiningRequestColumns+` FROM joining_requests WHERE status = $1 ORDER BY created_at DESC`, status)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list joining requests: %w", err)
	}
	for _, jr := range requests {
		jr.Normalize()
	}
	return requests, nil
}

// Save writes the mutable columns back, guarded on the stored status
func (r *JoiningRequestRepository) Save(ctx context.Context, jr *models.JoiningRequest, expected models.JoiningStatus) (bool, error) {
	query := `
		UPDATE joining_requests SET
			date_of_birth = $3,
			present_address = $4, present_city = $5, present_state = $6, present_pincode = $7,
			permanent_address = $8, permanent_city = $9, permanent_state = $10, permanent_pincode = $11,
			emergency_contact_name = $12, emergency_contact_phone = $13, emergency_contact_relation = $14,
			self_description = $15, profile_photo = $16, id_proof = $17, address_proof = $18,
			bank_details = $19,
			tenth_grade = $20, tenth_document = $21, inter_grade = $22, inter_document = $23,
			btech_grade = $24, btech_document = $25,
			experience = $26, status = $27, submitted_at = $28,
			reviewed_at = $29, reviewed_by = $30, review_remarks = $31,
			schema_version = $32, updated_at = $33
		WHERE id = $1 AND status = $2
	`
	return execGuarded(ctx, r.db, "failed to save joining request", query,
		jr.ID, expected,
		jr.DateOfBirth,
		jr.PresentAddressLine, jr.PresentCity, jr.PresentState, jr.PresentPincode,
		jr.PermanentAddressLine, jr.PermanentCity, jr.PermanentState, jr.PermanentPincode,
		jr.EmergencyContactName, jr.EmergencyContactPhone, jr.EmergencyContactRelation,
		jr.SelfDescription, jr.ProfilePhoto, jr.IDProof, jr.AddressProof,
		jr.BankDetails,
		jr.TenthGrade, jr.TenthDocument, jr.InterGrade, jr.InterDocument,
		jr.BTechGrade, jr.BTechDocument,
		jr.Experience, jr.Status, jr.SubmittedAt,
		jr.ReviewedAt, jr.ReviewedBy, jr.ReviewRemarks,
		jr.SchemaVersion, jr.UpdatedAt,
	)
}

// CountByStatus returns the number of joining requests in status
func (r *JoiningRequestRepository) CountByStatus(ctx context.Context, status models.JoiningStatus) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM joining_requests WHERE status = $1`, status)
}
