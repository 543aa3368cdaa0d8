package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/wwtech/onboarding-backend/internal/models"
)

const candidateColumns = `
	id, full_name, email, phone, practice, position,
	offer_sent, offer_sent_at, offer_accepted, offer_accepted_at,
	offer_token_hash, offer_token_expiry, offer_document,
	joining_details_sent, joining_details_sent_at,
	created_by, created_at, updated_at`

// CandidateRepository handles candidate database operations
type CandidateRepository struct {
	db DB
}

// NewCandidateRepository creates a new candidate repository
func NewCandidateRepository(db DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// Create inserts a new candidate. A taken email yields ErrDuplicate.
func (r *CandidateRepository) Create(ctx context.Context, c *models.Candidate) error {
	query := `
		INSERT INTO candidates (
			id, full_name, email, phone, practice, position,
			offer_sent, offer_accepted, joining_details_sent,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		c.ID, c.FullName, c.Email, c.Phone, c.Practice, c.Position,
		c.OfferSent, c.OfferAccepted, c.JoiningDetailsSent,
		c.CreatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("failed to create candidate", err)
	}
	return nil
}

// GetByID retrieves a candidate by ID
func (r *CandidateRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	return r.getOne(ctx, `SELECT`+candidateColumns+` FROM candidates WHERE id = $1`, id)
}

// GetByOfferTokenHash retrieves the candidate holding the given token digest
func (r *CandidateRepository) GetByOfferTokenHash(ctx context.Context, hash string) (*models.Candidate, error) {
	return r.getOne(ctx, `SELECT`+candidateColumns+` FROM candidates WHERE offer_token_hash = $1`, hash)
}

func (r *CandidateRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Candidate, error) {
	var c models.Candidate
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &c, query, arg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return &c, nil
}

// List returns every candidate, newest first
func (r *CandidateRepository) List(ctx context.Context) ([]*models.Candidate, error) {
	candidates := []*models.Candidate{}
	query := `SELECT` + candidateColumns + ` FROM candidates ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &candidates, query); err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return candidates, nil
}

// MarkOfferSent stamps the offer as sent, only if it was not sent before
func (r *CandidateRepository) MarkOfferSent(ctx context.Context, id uuid.UUID, tokenHash string, expiry time.Time, document models.NullString, at time.Time) (bool, error) {
	query := `
		UPDATE candidates
		SET offer_sent = TRUE, offer_sent_at = $2,
			offer_token_hash = $3, offer_token_expiry = $4,
			offer_document = COALESCE($5, offer_document),
			updated_at = $2
		WHERE id = $1 AND offer_sent = FALSE
	`
	return execGuarded(ctx, r.db, "failed to mark offer sent", query, id, at, tokenHash, expiry, document)
}

// MarkOfferAccepted stamps acceptance, only if the offer was sent and not yet accepted.
// The token is kept until the expiry sweep so that a replay reports AlreadyAccepted.
func (r *CandidateRepository) MarkOfferAccepted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE candidates
		SET offer_accepted = TRUE, offer_accepted_at = $2, updated_at = $2
		WHERE id = $1 AND offer_sent = TRUE AND offer_accepted = FALSE
	`
	return execGuarded(ctx, r.db, "failed to mark offer accepted", query, id, at)
}

// MarkJoiningDetailsSent stamps the joining details as sent, only once and only after acceptance
func (r *CandidateRepository) MarkJoiningDetailsSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE candidates
		SET joining_details_sent = TRUE, joining_details_sent_at = $2, updated_at = $2
		WHERE id = $1 AND offer_accepted = TRUE AND joining_details_sent = FALSE
	`
	return execGuarded(ctx, r.db, "failed to mark joining details sent", query, id, at)
}

// ClearExpiredOfferTokens drops token digests whose expiry has passed
func (r *CandidateRepository) ClearExpiredOfferTokens(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE candidates
		SET offer_token_hash = NULL, offer_token_expiry = NULL, updated_at = $1
		WHERE offer_token_hash IS NOT NULL AND offer_token_expiry <= $1
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired offer tokens: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the number of candidates
func (r *CandidateRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM candidates`)
}

// CountOffersAccepted returns the number of candidates who accepted their offer
func (r *CandidateRepository) CountOffersAccepted(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM candidates WHERE offer_accepted = TRUE`)
}

func execGuarded(ctx context.Context, db DB, op, query string, args ...interface{}) (bool, error) {
	result, err := conn(ctx, db).ExecContext(ctx, query, args...)
	if err != nil {
		return false, wrapWriteErr(op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rows == 1, nil
}

func count(ctx context.Context, db DB, query string, args ...interface{}) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, conn(ctx, db), &n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}
