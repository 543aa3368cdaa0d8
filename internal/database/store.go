package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wwtech/onboarding-backend/internal/models"
)

// Lookups return (nil, nil) when no row matches. Conditional updates return
// false when the guard did not hold and nothing was written.

// CandidateStore persists candidates
type CandidateStore interface {
	Create(ctx context.Context, c *models.Candidate) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Candidate, error)
	GetByOfferTokenHash(ctx context.Context, hash string) (*models.Candidate, error)
	List(ctx context.Context) ([]*models.Candidate, error)
	MarkOfferSent(ctx context.Context, id uuid.UUID, tokenHash string, expiry time.Time, document models.NullString, at time.Time) (bool, error)
	MarkOfferAccepted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkJoiningDetailsSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ClearExpiredOfferTokens(ctx context.Context, now time.Time) (int64, error)
	Count(ctx context.Context) (int, error)
	CountOffersAccepted(ctx context.Context) (int, error)
}

// UserAccountStore persists login accounts
type UserAccountStore interface {
	Create(ctx context.Context, u *models.UserAccount) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserAccount, error)
	GetByEmail(ctx context.Context, email string) (*models.UserAccount, error)
	Activate(ctx context.Context, id uuid.UUID, passwordHash, employeeID string, at time.Time) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// JoiningRequestStore persists joining requests
type JoiningRequestStore interface {
	Create(ctx context.Context, jr *models.JoiningRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.JoiningRequest, error)
	GetByEmail(ctx context.Context, email string) (*models.JoiningRequest, error)
	// List filters by status; the empty status lists everything
	List(ctx context.Context, status models.JoiningStatus) ([]*models.JoiningRequest, error)
	// Save writes every mutable column, only if the stored status still equals expected
	Save(ctx context.Context, jr *models.JoiningRequest, expected models.JoiningStatus) (bool, error)
	CountByStatus(ctx context.Context, status models.JoiningStatus) (int, error)
}

// EmployeeStore persists employee records
type EmployeeStore interface {
	Create(ctx context.Context, e *models.Employee) error
	List(ctx context.Context) ([]*models.Employee, error)
	Count(ctx context.Context) (int, error)
	ListActiveEmails(ctx context.Context, exclude string) ([]string, error)
}

// SequenceStore hands out monotonically increasing numbers per name
type SequenceStore interface {
	Next(ctx context.Context, name string) (int64, error)
}

// AuditStore persists audit log rows
type AuditStore interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit int) ([]*models.AuditLog, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Transactor runs fn atomically; stores called with the ctx it receives join the transaction
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Stores bundles every repository the services need
type Stores struct {
	Candidates      CandidateStore
	Accounts        UserAccountStore
	JoiningRequests JoiningRequestStore
	Employees       EmployeeStore
	Sequences       SequenceStore
	Audit           AuditStore
	Tx              Transactor
}

// NewStores wires the Postgres repositories onto db
func NewStores(db DB) *Stores {
	return &Stores{
		Candidates:      NewCandidateRepository(db),
		Accounts:        NewUserAccountRepository(db),
		JoiningRequests: NewJoiningRequestRepository(db),
		Employees:       NewEmployeeRepository(db),
		Sequences:       NewSequenceRepository(db),
		Audit:           NewAuditRepository(db),
		Tx:              NewTxManager(db),
	}
}
