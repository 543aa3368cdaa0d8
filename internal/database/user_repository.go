package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/wwtech/onboarding-backend/internal/models"
)

const userAccountColumns = `
	id, email, password_hash, role, full_name, practice,
	is_active, employee_id, last_login_at, created_at, updated_at`

// UserAccountRepository handles login account database operations
type UserAccountRepository struct {
	db DB
}

// NewUserAccountRepository creates a new user account repository
func NewUserAccountRepository(db DB) *UserAccountRepository {
	return &UserAccountRepository{db: db}
}

// Create inserts a new account. A taken email yields ErrDuplicate.
func (r *UserAccountRepository) Create(ctx context.Context, u *models.UserAccount) error {
	query := `
		INSERT INTO user_accounts (
			id, email, password_hash, role, full_name, practice,
			is_active, employee_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.Role, u.FullName, u.Practice,
		u.IsActive, u.EmployeeID, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return wrapWriteErr("failed to create user account", err)
	}
	return nil
}

// GetByID retrieves an account by ID
func (r *UserAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UserAccount, error) {
	return r.getOne(ctx, `SELECT`+userAccountColumns+` FROM user_accounts WHERE id = $1`, id)
}

// GetByEmail retrieves an account by email, case-insensitively
func (r *UserAccountRepository) GetByEmail(ctx context.Context, email string) (*models.UserAccount, error) {
	return r.getOne(ctx, `SELECT`+userAccountColumns+` FROM user_accounts WHERE LOWER(email) = $1`, strings.ToLower(email))
}

func (r *UserAccountRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.UserAccount, error) {
	var u models.UserAccount
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &u, query, arg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user account: %w", err)
	}
	return &u, nil
}

// Activate resets the password, stamps the employee ID and enables login
func (r *UserAccountRepository) Activate(ctx context.Context, id uuid.UUID, passwordHash, employeeID string, at time.Time) error {
	query := `
		UPDATE user_accounts
		SET password_hash = $2, employee_id = $3, is_active = TRUE, updated_at = $4
		WHERE id = $1
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, id, passwordHash, employeeID, at)
	if err != nil {
		return wrapWriteErr("failed to activate user account", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user account not found")
	}
	return nil
}

// UpdateLastLogin records a successful login
func (r *UserAccountRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE user_accounts SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}
