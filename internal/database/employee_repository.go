package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/wwtech/onboarding-backend/internal/models"
)

const employeeColumns = `
	id, employee_id, user_id, candidate_id, joining_request_id,
	full_name, email, phone, practice, position,
	address, city, state, pincode, profile_photo,
	tenth_grade, inter_grade, btech_grade, experience_count, experience_years,
	is_active, join_date, created_at`

// EmployeeRepository handles employee database operations
type EmployeeRepository struct {
	db DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create inserts an employee record
func (r *EmployeeRepository) Create(ctx context.Context, e *models.Employee) error {
	query := `INSERT INTO employees (` + employeeColumns + `) VALUES (
		:id, :employee_id, :user_id, :candidate_id, :joining_request_id,
		:full_name, :email, :phone, :practice, :position,
		:address, :city, :state, :pincode, :profile_photo,
		:tenth_grade, :inter_grade, :btech_grade, :experience_count, :experience_years,
		:is_active, :join_date, :created_at
	)`
	if _, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, e); err != nil {
		return wrapWriteErr("failed to create employee", err)
	}
	return nil
}

// List returns every employee ordered by employee ID
func (r *EmployeeRepository) List(ctx context.Context) ([]*models.Employee, error) {
	employees := []*models.Employee{}
	query := `SELECT` + employeeColumns + ` FROM employees ORDER BY employee_id`
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &employees, query); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

// Count returns the number of employees
func (r *EmployeeRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM employees`)
}

// ListActiveEmails returns the email of every active employee except exclude
func (r *EmployeeRepository) ListActiveEmails(ctx context.Context, exclude string) ([]string, error) {
	emails := []string{}
	query := `
		SELECT email FROM employees
		WHERE is_active = TRUE AND LOWER(email) <> $1
		ORDER BY employee_id
	`
	if err := sqlx.SelectContext(ctx, conn(ctx, r.db), &emails, query, strings.ToLower(exclude)); err != nil {
		return nil, fmt.Errorf("failed to list active employee emails: %w", err)
	}
	return emails, nil
}

// SequenceRepository allocates numbers from the id_sequences table
type SequenceRepository struct {
	db DB
}

// NewSequenceRepository creates a new sequence repository
func NewSequenceRepository(db DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next increments the named counter and returns the new value. The row lock
// is held until the surrounding transaction ends, so rolled-back callers
// never burn a number.
func (r *SequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	query := `
		INSERT INTO id_sequences (name, last_value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET last_value = id_sequences.last_value + 1
		RETURNING last_value
	`
	var n int64
	if err := sqlx.GetContext(ctx, conn(ctx, r.db), &n, query, name); err != nil {
		return 0, fmt.Errorf("failed to allocate %s: %w", name, err)
	}
	return n, nil
}
