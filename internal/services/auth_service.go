package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/wwtech/onboarding-backend/internal/database"
	"github.com/wwtech/onboarding-backend/internal/models"
	"github.com/wwtech/onboarding-backend/pkg/jwt"
)

// AuthService handles login and profile lookups
type AuthService struct {
	accounts   database.UserAccountStore
	jwtService *jwt.Service
	bcryptCost int
	logger     *logrus.Logger
	now        func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(accounts database.UserAccountStore, jwtService *jwt.Service, bcryptCost int, logger *logrus.Logger) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		accounts:   accounts,
		jwtService: jwtService,
		bcryptCost: bcryptCost,
		logger:     logger,
		now:        time.Now,
	}
}

// Login verifies credentials and issues a session token. Employees may log in
// before approval so they can fill the joining form; inactive admins may not.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields.With("Please provide email and password", "email", "password")
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, dependency("failed to load account", err)
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !account.IsActive && account.Role == models.RoleAdmin {
		return nil, ErrAccountInactive
	}

	token, err := s.jwtService.GenerateSessionToken(account.ID, account.Email, string(account.Role))
	if err != nil {
		return nil, dependency("failed to generate session token", err)
	}

	if err := s.accounts.UpdateLastLogin(ctx, account.ID, s.now()); err != nil {
		// not fatal for the login itself
		s.logger.WithError(err).WithField("user_id", account.ID).Warn("Failed to update last login")
	}

	resp := &models.LoginResponse{
		ID:        account.ID,
		Email:     account.Email,
		FullName:  account.FullName,
		Role:      account.Role,
		Practice:  account.Practice,
		Token:     token,
		ExpiresIn: int64(s.jwtService.Expiry().Seconds()),
	}
	if account.EmployeeID.Valid {
		id := account.EmployeeID.String
		resp.EmployeeID = &id
	}
	return resp, nil
}

// GetProfile returns the caller's account
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.UserAccount, error) {
	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, dependency("failed to load account", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// CreateAdmin creates an active HR administrator. An existing account with the
// same email yields ErrAccountExists.
func (s *AuthService) CreateAdmin(ctx context.Context, email, password, fullName string) (*models.UserAccount, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" || fullName == "" {
		return nil, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, dependency("failed to hash password", err)
	}

	now := s.now()
	admin := &models.UserAccount{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		FullName:     fullName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, admin); err != nil {
		if isDuplicate(err) {
			return nil, ErrAccountExists.With("User account already exists")
		}
		return nil, dependency("failed to create admin", err)
	}
	return admin, nil
}
