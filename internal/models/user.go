package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NullString wraps sql.NullString to provide proper JSON marshaling
type NullString struct {
	sql.NullString
}

// NewNullString returns a valid NullString, or an invalid one for ""
func NewNullString(s string) NullString {
	return NullString{sql.NullString{String: s, Valid: s != ""}}
}

// MarshalJSON implements json.Marshaler
func (ns NullString) MarshalJSON() ([]byte, error) {
	if ns.Valid {
		return json.Marshal(ns.String)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (ns *NullString) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != nil {
		ns.Valid = true
		ns.String = *s
	} else {
		ns.Valid = false
	}
	return nil
}

// NullTime wraps sql.NullTime to provide proper JSON marshaling
type NullTime struct {
	sql.NullTime
}

// NewNullTime returns a valid NullTime holding t
func NewNullTime(t time.Time) NullTime {
	return NullTime{sql.NullTime{Time: t, Valid: true}}
}

// MarshalJSON implements json.Marshaler
func (nt NullTime) MarshalJSON() ([]byte, error) {
	if nt.Valid {
		return json.Marshal(nt.Time)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (nt *NullTime) UnmarshalJSON(data []byte) error {
	var t *time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	if t != nil {
		nt.Valid = true
		nt.Time = *t
	} else {
		nt.Valid = false
	}
	return nil
}

// Role is the access level carried by an account and its session token
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// UserAccount is the login credential bound to one person
type UserAccount struct {
	ID           uuid.UUID  `json:"_id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never expose in JSON
	Role         Role       `json:"role" db:"role"`
	FullName     string     `json:"fullName" db:"full_name"`
	Practice     string     `json:"practice" db:"practice"`
	IsActive     bool       `json:"isActive" db:"is_active"`
	EmployeeID   NullString `json:"employeeId" db:"employee_id"`
	LastLoginAt  NullTime   `json:"lastLoginAt" db:"last_login_at"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login
type LoginResponse struct {
	ID         uuid.UUID `json:"_id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	Role       Role      `json:"role"`
	EmployeeID *string   `json:"employeeId,omitempty"`
	Practice   string    `json:"practice,omitempty"`
	Token      string    `json:"token"`
	ExpiresIn  int64     `json:"expiresIn"`
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID         int64         `json:"id" db:"id"`
	ActorID    uuid.NullUUID `json:"actorId,omitempty" db:"actor_id"`
	Action     string        `json:"action" db:"action"`
	EntityType NullString    `json:"entityType,omitempty" db:"entity_type"`
	EntityID   uuid.NullUUID `json:"entityId,omitempty" db:"entity_id"`
	IPAddress  NullString    `json:"ipAddress,omitempty" db:"ip_address"`
	UserAgent  NullString    `json:"userAgent,omitempty" db:"user_agent"`
	Details    NullString    `json:"details,omitempty" db:"details"`
	CreatedAt  time.Time     `json:"createdAt" db:"created_at"`
}
