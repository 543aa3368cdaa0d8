package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EmployeeIDSequence is the counter row used to allocate employee IDs
const EmployeeIDSequence = "employee_id"

// FormatEmployeeID renders the n-th allocated number as EMP00001, EMP00002, ...
func FormatEmployeeID(n int64) string {
	return fmt.Sprintf("EMP%05d", n)
}

// Employee is the materialized record of a fully onboarded hire
type Employee struct {
	ID               uuid.UUID `json:"_id" db:"id"`
	EmployeeID       string    `json:"employeeId" db:"employee_id"`
	UserID           uuid.UUID `json:"userId" db:"user_id"`
	CandidateID      uuid.UUID `json:"candidateId" db:"candidate_id"`
	JoiningRequestID uuid.UUID `json:"joiningRequestId" db:"joining_request_id"`

	FullName string `json:"fullName" db:"full_name"`
	Email    string `json:"email" db:"email"`
	Phone    string `json:"phone" db:"phone"`
	Practice string `json:"practice" db:"practice"`
	Position string `json:"position" db:"position"`

	Address      string `json:"address" db:"address"`
	City         string `json:"city" db:"city"`
	State        string `json:"state" db:"state"`
	Pincode      string `json:"pincode" db:"pincode"`
	ProfilePhoto string `json:"profilePhoto" db:"profile_photo"`

	TenthGrade      string  `json:"tenthGrade" db:"tenth_grade"`
	InterGrade      string  `json:"interGrade" db:"inter_grade"`
	BTechGrade      string  `json:"btechGrade" db:"btech_grade"`
	ExperienceCount int     `json:"experienceCount" db:"experience_count"`
	ExperienceYears float64 `json:"experienceYears" db:"experience_years"`

	IsActive  bool      `json:"isActive" db:"is_active"`
	JoinDate  time.Time `json:"joinDate" db:"join_date"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// NewEmployeeFromJoiningRequest copies the approved form onto a fresh employee record
func NewEmployeeFromJoiningRequest(employeeID string, account *UserAccount, jr *JoiningRequest, now time.Time) *Employee {
	addr := jr.ResidentialAddress()
	var years float64
	for _, e := range jr.Experience {
		years += e.Years
	}
	return &Employee{
		ID:               uuid.New(),
		EmployeeID:       employeeID,
		UserID:           account.ID,
		CandidateID:      jr.CandidateID,
		JoiningRequestID: jr.ID,
		FullName:         jr.FullName,
		Email:            jr.Email,
		Phone:            jr.Phone,
		Practice:         jr.Practice,
		Position:         jr.Position,
		Address:          addr.Address,
		City:             addr.City,
		State:            addr.State,
		Pincode:          addr.Pincode,
		ProfilePhoto:     jr.ProfilePhoto,
		TenthGrade:       jr.TenthGrade,
		InterGrade:       jr.InterGrade,
		BTechGrade:       jr.BTechGrade,
		ExperienceCount:  len(jr.Experience),
		ExperienceYears:  years,
		IsActive:         true,
		JoinDate:         now,
		CreatedAt:        now,
	}
}

// DashboardStats is returned by GET /api/admin/dashboard-stats
type DashboardStats struct {
	TotalCandidates int `json:"totalCandidates"`
	OffersAccepted  int `json:"offersAccepted"`
	PendingJoining  int `json:"pendingJoining"`
	TotalEmployees  int `json:"totalEmployees"`
}
