package models

import (
	"time"

	"github.com/google/uuid"
)

// Stage is the position of a hire in the onboarding state machine
type Stage string

const (
	StageCreated           Stage = "CREATED"
	StageOfferSent         Stage = "OFFER_SENT"
	StageOfferAccepted     Stage = "OFFER_ACCEPTED"
	StageCredentialsIssued Stage = "CREDENTIALS_ISSUED"
	StageFormSubmitted     Stage = "FORM_SUBMITTED"
	StageApproved          Stage = "APPROVED"
	StageRejected          Stage = "REJECTED"
)

// Candidate is a prospective hire tracked before any login account exists
type Candidate struct {
	ID                   uuid.UUID  `json:"_id" db:"id"`
	FullName             string     `json:"fullName" db:"full_name"`
	Email                string     `json:"email" db:"email"`
	Phone                string     `json:"phone" db:"phone"`
	Practice             string     `json:"practice" db:"practice"`
	Position             string     `json:"position" db:"position"`
	OfferSent            bool       `json:"offerSent" db:"offer_sent"`
	OfferSentAt          NullTime   `json:"offerSentDate" db:"offer_sent_at"`
	OfferAccepted        bool       `json:"offerAccepted" db:"offer_accepted"`
	OfferAcceptedAt      NullTime   `json:"offerAcceptedDate" db:"offer_accepted_at"`
	OfferTokenHash       NullString `json:"-" db:"offer_token_hash"` // SHA-256 of the emailed token
	OfferTokenExpiry     NullTime   `json:"offerTokenExpiry" db:"offer_token_expiry"`
	OfferDocument        NullString `json:"offerDocument" db:"offer_document"`
	JoiningDetailsSent   bool       `json:"joiningDetailsSent" db:"joining_details_sent"`
	JoiningDetailsSentAt NullTime   `json:"joiningDetailsSentDate" db:"joining_details_sent_at"`
	CreatedBy            uuid.UUID  `json:"createdBy" db:"created_by"`
	CreatedAt            time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time  `json:"updatedAt" db:"updated_at"`
}

// Stage derives the candidate-side state. Form states live on the joining request.
func (c *Candidate) Stage() Stage {
	switch {
	case c.JoiningDetailsSent:
		return StageCredentialsIssued
	case c.OfferAccepted:
		return StageOfferAccepted
	case c.OfferSent:
		return StageOfferSent
	default:
		return StageCreated
	}
}

// PublicOfferView is what an offer-token holder is allowed to see
type PublicOfferView struct {
	FullName      string `json:"fullName"`
	Position      string `json:"position"`
	Practice      string `json:"practice"`
	OfferAccepted bool   `json:"offerAccepted"`
}

// PublicView trims the candidate down for unauthenticated token holders
func (c *Candidate) PublicView() PublicOfferView {
	return PublicOfferView{
		FullName:      c.FullName,
		Position:      c.Position,
		Practice:      c.Practice,
		OfferAccepted: c.OfferAccepted,
	}
}

// CreateCandidateRequest is the body of POST /api/admin/candidates
type CreateCandidateRequest struct {
	FullName string `json:"fullName" yaml:"fullName"`
	Email    string `json:"email" yaml:"email"`
	Phone    string `json:"phone" yaml:"phone"`
	Practice string `json:"practice" yaml:"practice"`
	Position string `json:"position" yaml:"position"`
}

// BulkCreateCandidatesRequest is the body of POST /api/admin/candidates/bulk
type BulkCreateCandidatesRequest struct {
	Candidates []CreateCandidateRequest `json:"candidates" yaml:"candidates"`
}

// BulkRowResult reports the outcome of one row; Row is 1-based
type BulkRowResult struct {
	Row       int        `json:"row"`
	Success   bool       `json:"success"`
	Email     string     `json:"email,omitempty"`
	Error     string     `json:"error,omitempty"`
	Candidate *Candidate `json:"candidate,omitempty"`
}

// BulkCreateResult summarizes a bulk import
type BulkCreateResult struct {
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Results   []BulkRowResult `json:"results"`
}
