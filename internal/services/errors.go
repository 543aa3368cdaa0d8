package services

import (
	"errors"
	"fmt"

	"github.com/wwtech/onboarding-backend/internal/database"
)

// ErrorKind classifies a service failure for transport mapping
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindDuplicate    ErrorKind = "duplicate"
	KindNotFound     ErrorKind = "not_found"
	KindInvalidState ErrorKind = "invalid_state"
	KindAuth         ErrorKind = "auth"
	KindForbidden    ErrorKind = "forbidden"
	KindToken        ErrorKind = "token"
	KindDependency   ErrorKind = "dependency"
)

// Error is a classified failure with a caller-safe message
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Fields  []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so sentinels compare equal to their annotated copies
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// With returns a copy carrying a different message and the offending fields
func (e *Error) With(message string, fields ...string) *Error {
	out := *e
	out.Message = message
	out.Fields = fields
	return &out
}

// KindOf returns the kind of err, or KindDependency for unclassified errors
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindDependency
}

var (
	ErrMissingFields        = &Error{Kind: KindValidation, Code: "MISSING_FIELDS", Message: "Please provide all required fields"}
	ErrMissingDocuments     = &Error{Kind: KindValidation, Code: "MISSING_DOCUMENTS", Message: "Please upload all required documents"}
	ErrInvalidFile          = &Error{Kind: KindValidation, Code: "INVALID_FILE", Message: "Uploaded file rejected"}
	ErrInvalidExperience    = &Error{Kind: KindValidation, Code: "INVALID_EXPERIENCE_FORMAT", Message: "Invalid experience data format"}
	ErrIncompleteExperience = &Error{Kind: KindValidation, Code: "INCOMPLETE_EXPERIENCE", Message: "Experience entry is incomplete"}
	ErrUANRequired          = &Error{Kind: KindValidation, Code: "UAN_REQUIRED", Message: "UAN (EPFO) number is required when you have work experience"}
	ErrInvalidReviewStatus  = &Error{Kind: KindValidation, Code: "INVALID_STATUS", Message: "Invalid status"}
	ErrInvalidID            = &Error{Kind: KindValidation, Code: "INVALID_ID", Message: "Invalid ID"}
	ErrInvalidField         = &Error{Kind: KindValidation, Code: "INVALID_FIELD", Message: "Invalid field value"}

	ErrDuplicateEmail = &Error{Kind: KindDuplicate, Code: "DUPLICATE_EMAIL", Message: "Candidate already exists"}

	ErrCandidateNotFound      = &Error{Kind: KindNotFound, Code: "CANDIDATE_NOT_FOUND", Message: "Candidate not found"}
	ErrJoiningRequestNotFound = &Error{Kind: KindNotFound, Code: "JOINING_REQUEST_NOT_FOUND", Message: "Joining request not found"}
	ErrAccountNotFound        = &Error{Kind: KindNotFound, Code: "ACCOUNT_NOT_FOUND", Message: "User account not found"}

	ErrOfferAlreadySent          = &Error{Kind: KindInvalidState, Code: "OFFER_ALREADY_SENT", Message: "Offer already sent to this candidate"}
	ErrOfferAlreadyAccepted      = &Error{Kind: KindInvalidState, Code: "OFFER_ALREADY_ACCEPTED", Message: "Offer already accepted"}
	ErrOfferNotAccepted          = &Error{Kind: KindInvalidState, Code: "OFFER_NOT_ACCEPTED", Message: "Candidate has not accepted the offer yet"}
	ErrJoiningDetailsAlreadySent = &Error{Kind: KindInvalidState, Code: "JOINING_DETAILS_ALREADY_SENT", Message: "Joining details already sent"}
	ErrAccountExists             = &Error{Kind: KindInvalidState, Code: "ACCOUNT_EXISTS", Message: "User account already exists for this candidate"}
	ErrAlreadySubmitted          = &Error{Kind: KindInvalidState, Code: "ALREADY_SUBMITTED", Message: "Joining form already submitted"}
	ErrNotReviewable             = &Error{Kind: KindInvalidState, Code: "NOT_REVIEWABLE", Message: "Can only review submitted requests"}
	ErrConcurrentUpdate          = &Error{Kind: KindInvalidState, Code: "CONCURRENT_UPDATE", Message: "Joining request was changed by someone else, please retry"}

	ErrInvalidOrExpiredToken = &Error{Kind: KindToken, Code: "INVALID_OFFER_TOKEN", Message: "Invalid or expired offer link"}

	ErrInvalidCredentials = &Error{Kind: KindAuth, Code: "INVALID_CREDENTIALS", Message: "Invalid credentials"}
	ErrAccountInactive    = &Error{Kind: KindForbidden, Code: "ACCOUNT_INACTIVE", Message: "Account is inactive"}
)

// dependency wraps a storage or I/O failure; the message never reaches callers
func dependency(op string, err error) *Error {
	return &Error{Kind: KindDependency, Code: "DEPENDENCY", Message: op, Err: err}
}

func isDuplicate(err error) bool {
	return errors.Is(err, database.ErrDuplicate)
}
