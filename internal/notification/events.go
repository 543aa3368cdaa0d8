package notification

import "github.com/wwtech/onboarding-backend/internal/models"

// EventType names the workflow transition an email reports
type EventType string

const (
	EventOfferSent        EventType = "offer_sent"
	EventCredentialsSent  EventType = "credentials_sent"
	EventReviewDecided    EventType = "review_decided"
	EventNewHireAnnounced EventType = "new_hire_announced"
)

// Event is one queued email. Only the fields of its Type are set.
type Event struct {
	Type  EventType
	To    string // empty for announcements; recipients are resolved at delivery
	Email string // the subject's own address, excluded from announcements

	FullName string
	Position string
	Practice string

	OfferToken   string // EventOfferSent
	TempPassword string // EventCredentialsSent
	Decision     string // EventReviewDecided
	Remarks      string // EventReviewDecided

	EmployeeID      string // EventNewHireAnnounced
	SelfDescription string // EventNewHireAnnounced
	ProfilePhoto    string // EventNewHireAnnounced

	Attachment string // stored upload name, optional
}

// OfferSent builds the offer letter email
func OfferSent(c *models.Candidate, token, attachment string) Event {
	return Event{
		Type:       EventOfferSent,
		To:         c.Email,
		FullName:   c.FullName,
		Position:   c.Position,
		Practice:   c.Practice,
		OfferToken: token,
		Attachment: attachment,
	}
}

// CredentialsSent builds the joining details email carrying the temporary password
func CredentialsSent(c *models.Candidate, tempPassword, attachment string) Event {
	return Event{
		Type:         EventCredentialsSent,
		To:           c.Email,
		FullName:     c.FullName,
		Position:     c.Position,
		Practice:     c.Practice,
		TempPassword: tempPassword,
		Attachment:   attachment,
	}
}

// ReviewDecided builds the approval or rejection email
func ReviewDecided(jr *models.JoiningRequest) Event {
	return Event{
		Type:     EventReviewDecided,
		To:       jr.Email,
		FullName: jr.FullName,
		Position: jr.Position,
		Practice: jr.Practice,
		Decision: string(jr.Status),
		Remarks:  jr.ReviewRemarks,
	}
}

// NewHireAnnounced builds the broadcast introducing a new employee
func NewHireAnnounced(e *models.Employee, selfDescription string) Event {
	return Event{
		Type:            EventNewHireAnnounced,
		FullName:        e.FullName,
		Position:        e.Position,
		Practice:        e.Practice,
		EmployeeID:      e.EmployeeID,
		SelfDescription: selfDescription,
		ProfilePhoto:    e.ProfilePhoto,
		Email:           e.Email,
	}
}
