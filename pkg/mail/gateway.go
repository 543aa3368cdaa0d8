package mail

import "context"

// Attachment is a file sent along with a message
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is one outbound email. Bcc recipients never appear in headers.
type Message struct {
	To          []string
	Bcc         []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Recipients returns every envelope recipient
func (m *Message) Recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Bcc))
	out = append(out, m.To...)
	return append(out, m.Bcc...)
}

// Gateway defines the interface for sending email
type Gateway interface {
	// Send delivers the message once; no retry is attempted
	Send(ctx context.Context, msg *Message) error

	// GetName returns the name of the mail gateway implementation
	GetName() string
}
