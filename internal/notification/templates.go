package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/wwtech/onboarding-backend/internal/models"
	"github.com/wwtech/onboarding-backend/pkg/mail"
)

// RendererConfig carries the links embedded in outgoing emails
type RendererConfig struct {
	ClientURL     string
	ServerURL     string
	OfferTokenTTL time.Duration
}

// Renderer turns events into email messages
type Renderer struct {
	cfg       RendererConfig
	templates map[EventType]*template.Template
}

const layoutOpen = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`

const offerTemplate = layoutOpen + `
<h2 style="color: #333;">Congratulations {{.FullName}}!</h2>
<p>We are pleased to offer you the position of <strong>{{.Position}}</strong> in the <strong>{{.Practice}}</strong> department.</p>
<p>Please click the button below to accept this offer:</p>
<div style="text-align: center; margin: 30px 0;">
  <a href="{{.AcceptLink}}" style="background-color: #4CAF50; color: white; padding: 14px 28px; text-decoration: none; border-radius: 4px; display: inline-block;">Accept Offer</a>
</div>
<p><strong>Note:</strong> This link will expire in {{.ExpiresIn}}.</p>
<p>If you have any questions, please don't hesitate to contact us.</p>
<p>Best regards,<br/>HR Team</p>
</div>`

const credentialsTemplate = layoutOpen + `
<h2 style="color: #333;">Welcome {{.FullName}}!</h2>
<p>Thank you for accepting our offer. Here are your login credentials to complete the joining process:</p>
<div style="background-color: #f5f5f5; padding: 20px; border-radius: 4px; margin: 20px 0;">
  <p><strong>Email:</strong> {{.Email}}</p>
  <p><strong>Temporary Password:</strong> {{.TempPassword}}</p>
</div>
<p>Please login using the credentials above and complete your joining form by uploading the required documents:</p>
<ul>
  <li>Educational Certificates</li>
  <li>ID Proof (Aadhar/PAN/Passport)</li>
  <li>Address Proof</li>
  <li>Profile Photo</li>
</ul>
<div style="text-align: center; margin: 30px 0;">
  <a href="{{.LoginLink}}" style="background-color: #2196F3; color: white; padding: 14px 28px; text-decoration: none; border-radius: 4px; display: inline-block;">Login Now</a>
</div>
<p><strong>Important:</strong> Please change your password after your first login.</p>
<p>Best regards,<br/>HR Team</p>
</div>`

const reviewTemplate = layoutOpen + `
<h2 style="color: #333;">Hello {{.FullName}},</h2>
{{if .Approved}}
<p>Great news! Your joining request has been <strong style="color: #4CAF50;">APPROVED</strong>.</p>
<p>Your employee account has been created and you can now access the employee portal with your existing credentials.</p>
{{else}}
<p>We have reviewed your joining request and it requires some updates.</p>
<p><strong>Status:</strong> <span style="color: #f44336;">Requires Revision</span></p>
{{end}}
{{if .Remarks}}
<div style="background-color: #f5f5f5; padding: 15px; border-radius: 4px; margin: 20px 0;">
  <h4 style="margin-top: 0;">HR Comments:</h4>
  <p style="margin-bottom: 0;">{{.Remarks}}</p>
</div>
{{end}}
<p>If you have any questions, please contact HR.</p>
<p>Best regards,<br/>HR Team</p>
</div>`

const announcementTemplate = layoutOpen + `
<h2 style="color: #333;">Welcome Our New Team Member!</h2>
{{if .PhotoURL}}
<div style="text-align: center; margin: 20px 0;">
  <img src="{{.PhotoURL}}" alt="{{.FullName}}" style="width: 150px; height: 150px; border-radius: 50%; object-fit: cover; border: 3px solid #4CAF50;" />
</div>
{{end}}
<div style="background-color: #f5f5f5; padding: 20px; border-radius: 4px; margin: 20px 0;">
  <h3 style="margin-top: 0; color: #333;">{{.FullName}}</h3>
  <p><strong>Position:</strong> {{.Position}}</p>
  <p><strong>Practice/Department:</strong> {{.Practice}}</p>
  <p><strong>Employee ID:</strong> {{.EmployeeID}}</p>
</div>
<div style="background-color: #e3f2fd; padding: 15px; border-left: 4px solid #2196F3; margin: 20px 0;">
  <h4 style="margin-top: 0;">About {{.FirstName}}</h4>
  <p style="margin-bottom: 0;">{{.SelfDescription}}</p>
</div>
<p>Please join us in welcoming {{.FirstName}} to our team!</p>
<p>Best regards,<br/>HR Team</p>
</div>`

// NewRenderer parses the email templates
func NewRenderer(cfg RendererConfig) *Renderer {
	if cfg.OfferTokenTTL == 0 {
		cfg.OfferTokenTTL = 7 * 24 * time.Hour
	}
	return &Renderer{
		cfg: cfg,
		templates: map[EventType]*template.Template{
			EventOfferSent:        template.Must(template.New("offer").Parse(offerTemplate)),
			EventCredentialsSent:  template.Must(template.New("credentials").Parse(credentialsTemplate)),
			EventReviewDecided:    template.Must(template.New("review").Parse(reviewTemplate)),
			EventNewHireAnnounced: template.Must(template.New("announcement").Parse(announcementTemplate)),
		},
	}
}

// Render builds the message for e. Announcement recipients are filled in by
// the dispatcher, so the returned message has no To for that type.
func (r *Renderer) Render(e Event) (*mail.Message, error) {
	tmpl, ok := r.templates[e.Type]
	if !ok {
		return nil, fmt.Errorf("unknown notification event %q", e.Type)
	}

	var subject string
	var data interface{}

	switch e.Type {
	case EventOfferSent:
		subject = "Job Offer - Welcome to Our Team!"
		data = struct {
			Event
			AcceptLink string
			ExpiresIn  string
		}{e, r.link("/accept-offer/" + e.OfferToken), humanTTL(r.cfg.OfferTokenTTL)}
	case EventCredentialsSent:
		subject = "Joining Details & Login Credentials"
		data = struct {
			Event
			Email     string
			LoginLink string
		}{e, e.To, r.link("/login")}
	case EventReviewDecided:
		approved := e.Decision == string(models.JoiningStatusApproved)
		subject = "Update on Your Joining Request"
		if approved {
			subject = "Congratulations! Your Joining Request is Approved"
		}
		data = struct {
			Event
			Approved bool
		}{e, approved}
	case EventNewHireAnnounced:
		subject = "Welcome Our New Team Member - " + e.FullName
		photo := ""
		if e.ProfilePhoto != "" {
			photo = strings.TrimRight(r.cfg.ServerURL, "/") + "/uploads/" + e.ProfilePhoto
		}
		data = struct {
			Event
			PhotoURL  string
			FirstName string
		}{e, photo, firstName(e.FullName)}
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("failed to render %s email: %w", e.Type, err)
	}

	msg := &mail.Message{Subject: subject, HTML: body.String()}
	if e.To != "" {
		msg.To = []string{e.To}
	}
	return msg, nil
}

func (r *Renderer) link(path string) string {
	return strings.TrimRight(r.cfg.ClientURL, "/") + path
}

func firstName(full string) string {
	if fields := strings.Fields(full); len(fields) > 0 {
		return fields[0]
	}
	return full
}

func humanTTL(d time.Duration) string {
	if d%(24*time.Hour) == 0 {
		days := int(d / (24 * time.Hour))
		if days == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", days)
	}
	hours := int(d.Round(time.Hour) / time.Hour)
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}
