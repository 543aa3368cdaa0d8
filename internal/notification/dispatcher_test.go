package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/wwtech/onboarding-backend/internal/metrics"
	"github.com/wwtech/onboarding-backend/internal/models"
	"github.com/wwtech/onboarding-backend/pkg/mail"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingGateway struct {
	mu   sync.Mutex
	sent []*mail.Message
	err  error
}

func (g *recordingGateway) Send(ctx context.Context, msg *mail.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.sent = append(g.sent, msg)
	return nil
}

func (g *recordingGateway) GetName() string { return "recording" }

func (g *recordingGateway) messages() []*mail.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*mail.Message(nil), g.sent...)
}

type staticRecipients struct {
	emails  []string
	exclude string
}

func (s *staticRecipients) ListActiveEmails(ctx context.Context, exclude string) ([]string, error) {
	s.exclude = exclude
	var out []string
	for _, e := range s.emails {
		if !strings.EqualFold(e, exclude) {
			out = append(out, e)
		}
	}
	return out, nil
}

type mapFiles map[string][]byte

func (m mapFiles) Read(ctx context.Context, name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func newTestDispatcher(cfg Config, gw mail.Gateway, recipients RecipientLister, files FileReader) (*Dispatcher, *test.Hook, *metrics.Metrics) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	m := metrics.NewNop()
	renderer := NewRenderer(RendererConfig{
		ClientURL:     "https://hr.example.com/",
		ServerURL:     "https://api.example.com",
		OfferTokenTTL: 7 * 24 * time.Hour,
	})
	return NewDispatcher(cfg, gw, renderer, recipients, files, logger, m), hook, m
}

func testCandidate() *models.Candidate {
	return &models.Candidate{
		FullName: "Asha Rao",
		Email:    "asha@example.com",
		Position: "Engineer",
		Practice: "Cloud",
	}
}

func TestDispatcher_DeliversOfferWithAttachment(t *testing.T) {
	gw := &recordingGateway{}
	d, _, m := newTestDispatcher(Config{Workers: 1}, gw, nil, mapFiles{"offer.pdf": []byte("%PDF-1.4")})

	d.Start(context.Background())
	require.True(t, d.Enqueue(OfferSent(testCandidate(), "abc123", "offer.pdf")))
	d.Stop()

	sent := gw.messages()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, []string{"asha@example.com"}, msg.To)
	assert.Equal(t, "Job Offer - Welcome to Our Team!", msg.Subject)
	assert.Contains(t, msg.HTML, "https://hr.example.com/accept-offer/abc123")
	assert.Contains(t, msg.HTML, "expire in 7 days")
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "offer.pdf", msg.Attachments[0].Filename)
	assert.Equal(t, "application/pdf", msg.Attachments[0].ContentType)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues(string(EventOfferSent), metrics.OutcomeSuccess)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.NotificationQueue))
}

func TestDispatcher_AnnouncementUsesBcc(t *testing.T) {
	gw := &recordingGateway{}
	recipients := &staticRecipients{emails: []string{"a@example.com", "new@example.com", "b@example.com"}}
	d, _, _ := newTestDispatcher(Config{Workers: 2}, gw, recipients, nil)

	employee := &models.Employee{
		EmployeeID:   "EMP00003",
		FullName:     "Nina Patel",
		Email:        "new@example.com",
		Position:     "Analyst",
		Practice:     "Data",
		ProfilePhoto: "photo.jpg",
	}

	d.Start(context.Background())
	d.Enqueue(NewHireAnnounced(employee, "I like <b>hiking</b>"))
	d.Stop()

	sent := gw.messages()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Empty(t, msg.To)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, msg.Bcc)
	assert.Equal(t, "new@example.com", recipients.exclude)
	assert.Equal(t, "Welcome Our New Team Member - Nina Patel", msg.Subject)
	assert.Contains(t, msg.HTML, "https://api.example.com/uploads/photo.jpg")
	assert.Contains(t, msg.HTML, "About Nina")
	assert.Contains(t, msg.HTML, "EMP00003")
	assert.Contains(t, msg.HTML, "I like &lt;b&gt;hiking&lt;/b&gt;")
}

func TestDispatcher_AnnouncementSkippedWithoutRecipients(t *testing.T) {
	gw := &recordingGateway{}
	recipients := &staticRecipients{emails: []string{"new@example.com"}}
	d, hook, _ := newTestDispatcher(Config{Workers: 1}, gw, recipients, nil)

	d.Start(context.Background())
	d.Enqueue(NewHireAnnounced(&models.Employee{FullName: "Solo", Email: "new@example.com"}, ""))
	d.Stop()

	assert.Empty(t, gw.messages())
	var skipped bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "No active employees to announce new hire to" {
			skipped = true
		}
	}
	assert.True(t, skipped)
}

func TestDispatcher_FailureIsLoggedAndDiscarded(t *testing.T) {
	gw := &recordingGateway{err: errors.New("connection refused")}
	d, hook, m := newTestDispatcher(Config{Workers: 1}, gw, nil, nil)

	d.Start(context.Background())
	d.Enqueue(CredentialsSent(testCandidate(), "Ash@WW2025", ""))
	d.Stop()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues(string(EventCredentialsSent), metrics.OutcomeError)))
	var logged *logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			logged = entry
		}
	}
	require.NotNil(t, logged)
	assert.Equal(t, "Failed to send notification", logged.Message)
	assert.Equal(t, "asha@example.com", logged.Data["to"])
	for _, v := range logged.Data {
		assert.NotEqual(t, "Ash@WW2025", v)
	}
}

func TestDispatcher_MissingAttachmentFails(t *testing.T) {
	gw := &recordingGateway{}
	d, _, m := newTestDispatcher(Config{Workers: 1}, gw, nil, mapFiles{})

	d.Start(context.Background())
	d.Enqueue(OfferSent(testCandidate(), "tok", "gone.pdf"))
	d.Stop()

	assert.Empty(t, gw.messages())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues(string(EventOfferSent), metrics.OutcomeError)))
}

func TestDispatcher_FullQueueDropsWithoutBlocking(t *testing.T) {
	gw := &recordingGateway{}
	d, hook, m := newTestDispatcher(Config{Workers: 1, QueueSize: 1}, gw, nil, nil)

	// not started, so nothing drains the queue
	assert.True(t, d.Enqueue(OfferSent(testCandidate(), "one", "")))
	assert.False(t, d.Enqueue(OfferSent(testCandidate(), "two", "")))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsSent.WithLabelValues(string(EventOfferSent), metrics.OutcomeDropped)))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "queue full", hook.LastEntry().Data["reason"])

	d.Start(context.Background())
	d.Stop()

	sent := gw.messages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].HTML, "/accept-offer/one")
}

func TestDispatcher_EnqueueAfterStop(t *testing.T) {
	gw := &recordingGateway{}
	d, _, _ := newTestDispatcher(Config{}, gw, nil, nil)

	d.Start(context.Background())
	d.Stop()
	d.Stop()

	assert.False(t, d.Enqueue(OfferSent(testCandidate(), "late", "")))
	assert.Empty(t, gw.messages())
}

func TestDispatcher_DrainsOnStop(t *testing.T) {
	gw := &recordingGateway{}
	d, _, _ := newTestDispatcher(Config{Workers: 3, QueueSize: 50}, gw, nil, nil)

	d.Start(context.Background())
	for i := 0; i < 20; i++ {
		require.True(t, d.Enqueue(OfferSent(testCandidate(), "t", "")))
	}
	d.Stop()

	assert.Len(t, gw.messages(), 20)
}

func TestRenderer_ReviewDecision(t *testing.T) {
	r := NewRenderer(RendererConfig{ClientURL: "http://localhost:3000"})

	jr := &models.JoiningRequest{
		FullName:      "Asha Rao",
		Email:         "asha@example.com",
		Status:        models.JoiningStatusApproved,
		ReviewRemarks: "Welcome!",
	}
	msg, err := r.Render(ReviewDecided(jr))
	require.NoError(t, err)
	assert.Equal(t, "Congratulations! Your Joining Request is Approved", msg.Subject)
	assert.Contains(t, msg.HTML, "APPROVED")
	assert.Contains(t, msg.HTML, "HR Comments:")

	jr.Status = models.JoiningStatusRejected
	jr.ReviewRemarks = ""
	msg, err = r.Render(ReviewDecided(jr))
	require.NoError(t, err)
	assert.Equal(t, "Update on Your Joining Request", msg.Subject)
	assert.Contains(t, msg.HTML, "Requires Revision")
	assert.NotContains(t, msg.HTML, "HR Comments:")
}

func TestRenderer_Credentials(t *testing.T) {
	r := NewRenderer(RendererConfig{ClientURL: "http://localhost:3000"})

	msg, err := r.Render(CredentialsSent(testCandidate(), "Ash@WW2025", ""))
	require.NoError(t, err)
	assert.Equal(t, "Joining Details & Login Credentials", msg.Subject)
	assert.Contains(t, msg.HTML, "asha@example.com")
	assert.Contains(t, msg.HTML, "Ash@WW2025")
	assert.Contains(t, msg.HTML, "http://localhost:3000/login")
}

func TestRenderer_UnknownEvent(t *testing.T) {
	r := NewRenderer(RendererConfig{})
	_, err := r.Render(Event{Type: "bogus"})
	assert.Error(t, err)
}

func TestHumanTTL(t *testing.T) {
	assert.Equal(t, "7 days", humanTTL(168*time.Hour))
	assert.Equal(t, "1 day", humanTTL(24*time.Hour))
	assert.Equal(t, "36 hours", humanTTL(36*time.Hour))
}
