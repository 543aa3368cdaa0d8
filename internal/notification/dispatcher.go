package notification

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wwtech/onboarding-backend/internal/metrics"
	"github.com/wwtech/onboarding-backend/pkg/mail"
)

// RecipientLister resolves the active employees a new hire is announced to
type RecipientLister interface {
	ListActiveEmails(ctx context.Context, exclude string) ([]string, error)
}

// FileReader loads stored uploads for attachment
type FileReader interface {
	Read(ctx context.Context, name string) ([]byte, error)
}

// Notifier accepts events without blocking the caller
type Notifier interface {
	Enqueue(e Event) bool
}

// Config sizes the worker pool
type Config struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// Dispatcher delivers events from a bounded queue with a fixed pool of
// workers. Each event is attempted once; failures are logged and dropped.
type Dispatcher struct {
	gateway    mail.Gateway
	renderer   *Renderer
	recipients RecipientLister
	files      FileReader
	logger     *logrus.Logger
	metrics    *metrics.Metrics

	workers     int
	sendTimeout time.Duration
	queue       chan Event

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher. files may be nil when attachments are not used.
func NewDispatcher(cfg Config, gateway mail.Gateway, renderer *Renderer, recipients RecipientLister, files FileReader, logger *logrus.Logger, m *metrics.Metrics) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = time.Minute
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Dispatcher{
		gateway:     gateway,
		renderer:    renderer,
		recipients:  recipients,
		files:       files,
		logger:      logger,
		metrics:     m,
		workers:     cfg.Workers,
		sendTimeout: cfg.SendTimeout,
		queue:       make(chan Event, cfg.QueueSize),
	}
}

// Start launches the worker goroutines
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
	d.logger.WithFields(logrus.Fields{
		"workers": d.workers,
		"gateway": d.gateway.GetName(),
	}).Info("Notification dispatcher started")
}

// Enqueue schedules e for delivery. It never blocks: when the queue is full or
// the dispatcher is stopped the event is dropped and false is returned.
func (d *Dispatcher) Enqueue(e Event) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(e, "dispatcher stopped")
		return false
	}
	select {
	case d.queue <- e:
		d.metrics.NotificationQueue.Inc()
		return true
	default:
		d.drop(e, "queue full")
		return false
	}
}

// Stop closes the queue and waits for workers to drain what is left
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("Notification dispatcher stopped")
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	for e := range d.queue {
		d.metrics.NotificationQueue.Dec()
		d.deliver(ctx, e)
	}
	d.logger.WithField("worker", id).Debug("Notification worker exiting")
}

func (d *Dispatcher) deliver(parent context.Context, e Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.sendTimeout)
	defer cancel()

	log := d.logger.WithFields(logrus.Fields{
		"event": e.Type,
		"to":    e.To,
	})

	msg, err := d.renderer.Render(e)
	if err != nil {
		d.fail(log, e, err)
		return
	}

	if e.Type == EventNewHireAnnounced {
		if d.recipients == nil {
			d.fail(log, e, fmt.Errorf("no recipient source configured"))
			return
		}
		emails, err := d.recipients.ListActiveEmails(ctx, e.Email)
		if err != nil {
			d.fail(log, e, err)
			return
		}
		if len(emails) == 0 {
			log.Info("No active employees to announce new hire to")
			d.metrics.ObserveNotification(string(e.Type), metrics.OutcomeRejected)
			return
		}
		msg.Bcc = emails
		log = log.WithField("bcc_count", len(emails))
	}

	if e.Attachment != "" {
		attachment, err := d.attachment(ctx, e.Attachment)
		if err != nil {
			d.fail(log, e, err)
			return
		}
		msg.Attachments = append(msg.Attachments, attachment)
	}

	if err := d.gateway.Send(ctx, msg); err != nil {
		d.fail(log, e, err)
		return
	}

	d.metrics.ObserveNotification(string(e.Type), metrics.OutcomeSuccess)
	log.Info("Notification sent")
}

func (d *Dispatcher) attachment(ctx context.Context, name string) (mail.Attachment, error) {
	if d.files == nil {
		return mail.Attachment{}, fmt.Errorf("no file store configured for attachment %s", name)
	}
	data, err := d.files.Read(ctx, name)
	if err != nil {
		return mail.Attachment{}, fmt.Errorf("failed to load attachment %s: %w", name, err)
	}
	return mail.Attachment{
		Filename:    name,
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
		Data:        data,
	}, nil
}

func (d *Dispatcher) fail(log *logrus.Entry, e Event, err error) {
	d.metrics.ObserveNotification(string(e.Type), metrics.OutcomeError)
	log.WithError(err).Error("Failed to send notification")
}

func (d *Dispatcher) drop(e Event, reason string) {
	d.metrics.ObserveNotification(string(e.Type), metrics.OutcomeDropped)
	d.logger.WithFields(logrus.Fields{
		"event":  e.Type,
		"to":     e.To,
		"reason": reason,
	}).Error("Notification dropped")
}
