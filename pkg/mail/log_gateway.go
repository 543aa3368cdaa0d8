package mail

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// LogGateway logs messages instead of sending them (development mode)
type LogGateway struct {
	logger *logrus.Logger
}

// NewLogGateway creates a development mail gateway
func NewLogGateway(logger *logrus.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

// Send logs the envelope and subject
func (g *LogGateway) Send(ctx context.Context, msg *Message) error {
	if len(msg.Recipients()) == 0 {
		return errors.New("message has no recipients")
	}
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	g.logger.WithFields(logrus.Fields{
		"to":          msg.To,
		"bcc_count":   len(msg.Bcc),
		"subject":     msg.Subject,
		"attachments": names,
	}).Info("DEV MODE: email not sent")
	return nil
}

// GetName returns the name of this mail gateway
func (g *LogGateway) GetName() string {
	return "log"
}
