package mailer

import (
	"context"

	"go.uber.org/zap"

	"civic-connect/backend/internal/logger"
)

// LogNotifier writes messages to the logger instead of sending them. Used when no SMTP host is
// configured outside production; the logged text includes the OTP.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier returns a notifier that logs each message at info level.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: logger.OrNop(log)}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	n.log.Info("email not sent (no SMTP host configured)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Text),
	)
	return nil
}
