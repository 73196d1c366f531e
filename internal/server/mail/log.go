package mail

import (
	"context"

	"github.com/dmitrijs2005/foundationauth/internal/logging"
)

// LogSender writes the verification link to the log instead of sending
// anything. Meant for local development only.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg *Message) error {
	s.log.Info(ctx, "verification email (not sent)",
		"to", msg.To.Email,
		"subject", msg.Subject,
		"link", msg.Link,
	)
	return nil
}
