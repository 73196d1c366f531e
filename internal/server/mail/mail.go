// Package mail delivers account verification emails through a pluggable
// backend: SMTP, SendGrid, an S3 mail-drop bucket or the log.
package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/foundationauth/internal/common"
	"github.com/dmitrijs2005/foundationauth/internal/logging"
	"github.com/dmitrijs2005/foundationauth/internal/server/config"
	"github.com/dmitrijs2005/foundationauth/internal/server/models"
)

// Dispatcher sends the verification email for a user. Any delivery problem
// is reported as an error wrapping common.ErrTransportFailure.
type Dispatcher interface {
	SendVerification(ctx context.Context, user *models.User, link string) error
}

// Address is a display name plus email address.
type Address struct {
	Name  string
	Email string
}

// Message is a rendered email ready for a Sender.
type Message struct {
	From    Address
	To      Address
	Subject string
	Text    string
	HTML    string
	// Link is the verification link embedded in the bodies.
	Link string
}

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Mailer renders verification emails and hands them to a Sender.
type Mailer struct {
	from     Address
	renderer *Renderer
	sender   Sender
}

func NewMailer(from Address, renderer *Renderer, sender Sender) *Mailer {
	return &Mailer{from: from, renderer: renderer, sender: sender}
}

func (m *Mailer) SendVerification(ctx context.Context, user *models.User, link string) error {
	msg, err := m.renderer.Verification(m.from, user, link)
	if err != nil {
		return fmt.Errorf("%w: render: %v", common.ErrTransportFailure, err)
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", common.ErrTransportFailure, err)
	}
	return nil
}

// New builds the Dispatcher selected by cfg.MailProvider.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*Mailer, error) {
	from := Address{Name: cfg.MailSenderName, Email: cfg.MailSenderAddress}
	renderer, err := NewRenderer(cfg.VerificationTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	var sender Sender
	switch cfg.MailProvider {
	case config.MailProviderSMTP:
		sender = NewSMTPSender(SMTPConfig{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUsername,
			Password:    cfg.SMTPPassword,
			ImplicitTLS: cfg.SMTPImplicitTLS,
			Timeout:     cfg.MailSendTimeout,
		})
	case config.MailProviderSendGrid:
		sender = NewSendGridSender(cfg.SendGridAPIKey)
	case config.MailProviderS3:
		sender, err = NewS3Sender(ctx, S3Config{
			AccessKey:    cfg.S3RootUser,
			SecretKey:    cfg.S3RootPassword,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			Bucket:       cfg.S3Bucket,
		}, time.Now)
		if err != nil {
			return nil, err
		}
	case config.MailProviderLog, "":
		sender = NewLogSender(log)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.MailProvider)
	}

	return NewMailer(from, renderer, sender), nil
}
