package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig describes the outgoing mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// ImplicitTLS dials TLS directly (port 465). Otherwise STARTTLS is used
	// when the server offers it.
	ImplicitTLS bool
	Timeout     time.Duration
}

// SMTPSender delivers messages over SMTP with PLAIN authentication.
type SMTPSender struct {
	cfg  SMTPConfig
	now  func() time.Time
	send func(ctx context.Context, cfg SMTPConfig, m *gomail.Msg) error
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SMTPSender{cfg: cfg, now: time.Now, send: sendSMTP}
}

func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	if s.cfg.Host == "" {
		return errors.New("smtp host is not configured")
	}
	m, err := msg.toMsg(s.now())
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := s.send(ctx, s.cfg, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func smtpOptions(cfg SMTPConfig) []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(cfg.Timeout),
	}
	if cfg.ImplicitTLS {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}
	return opts
}

func sendSMTP(ctx context.Context, cfg SMTPConfig, m *gomail.Msg) error {
	c, err := gomail.NewClient(cfg.Host, smtpOptions(cfg)...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	return c.DialAndSendWithContext(ctx, m)
}
