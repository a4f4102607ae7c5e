package mailer

import (
	"context"
	"time"

	"github.com/prepdeckhq/prepdeck-backend/pkg/config"
	pkgerrors "github.com/prepdeckhq/prepdeck-backend/pkg/errors"
	"github.com/prepdeckhq/prepdeck-backend/pkg/logger"
	"github.com/sethvargo/go-retry"
	gomail "gopkg.in/gomail.v2"
)

// Mailer delivers one HTML email to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPMailer sends through a plain SMTP relay with bounded retries on
// transient failures.
type SMTPMailer struct {
	dialer      *gomail.Dialer
	from        string
	fromName    string
	maxAttempts int
	retryDelay  time.Duration
	logg        *logger.Logger
}

// NewSMTPMailer builds a mailer from SMTP settings.
func NewSMTPMailer(cfg config.SMTPConfig, logg *logger.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "smtp host required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &SMTPMailer{
		dialer:      gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:        cfg.FromEmail,
		fromName:    cfg.FromName,
		maxAttempts: maxAttempts,
		retryDelay:  delay,
		logg:        logg,
	}, nil
}

// Send delivers the message, retrying transient transport errors with
// exponential backoff. The final error is returned after attempts are
// exhausted.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if to == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient address required")
	}

	message := gomail.NewMessage()
	message.SetAddressHeader("From", m.from, m.fromName)
	message.SetHeader("To", to)
	message.SetHeader("Subject", subject)
	message.SetBody("text/html", htmlBody)

	backoff := retry.WithMaxRetries(uint64(m.maxAttempts-1), retry.NewExponential(m.retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if sendErr := m.dialer.DialAndSend(message); sendErr != nil {
			m.logg.Warn(m.logg.WithField(ctx, "smtp_to", to), "smtp send attempt failed")
			return retry.RetryableError(sendErr)
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send email")
	}
	return nil
}
