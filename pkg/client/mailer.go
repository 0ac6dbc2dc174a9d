package client

import (
	"github.com/wneessen/go-mail"

	apperrors "turnolibre/pkg/errors"
	"turnolibre/pkg/logger"
)

type MailerConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Mailer sends transactional mail over SMTP. When no host is configured it
// degrades to logging the message, which keeps local development working
// without a mail relay.
type Mailer struct {
	cfg MailerConfig
	log *logger.Logger
}

func NewMailer(cfg MailerConfig, log *logger.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

func (m *Mailer) Send(to, subject, htmlBody string) error {
	if m.cfg.Host == "" {
		m.log.Info("SMTP not configured, skipping email",
			"to", to,
			"subject", subject,
		)
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "Invalid sender address", 400)
	}
	if err := msg.To(to); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "Invalid recipient address", 400)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	c, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.User),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "Failed to create SMTP client", 503)
	}

	if err := c.DialAndSend(msg); err != nil {
		return apperrors.Wrap(err, apperrors.CodeUnavailable, "Failed to send email", 503)
	}

	return nil
}
