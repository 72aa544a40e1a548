package email

import (
	"fmt"

	"github.com/Abdurahmanit/GroupProject/announce-service/internal/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer sends digest mail through SMTP via gomail. There is no retry: a
// failed send is the caller's to log and move past.
type Mailer struct {
	dialer    *gomail.Dialer
	fromEmail string
	fromName  string
	logger    *zap.Logger
}

func NewMailer(cfg *config.SMTPConfig, logger *zap.Logger) (*Mailer, error) {
	if cfg.Host == "" || cfg.FromEmail == "" {
		return nil, fmt.Errorf("SMTP configuration is incomplete: host and from_email are required")
	}
	return &Mailer{
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}, nil
}

func (m *Mailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.fromEmail, m.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error("Failed to send email", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	m.logger.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}
