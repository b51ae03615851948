package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	appidentity "github.com/Jay1425/ExpensoX/internal/application/identity"
	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"go.uber.org/zap"
)

// Config holds SMTP connection settings. When Enabled is false the
// mailer logs the OTP instead of sending it, which is what local
// development and the test environment run with.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Enabled  bool
}

// SMTPMailer delivers one-time passcodes over plain SMTP.
type SMTPMailer struct {
	cfg    Config
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	logger *zap.Logger
}

func NewSMTPMailer(cfg Config, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		send:   smtp.SendMail,
		logger: logger,
	}
}

// SendOTP emails a verification code. Subject and body depend on the
// purpose so a password-reset mail never reads like a signup mail.
func (m *SMTPMailer) SendOTP(ctx context.Context, email, code string, purpose identity.OTPPurpose) error {
	if !m.cfg.Enabled {
		m.logger.Info("Mail delivery disabled, logging OTP instead",
			zap.String("email", email),
			zap.String("purpose", string(purpose)),
			zap.String("code", code),
		)
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	subject, body := otpMessage(code, purpose)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, auth, m.cfg.From, []string{email}, []byte(msg.String())); err != nil {
		m.logger.Error("Failed to send OTP mail",
			zap.String("email", email),
			zap.String("purpose", string(purpose)),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send OTP mail: %w", err)
	}

	m.logger.Debug("OTP mail sent",
		zap.String("email", email),
		zap.String("purpose", string(purpose)),
	)
	return nil
}

func otpMessage(code string, purpose identity.OTPPurpose) (subject, body string) {
	switch purpose {
	case identity.OTPPurposePasswordReset:
		subject = "Reset your ExpensoX password"
		body = fmt.Sprintf("Your password reset code is %s.\r\n\r\nIt expires in 10 minutes. If you did not request a reset, ignore this mail.\r\n", code)
	default:
		subject = "Verify your ExpensoX account"
		body = fmt.Sprintf("Your verification code is %s.\r\n\r\nIt expires in 10 minutes.\r\n", code)
	}
	return subject, body
}

var _ appidentity.Mailer = (*SMTPMailer)(nil)
