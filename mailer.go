package auth

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/goliatone/go-errors"
)

const welcomeBody = `Welcome aboard, %s!

Head over to %s to set up your profile and start exploring tours.`

const passwordResetBody = `Forgot your password? Submit a PATCH request with your new password and passwordConfirm to: %s.
If you didn't forget your password, please ignore this email!`

// LogMailer writes notifications to the logger instead of sending them.
// Useful in development and as the default collaborator in tests.
type LogMailer struct {
	Logger Logger
}

func NewLogMailer(logger Logger) *LogMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogMailer{Logger: logger}
}

func (m *LogMailer) SendWelcome(ctx context.Context, user *User, contextURL string) error {
	m.Logger.Info("welcome email to=%s url=%s", user.Email, contextURL)
	return nil
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, user *User, resetURL string) error {
	m.Logger.Info("password reset email to=%s url=%s", user.Email, resetURL)
	return nil
}

// SMTPMailer delivers plain-text notifications over SMTP.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPMailer(cfg *EnvConfig) *SMTPMailer {
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.EmailFrom,
	}
}

func (m *SMTPMailer) SendWelcome(ctx context.Context, user *User, contextURL string) error {
	body := fmt.Sprintf(welcomeBody, user.Name, contextURL)
	return m.send(user.Email, "Welcome to the tours platform!", body)
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, user *User, resetURL string) error {
	body := fmt.Sprintf(passwordResetBody, resetURL)
	return m.send(user.Email, "Your password reset token (valid for 10 minutes).", body)
}

func (m *SMTPMailer) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, body)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to deliver email").
			WithMetadata(map[string]any{
				"to": to,
			})
	}

	return nil
}

var (
	_ Mailer = (*LogMailer)(nil)
	_ Mailer = (*SMTPMailer)(nil)
)
