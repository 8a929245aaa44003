package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/cyberlearn_backend/internal/platform/config"
	"github.com/wneessen/go-mail"
)

const senderName = "CyberLearn"

// sender is the part of *mail.Client the mailer needs.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPMailer delivers transactional mail through an authenticated SMTP relay.
type SMTPMailer struct {
	client sender
	from   string
	logger *slog.Logger
}

// NewSMTPMailer builds a mailer for the EMAIL_* settings. STARTTLS is
// required on every port except 465, which uses implicit TLS.
func NewSMTPMailer(cfg *config.Config, logger *slog.Logger) (*SMTPMailer, error) {
	if cfg.EmailUser == "" || cfg.EmailPass == "" {
		return nil, errors.New("smtp credentials are not configured")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.EmailPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.EmailUser),
		mail.WithPassword(cfg.EmailPass),
		mail.WithTimeout(15 * time.Second),
	}
	if cfg.EmailPort == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	client, err := mail.NewClient(cfg.EmailHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: cfg.EmailUser, logger: logger}, nil
}

// SendOTP mails the registration verification code.
func (m *SMTPMailer) SendOTP(ctx context.Context, to, fullName, code string, validFor time.Duration) error {
	html, err := render(otpTemplate, otpData{Name: displayName(fullName), Code: code, ValidFor: humanDuration(validFor)})
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Your CyberLearn verification code is %s. It expires in %s.", code, humanDuration(validFor))
	return m.send(ctx, to, "Your CyberLearn verification code", text, html)
}

// SendPasswordReset mails the password reset link.
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, fullName, resetLink string, validFor time.Duration) error {
	html, err := render(resetTemplate, resetData{Name: displayName(fullName), Link: resetLink, ValidFor: humanDuration(validFor)})
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Reset your CyberLearn password: %s\nThe link expires in %s.", resetLink, humanDuration(validFor))
	return m.send(ctx, to, "Reset your CyberLearn password", text, html)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, text, html string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(senderName, m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	msg.AddAlternativeString(mail.TypeTextHTML, html)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to deliver mail: %w", err)
	}
	m.logger.InfoContext(ctx, "Mail delivered", slog.String("subject", subject))
	return nil
}
