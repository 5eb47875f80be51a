// Package mail dispatches the one-time verification codes over SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/danielambrosim/sistema-bot-leil-o/core/logger"
)

// Config carries the SMTP settings for code dispatch.
type Config struct {
	Host     string `yaml:"host" envconfig:"SMTP_HOST"`
	Port     int    `yaml:"port" envconfig:"SMTP_PORT"`
	Username string `yaml:"username" envconfig:"SMTP_USERNAME"`
	Password string `yaml:"password" envconfig:"SMTP_PASSWORD"`
	From     string `yaml:"from" envconfig:"SMTP_FROM"`
}

// Sender delivers a verification code to an email address. The registration
// flow depends on this interface so tests can substitute a fake.
type Sender interface {
	SendCode(ctx context.Context, email, code string) error
}

// Mailer sends verification codes through an SMTP relay.
type Mailer struct {
	client *gomail.Client
	from   string
}

// New builds a Mailer from config. Port defaults to 587 with STARTTLS.
func New(cfg Config) (*Mailer, error) {
	port := cfg.Port
	if port == 0 {
		port = 587
	}

	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("mail: criar cliente smtp: %w", err)
	}

	return &Mailer{client: client, from: cfg.From}, nil
}

// SendCode emails the verification code. Failures are returned so the
// registration flow can hold its stage instead of advancing without a
// deliverable code.
func (m *Mailer) SendCode(ctx context.Context, email, code string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("mail: remetente invalido: %w", err)
	}
	if err := msg.To(email); err != nil {
		return fmt.Errorf("mail: destinatario invalido: %w", err)
	}
	msg.Subject("Código de verificação")
	msg.SetBodyString(gomail.TypeTextPlain,
		fmt.Sprintf("Seu código de verificação é: %s\n\nSe você não solicitou este código, ignore esta mensagem.", code))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		logger.Error(ctx, "mail", "mail.send.fail",
			slog.String("email", email),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("mail: enviar codigo: %w", err)
	}

	logger.Info(ctx, "mail", "mail.send",
		slog.String("email", email),
	)
	return nil
}
