// Package mailer delivers multipart text/HTML email over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"neet_tracker_backend/internal/config"
	"sync"

	"github.com/wneessen/go-mail"
)

// ErrDisabled is returned by Send when SMTP delivery is switched off.
var ErrDisabled = errors.New("smtp delivery disabled")

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Sender is what the notification service needs from a mail transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer holds the current SMTP settings; Reconfigure swaps them at runtime.
type SMTPMailer struct {
	mu  sync.RWMutex
	cfg config.SMTPConfig
}

func New(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Reconfigure(cfg config.SMTPConfig) {
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
}

func (m *SMTPMailer) settings() config.SMTPConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func buildMessage(cfg config.SMTPConfig, msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(cfg.FromName, cfg.Username); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	cfg := m.settings()
	if !cfg.Enabled {
		return ErrDisabled
	}

	message, err := buildMessage(cfg, msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, message)
}
