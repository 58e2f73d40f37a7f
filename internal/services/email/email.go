// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email sends transactional mail over SMTP.
package email

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/oliverandrich/space-signup/internal/config"
	"github.com/wneessen/go-mail"
)

// WelcomeSubject is the subject line of the welcome mail.
const WelcomeSubject = "Welcome aboard"

// Sender delivers prepared messages. *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Service builds and sends mails.
type Service struct {
	cfg     *config.SMTPConfig
	baseURL string
	sender  Sender
}

// NewService creates a service that talks to the configured SMTP server.
func NewService(cfg *config.SMTPConfig, baseURL string) (*Service, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	client, err := mail.NewClient(cfg.Host, clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("creating mail client: %w", err)
	}
	return NewServiceWithSender(cfg, baseURL, client)
}

// NewServiceWithSender creates a service delivering through sender.
func NewServiceWithSender(cfg *config.SMTPConfig, baseURL string, sender Sender) (*Service, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return &Service{
		cfg:     cfg,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		sender:  sender,
	}, nil
}

func validate(cfg *config.SMTPConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return fmt.Errorf("SMTP from address is required")
	}
	return nil
}

func clientOptions(cfg *config.SMTPConfig) []mail.Option {
	opts := []mail.Option{mail.WithPort(cfg.Port)}

	switch {
	case cfg.TLS && cfg.Port == 465:
		opts = append(opts, mail.WithSSL())
	case cfg.TLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	return opts
}

// Welcome describes the recipient of a welcome mail.
type Welcome struct {
	Name        string
	Email       string
	Destination string
}

// BuildWelcome prepares the welcome message without sending it.
func (s *Service) BuildWelcome(w Welcome) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("setting from address: %w", err)
	}

	if err := msg.AddToFormat(w.Name, w.Email); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(WelcomeSubject)
	msg.SetDate()
	msg.SetMessageID()
	msg.SetBodyString(mail.TypeTextPlain, welcomeBody(w, s.baseURL))
	return msg, nil
}

func welcomeBody(w Welcome, baseURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", w.Name)
	if w.Destination != "" {
		fmt.Fprintf(&b, "your seat on the next flight to %s is reserved.\n", w.Destination)
	} else {
		b.WriteString("your account has been created. Pick a destination whenever you are ready.\n")
	}
	if baseURL != "" {
		fmt.Fprintf(&b, "\nSee you at %s\n", baseURL)
	}
	return b.String()
}

// SendWelcome builds and delivers the welcome mail.
func (s *Service) SendWelcome(ctx context.Context, w Welcome) error {
	msg, err := s.BuildWelcome(w)
	if err != nil {
		return err
	}
	if err := s.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}
