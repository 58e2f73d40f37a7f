// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package registration implements the account creation behind POST /api/signup.
package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"codeberg.org/oliverandrich/space-signup/internal/captcha"
	"codeberg.org/oliverandrich/space-signup/internal/models"
	"codeberg.org/oliverandrich/space-signup/internal/repository"
	"codeberg.org/oliverandrich/space-signup/internal/services/email"
	"codeberg.org/oliverandrich/space-signup/internal/signup"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrCaptchaUnavailable wraps failures to reach the siteverify endpoint.
	ErrCaptchaUnavailable = errors.New("captcha verification unavailable")
)

// FieldError reports a required field that was left empty.
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return e.Field + " is required"
}

// CaptchaVerifier checks a widget response token.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (*captcha.Result, error)
}

// Mailer delivers the welcome mail.
type Mailer interface {
	SendWelcome(ctx context.Context, w email.Welcome) error
}

// Input is one signup attempt as received from the page.
type Input struct {
	Token          string
	Name           string
	Email          string
	Password       string
	PasswordRepeat string
	Destination    string
	RemoteIP       string
}

// Service creates accounts.
type Service struct {
	verifier CaptchaVerifier
	repo     *repository.Repository
	mailer   Mailer
	logger   *slog.Logger
	cost     int
}

// NewService creates a registration service. mailer may be nil.
func NewService(verifier CaptchaVerifier, repo *repository.Repository, mailer Mailer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		verifier: verifier,
		repo:     repo,
		mailer:   mailer,
		logger:   logger,
		cost:     bcrypt.DefaultCost,
	}
}

// SetHashCost overrides the bcrypt cost.
func (s *Service) SetHashCost(cost int) {
	s.cost = cost
}

// Register verifies the captcha token and stores a new account.
// Password and repeat are not compared.
func (s *Service) Register(ctx context.Context, in Input) (*models.Account, error) {
	if _, err := s.verifier.Verify(ctx, in.Token, in.RemoteIP); err != nil {
		var rejected *captcha.RejectedError
		if errors.Is(err, captcha.ErrMissingToken) || errors.As(err, &rejected) {
			s.logger.Info("register_captcha_rejected", "error", err)
			return nil, err
		}
		s.logger.Error("register_captcha_unavailable", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrCaptchaUnavailable, err)
	}

	name := strings.TrimSpace(in.Name)
	addr := strings.TrimSpace(in.Email)
	switch {
	case name == "":
		return nil, &FieldError{Field: "name"}
	case addr == "":
		return nil, &FieldError{Field: "email"}
	case in.Password == "":
		return nil, &FieldError{Field: "password"}
	}

	if _, err := mail.ParseAddress(addr); err != nil {
		return nil, ErrInvalidEmail
	}

	dest, err := signup.ParseDestination(in.Destination)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.EmailExists(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("checking existing account: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	acc := &models.Account{
		Name:         name,
		Email:        addr,
		PasswordHash: string(hash),
		Destination:  string(dest),
	}
	if err := s.repo.CreateAccount(ctx, acc); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating account: %w", err)
	}

	s.logger.Info("register_success", "account_id", acc.ID, "destination", acc.Destination)

	if s.mailer != nil {
		err := s.mailer.SendWelcome(ctx, email.Welcome{Name: acc.Name, Email: acc.Email, Destination: acc.Destination})
		if err != nil {
			s.logger.Warn("welcome_mail_failed", "account_id", acc.ID, "error", err)
		}
	}

	return acc, nil
}
