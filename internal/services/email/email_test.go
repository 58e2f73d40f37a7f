// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email_test

import (
	"bytes"
	"context"
	"testing"

	"codeberg.org/oliverandrich/space-signup/internal/config"
	"codeberg.org/oliverandrich/space-signup/internal/services/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func validSMTPConfig() *config.SMTPConfig {
	return &config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "testuser",
		Password: "testpass",
		From:     "noreply@example.com",
		FromName: "Space Signup",
		TLS:      true,
	}
}

type captureSender struct {
	msgs []*mail.Msg
	err  error
}

func (c *captureSender) DialAndSendWithContext(_ context.Context, msgs ...*mail.Msg) error {
	c.msgs = append(c.msgs, msgs...)
	return c.err
}

func render(t *testing.T, msg *mail.Msg) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestNewService(t *testing.T) {
	svc, err := email.NewService(validSMTPConfig(), "https://example.com")

	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestNewService_ImplicitTLS(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.Port = 465

	_, err := email.NewService(cfg, "https://example.com")

	require.NoError(t, err)
}

func TestNewService_MissingHost(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.Host = ""

	_, err := email.NewService(cfg, "https://example.com")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP host is required")
}

func TestNewService_MissingFrom(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.From = ""

	_, err := email.NewServiceWithSender(cfg, "https://example.com", &captureSender{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP from address is required")
}

func TestBuildWelcome(t *testing.T) {
	svc, err := email.NewServiceWithSender(validSMTPConfig(), "https://example.com/", &captureSender{})
	require.NoError(t, err)

	msg, err := svc.BuildWelcome(email.Welcome{Name: "Ada Lovelace", Email: "ada@example.com", Destination: "Mars"})

	require.NoError(t, err)
	assert.Equal(t, []string{`"Ada Lovelace" <ada@example.com>`}, msg.GetToString())
	assert.Equal(t, []string{email.WelcomeSubject}, msg.GetGenHeader(mail.HeaderSubject))

	raw := render(t, msg)
	assert.Contains(t, raw, "Hello Ada Lovelace")
	assert.Contains(t, raw, "flight to Mars")
	assert.Contains(t, raw, "See you at https://example.com")
	assert.Contains(t, raw, "Space Signup")
}

func TestBuildWelcome_NoDestination(t *testing.T) {
	svc, err := email.NewServiceWithSender(validSMTPConfig(), "", &captureSender{})
	require.NoError(t, err)

	msg, err := svc.BuildWelcome(email.Welcome{Name: "Ada", Email: "ada@example.com"})

	require.NoError(t, err)
	raw := render(t, msg)
	assert.Contains(t, raw, "Pick a destination")
	assert.NotContains(t, raw, "See you at")
}

func TestBuildWelcome_InvalidRecipient(t *testing.T) {
	svc, err := email.NewServiceWithSender(validSMTPConfig(), "", &captureSender{})
	require.NoError(t, err)

	_, err = svc.BuildWelcome(email.Welcome{Name: "Ada", Email: "not an address"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "setting to address")
}

func TestSendWelcome(t *testing.T) {
	sender := &captureSender{}
	svc, err := email.NewServiceWithSender(validSMTPConfig(), "", sender)
	require.NoError(t, err)

	err = svc.SendWelcome(context.Background(), email.Welcome{Name: "Ada", Email: "ada@example.com"})

	require.NoError(t, err)
	require.Len(t, sender.msgs, 1)
	assert.Equal(t, []string{`"Ada" <ada@example.com>`}, sender.msgs[0].GetToString())
}

func TestSendWelcome_DeliveryFailure(t *testing.T) {
	sender := &captureSender{err: assert.AnError}
	svc, err := email.NewServiceWithSender(validSMTPConfig(), "", sender)
	require.NoError(t, err)

	err = svc.SendWelcome(context.Background(), email.Welcome{Name: "Ada", Email: "ada@example.com"})

	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "sending email")
}
