// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package registration_test

import (
	"context"
	"sync"
	"testing"

	"codeberg.org/oliverandrich/space-signup/internal/captcha"
	"codeberg.org/oliverandrich/space-signup/internal/repository"
	"codeberg.org/oliverandrich/space-signup/internal/services/email"
	"codeberg.org/oliverandrich/space-signup/internal/services/registration"
	"codeberg.org/oliverandrich/space-signup/internal/signup"
	"codeberg.org/oliverandrich/space-signup/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeVerifier struct {
	err      error
	token    string
	remoteIP string
}

func (f *fakeVerifier) Verify(_ context.Context, token, remoteIP string) (*captcha.Result, error) {
	f.token, f.remoteIP = token, remoteIP
	if f.err != nil {
		return nil, f.err
	}
	return &captcha.Result{Success: true}, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []email.Welcome
	err  error
}

func (f *fakeMailer) SendWelcome(_ context.Context, w email.Welcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, w)
	return f.err
}

func newService(t *testing.T, v *fakeVerifier, m registration.Mailer) (*registration.Service, *repository.Repository) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	svc := registration.NewService(v, repo, m, nil)
	svc.SetHashCost(bcrypt.MinCost)
	return svc, repo
}

func validInput() registration.Input {
	return registration.Input{
		Token:          "tok",
		Name:           "Ada Lovelace",
		Email:          "ada@example.com",
		Password:       "hunter22",
		PasswordRepeat: "something else",
		Destination:    "Jupiter",
		RemoteIP:       "203.0.113.7",
	}
}

func TestRegister(t *testing.T) {
	v := &fakeVerifier{}
	m := &fakeMailer{}
	svc, repo := newService(t, v, m)

	acc, err := svc.Register(context.Background(), validInput())

	require.NoError(t, err)
	assert.NotEmpty(t, acc.ID)
	assert.Equal(t, "tok", v.token)
	assert.Equal(t, "203.0.113.7", v.remoteIP)

	stored, err := repo.GetAccountByID(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jupiter", stored.Destination)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter22")))

	require.Len(t, m.sent, 1)
	assert.Equal(t, email.Welcome{Name: "Ada Lovelace", Email: "ada@example.com", Destination: "Jupiter"}, m.sent[0])
}

func TestRegister_NoDestination(t *testing.T) {
	svc, _ := newService(t, &fakeVerifier{}, nil)
	in := validInput()
	in.Destination = ""

	acc, err := svc.Register(context.Background(), in)

	require.NoError(t, err)
	assert.Empty(t, acc.Destination)
}

func TestRegister_CaptchaRejected(t *testing.T) {
	rejected := &captcha.RejectedError{Codes: []string{"invalid-input-response"}}
	svc, repo := newService(t, &fakeVerifier{err: rejected}, nil)

	_, err := svc.Register(context.Background(), validInput())

	var target *captcha.RejectedError
	require.ErrorAs(t, err, &target)
	count, err := repo.CountAccounts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRegister_RequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*registration.Input)
		field  string
	}{
		{"name", func(in *registration.Input) { in.Name = "  " }, "name"},
		{"email", func(in *registration.Input) { in.Email = "" }, "email"},
		{"password", func(in *registration.Input) { in.Password = "" }, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t, &fakeVerifier{}, nil)
			in := validInput()
			tt.mutate(&in)

			_, err := svc.Register(context.Background(), in)

			var fieldErr *registration.FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.field, fieldErr.Field)
			assert.Equal(t, tt.field+" is required", err.Error())
		})
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	svc, _ := newService(t, &fakeVerifier{}, nil)
	in := validInput()
	in.Email = "not-an-email"

	_, err := svc.Register(context.Background(), in)

	assert.ErrorIs(t, err, registration.ErrInvalidEmail)
}

func TestRegister_InvalidDestination(t *testing.T) {
	svc, _ := newService(t, &fakeVerifier{}, nil)
	in := validInput()
	in.Destination = "Pluto"

	_, err := svc.Register(context.Background(), in)

	assert.ErrorIs(t, err, signup.ErrInvalidDestination)
}

func TestRegister_EmailTaken(t *testing.T) {
	svc, repo := newService(t, &fakeVerifier{}, nil)
	testutil.NewTestAccount(t, repo, "Ada", "ADA@example.com")

	_, err := svc.Register(context.Background(), validInput())

	assert.ErrorIs(t, err, registration.ErrEmailTaken)
}

func TestRegister_MailFailureDoesNotFail(t *testing.T) {
	m := &fakeMailer{err: assert.AnError}
	svc, repo := newService(t, &fakeVerifier{}, m)

	acc, err := svc.Register(context.Background(), validInput())

	require.NoError(t, err)
	_, err = repo.GetAccountByID(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Len(t, m.sent, 1)
}

func TestRegister_CaptchaUnavailable(t *testing.T) {
	svc, _ := newService(t, &fakeVerifier{err: assert.AnError}, nil)

	_, err := svc.Register(context.Background(), validInput())

	require.ErrorIs(t, err, registration.ErrCaptchaUnavailable)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRegister_MissingToken(t *testing.T) {
	svc, _ := newService(t, &fakeVerifier{err: captcha.ErrMissingToken}, nil)

	_, err := svc.Register(context.Background(), validInput())

	require.ErrorIs(t, err, captcha.ErrMissingToken)
	assert.NotErrorIs(t, err, registration.ErrCaptchaUnavailable)
}
