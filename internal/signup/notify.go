// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package signup

import "time"

// Kind is the severity of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is a toast shown to the person filling in the form.
type Notification struct {
	Kind        Kind
	Title       string
	Description string
	Duration    time.Duration
}

// Notifier delivers notifications to the page.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

const (
	shortToast = 2500 * time.Millisecond
	longToast  = 4000 * time.Millisecond
)

func verificationMissing() Notification {
	return Notification{
		Kind:        KindError,
		Title:       "Error",
		Description: "You must verify the captcha.",
		Duration:    longToast,
	}
}

func accountCreated() Notification {
	return Notification{
		Kind:        KindSuccess,
		Title:       "Account created",
		Description: "We've created your account for you.",
		Duration:    shortToast,
	}
}

func requestFailed(err error) Notification {
	return Notification{
		Kind:        KindError,
		Title:       "Error",
		Description: Describe(err),
		Duration:    shortToast,
	}
}
