// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package signup holds the state and the submit cycle of one open signup form.
package signup

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField is returned when a field name does not exist on the draft.
	ErrUnknownField = errors.New("unknown field")
	// ErrInvalidDestination is returned for a destination outside the offered planets.
	ErrInvalidDestination = errors.New("invalid destination")
)

// Destination is the planet selected in the form.
type Destination string

const (
	Mars    Destination = "Mars"
	Jupiter Destination = "Jupiter"
	Uranus  Destination = "Uranus"
)

// Destinations returns the selectable planets in display order.
func Destinations() []Destination {
	return []Destination{Mars, Jupiter, Uranus}
}

// ParseDestination accepts one of the planets or the empty value for no selection.
func ParseDestination(s string) (Destination, error) {
	switch d := Destination(s); d {
	case "", Mars, Jupiter, Uranus:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDestination, s)
	}
}

// Field names a single input of the form.
type Field string

const (
	FieldName           Field = "name"
	FieldEmail          Field = "email"
	FieldPassword       Field = "password"
	FieldPasswordRepeat Field = "password_repeat"
	FieldDestination    Field = "destination"
)

// Draft is the unsaved content of the form.
type Draft struct {
	Name           string
	Email          string
	Password       string
	PasswordRepeat string
	Destination    Destination
	// ImageLoaded only decides between the placeholder and the header image.
	ImageLoaded bool
}

// set updates exactly one field. Password equality is never checked.
func (d *Draft) set(field Field, value string) error {
	switch field {
	case FieldName:
		d.Name = value
	case FieldEmail:
		d.Email = value
	case FieldPassword:
		d.Password = value
	case FieldPasswordRepeat:
		d.PasswordRepeat = value
	case FieldDestination:
		dest, err := ParseDestination(value)
		if err != nil {
			return err
		}
		d.Destination = dest
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// State is a snapshot of a form.
type State struct {
	Draft    Draft
	Verified bool // a verification token is currently held
	Loading  bool // a request is in flight
}
