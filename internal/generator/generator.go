// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package generator produces random but plausible signup values.
package generator

import (
	"crypto/rand"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"codeberg.org/oliverandrich/space-signup/internal/signup"
	"github.com/BurntSushi/toml"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PasswordLength is the length of generated passwords.
const PasswordLength = 16

// Unambiguous characters only (no 0/O, 1/l/I).
const passwordAlphabet = "23456789abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

//go:embed words.toml
var wordsTOML string

type wordLists struct {
	FirstNames []string `toml:"first_names"`
	LastNames  []string `toml:"last_names"`
	Domains    []string `toml:"domains"`
}

// Values is one generated set of form values.
type Values struct {
	Name     string
	Email    string
	Planet   string
	Password string
}

// Generator draws values from embedded word lists.
type Generator struct {
	words wordLists
	rand  io.Reader
}

// New creates a generator using crypto/rand.
func New() (*Generator, error) {
	return NewWithSource(rand.Reader)
}

// NewWithSource creates a generator drawing randomness from r.
func NewWithSource(r io.Reader) (*Generator, error) {
	var words wordLists
	if _, err := toml.Decode(wordsTOML, &words); err != nil {
		return nil, fmt.Errorf("decoding word lists: %w", err)
	}
	if len(words.FirstNames) == 0 || len(words.LastNames) == 0 || len(words.Domains) == 0 {
		return nil, errors.New("word lists must not be empty")
	}
	return &Generator{words: words, rand: r}, nil
}

// Generate returns a fresh set of values.
func (g *Generator) Generate() (Values, error) {
	first, err := g.pick(g.words.FirstNames)
	if err != nil {
		return Values{}, err
	}
	last, err := g.pick(g.words.LastNames)
	if err != nil {
		return Values{}, err
	}
	domain, err := g.pick(g.words.Domains)
	if err != nil {
		return Values{}, err
	}
	suffix, err := g.intn(100)
	if err != nil {
		return Values{}, err
	}
	planets := signup.Destinations()
	planet, err := g.intn(len(planets))
	if err != nil {
		return Values{}, err
	}
	password, err := g.password(PasswordLength)
	if err != nil {
		return Values{}, err
	}

	// Casers keep state, so each call gets its own.
	title := cases.Title(language.English)

	return Values{
		Name:     title.String(first + " " + last),
		Email:    fmt.Sprintf("%s.%s%02d@%s", first, last, suffix, domain),
		Planet:   string(planets[planet]),
		Password: password,
	}, nil
}

func (g *Generator) pick(list []string) (string, error) {
	i, err := g.intn(len(list))
	if err != nil {
		return "", err
	}
	return strings.ToLower(list[i]), nil
}

func (g *Generator) intn(n int) (int, error) {
	v, err := rand.Int(g.rand, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("reading randomness: %w", err)
	}
	return int(v.Int64()), nil
}

func (g *Generator) password(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)
	for range length {
		i, err := g.intn(len(passwordAlphabet))
		if err != nil {
			return "", err
		}
		sb.WriteByte(passwordAlphabet[i])
	}
	return sb.String(), nil
}
