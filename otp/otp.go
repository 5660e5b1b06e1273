// Package otp retrieves one-time login codes.
package otp

import (
	"context"
	"errors"
	"regexp"
)

// ErrNoCode is returned when no code could be found.
var ErrNoCode = errors.New("no one-time code found")

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

// Extract returns the first standalone 6-digit code in text.
func Extract(text string) (string, error) {
	m := codePattern.FindStringSubmatch(text)
	if m == nil {
		return "", ErrNoCode
	}
	return m[1], nil
}

// Source delivers the latest code sent to a recipient.
type Source interface {
	LatestCode(ctx context.Context, recipient string) (string, error)
}

// Static always returns the same code. Useful for environments with a fixed
// test code.
type Static string

func (s Static) LatestCode(context.Context, string) (string, error) {
	if s == "" {
		return "", ErrNoCode
	}
	return string(s), nil
}
