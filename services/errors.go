package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"advisory/notifier"
	"advisory/store"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrAlreadyExists      = store.ErrAlreadyExists
	ErrNotFound           = store.ErrNotFound
	ErrExpired            = errors.New("code expired, request a new one")
	ErrInvalidCode        = errors.New("invalid code")
	ErrDeliveryFailed     = notifier.ErrDeliveryFailed
	ErrRateLimited        = errors.New("too many requests")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrAccountBlocked     = errors.New("account temporarily blocked")
	ErrInvalidSignature   = errors.New("payment signature mismatch")

	// ErrNoCode means no live code exists for the identity. It matches ErrNotFound.
	ErrNoCode = fmt.Errorf("no code issued: %w", ErrNotFound)
)

// ValidationError lists the offending fields. It matches ErrInvalidInput.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, msg := range e.Fields {
		parts = append(parts, msg)
	}
	return fmt.Sprintf("invalid input: %s", strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// RateLimitError carries how long the caller has to wait. It matches
// ErrRateLimited.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many requests, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }
