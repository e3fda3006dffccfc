// Package service implements the lending use cases on top of a Store.
// Each call validates its input before any I/O, performs its writes one
// at a time and translates storage errors into the errors below.
package service

import (
	"errors"
	"fmt"
	"time"

	"lend_tracker/internal/models"
	"lend_tracker/internal/notify"
	"lend_tracker/internal/store"
	"lend_tracker/internal/tracking"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Service wires the store, the notifier and the identifier generators.
type Service struct {
	store    store.Store
	notifier notify.Notifier
	now      func() time.Time
	newCode  func() (string, error)
	newToken func(time.Time) (string, error)
}

type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCodeGenerator overrides tracking.NewCode.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newCode = gen }
}

func New(st store.Store, notifier notify.Notifier, opts ...Option) *Service {
	s := &Service{
		store:    st,
		notifier: notifier,
		now:      time.Now,
		newCode:  tracking.NewCode,
		newToken: tracking.NewToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func invalid(field, msg string) error {
	return &models.ValidationError{Field: field, Message: msg}
}

// IsValidation reports whether err was caused by rejected input.
func IsValidation(err error) bool {
	var vErr *models.ValidationError
	return errors.As(err, &vErr)
}

// storeErr turns store sentinels into service errors and wraps the rest
// with what was being attempted.
func storeErr(action string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%s: %w", action, ErrNotFound)
	case errors.Is(err, store.ErrUniqueViolation):
		return fmt.Errorf("%s: %w", action, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}
