package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"lend_tracker/internal/models"
	"lend_tracker/internal/notify"
	"lend_tracker/internal/store"
)

const (
	defaultCurrency   = "USD"
	minPasswordLength = 8
)

type RegisterInput struct {
	Name              string
	Email             string
	Password          string
	PreferredCurrency string
}

type ProfileInput struct {
	Name              *string
	PreferredCurrency *string
}

func normalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", invalid("preferred_currency", "currency must be a 3-letter ISO code")
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", invalid("preferred_currency", "currency must be a 3-letter ISO code")
		}
	}
	return code, nil
}

// Register creates an admin account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "name is required")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, invalid("email", "a valid email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, invalid("password", "password must be at least 8 characters")
	}
	currency := defaultCurrency
	if in.PreferredCurrency != "" {
		if currency, err = normalizeCurrency(in.PreferredCurrency); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Name:              name,
		Email:             strings.ToLower(addr.Address),
		Password:          string(hash),
		Role:              models.RoleAdmin,
		PreferredCurrency: currency,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, &conflictError{msg: "email already in use"}
		}
		return nil, storeErr("register", err)
	}
	return u, nil
}

// Login checks credentials. Unknown email and wrong password both return
// ErrUnauthorized.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.store.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, storeErr("login", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}
	return u, nil
}

func (s *Service) Profile(ctx context.Context, adminID uint) (*models.User, error) {
	u, err := s.store.UserByID(ctx, adminID)
	if err != nil {
		return nil, storeErr("load profile", err)
	}
	return u, nil
}

// UpdateProfile changes name and/or preferred currency. A currency change
// is pushed to any open tracking views of this admin's friends.
func (s *Service) UpdateProfile(ctx context.Context, adminID uint, in ProfileInput) (*models.User, error) {
	var patch store.UserPatch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, invalid("name", "name is required")
		}
		patch.Name = &name
	}
	if in.PreferredCurrency != nil {
		code, err := normalizeCurrency(*in.PreferredCurrency)
		if err != nil {
			return nil, err
		}
		patch.PreferredCurrency = &code
	}

	before, err := s.store.UserByID(ctx, adminID)
	if err != nil {
		return nil, storeErr("update profile", err)
	}
	after, err := s.store.UpdateUser(ctx, adminID, patch)
	if err != nil {
		return nil, storeErr("update profile", err)
	}

	if after.PreferredCurrency != before.PreferredCurrency {
		ev := notify.Event{
			Kind:              notify.KindCurrencyChanged,
			AdminID:           adminID,
			PreferredCurrency: after.PreferredCurrency,
			At:                s.now().UTC(),
		}
		// the write already succeeded; views pick the change up on reload
		if err := s.notifier.Publish(ctx, ev); err != nil {
			logrus.WithError(err).WithField("admin_id", adminID).Warn("Failed to publish currency change")
		}
	}
	return after, nil
}
