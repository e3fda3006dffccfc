package service

import (
	"context"
	"errors"
	"strings"

	"lend_tracker/internal/ledger"
	"lend_tracker/internal/models"
	"lend_tracker/internal/store"
)

// tokens collide only by astronomically bad luck, but a retry is cheap
const tokenAttempts = 3

type FriendInput struct {
	FullName       string
	WhatsappNumber string
}

type FriendPatchInput struct {
	FullName       *string
	WhatsappNumber *string
}

// FriendDetail is a friend together with its derived figures.
type FriendDetail struct {
	Friend  models.Friend
	Summary ledger.Summary
}

func normalizeName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", invalid("full_name", "full name is required")
	}
	return name, nil
}

// normalizeNumber strips formatting and keeps an optional leading "+".
func normalizeNumber(number string) (string, error) {
	number = strings.TrimSpace(number)
	var b strings.Builder
	for i, r := range number {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '.':
		default:
			return "", invalid("whatsapp_number", "contact number may only contain digits")
		}
	}
	out := b.String()
	digits := len(strings.TrimPrefix(out, "+"))
	if digits < 7 || digits > 15 {
		return "", invalid("whatsapp_number", "contact number must have 7 to 15 digits")
	}
	return out, nil
}

// CreateFriend adds a friend for adminID and issues its tracking token and
// access code.
func (s *Service) CreateFriend(ctx context.Context, adminID uint, in FriendInput) (*models.Friend, error) {
	name, err := normalizeName(in.FullName)
	if err != nil {
		return nil, err
	}
	number, err := normalizeNumber(in.WhatsappNumber)
	if err != nil {
		return nil, err
	}

	code, err := s.newCode()
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		token, err := s.newToken(s.now())
		if err != nil {
			return nil, err
		}
		f := &models.Friend{
			FullName:       name,
			WhatsappNumber: number,
			AdminID:        adminID,
			TrackingURL:    &token,
			TrackingCode:   &code,
			CreatedAt:      s.now(),
		}
		err = s.store.CreateFriend(ctx, f)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, store.ErrUniqueViolation) {
			return nil, storeErr("create friend", err)
		}
		taken, lookupErr := s.numberTaken(ctx, adminID, number, 0)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if taken || attempt+1 >= tokenAttempts {
			return nil, duplicateNumber()
		}
	}
}

func duplicateNumber() error {
	return &conflictError{msg: "a friend with this contact number already exists"}
}

// conflictError carries a user-facing message and matches ErrConflict.
type conflictError struct{ msg string }

func (e *conflictError) Error() string        { return e.msg }
func (e *conflictError) Is(target error) bool { return target == ErrConflict }

func (s *Service) numberTaken(ctx context.Context, adminID uint, number string, except uint) (bool, error) {
	friends, err := s.store.FriendsByAdmin(ctx, adminID)
	if err != nil {
		return false, storeErr("check contact number", err)
	}
	for _, f := range friends {
		if f.ID != except && f.WhatsappNumber == number {
			return true, nil
		}
	}
	return false, nil
}

// ownedFriend loads a friend and hides it unless adminID owns it.
func (s *Service) ownedFriend(ctx context.Context, adminID, friendID uint) (*models.Friend, error) {
	f, err := s.store.FriendByID(ctx, friendID)
	if err != nil {
		return nil, storeErr("load friend", err)
	}
	if f.AdminID != adminID {
		return nil, ErrNotFound
	}
	return f, nil
}

// ListFriends returns the admin's friends, newest first, each with its
// summary.
func (s *Service) ListFriends(ctx context.Context, adminID uint) ([]FriendDetail, error) {
	friends, txs, err := s.adminLedger(ctx, adminID)
	if err != nil {
		return nil, err
	}
	return detailsFor(friends, txs), nil
}

// adminLedger loads the admin's friends and all of their transactions.
func (s *Service) adminLedger(ctx context.Context, adminID uint) ([]models.Friend, []models.Transaction, error) {
	friends, err := s.store.FriendsByAdmin(ctx, adminID)
	if err != nil {
		return nil, nil, storeErr("list friends", err)
	}
	txs, err := s.store.TransactionsByAdmin(ctx, adminID)
	if err != nil {
		return nil, nil, storeErr("list transactions", err)
	}
	return friends, txs, nil
}

func detailsFor(friends []models.Friend, txs []models.Transaction) []FriendDetail {
	summaries := ledger.SummarizeByFriend(txs)
	out := make([]FriendDetail, 0, len(friends))
	for _, f := range friends {
		sum, ok := summaries[f.ID]
		if !ok {
			sum = ledger.Summarize(nil)
		}
		out = append(out, FriendDetail{Friend: f, Summary: sum})
	}
	return out
}

func (s *Service) GetFriend(ctx context.Context, adminID, friendID uint) (*FriendDetail, error) {
	f, err := s.ownedFriend(ctx, adminID, friendID)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.TransactionsByFriend(ctx, friendID)
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	return &FriendDetail{Friend: *f, Summary: ledger.Summarize(txs)}, nil
}

func (s *Service) UpdateFriend(ctx context.Context, adminID, friendID uint, in FriendPatchInput) (*models.Friend, error) {
	var patch store.FriendPatch
	if in.FullName != nil {
		name, err := normalizeName(*in.FullName)
		if err != nil {
			return nil, err
		}
		patch.FullName = &name
	}
	if in.WhatsappNumber != nil {
		number, err := normalizeNumber(*in.WhatsappNumber)
		if err != nil {
			return nil, err
		}
		patch.WhatsappNumber = &number
	}

	if _, err := s.ownedFriend(ctx, adminID, friendID); err != nil {
		return nil, err
	}
	f, err := s.store.UpdateFriend(ctx, friendID, patch)
	if err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return nil, duplicateNumber()
		}
		return nil, storeErr("update friend", err)
	}
	return f, nil
}

// DeleteFriend removes the friend and every transaction recorded for it.
func (s *Service) DeleteFriend(ctx context.Context, adminID, friendID uint) error {
	if _, err := s.ownedFriend(ctx, adminID, friendID); err != nil {
		return err
	}
	return storeErr("delete friend", s.store.DeleteFriend(ctx, friendID))
}

// RegenerateCode stores a fresh access code in a single write; the old
// code stops working as soon as it returns. The tracking token is kept,
// or issued if the friend never had one.
func (s *Service) RegenerateCode(ctx context.Context, adminID, friendID uint) (*models.Friend, error) {
	f, err := s.ownedFriend(ctx, adminID, friendID)
	if err != nil {
		return nil, err
	}
	code, err := s.newCode()
	if err != nil {
		return nil, err
	}
	patch := store.FriendPatch{TrackingCode: &code}
	if f.TrackingURL == nil {
		token, err := s.newToken(s.now())
		if err != nil {
			return nil, err
		}
		patch.TrackingURL = &token
	}
	updated, err := s.store.UpdateFriend(ctx, friendID, patch)
	if err != nil {
		return nil, storeErr("regenerate code", err)
	}
	return updated, nil
}
