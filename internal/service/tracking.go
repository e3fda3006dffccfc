package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"lend_tracker/internal/ledger"
	"lend_tracker/internal/models"
	"lend_tracker/internal/store"
	"lend_tracker/internal/tracking"
)

// TrackingView is everything an unlocked friend may read.
type TrackingView struct {
	FriendName   string
	Currency     string
	Summary      ledger.Summary
	Transactions []models.Transaction
}

// codeSource adapts the store to tracking.CodeSource.
type codeSource struct {
	store store.Store
}

func (c codeSource) CurrentCode(ctx context.Context, token string) (uint, string, error) {
	f, err := c.store.FriendByTrackingURL(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, "", tracking.ErrUnknownToken
		}
		return 0, "", err
	}
	if f.TrackingCode == nil {
		return f.ID, "", nil
	}
	return f.ID, *f.TrackingCode, nil
}

// OpenTracking resolves a tracking token to its (still locked) friend.
// Malformed tokens are rejected without a lookup.
func (s *Service) OpenTracking(ctx context.Context, token string) (*models.Friend, error) {
	if !tracking.ValidToken(token) {
		return nil, ErrNotFound
	}
	f, err := s.store.FriendByTrackingURL(ctx, token)
	if err != nil {
		return nil, storeErr("open tracking", err)
	}
	return f, nil
}

// Unlock runs the access gate for token and returns the unlocked friend's
// id. The gate errors are returned as-is so callers can tell
// tracking.ErrInvalidFormat from tracking.ErrCodeMismatch; an unknown token
// becomes ErrNotFound.
func (s *Service) Unlock(ctx context.Context, token, code string) (uint, error) {
	gate := tracking.NewGate(token)
	err := gate.Submit(ctx, code, codeSource{store: s.store})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"reason": tracking.Reason(err),
			"state":  gate.State().String(),
		}).Info("Tracking unlock rejected")
		if errors.Is(err, tracking.ErrUnknownToken) {
			return 0, ErrNotFound
		}
		if errors.Is(err, tracking.ErrInvalidFormat) || errors.Is(err, tracking.ErrCodeMismatch) {
			return 0, err
		}
		return 0, storeErr("unlock", err)
	}
	return gate.FriendID(), nil
}

// TrackingFriend checks that an unlocked session for friendID still
// matches token and returns the friend. A deleted friend or a reused
// session on another link both fail with ErrUnauthorized.
func (s *Service) TrackingFriend(ctx context.Context, friendID uint, token string) (*models.Friend, error) {
	f, err := s.store.FriendByID(ctx, friendID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, storeErr("load friend", err)
	}
	if f.TrackingURL == nil || *f.TrackingURL != token {
		return nil, ErrUnauthorized
	}
	return f, nil
}

// TrackingView returns the read-only view for an unlocked friend session.
func (s *Service) TrackingView(ctx context.Context, friendID uint, token string, filter ledger.Filter) (*TrackingView, error) {
	f, err := s.TrackingFriend(ctx, friendID, token)
	if err != nil {
		return nil, err
	}
	admin, err := s.store.UserByID(ctx, f.AdminID)
	if err != nil {
		return nil, storeErr("load admin", err)
	}
	txs, err := s.store.TransactionsByFriend(ctx, f.ID)
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	return &TrackingView{
		FriendName:   f.FullName,
		Currency:     admin.PreferredCurrency,
		Summary:      ledger.Summarize(txs),
		Transactions: ledger.Apply(txs, filter),
	}, nil
}
