// Package store is the persistence boundary for users, friends and
// transactions. Services depend on the Store interface; Gorm backs it with
// Postgres and Memory keeps everything in process.
package store

import (
	"context"
	"errors"

	"lend_tracker/internal/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrUniqueViolation = errors.New("unique constraint violated")
)

// UserPatch lists the profile fields an admin may change. Nil fields are
// left alone.
type UserPatch struct {
	Name              *string
	PreferredCurrency *string
}

// FriendPatch lists the friend fields that may change after creation.
type FriendPatch struct {
	FullName       *string
	WhatsappNumber *string
	TrackingURL    *string
	TrackingCode   *string
}

// Store is the CRUD surface the services need. Every call is a single
// round-trip from the caller's point of view; DeleteFriend is the only one
// that touches more than one row.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id uint, patch UserPatch) (*models.User, error)

	CreateFriend(ctx context.Context, f *models.Friend) error
	FriendByID(ctx context.Context, id uint) (*models.Friend, error)
	FriendByTrackingURL(ctx context.Context, token string) (*models.Friend, error)
	FriendsByAdmin(ctx context.Context, adminID uint) ([]models.Friend, error)
	UpdateFriend(ctx context.Context, id uint, patch FriendPatch) (*models.Friend, error)
	// DeleteFriend removes the friend together with all of its transactions.
	DeleteFriend(ctx context.Context, id uint) error

	CreateTransaction(ctx context.Context, tx *models.Transaction) error
	TransactionsByFriend(ctx context.Context, friendID uint) ([]models.Transaction, error)
	TransactionsByAdmin(ctx context.Context, adminID uint) ([]models.Transaction, error)
}
