package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"lend_tracker/internal/models"
)

func strPtr(s string) *string { return &s }

func seedAdmin(t *testing.T, s *Memory, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Admin", Email: email, Password: "hash"}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func seedFriend(t *testing.T, s *Memory, adminID uint, number, token string) *models.Friend {
	t.Helper()
	f := &models.Friend{FullName: "Friend " + number, WhatsappNumber: number, AdminID: adminID, TrackingURL: strPtr(token), TrackingCode: strPtr("1234")}
	if err := s.CreateFriend(context.Background(), f); err != nil {
		t.Fatalf("CreateFriend: %v", err)
	}
	return f
}

func seedTx(t *testing.T, s *Memory, friendID uint, typ models.TransactionType, amount int64, day int) *models.Transaction {
	t.Helper()
	tx := &models.Transaction{
		FriendID:        friendID,
		Type:            typ,
		Amount:          decimal.NewFromInt(amount),
		TransactionDate: time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
	}
	if err := s.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	return tx
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	u := seedAdmin(t, s, "a@example.com")

	if u.ID == 0 || u.Role != models.RoleAdmin || u.PreferredCurrency != "USD" {
		t.Errorf("defaults not applied: %+v", u)
	}

	err := s.CreateUser(ctx, &models.User{Name: "Other", Email: "a@example.com"})
	if !errors.Is(err, ErrUniqueViolation) {
		t.Errorf("duplicate email: got %v, want ErrUniqueViolation", err)
	}

	got, err := s.UserByEmail(ctx, "a@example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("UserByEmail = %+v, %v", got, err)
	}

	updated, err := s.UpdateUser(ctx, u.ID, UserPatch{PreferredCurrency: strPtr("EUR")})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.PreferredCurrency != "EUR" || updated.Name != "Admin" {
		t.Errorf("UpdateUser = %+v", updated)
	}

	if _, err := s.UserByID(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("UserByID(999) = %v, want ErrNotFound", err)
	}
	if _, err := s.UpdateUser(ctx, 999, UserPatch{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateUser(999) = %v, want ErrNotFound", err)
	}
}

func TestMemoryFriendUniqueness(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	a := seedAdmin(t, s, "a@example.com")
	b := seedAdmin(t, s, "b@example.com")

	first := seedFriend(t, s, a.ID, "+15550001", "AAAAAAAAAAAA-abcdef")

	dup := &models.Friend{FullName: "Dup", WhatsappNumber: "+15550001", AdminID: a.ID}
	if err := s.CreateFriend(ctx, dup); !errors.Is(err, ErrUniqueViolation) {
		t.Errorf("same admin, same number: got %v, want ErrUniqueViolation", err)
	}

	// another admin may track the same number
	seedFriend(t, s, b.ID, "+15550001", "BBBBBBBBBBBB-abcdef")

	clash := &models.Friend{FullName: "Clash", WhatsappNumber: "+15550002", AdminID: a.ID, TrackingURL: strPtr("AAAAAAAAAAAA-abcdef")}
	if err := s.CreateFriend(ctx, clash); !errors.Is(err, ErrUniqueViolation) {
		t.Errorf("duplicate tracking url: got %v, want ErrUniqueViolation", err)
	}

	second := seedFriend(t, s, a.ID, "+15550003", "CCCCCCCCCCCC-abcdef")
	if _, err := s.UpdateFriend(ctx, second.ID, FriendPatch{WhatsappNumber: strPtr("+15550001")}); !errors.Is(err, ErrUniqueViolation) {
		t.Errorf("update to taken number: got %v, want ErrUniqueViolation", err)
	}
	if _, err := s.UpdateFriend(ctx, first.ID, FriendPatch{WhatsappNumber: strPtr("+15550001")}); err != nil {
		t.Errorf("update to own number: %v", err)
	}

	if err := s.CreateFriend(ctx, &models.Friend{FullName: "Orphan", WhatsappNumber: "1", AdminID: 999}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown admin: got %v, want ErrNotFound", err)
	}
}

func TestMemoryFriendLookupsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	a := seedAdmin(t, s, "a@example.com")
	f := seedFriend(t, s, a.ID, "+1", "AAAAAAAAAAAA-abcdef")

	got, err := s.FriendByTrackingURL(ctx, "AAAAAAAAAAAA-abcdef")
	if err != nil {
		t.Fatalf("FriendByTrackingURL: %v", err)
	}
	*got.TrackingCode = "0000"

	again, _ := s.FriendByID(ctx, f.ID)
	if *again.TrackingCode != "1234" {
		t.Errorf("stored code changed through returned pointer: %s", *again.TrackingCode)
	}

	if _, err := s.FriendByTrackingURL(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing token: got %v", err)
	}
}

func TestMemoryDeleteFriendCascades(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	a := seedAdmin(t, s, "a@example.com")
	doomed := seedFriend(t, s, a.ID, "+1", "AAAAAAAAAAAA-abcdef")
	kept := seedFriend(t, s, a.ID, "+2", "BBBBBBBBBBBB-abcdef")

	seedTx(t, s, doomed.ID, models.Loan, 100, 1)
	seedTx(t, s, doomed.ID, models.Repayment, 40, 2)
	keptTx := seedTx(t, s, kept.ID, models.Loan, 70, 3)

	if err := s.DeleteFriend(ctx, doomed.ID); err != nil {
		t.Fatalf("DeleteFriend: %v", err)
	}

	if _, err := s.FriendByID(ctx, doomed.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted friend still readable: %v", err)
	}
	if txs, _ := s.TransactionsByFriend(ctx, doomed.ID); len(txs) != 0 {
		t.Errorf("orphaned transactions: %d", len(txs))
	}
	txs, _ := s.TransactionsByFriend(ctx, kept.ID)
	if len(txs) != 1 || txs[0].ID != keptTx.ID {
		t.Errorf("other friend's transactions touched: %+v", txs)
	}
	all, _ := s.TransactionsByAdmin(ctx, a.ID)
	if len(all) != 1 {
		t.Errorf("TransactionsByAdmin = %d rows, want 1", len(all))
	}

	if err := s.DeleteFriend(ctx, doomed.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestMemoryTransactionsOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	a := seedAdmin(t, s, "a@example.com")
	b := seedAdmin(t, s, "b@example.com")
	f := seedFriend(t, s, a.ID, "+1", "AAAAAAAAAAAA-abcdef")
	other := seedFriend(t, s, b.ID, "+1", "BBBBBBBBBBBB-abcdef")

	seedTx(t, s, f.ID, models.Loan, 1, 3)
	seedTx(t, s, f.ID, models.Loan, 2, 9)
	seedTx(t, s, f.ID, models.Loan, 3, 5)
	seedTx(t, s, other.ID, models.Loan, 4, 1)

	txs, err := s.TransactionsByAdmin(ctx, a.ID)
	if err != nil {
		t.Fatalf("TransactionsByAdmin: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txs))
	}
	for i := 1; i < len(txs); i++ {
		if txs[i].TransactionDate.After(txs[i-1].TransactionDate) {
			t.Errorf("not newest first at %d", i)
		}
	}

	err = s.CreateTransaction(ctx, &models.Transaction{FriendID: 999, Type: models.Loan, Amount: decimal.NewFromInt(1)})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("transaction for unknown friend: got %v", err)
	}
}
