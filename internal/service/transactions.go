package service

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"lend_tracker/internal/ledger"
	"lend_tracker/internal/models"
)

const (
	recentLimit          = 10
	maxDescriptionLength = 500
)

// amounts are stored as numeric(14,2)
var maxAmount = decimal.New(1, 12)

type TransactionInput struct {
	Type        string
	Amount      string
	Date        time.Time
	Description string
}

// Dashboard is the admin landing view.
type Dashboard struct {
	Totals ledger.Totals
	Recent []RecentTransaction
}

type RecentTransaction struct {
	models.Transaction
	FriendName string
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, invalid("amount", "amount must be a number")
	}
	if !amount.Equal(amount.Round(2)) {
		return decimal.Decimal{}, invalid("amount", "amount may have at most 2 decimal places")
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return decimal.Decimal{}, invalid("amount", "amount must be less than 1000000000000")
	}
	return amount, nil
}

// RecordTransaction validates and stores a loan or repayment for one of
// the admin's friends.
func (s *Service) RecordTransaction(ctx context.Context, adminID, friendID uint, in TransactionInput) (*models.Transaction, error) {
	amount, err := parseAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	date := in.Date
	if date.IsZero() {
		date = s.now()
	}
	tx := &models.Transaction{
		FriendID:        friendID,
		Type:            models.TransactionType(strings.ToLower(strings.TrimSpace(in.Type))),
		Amount:          amount,
		TransactionDate: date.UTC(),
	}
	if desc := strings.TrimSpace(in.Description); desc != "" {
		if utf8.RuneCountInString(desc) > maxDescriptionLength {
			return nil, invalid("description", "description is too long")
		}
		tx.Description = &desc
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.ownedFriend(ctx, adminID, friendID); err != nil {
		return nil, err
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return nil, storeErr("record transaction", err)
	}
	return tx, nil
}

// ListTransactions returns the filtered view of a friend's transactions and
// the summary over all of them.
func (s *Service) ListTransactions(ctx context.Context, adminID, friendID uint, f ledger.Filter) ([]models.Transaction, ledger.Summary, error) {
	if _, err := s.ownedFriend(ctx, adminID, friendID); err != nil {
		return nil, ledger.Summary{}, err
	}
	txs, err := s.store.TransactionsByFriend(ctx, friendID)
	if err != nil {
		return nil, ledger.Summary{}, storeErr("list transactions", err)
	}
	return ledger.Apply(txs, f), ledger.Summarize(txs), nil
}

func (s *Service) Dashboard(ctx context.Context, adminID uint) (*Dashboard, error) {
	friendRows, txs, err := s.adminLedger(ctx, adminID)
	if err != nil {
		return nil, err
	}
	friends := detailsFor(friendRows, txs)

	names := make(map[uint]string, len(friends))
	summaries := make([]ledger.Summary, 0, len(friends))
	for _, f := range friends {
		names[f.Friend.ID] = f.Friend.FullName
		summaries = append(summaries, f.Summary)
	}

	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].TransactionDate.After(txs[j].TransactionDate)
	})
	if len(txs) > recentLimit {
		txs = txs[:recentLimit]
	}
	recent := make([]RecentTransaction, 0, len(txs))
	for _, tx := range txs {
		recent = append(recent, RecentTransaction{Transaction: tx, FriendName: names[tx.FriendID]})
	}

	return &Dashboard{Totals: ledger.Aggregate(summaries), Recent: recent}, nil
}
