// Package ledger holds the pure bookkeeping over a friend's transactions:
// balance aggregation and the filter/sort engine behind transaction lists.
// Nothing in here performs I/O or mutates its input.
package ledger

import (
	"github.com/shopspring/decimal"

	"lend_tracker/internal/models"
)

const (
	StatusOwing   = "owing"
	StatusSettled = "settled"
	StatusCredit  = "credit"
)

// Summary is the derived view of a friend's transactions.
// RemainingBalance is negative when the friend has overpaid.
type Summary struct {
	TotalBorrowed    decimal.Decimal `json:"total_borrowed"`
	TotalRepaid      decimal.Decimal `json:"total_repaid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// Summarize is the single place the borrowed/repaid/remaining figures are
// computed. Order of txs does not matter and an empty slice yields zeros.
func Summarize(txs []models.Transaction) Summary {
	borrowed := decimal.Zero
	repaid := decimal.Zero
	for i := range txs {
		switch txs[i].Type {
		case models.Loan:
			borrowed = borrowed.Add(txs[i].Amount)
		case models.Repayment:
			repaid = repaid.Add(txs[i].Amount)
		}
	}
	return Summary{
		TotalBorrowed:    borrowed,
		TotalRepaid:      repaid,
		RemainingBalance: borrowed.Sub(repaid),
	}
}

// Status classifies the balance. A negative balance is reported as a
// credit, never clamped to zero.
func (s Summary) Status() string {
	switch s.RemainingBalance.Sign() {
	case 1:
		return StatusOwing
	case -1:
		return StatusCredit
	default:
		return StatusSettled
	}
}

// SummarizeByFriend groups txs by FriendID and summarizes each group.
func SummarizeByFriend(txs []models.Transaction) map[uint]Summary {
	groups := make(map[uint][]models.Transaction)
	for _, tx := range txs {
		groups[tx.FriendID] = append(groups[tx.FriendID], tx)
	}
	out := make(map[uint]Summary, len(groups))
	for id, group := range groups {
		out[id] = Summarize(group)
	}
	return out
}

// Totals is the admin dashboard roll-up across all friends.
type Totals struct {
	Friends      int             `json:"friends"`
	FriendsOwing int             `json:"friends_owing"`
	TotalLent    decimal.Decimal `json:"total_lent"`
	TotalRepaid  decimal.Decimal `json:"total_repaid"`
	Outstanding  decimal.Decimal `json:"outstanding"`
}

// Aggregate rolls per-friend summaries up into dashboard totals.
func Aggregate(summaries []Summary) Totals {
	t := Totals{
		Friends:     len(summaries),
		TotalLent:   decimal.Zero,
		TotalRepaid: decimal.Zero,
	}
	for _, s := range summaries {
		t.TotalLent = t.TotalLent.Add(s.TotalBorrowed)
		t.TotalRepaid = t.TotalRepaid.Add(s.TotalRepaid)
		if s.Status() == StatusOwing {
			t.FriendsOwing++
		}
	}
	t.Outstanding = t.TotalLent.Sub(t.TotalRepaid)
	return t
}
