package ledger

import (
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"

	"lend_tracker/internal/models"
)

const (
	TypeAll = "all"

	SortByDate   = "date"
	SortByAmount = "amount"
	SortByType   = "type"

	SortAsc  = "asc"
	SortDesc = "desc"
)

const dateLayout = "2006-01-02"

var errBadDate = errors.New("must be YYYY-MM-DD or RFC3339")

// Filter describes the view a user asked for over a transaction list.
// Nil date bounds leave that side of the range open.
type Filter struct {
	SearchText string
	Type       string // "all", "loan", "repayment"
	DateFrom   *time.Time
	DateTo     *time.Time
	SortBy     string // "date", "amount", "type"
	SortOrder  string // "asc", "desc"
}

// DefaultFilter shows everything, newest first.
func DefaultFilter() Filter {
	return Filter{Type: TypeAll, SortBy: SortByDate, SortOrder: SortDesc}
}

// Apply runs search, type filter, date range and a stable sort, in that
// order, and returns a fresh slice. txs is left untouched. An inverted
// date range is not an error; it simply matches less (or nothing).
func Apply(txs []models.Transaction, f Filter) []models.Transaction {
	needle := strings.ToLower(f.SearchText)

	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if needle != "" && !matchesSearch(tx, needle) {
			continue
		}
		if f.Type != "" && f.Type != TypeAll && string(tx.Type) != f.Type {
			continue
		}
		if f.DateFrom != nil && tx.TransactionDate.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && tx.TransactionDate.After(*f.DateTo) {
			continue
		}
		out = append(out, tx)
	}

	less := lessFunc(out, f.SortBy)
	if f.SortOrder == SortDesc {
		sort.SliceStable(out, func(i, j int) bool { return less(j, i) })
	} else {
		sort.SliceStable(out, less)
	}
	return out
}

func matchesSearch(tx models.Transaction, needle string) bool {
	return strings.Contains(strings.ToLower(tx.DescriptionText()), needle) ||
		strings.Contains(string(tx.Type), needle) ||
		strings.Contains(tx.Amount.String(), needle)
}

func lessFunc(txs []models.Transaction, sortBy string) func(i, j int) bool {
	switch sortBy {
	case SortByAmount:
		return func(i, j int) bool { return txs[i].Amount.LessThan(txs[j].Amount) }
	case SortByType:
		return func(i, j int) bool { return txs[i].Type < txs[j].Type }
	default:
		return func(i, j int) bool { return txs[i].TransactionDate.Before(txs[j].TransactionDate) }
	}
}

// ParseFilter reads a Filter from query parameters:
// q, type, date_from, date_to, sort_by, sort_order.
// Dates are YYYY-MM-DD or RFC3339; a bare date_to covers its whole day.
func ParseFilter(q url.Values) (Filter, error) {
	f := DefaultFilter()
	f.SearchText = q.Get("q")

	if v := q.Get("type"); v != "" {
		if v != TypeAll && !models.TransactionType(v).Valid() {
			return Filter{}, &models.ValidationError{Field: "type", Message: "type must be all, loan or repayment"}
		}
		f.Type = v
	}
	if v := q.Get("sort_by"); v != "" {
		switch v {
		case SortByDate, SortByAmount, SortByType:
			f.SortBy = v
		default:
			return Filter{}, &models.ValidationError{Field: "sort_by", Message: "sort_by must be date, amount or type"}
		}
	}
	if v := q.Get("sort_order"); v != "" {
		if v != SortAsc && v != SortDesc {
			return Filter{}, &models.ValidationError{Field: "sort_order", Message: "sort_order must be asc or desc"}
		}
		f.SortOrder = v
	}

	from, err := parseBound(q.Get("date_from"), false)
	if err != nil {
		return Filter{}, &models.ValidationError{Field: "date_from", Message: err.Error()}
	}
	to, err := parseBound(q.Get("date_to"), true)
	if err != nil {
		return Filter{}, &models.ValidationError{Field: "date_to", Message: err.Error()}
	}
	f.DateFrom, f.DateTo = from, to
	return f, nil
}

func parseBound(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, errBadDate
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
