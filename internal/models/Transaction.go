package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	Loan      TransactionType = "loan"
	Repayment TransactionType = "repayment"
)

// Valid reports whether t is one of the two known variants.
func (t TransactionType) Valid() bool {
	return t == Loan || t == Repayment
}

// Transaction is a single loan or repayment. Rows are immutable once
// written and disappear only when their friend is deleted.
type Transaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time       `json:"created_at"`
	FriendID        uint            `gorm:"not null;index" json:"friend_id"`
	Type            TransactionType `gorm:"size:16;not null" json:"type"`
	Amount          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transaction_date"`
	Description     *string         `json:"description,omitempty"`
}

// DescriptionText returns the description or "" when none was given.
func (t Transaction) DescriptionText() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// Validate checks the row at the ingestion boundary, before any I/O.
func (t Transaction) Validate() error {
	if t.FriendID == 0 {
		return &ValidationError{Field: "friend_id", Message: "friend is required"}
	}
	if !t.Type.Valid() {
		return &ValidationError{Field: "type", Message: "type must be loan or repayment"}
	}
	if !t.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "amount must be greater than zero"}
	}
	if t.TransactionDate.IsZero() {
		return &ValidationError{Field: "transaction_date", Message: "transaction date is required"}
	}
	return nil
}
