package controllers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"lend_tracker/internal/models"
	"lend_tracker/internal/service"
)

type transactionInput struct {
	Type            string      `json:"type" binding:"required"`
	Amount          json.Number `json:"amount" binding:"required"`
	TransactionDate string      `json:"transaction_date"`
	Description     string      `json:"description"`
}

// parseDate accepts YYYY-MM-DD or RFC3339. Empty means "now".
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, &models.ValidationError{Field: "transaction_date", Message: "must be YYYY-MM-DD or RFC3339"}
	}
	return t, nil
}

// ListTransactions returns a friend's transactions after search, filter
// and sort, plus the balance over all of them.
func (ctl *Controller) ListTransactions(c *gin.Context) {
	id, ok := adminID(c)
	if !ok {
		return
	}
	friendID, ok := paramID(c, "id")
	if !ok {
		return
	}
	filter, ok := filterFromQuery(c)
	if !ok {
		return
	}
	txs, sum, err := ctl.svc.ListTransactions(c.Request.Context(), id, friendID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":    txs,
		"summary": summaryOf(sum),
	})
}

func (ctl *Controller) CreateTransaction(c *gin.Context) {
	id, ok := adminID(c)
	if !ok {
		return
	}
	friendID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input transactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	date, err := parseDate(input.TransactionDate)
	if err != nil {
		respondError(c, err)
		return
	}
	tx, err := ctl.svc.RecordTransaction(c.Request.Context(), id, friendID, service.TransactionInput{
		Type:        input.Type,
		Amount:      input.Amount.String(),
		Date:        date,
		Description: input.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": tx})
}
