package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lend_tracker/internal/middleware"
)

type unlockInput struct {
	Code string `json:"code" binding:"required"`
}

// OpenTracking shows the locked preview of a tracking link: the friend's
// first name and nothing else.
func (ctl *Controller) OpenTracking(c *gin.Context) {
	f, err := ctl.svc.OpenTracking(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"friend_name": f.FirstName(),
		"locked":      true,
	})
}

// UnlockTracking checks the 4-digit code and hands out a friend session
// bound to this link.
func (ctl *Controller) UnlockTracking(c *gin.Context) {
	var input unlockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	token := c.Param("token")
	friendID, err := ctl.svc.Unlock(c.Request.Context(), token, input.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	session, err := ctl.tokens.GenerateFriendSession(friendID, token)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":    session,
		"expires_in": int(ctl.tokens.SessionTTL().Seconds()),
	})
}

// TrackingTransactions is the read-only view behind an unlocked link.
func (ctl *Controller) TrackingTransactions(c *gin.Context) {
	friendID, token, ok := middleware.CurrentFriend(c)
	if !ok || token != c.Param("token") {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	filter, ok := filterFromQuery(c)
	if !ok {
		return
	}
	view, err := ctl.svc.TrackingView(c.Request.Context(), friendID, token, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"friend_name": view.FriendName,
		"currency":    view.Currency,
		"summary":     summaryOf(view.Summary),
		"data":        view.Transactions,
	})
}
