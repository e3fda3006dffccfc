package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lend_tracker/internal/service"
)

type profileInput struct {
	Name              *string `json:"name"`
	PreferredCurrency *string `json:"preferred_currency"`
}

func (ctl *Controller) GetProfile(c *gin.Context) {
	id, ok := adminID(c)
	if !ok {
		return
	}
	u, err := ctl.svc.Profile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": u})
}

// UpdateProfile changes the admin's name or preferred currency.
func (ctl *Controller) UpdateProfile(c *gin.Context) {
	id, ok := adminID(c)
	if !ok {
		return
	}
	var input profileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	u, err := ctl.svc.UpdateProfile(c.Request.Context(), id, service.ProfileInput{
		Name:              input.Name,
		PreferredCurrency: input.PreferredCurrency,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": u})
}

func (ctl *Controller) Dashboard(c *gin.Context) {
	id, ok := adminID(c)
	if !ok {
		return
	}
	dash, err := ctl.svc.Dashboard(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	recent := make([]gin.H, 0, len(dash.Recent))
	for _, r := range dash.Recent {
		recent = append(recent, gin.H{
			"transaction": r.Transaction,
			"friend_name": r.FriendName,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"totals": dash.Totals,
		"recent": recent,
	})
}
