package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lend_tracker/internal/service"
)

type friendInput struct {
	FullName       string `json:"full_name" binding:"required"`
	WhatsappNumber string `json:"whatsapp_number" binding:"required"`
}

type friendPatchInput struct {
	FullName       *string `json:"full_name"`
	WhatsappNumber *string `json:"whatsapp_number"`
}

func friendDetail(d service.FriendDetail) gin.H {
	return gin.H{
		"friend":  d.Friend,
		"summary": summaryOf(d.Summary),
	}
}

func (ctl *Controller) ListFriends(c *gin.Context) {
	id, ok := adminID(c)
	if !ok {
		return
	}
	friends, err := ctl.svc.ListFriends(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(friends))
	for _, f := range friends {
		out = append(out, friendDetail(f))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// CreateFriend adds a friend and returns it with its tracking link and code.
func (ctl *Controller) CreateFriend(c *gin.Context) {
	id, ok := adminID(c)
	if !ok {
		return
	}
	var input friendInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	f, err := ctl.svc.CreateFriend(c.Request.Context(), id, service.FriendInput{
		FullName:       input.FullName,
		WhatsappNumber: input.WhatsappNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": f})
}

func (ctl *Controller) GetFriend(c *gin.Context) {
	id, ok := adminID(c)
	if !ok {
		return
	}
	friendID, ok := paramID(c, "id")
	if !ok {
		return
	}
	d, err := ctl.svc.GetFriend(c.Request.Context(), id, friendID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": friendDetail(*d)})
}

func (ctl *Controller) UpdateFriend(c *gin.Context) {
	id, ok := adminID(c)
	if !ok {
		return
	}
	friendID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input friendPatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	f, err := ctl.svc.UpdateFriend(c.Request.Context(), id, friendID, service.FriendPatchInput{
		FullName:       input.FullName,
		WhatsappNumber: input.WhatsappNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": f})
}

// DeleteFriend removes the friend and all of its transactions.
func (ctl *Controller) DeleteFriend(c *gin.Context) {
	id, ok := adminID(c)
	if !ok {
		return
	}
	friendID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctl.svc.DeleteFriend(c.Request.Context(), id, friendID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *Controller) RegenerateCode(c *gin.Context) {
	id, ok := adminID(c)
	if !ok {
		return
	}
	friendID, ok := paramID(c, "id")
	if !ok {
		return
	}
	f, err := ctl.svc.RegenerateCode(c.Request.Context(), id, friendID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": f})
}
