package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lend_tracker/internal/models"
	"lend_tracker/internal/service"
)

type signupInput struct {
	Name              string `json:"name" binding:"required"`
	Email             string `json:"email" binding:"required,email"`
	Password          string `json:"password" binding:"required"`
	PreferredCurrency string `json:"preferred_currency"`
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (ctl *Controller) issue(c *gin.Context, status int, u *models.User) {
	token, err := ctl.tokens.Generate(u.ID, u.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, gin.H{
		"token": token,
		"user":  u,
	})
}

// Signup registers a new admin and logs them in.
func (ctl *Controller) Signup(c *gin.Context) {
	var input signupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	u, err := ctl.svc.Register(c.Request.Context(), service.RegisterInput{
		Name:              input.Name,
		Email:             input.Email,
		Password:          input.Password,
		PreferredCurrency: input.PreferredCurrency,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	ctl.issue(c, http.StatusCreated, u)
}

func (ctl *Controller) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	u, err := ctl.svc.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	ctl.issue(c, http.StatusOK, u)
}
