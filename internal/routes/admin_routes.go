package routes

import (
	"github.com/gin-gonic/gin"

	"lend_tracker/internal/controllers"
	"lend_tracker/internal/middleware"
	"lend_tracker/internal/models"
)

func AdminRoutes(r *gin.Engine, ctl *controllers.Controller, tokens *middleware.TokenIssuer) {
	admin := r.Group("/admin")
	admin.Use(tokens.RequireAuthWithRole(models.RoleAdmin))
	{
		admin.GET("/profile", ctl.GetProfile)
		admin.PUT("/profile", ctl.UpdateProfile)
		admin.GET("/dashboard", ctl.Dashboard)

		admin.GET("/friends", ctl.ListFriends)
		admin.POST("/friends", ctl.CreateFriend)
		admin.GET("/friends/:id", ctl.GetFriend)
		admin.PUT("/friends/:id", ctl.UpdateFriend)
		admin.DELETE("/friends/:id", ctl.DeleteFriend)
		admin.POST("/friends/:id/regenerate-code", ctl.RegenerateCode)

		admin.GET("/friends/:id/transactions", ctl.ListTransactions)
		admin.POST("/friends/:id/transactions", ctl.CreateTransaction)
	}
}
