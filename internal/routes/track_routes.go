package routes

import (
	"github.com/gin-gonic/gin"

	"lend_tracker/internal/controllers"
	"lend_tracker/internal/middleware"
	"lend_tracker/internal/models"
)

// TrackRoutes are the public tracking-link endpoints. Only the transaction
// view needs an unlocked friend session.
func TrackRoutes(r *gin.Engine, ctl *controllers.Controller, tokens *middleware.TokenIssuer) {
	track := r.Group("/track/:token")
	{
		track.GET("", ctl.OpenTracking)
		track.POST("/unlock", ctl.UnlockTracking)
		track.GET("/transactions", tokens.RequireAuthWithRole(models.RoleFriend), ctl.TrackingTransactions)
	}
}
