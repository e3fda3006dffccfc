package routes

import (
	"github.com/gin-gonic/gin"

	"lend_tracker/internal/controllers"
)

func WebSocketRoutes(r *gin.Engine, ctl *controllers.Controller) {
	wsRoutes := r.Group("/ws")
	{
		wsRoutes.GET("/track/:token", ctl.TrackingWebSocket)
	}
}
