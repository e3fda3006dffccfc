package routes

import (
	"io"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"lend_tracker/internal/controllers"
	"lend_tracker/internal/middleware"
)

// SetupRouter wires every route group. accessLog receives one line per
// request; nil disables the access log.
func SetupRouter(ctl *controllers.Controller, tokens *middleware.TokenIssuer, accessLog io.Writer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID())
	if accessLog != nil {
		r.Use(ginlog.SetLogger(
			ginlog.WithWriter(accessLog),
			ginlog.WithSkipPath([]string{"/healthz"}),
		))
	}

	r.GET("/healthz", ctl.Health)

	AuthRoutes(r, ctl)
	AdminRoutes(r, ctl, tokens)
	TrackRoutes(r, ctl, tokens)
	WebSocketRoutes(r, ctl)

	return r
}
