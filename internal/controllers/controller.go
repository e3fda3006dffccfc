package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"lend_tracker/internal/ledger"
	"lend_tracker/internal/middleware"
	"lend_tracker/internal/models"
	"lend_tracker/internal/notify"
	"lend_tracker/internal/service"
	"lend_tracker/internal/tracking"
)

// Controller holds the HTTP handlers and what they depend on.
type Controller struct {
	svc      *service.Service
	tokens   *middleware.TokenIssuer
	hub      *notify.Hub
	upgrader websocket.Upgrader
}

// New builds a Controller. allowedOrigins restricts WebSocket upgrades;
// an empty list accepts any origin.
func New(svc *service.Service, tokens *middleware.TokenIssuer, hub *notify.Hub, allowedOrigins []string) *Controller {
	allow := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allow[o] = true
	}
	return &Controller{
		svc:    svc,
		tokens: tokens,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allow) == 0 || origin == "" || allow[origin]
			},
		},
	}
}

// Health is the liveness probe.
func (ctl *Controller) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type summaryResponse struct {
	ledger.Summary
	Status string `json:"status"`
}

func summaryOf(s ledger.Summary) summaryResponse {
	return summaryResponse{Summary: s, Status: s.Status()}
}

// respondError maps service errors onto status codes. Anything
// unrecognized is logged and reported as a 500 without details.
func respondError(c *gin.Context, err error) {
	var vErr *models.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message, "field": vErr.Field})
	case errors.Is(err, tracking.ErrInvalidFormat), errors.Is(err, tracking.ErrCodeMismatch):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid access code"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	default:
		middleware.Log(c).WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func adminID(c *gin.Context) (uint, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return id, ok
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name, "field": name})
		return 0, false
	}
	return uint(id), true
}

func filterFromQuery(c *gin.Context) (ledger.Filter, bool) {
	f, err := ledger.ParseFilter(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return ledger.Filter{}, false
	}
	return f, true
}
