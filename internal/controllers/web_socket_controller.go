package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"lend_tracker/internal/models"
)

// TrackingWebSocket subscribes an unlocked tracking view to change events
// for the admin that owns the friend. The session JWT travels in the
// "session" query parameter since browsers cannot set headers on upgrade.
func (ctl *Controller) TrackingWebSocket(c *gin.Context) {
	token := c.Param("token")
	claims, err := ctl.tokens.Validate(c.Query("session"))
	if err != nil || claims.Role != models.RoleFriend || claims.Tracking != token {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	f, err := ctl.svc.TrackingFriend(c.Request.Context(), claims.FriendID, token)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	defer conn.Close()

	ctl.hub.Register(f.AdminID, conn)
	defer ctl.hub.Unregister(f.AdminID, conn)

	log := logrus.WithFields(logrus.Fields{
		"friend_id": f.ID,
		"admin_id":  f.AdminID,
		"conn_ptr":  fmt.Sprintf("%p", conn),
	})
	log.Info("Tracking view subscribed.")

	// the view only listens; reading is how we notice it went away
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("Tracking view connection closed unexpectedly.")
			} else {
				log.Info("Tracking view disconnected.")
			}
			return
		}
	}
}
