package handlers

import (
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"campaign-dashboard/middleware"
	"campaign-dashboard/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Dashboard clients connect from arbitrary origins; auth happens via
		// the JWT middleware before the upgrade.
		return true
	},
}

// WebSocketHandler upgrades the connection and registers the client with the
// hub for dataset and workflow event pushes.
func (h *DashboardHandler) WebSocketHandler(c *gin.Context) {
	userID := middleware.GetUserIDFromContext(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Errorf("Failed to upgrade WebSocket connection: %v", err)
		return
	}

	log.Infof("WebSocket connection established for user %s", userID)
	h.hub.RegisterClient(conn, userID)
}

// WebSocketHealthHandler reports hub connectivity.
func (h *DashboardHandler) WebSocketHealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:           "healthy",
		Service:          "campaign-dashboard-ws",
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		ConnectedClients: h.hub.GetConnectedClientsCount(),
	})
}
