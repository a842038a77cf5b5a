package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/poshaakwala/storefront-backend/internal/middleware"
	ws "github.com/poshaakwala/storefront-backend/internal/websocket"
)

type CatalogWSController struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewCatalogWSController accepts connections from allowedOrigins; "*" allows any origin.
func NewCatalogWSController(hub *ws.Hub, allowedOrigins []string) *CatalogWSController {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[origin] = true
	}

	return &CatalogWSController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins["*"] || origins[origin]
			},
		},
	}
}

// Subscribe upgrades the request and streams catalog events
// GET /api/ws/catalog
func (ctrl *CatalogWSController) Subscribe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	clientID := c.GetString(middleware.RequestIDKey)
	if clientID == "" {
		clientID = uuid.NewString()
	}
	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, clientID)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"client_id": clientID,
	})
}
