package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereayou/wallet-profile/internal/middleware"
	ws "github.com/thereayou/wallet-profile/internal/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler подписывает владельца адреса на события его профиля
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewWebSocketHandler создает новый WebSocket handler; "*" в origins разрешает любой origin
func NewWebSocketHandler(hub *ws.Hub, origins []string, log *zap.Logger) *WebSocketHandler {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	_, allowAll := allowed["*"]

	return &WebSocketHandler{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if allowAll || origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// HandleWebSocket обрабатывает WebSocket соединения
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	address := middleware.CurrentAddress(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, address)

	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
