// internal/handlers/websocket/websocket_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	xerrors "amayalert-service/internal/pkg/errors"
	"amayalert-service/internal/pkg/response"
	ws "amayalert-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler accepts upgrades from the given origins; an empty
// list accepts any origin.
func NewWebSocketHandler(hub *ws.Hub, allowedOrigins []string, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// HandleConnection authenticates the token and upgrades the connection
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	token := h.extractToken(c)

	auth, err := h.hub.AuthenticateClient(c.Request.Context(), token)
	if err != nil {
		h.logger.Warn("WebSocket authentication failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		switch {
		case errors.Is(err, ws.ErrMissingToken):
			response.Error(c, http.StatusUnauthorized, "missing authentication token", nil)
		case errors.Is(err, xerrors.ErrForbidden):
			response.Error(c, http.StatusForbidden, "access denied", nil)
		default:
			response.Error(c, http.StatusUnauthorized, "authentication failed", nil)
		}
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	client := ws.NewClient(h.hub, conn, auth)
	h.hub.Register <- client

	h.logger.Info("WebSocket client connected",
		zap.String("user_id", auth.UserID),
		zap.String("session_id", auth.SessionID),
		zap.String("role", auth.Role),
	)

	go client.WritePump()
	go client.ChangePump()
	go client.ReadPump()
}

func (h *WebSocketHandler) extractToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	return ""
}

// GetStats returns WebSocket connection statistics
func (h *WebSocketHandler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"total_connections": h.hub.TotalClients(),
		"routed_events":     h.hub.RoutedEvents(),
		"timestamp":         time.Now(),
	}
	response.Success(c, http.StatusOK, "WebSocket stats", stats)
}
