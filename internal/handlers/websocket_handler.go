// internal/handlers/websocket_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"duel/internal/config"
	"duel/internal/service"
)

// upgrader configure l'upgrade HTTP vers WebSocket
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// L'authentification est portée par le JWT, pas par l'origine
		return true
	},
}

// WebSocketHandler gère les connexions spectateur en temps réel
type WebSocketHandler struct {
	realtimeService service.RealtimeServiceInterface
	duelService     service.DuelServiceInterface
	config          *config.Config
}

// NewWebSocketHandler crée un nouveau handler WebSocket
func NewWebSocketHandler(
	realtimeService service.RealtimeServiceInterface,
	duelService service.DuelServiceInterface,
	config *config.Config,
) *WebSocketHandler {
	return &WebSocketHandler{
		realtimeService: realtimeService,
		duelService:     duelService,
		config:          config,
	}
}

// SpectateDuel abonne une connexion WebSocket aux événements d'un duel
func (h *WebSocketHandler) SpectateDuel(c *gin.Context) {
	duelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid duel ID"})
		return
	}

	// Le duel doit être vivant pour être spectable
	if _, err := h.duelService.GetDuel(duelID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Duel not found",
			"details": err.Error(),
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	if err := h.realtimeService.AddConnection(conn, duelID.String()); err != nil {
		logrus.WithError(err).Error("Failed to register spectator connection")
		conn.Close()
		return
	}

	// Boucle de lecture : détecte la déconnexion du spectateur.
	// Les messages entrants sont ignorés, le flux est unidirectionnel.
	go func() {
		defer func() {
			h.realtimeService.RemoveConnection(conn)
			conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
