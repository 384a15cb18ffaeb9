// internal/handlers/rivalry_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"duel/internal/config"
	"duel/internal/service"
)

// RivalryHandler gère les requêtes HTTP liées aux rivalités
type RivalryHandler struct {
	rivalryService service.RivalryServiceInterface
	config         *config.Config
}

// NewRivalryHandler crée un nouveau handler de rivalités
func NewRivalryHandler(rivalryService service.RivalryServiceInterface, config *config.Config) *RivalryHandler {
	return &RivalryHandler{
		rivalryService: rivalryService,
		config:         config,
	}
}

// GetPlayerRivalries liste les rivalités actives d'un joueur
func (h *RivalryHandler) GetPlayerRivalries(c *gin.Context) {
	player := c.Param("player")
	if player == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Player name required"})
		return
	}

	rivalries := h.rivalryService.GetPlayerRivalries(player)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"player":    player,
		"rivalries": rivalries,
		"count":     len(rivalries),
		"threshold": h.config.Rivalry.Threshold,
	})
}

// GetRivalry retourne le résumé d'une paire de joueurs
func (h *RivalryHandler) GetRivalry(c *gin.Context) {
	player := c.Param("player")
	other := c.Param("other")
	if player == "" || other == "" || player == other {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Two distinct player names required"})
		return
	}

	summary := h.rivalryService.GetSummary(player, other)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"rivalry": summary,
	})
}
