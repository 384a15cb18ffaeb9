// internal/handlers/duel_handler.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"duel/internal/config"
	"duel/internal/models"
	"duel/internal/service"
)

// DuelHandler gère les requêtes HTTP liées aux duels
type DuelHandler struct {
	duelService service.DuelServiceInterface
	config      *config.Config
}

// NewDuelHandler crée un nouveau handler de duels
func NewDuelHandler(duelService service.DuelServiceInterface, config *config.Config) *DuelHandler {
	return &DuelHandler{
		duelService: duelService,
		config:      config,
	}
}

// CreateDuel crée un nouveau duel
func (h *DuelHandler) CreateDuel(c *gin.Context) {
	var req models.CreateDuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	duel, err := h.duelService.CreateDuel(&req)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to create duel")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create duel",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"duel":    duel,
		"message": fmt.Sprintf(h.config.Message("duel.challenge.sent"), duel.Player2),
	})
}

// GetDuel récupère un duel vivant par son ID
func (h *DuelHandler) GetDuel(c *gin.Context) {
	duelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid duel ID"})
		return
	}

	duel, err := h.duelService.GetDuel(duelID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Duel not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"duel":    duel,
	})
}

// ListDuels liste tous les duels vivants
func (h *DuelHandler) ListDuels(c *gin.Context) {
	duels := h.duelService.ListDuels()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"duels":   duels,
		"count":   len(duels),
	})
}

// GetDuelByPlayer récupère le duel vivant d'un joueur
func (h *DuelHandler) GetDuelByPlayer(c *gin.Context) {
	player := c.Param("player")
	if player == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Player name required"})
		return
	}

	duel, err := h.duelService.GetDuelByPlayer(player)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Player is not in a duel",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"duel":    duel,
	})
}

// GetCountdown récupère le compte à rebours restant d'un duel
func (h *DuelHandler) GetCountdown(c *gin.Context) {
	duelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid duel ID"})
		return
	}

	remaining, err := h.duelService.GetCountdown(duelID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Duel not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.CountdownResponse{
		DuelID:    duelID.String(),
		Remaining: remaining,
	})
}

// StartCombat fait passer un duel en phase de combat
func (h *DuelHandler) StartCombat(c *gin.Context) {
	duelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid duel ID"})
		return
	}

	if err := h.duelService.StartCombat(duelID); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Failed to start combat",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": h.config.Message("duel.started"),
	})
}

// HandleKill enregistre une élimination dans un duel
func (h *DuelHandler) HandleKill(c *gin.Context) {
	duelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid duel ID"})
		return
	}

	var req models.KillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	if err := h.duelService.HandleKill(duelID, req.Victim, req.Killer, req.Location); err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Failed to record kill",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleDamage enregistre un coup porté dans un duel
func (h *DuelHandler) HandleDamage(c *gin.Context) {
	duelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid duel ID"})
		return
	}

	var req models.DamageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	if err := h.duelService.HandleDamage(duelID, req.Victim, req.Attacker, req.Damage, req.Location); err != nil {
		status := http.StatusBadRequest
		if err == models.ErrDuelEnded {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"error":   "Failed to record damage",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// EndDuel termine un duel avec le roster gagnant fourni
func (h *DuelHandler) EndDuel(c *gin.Context) {
	duelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid duel ID"})
		return
	}

	// Corps optionnel : absent ou roster vide = égalité
	var req models.EndDuelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request format",
				"details": err.Error(),
			})
			return
		}
	}

	duel, err := h.duelService.EndDuel(duelID, req.WinningRoster)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Failed to end duel",
			"details": err.Error(),
		})
		return
	}

	message := h.config.Message("duel.draw")
	if winner := duel.WinningPlayer(); winner != "" {
		message = fmt.Sprintf(h.config.Message("duel.won"), winner)
	} else if !duel.Drawn {
		message = fmt.Sprintf(h.config.Message("duel.won.team"), duel.WinningTeamIndex())
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"duel":    duel,
		"message": message,
	})
}

// Forfeit termine un duel par abandon d'un joueur
func (h *DuelHandler) Forfeit(c *gin.Context) {
	duelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid duel ID"})
		return
	}

	var req models.ForfeitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	duel, err := h.duelService.Forfeit(duelID, req.Player)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Failed to forfeit duel",
			"details": err.Error(),
		})
		return
	}

	logrus.WithFields(logrus.Fields{
		"duel_id": duelID,
		"player":  req.Player,
		"reason":  req.Reason,
	}).Info("Duel forfeited via API")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"duel":    duel,
		"message": fmt.Sprintf(h.config.Message("duel.forfeit"), req.Player),
	})
}
