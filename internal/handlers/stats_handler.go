// internal/handlers/stats_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"duel/internal/config"
	"duel/internal/repository"
)

// Limites du classement
const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// StatsHandler gère les requêtes HTTP liées aux statistiques persistées
type StatsHandler struct {
	statsRepo repository.StatsRepositoryInterface
	config    *config.Config
}

// NewStatsHandler crée un nouveau handler de statistiques
func NewStatsHandler(statsRepo repository.StatsRepositoryInterface, config *config.Config) *StatsHandler {
	return &StatsHandler{
		statsRepo: statsRepo,
		config:    config,
	}
}

// GetPlayerStats récupère les statistiques d'un joueur
func (h *StatsHandler) GetPlayerStats(c *gin.Context) {
	player := c.Param("player")
	if player == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Player name required"})
		return
	}

	stats, err := h.statsRepo.GetPlayerStats(player)
	if err != nil {
		logrus.WithError(err).WithField("player", player).Error("Failed to load player stats")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load player stats",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

// GetLeaderboard retourne le classement des joueurs par rating
func (h *StatsHandler) GetLeaderboard(c *gin.Context) {
	limit := DefaultLeaderboardLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		if parsed > MaxLeaderboardLimit {
			parsed = MaxLeaderboardLimit
		}
		limit = parsed
	}

	entries, err := h.statsRepo.GetLeaderboard(limit)
	if err != nil {
		logrus.WithError(err).Error("Failed to load leaderboard")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load leaderboard",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"leaderboard": entries,
		"count":       len(entries),
	})
}
