// internal/handlers/journal_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"duel/internal/config"
	"duel/internal/service"
)

// JournalHandler gère les requêtes HTTP liées aux journaux de duel
type JournalHandler struct {
	journalService service.JournalServiceInterface
	config         *config.Config
}

// NewJournalHandler crée un nouveau handler de journaux
func NewJournalHandler(journalService service.JournalServiceInterface, config *config.Config) *JournalHandler {
	return &JournalHandler{
		journalService: journalService,
		config:         config,
	}
}

// GetReport récupère un rapport de duel persisté via son short-id
func (h *JournalHandler) GetReport(c *gin.Context) {
	shortID := c.Param("shortId")
	if shortID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Short ID required"})
		return
	}

	report, err := h.journalService.GetReportByShortID(shortID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Report not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"report":  report,
	})
}

// CleanupOldReports supprime les rapports plus vieux que la rétention configurée
func (h *JournalHandler) CleanupOldReports(c *gin.Context) {
	removed, err := h.journalService.CleanupOldLogs()
	if err != nil {
		logrus.WithError(err).Error("Journal cleanup failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Cleanup failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"removed":        removed,
		"retention_days": h.config.Journal.RetentionDays,
	})
}
