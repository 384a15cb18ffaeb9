// internal/repository/stats_repository.go
package repository

import (
	"database/sql"
	"fmt"
	"time"

	"duel/internal/database"
	"duel/internal/models"
)

// StatsRepositoryInterface définit les méthodes du repository de statistiques
type StatsRepositoryInterface interface {
	GetPlayerStats(player string) (*models.DuelStats, error)
	UpsertPlayerStats(stats *models.DuelStats) error
	InsertHistory(entry *models.DuelHistoryEntry) error
	GetLeaderboard(limit int) ([]*models.LeaderboardEntry, error)
}

// StatsRepository implémente l'interface StatsRepositoryInterface
type StatsRepository struct {
	db *database.DB
}

// NewStatsRepository crée une nouvelle instance du repository statistiques
func NewStatsRepository(db *database.DB) StatsRepositoryInterface {
	return &StatsRepository{db: db}
}

// GetPlayerStats récupère les statistiques d'un joueur.
// Un joueur sans historique reçoit des statistiques vierges au rating de départ.
func (r *StatsRepository) GetPlayerStats(player string) (*models.DuelStats, error) {
	var stats models.DuelStats

	query := `SELECT player, rating, wins, losses, draws, kills, damage_dealt, updated_at
	          FROM duel_stats WHERE player = $1`

	err := r.db.Get(&stats, query, player)
	if err == sql.ErrNoRows {
		return &models.DuelStats{
			Player: player,
			Rating: models.DefaultRating,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stats for %s: %w", player, err)
	}

	return &stats, nil
}

// UpsertPlayerStats insère ou met à jour les statistiques d'un joueur
func (r *StatsRepository) UpsertPlayerStats(stats *models.DuelStats) error {
	stats.UpdatedAt = time.Now()

	query := `
		INSERT INTO duel_stats (player, rating, wins, losses, draws, kills, damage_dealt, updated_at)
		VALUES (:player, :rating, :wins, :losses, :draws, :kills, :damage_dealt, :updated_at)
		ON CONFLICT (player) DO UPDATE SET
			rating = EXCLUDED.rating,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			draws = EXCLUDED.draws,
			kills = EXCLUDED.kills,
			damage_dealt = EXCLUDED.damage_dealt,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.db.NamedExec(query, stats); err != nil {
		return fmt.Errorf("failed to upsert stats for %s: %w", stats.Player, err)
	}
	return nil
}

// InsertHistory enregistre un duel terminé dans l'historique
func (r *StatsRepository) InsertHistory(entry *models.DuelHistoryEntry) error {
	query := `
		INSERT INTO duel_history (id, kind, player1, player2, winner, drawn, wager, started_at, ended_at)
		VALUES (:id, :kind, :player1, :player2, :winner, :drawn, :wager, :started_at, :ended_at)`

	if _, err := r.db.NamedExec(query, entry); err != nil {
		return fmt.Errorf("failed to insert duel history: %w", err)
	}
	return nil
}

// GetLeaderboard retourne le classement des joueurs par rating
func (r *StatsRepository) GetLeaderboard(limit int) ([]*models.LeaderboardEntry, error) {
	entries := []*models.LeaderboardEntry{}

	query := `SELECT player, rating, wins, losses FROM duel_stats
	          ORDER BY rating DESC, wins DESC LIMIT $1`

	if err := r.db.Select(&entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	for i, entry := range entries {
		entry.Rank = i + 1
		total := entry.Wins + entry.Losses
		if total > 0 {
			entry.WinRate = float64(entry.Wins) / float64(total) * 100.0
		}
	}

	return entries, nil
}
