// internal/models/stats.go
package models

import "time"

// DuelStats représente les statistiques de duel persistées d'un joueur
type DuelStats struct {
	Player      string    `json:"player" db:"player"`
	Rating      int       `json:"rating" db:"rating"`
	Wins        int       `json:"wins" db:"wins"`
	Losses      int       `json:"losses" db:"losses"`
	Draws       int       `json:"draws" db:"draws"`
	Kills       int       `json:"kills" db:"kills"`
	DamageDealt int       `json:"damage_dealt" db:"damage_dealt"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultRating rating de départ d'un joueur sans historique
const DefaultRating = 1000

// GetTotalDuels retourne le nombre total de duels joués
func (s *DuelStats) GetTotalDuels() int {
	return s.Wins + s.Losses + s.Draws
}

// GetWinRate calcule le pourcentage de victoires
func (s *DuelStats) GetWinRate() float64 {
	total := s.GetTotalDuels()
	if total == 0 {
		return 0.0
	}
	return float64(s.Wins) / float64(total) * 100.0
}

// GetRatingChange estime le changement de rating pour un résultat.
// Formule simple basée sur la différence de rating avec l'adversaire.
func (s *DuelStats) GetRatingChange(opponentRating int, isWin bool) int {
	ratingDiff := opponentRating - s.Rating
	baseChange := 25

	if isWin {
		if ratingDiff > 0 {
			// Victoire contre un adversaire plus fort
			return baseChange + (ratingDiff / 10)
		}
		// Victoire contre un adversaire plus faible
		return baseChange - (-ratingDiff / 15)
	}

	if ratingDiff > 0 {
		// Défaite contre un adversaire plus fort
		return -(baseChange - (ratingDiff / 15))
	}
	// Défaite contre un adversaire plus faible
	return -(baseChange + (-ratingDiff / 10))
}

// DuelHistoryEntry représente un duel terminé dans l'historique persisté
type DuelHistoryEntry struct {
	ID        string     `json:"id" db:"id"`
	Kind      string     `json:"kind" db:"kind"`
	Player1   string     `json:"player1" db:"player1"`
	Player2   string     `json:"player2" db:"player2"`
	Winner    *string    `json:"winner,omitempty" db:"winner"`
	Drawn     bool       `json:"drawn" db:"drawn"`
	Wager     int        `json:"wager" db:"wager"`
	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty" db:"ended_at"`
}

// LeaderboardEntry représente une entrée du classement des duellistes
type LeaderboardEntry struct {
	Rank    int     `json:"rank"`
	Player  string  `json:"player" db:"player"`
	Rating  int     `json:"rating" db:"rating"`
	Wins    int     `json:"wins" db:"wins"`
	Losses  int     `json:"losses" db:"losses"`
	WinRate float64 `json:"win_rate"`
}
