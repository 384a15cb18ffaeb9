// internal/models/requests.go
package models

// CreateDuelRequest représente une demande de création de duel
type CreateDuelRequest struct {
	Player1 string   `json:"player1" binding:"required"`
	Player2 string   `json:"player2" binding:"required"`
	Kind    string   `json:"kind" binding:"required"`
	Wager   int      `json:"wager,omitempty"`
	TeamA   []string `json:"team_a,omitempty"`
	TeamB   []string `json:"team_b,omitempty"`
}

// KillRequest représente la notification d'une élimination
type KillRequest struct {
	Victim   string `json:"victim" binding:"required"`
	Killer   string `json:"killer,omitempty"` // vide = mort environnementale
	Location string `json:"location,omitempty"`
}

// DamageRequest représente la notification d'un coup porté
type DamageRequest struct {
	Victim   string `json:"victim" binding:"required"`
	Attacker string `json:"attacker" binding:"required"`
	Damage   int    `json:"damage" binding:"required"`
	Location string `json:"location,omitempty"`
}

// EndDuelRequest représente la notification de fin de duel.
// Un roster gagnant vide ou absent enregistre une égalité.
type EndDuelRequest struct {
	WinningRoster []string `json:"winning_roster,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// ForfeitRequest représente un abandon ou une déconnexion
type ForfeitRequest struct {
	Player string `json:"player" binding:"required"`
	Reason string `json:"reason,omitempty"`
}
