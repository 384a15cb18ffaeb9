// internal/models/responses.go
package models

// CountdownResponse représente la réponse de compte à rebours
type CountdownResponse struct {
	DuelID    string `json:"duel_id"`
	Remaining int    `json:"remaining"` // -1 si non applicable
}

// RivalrySummary représente le résumé d'une rivalité pour l'API
type RivalrySummary struct {
	PlayerA    string `json:"player_a"`
	PlayerB    string `json:"player_b"`
	WinsA      int    `json:"wins_a"`
	WinsB      int    `json:"wins_b"`
	TotalDuels int    `json:"total_duels"`
	LastWinner string `json:"last_winner,omitempty"`
	IsRivalry  bool   `json:"is_rivalry"`
}

// JournalReportResponse représente un rapport de duel persisté
type JournalReportResponse struct {
	ShortID   string `json:"short_id"`
	JournalID string `json:"journal_id"`
	Report    string `json:"report"`
}
