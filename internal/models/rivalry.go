// internal/models/rivalry.go
package models

// RivalryHistorySize taille de la fenêtre des derniers vainqueurs
const RivalryHistorySize = 10

// RivalryEntry représente l'historique de duels entre une paire de joueurs.
// La clé de paire est canonique (nom le plus petit en premier), la recherche
// est donc symétrique quel que soit l'ordre des arguments.
type RivalryEntry struct {
	PlayerA string `json:"player_a"`
	PlayerB string `json:"player_b"`
	WinsA   int    `json:"wins_a"`
	WinsB   int    `json:"wins_b"`

	// Fenêtre FIFO des derniers vainqueurs, purement cosmétique :
	// le total de victoires peut dépasser sa taille.
	History []string `json:"history"`
}

// RivalryPairKey canonicalise une paire de joueurs en clé unique
func RivalryPairKey(playerA, playerB string) string {
	if playerB < playerA {
		playerA, playerB = playerB, playerA
	}
	return playerA + ":" + playerB
}

// NewRivalryEntry crée une entrée vierge pour une paire canonique
func NewRivalryEntry(playerA, playerB string) *RivalryEntry {
	if playerB < playerA {
		playerA, playerB = playerB, playerA
	}
	return &RivalryEntry{
		PlayerA: playerA,
		PlayerB: playerB,
	}
}

// Involves vérifie qu'un joueur fait partie de la paire
func (r *RivalryEntry) Involves(player string) bool {
	return r.PlayerA == player || r.PlayerB == player
}

// Opponent retourne l'adversaire d'un joueur dans la paire
func (r *RivalryEntry) Opponent(player string) string {
	if r.PlayerA == player {
		return r.PlayerB
	}
	return r.PlayerA
}

// TotalDuels retourne le nombre total de duels enregistrés pour la paire
func (r *RivalryEntry) TotalDuels() int {
	return r.WinsA + r.WinsB
}

// Wins retourne le nombre de victoires d'un joueur de la paire
func (r *RivalryEntry) Wins(player string) int {
	switch player {
	case r.PlayerA:
		return r.WinsA
	case r.PlayerB:
		return r.WinsB
	default:
		return 0
	}
}

// LastWinner retourne le vainqueur le plus récent, ou une chaîne vide
func (r *RivalryEntry) LastWinner() string {
	if len(r.History) == 0 {
		return ""
	}
	return r.History[len(r.History)-1]
}

// RecordWin enregistre une victoire et pousse le vainqueur dans la fenêtre
// d'historique, en évinçant le plus ancien si elle dépasse sa taille.
// Un vainqueur vide (match indéterminé) ne modifie rien.
func (r *RivalryEntry) RecordWin(winner string) bool {
	switch winner {
	case r.PlayerA:
		r.WinsA++
	case r.PlayerB:
		r.WinsB++
	default:
		return false
	}

	r.History = append(r.History, winner)
	if len(r.History) > RivalryHistorySize {
		r.History = r.History[len(r.History)-RivalryHistorySize:]
	}
	return true
}
