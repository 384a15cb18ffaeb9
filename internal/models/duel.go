// internal/models/duel.go
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Constants pour les types de duel
const (
	DuelKindArena    = "arena"
	DuelKindArenaKit = "arena_kit"
	DuelKindLocal    = "local"
	DuelKindLocalKit = "local_kit"
	DuelKindTeam     = "team"
)

// Constants pour les états d'un duel
const (
	DuelStateStarting   = "starting"
	DuelStateInProgress = "in_progress"
	DuelStateEnded      = "ended"
)

// CountdownNotApplicable valeur sentinelle quand le compte à rebours ne s'applique pas
const CountdownNotApplicable = -1

// Index de l'équipe gagnante (0 = égalité)
const (
	WinningTeamNone = 0
	WinningTeamA    = 1
	WinningTeamB    = 2
)

// ErrDuelEnded est retourné quand on tente de modifier un duel terminé
var ErrDuelEnded = fmt.Errorf("duel already ended")

// Duel représente un duel entre deux joueurs ou deux équipes
type Duel struct {
	ID      uuid.UUID `json:"id"`
	Player1 string    `json:"player1"` // chef de l'équipe A
	Player2 string    `json:"player2"` // chef de l'équipe B
	Kind    string    `json:"kind"`
	State   string    `json:"state"`

	Winner *string `json:"winner,omitempty"`
	Drawn  bool    `json:"drawn"`
	Wager  int     `json:"wager"`

	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"` // valide uniquement une fois le duel terminé
	InCountdown bool       `json:"in_countdown"`

	TeamA       []string `json:"team_a"`
	TeamB       []string `json:"team_b"`
	WinningTeam []string `json:"winning_team,omitempty"`

	Kills map[string]int `json:"kills"`
}

// NewDuel crée un nouveau duel entre deux joueurs
func NewDuel(player1, player2, kind string, wager int, now time.Time) (*Duel, error) {
	if player1 == "" || player2 == "" {
		return nil, fmt.Errorf("both players are required")
	}
	if player1 == player2 {
		return nil, fmt.Errorf("a player cannot duel himself")
	}
	if wager < 0 {
		return nil, fmt.Errorf("wager must be positive: %d", wager)
	}

	duel := &Duel{
		ID:          uuid.New(),
		Player1:     player1,
		Player2:     player2,
		Kind:        kind,
		State:       DuelStateStarting,
		Wager:       wager,
		StartedAt:   now,
		InCountdown: true,
		TeamA:       []string{player1},
		TeamB:       []string{player2},
		Kills: map[string]int{
			player1: 0,
			player2: 0,
		},
	}

	return duel, nil
}

// IsEnded indique si le duel est terminé
func (d *Duel) IsEnded() bool {
	return d.State == DuelStateEnded
}

// IsParticipant vérifie qu'un joueur participe au duel
func (d *Duel) IsParticipant(player string) bool {
	_, ok := d.Kills[player]
	return ok
}

// Participants retourne tous les participants (équipe A puis équipe B)
func (d *Duel) Participants() []string {
	participants := make([]string, 0, len(d.TeamA)+len(d.TeamB))
	participants = append(participants, d.TeamA...)
	participants = append(participants, d.TeamB...)
	return participants
}

// TeamOf retourne l'index de l'équipe du joueur (0 si inconnu)
func (d *Duel) TeamOf(player string) int {
	for _, member := range d.TeamA {
		if member == player {
			return WinningTeamA
		}
	}
	for _, member := range d.TeamB {
		if member == player {
			return WinningTeamB
		}
	}
	return WinningTeamNone
}

// AddTeamMember ajoute un joueur à une équipe. Un joueur ne peut appartenir
// qu'à une seule équipe d'un même duel.
func (d *Duel) AddTeamMember(player string, team int) error {
	if d.IsEnded() {
		return ErrDuelEnded
	}
	if player == "" {
		return fmt.Errorf("player name is required")
	}
	if d.TeamOf(player) != WinningTeamNone {
		return fmt.Errorf("player %s already belongs to a team", player)
	}

	switch team {
	case WinningTeamA:
		d.TeamA = append(d.TeamA, player)
	case WinningTeamB:
		d.TeamB = append(d.TeamB, player)
	default:
		return fmt.Errorf("invalid team index: %d", team)
	}

	d.Kills[player] = 0
	return nil
}

// RecordKill incrémente le compteur de kills d'un joueur.
// Les joueurs inconnus sont ignorés, le compteur ne descend jamais sous zéro.
func (d *Duel) RecordKill(killer string) error {
	if d.IsEnded() {
		return ErrDuelEnded
	}
	if !d.IsParticipant(killer) {
		return nil
	}

	d.Kills[killer]++
	return nil
}

// GetCountdown calcule le compte à rebours restant en secondes.
// Fonction pure du temps écoulé : remaining = max(0, duration - floor(elapsed)).
// Retourne CountdownNotApplicable hors de la phase de démarrage.
func (d *Duel) GetCountdown(duration int, now time.Time) int {
	if !d.InCountdown || d.State != DuelStateStarting {
		return CountdownNotApplicable
	}

	elapsed := int(now.Sub(d.StartedAt).Milliseconds() / 1000)
	remaining := duration - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Begin fait passer le duel en phase de combat
func (d *Duel) Begin() error {
	if d.State != DuelStateStarting {
		return fmt.Errorf("duel is not starting: %s", d.State)
	}

	d.State = DuelStateInProgress
	d.InCountdown = false
	return nil
}

// Finalize termine le duel et résout le gagnant.
// Un roster gagnant vide ou nul est enregistré comme une égalité.
// Un roster qui ne correspond à aucune des deux équipes est rejeté avant
// toute mutation : le duel reste vivant et inchangé.
func (d *Duel) Finalize(winningRoster []string, now time.Time) error {
	if d.IsEnded() {
		return ErrDuelEnded
	}

	if len(winningRoster) > 0 {
		team := d.TeamOf(winningRoster[0])
		if team == WinningTeamNone {
			return fmt.Errorf("winning roster member %s is not a participant", winningRoster[0])
		}
		for _, member := range winningRoster[1:] {
			if d.TeamOf(member) != team {
				return fmt.Errorf("winning roster mixes teams: %s", member)
			}
		}
	}

	d.State = DuelStateEnded
	d.InCountdown = false
	ended := now
	d.EndedAt = &ended

	if len(winningRoster) == 0 {
		d.Drawn = true
		d.Winner = nil
		d.WinningTeam = nil
		return nil
	}

	d.WinningTeam = winningRoster
	if winner := d.WinningPlayer(); winner != "" {
		d.Winner = &winner
	}

	return nil
}

// WinningTeamIndex classe le roster gagnant par rapport aux équipes A et B
func (d *Duel) WinningTeamIndex() int {
	if len(d.WinningTeam) == 0 {
		return WinningTeamNone
	}
	return d.TeamOf(d.WinningTeam[0])
}

// WinningPlayer retourne le nom du gagnant quand l'équipe gagnante
// ne compte qu'un seul membre, sinon une chaîne vide.
func (d *Duel) WinningPlayer() string {
	if len(d.WinningTeam) == 1 {
		return d.WinningTeam[0]
	}
	return ""
}

// Snapshot retourne une copie profonde du duel. Le registre expose des
// snapshots et jamais l'objet vivant : celui-ci est muté sous le verrou du
// registre pendant que les handlers sérialisent leur copie sans verrou.
func (d *Duel) Snapshot() *Duel {
	copied := *d

	if d.Winner != nil {
		winner := *d.Winner
		copied.Winner = &winner
	}
	if d.EndedAt != nil {
		ended := *d.EndedAt
		copied.EndedAt = &ended
	}

	copied.TeamA = append([]string(nil), d.TeamA...)
	copied.TeamB = append([]string(nil), d.TeamB...)
	copied.WinningTeam = append([]string(nil), d.WinningTeam...)

	copied.Kills = make(map[string]int, len(d.Kills))
	for player, kills := range d.Kills {
		copied.Kills[player] = kills
	}

	return &copied
}

// Duration calcule la durée du duel en secondes entières.
// Durée courante tant que le duel est vivant, figée une fois terminé.
func (d *Duel) Duration(now time.Time) int {
	end := now
	if d.IsEnded() && d.EndedAt != nil {
		end = *d.EndedAt
	}
	return int(end.Sub(d.StartedAt).Seconds())
}
