// internal/models/journal.go
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SignificantDamageThreshold seuil de dégâts (6 points = 3 coeurs) à partir
// duquel un coup est journalisé comme événement
const SignificantDamageThreshold = 6

// Constants pour les types d'événements du journal
const (
	JournalEventStart  = "match_start"
	JournalEventEnd    = "match_end"
	JournalEventKill   = "player_eliminated"
	JournalEventDamage = "significant_damage"
)

// JournalEvent représente un événement horodaté du journal d'un duel
type JournalEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// PlayerEliminated / SignificantDamage
	Victim   string `json:"victim,omitempty"`
	Killer   string `json:"killer,omitempty"` // vide = mort environnementale
	Attacker string `json:"attacker,omitempty"`
	Location string `json:"location,omitempty"`
	Damage   int    `json:"damage,omitempty"`

	// MatchEnd
	WinningTeam      []string `json:"winning_team,omitempty"`
	WinningTeamIndex int      `json:"winning_team_index,omitempty"`
	WinnerName       string   `json:"winner_name,omitempty"`
}

// Describe rend l'événement sous forme lisible pour le rapport
func (e *JournalEvent) Describe() string {
	switch e.Type {
	case JournalEventStart:
		return "Match started"
	case JournalEventEnd:
		if e.WinningTeamIndex == WinningTeamNone {
			return "Match ended in a draw"
		}
		if e.WinnerName != "" {
			return fmt.Sprintf("Match won by %s", e.WinnerName)
		}
		return fmt.Sprintf("Match won by Team %d", e.WinningTeamIndex)
	case JournalEventKill:
		if e.Killer == "" {
			return fmt.Sprintf("%s died (%s)", e.Victim, e.Location)
		}
		return fmt.Sprintf("%s was eliminated by %s (%s)", e.Victim, e.Killer, e.Location)
	case JournalEventDamage:
		return fmt.Sprintf("%s took %d damage from %s (%s)", e.Victim, e.Damage, e.Attacker, e.Location)
	default:
		return e.Type
	}
}

// DuelJournal représente le journal d'événements d'un duel.
// Les rosters sont figés à la création, indépendamment des mutations
// ultérieures du duel vivant.
type DuelJournal struct {
	ID        uuid.UUID `json:"id"`
	DuelID    uuid.UUID `json:"duel_id"`
	CreatedAt string    `json:"created_at"`
	Kind      string    `json:"kind"`

	TeamA []string `json:"team_a"`
	TeamB []string `json:"team_b"`

	Events []JournalEvent `json:"events"`

	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	DamageDealt    map[string]int `json:"damage_dealt"`
	DamageReceived map[string]int `json:"damage_received"`
	Kills          map[string]int `json:"kills"`
	TotalDamage    int            `json:"total_damage"`
}

// NewDuelJournal crée un journal pour un duel, rosters figés et agrégats à zéro
func NewDuelJournal(duel *Duel, now time.Time) *DuelJournal {
	journal := &DuelJournal{
		ID:             uuid.New(),
		DuelID:         duel.ID,
		CreatedAt:      now.Format("2006-01-02"),
		Kind:           duel.Kind,
		TeamA:          append([]string(nil), duel.TeamA...),
		TeamB:          append([]string(nil), duel.TeamB...),
		StartedAt:      now,
		DamageDealt:    make(map[string]int),
		DamageReceived: make(map[string]int),
		Kills:          make(map[string]int),
	}

	for _, player := range duel.Participants() {
		journal.DamageDealt[player] = 0
		journal.DamageReceived[player] = 0
		journal.Kills[player] = 0
	}

	return journal
}

// HasParticipant vérifie qu'un joueur fait partie des rosters figés
func (j *DuelJournal) HasParticipant(player string) bool {
	_, ok := j.Kills[player]
	return ok
}

// TeamIndexOf classe un joueur par rapport aux rosters figés du journal
func (j *DuelJournal) TeamIndexOf(player string) int {
	for _, member := range j.TeamA {
		if member == player {
			return WinningTeamA
		}
	}
	for _, member := range j.TeamB {
		if member == player {
			return WinningTeamB
		}
	}
	return WinningTeamNone
}

// Append ajoute un événement au journal, dans l'ordre d'insertion
func (j *DuelJournal) Append(event JournalEvent) {
	j.Events = append(j.Events, event)
}

// Offset formate le décalage [mm:ss] d'un instant par rapport au début du match
func (j *DuelJournal) Offset(at time.Time) string {
	elapsed := int(at.Sub(j.StartedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	return fmt.Sprintf("[%02d:%02d]", elapsed/60, elapsed%60)
}

// Duration retourne la durée mm:ss du match journalisé
func (j *DuelJournal) Duration() string {
	end := j.StartedAt
	if j.EndedAt != nil {
		end = *j.EndedAt
	}
	elapsed := int(end.Sub(j.StartedAt).Seconds())
	return fmt.Sprintf("%02d:%02d", elapsed/60, elapsed%60)
}

// RenderReport sérialise le journal complet en rapport textuel persistable :
// en-tête, rosters, agrégats par joueur puis événements chronologiques.
func (j *DuelJournal) RenderReport() string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Duel Report %s ===\n", j.ID)
	fmt.Fprintf(&b, "Date: %s\n", j.CreatedAt)
	fmt.Fprintf(&b, "Kind: %s\n", j.Kind)
	fmt.Fprintf(&b, "Duration: %s\n", j.Duration())
	fmt.Fprintf(&b, "Team 1: %s\n", strings.Join(j.TeamA, ", "))
	fmt.Fprintf(&b, "Team 2: %s\n", strings.Join(j.TeamB, ", "))

	b.WriteString("\n--- Statistics ---\n")
	for _, player := range j.rosterOrder() {
		fmt.Fprintf(&b, "%s: %d kills, %d damage dealt, %d damage received\n",
			player, j.Kills[player], j.DamageDealt[player], j.DamageReceived[player])
	}
	fmt.Fprintf(&b, "Total damage: %d\n", j.TotalDamage)

	b.WriteString("\n--- Events ---\n")
	for i := range j.Events {
		event := &j.Events[i]
		fmt.Fprintf(&b, "%s %s\n", j.Offset(event.Timestamp), event.Describe())
	}

	return b.String()
}

// rosterOrder retourne les joueurs dans l'ordre des rosters figés
func (j *DuelJournal) rosterOrder() []string {
	order := make([]string, 0, len(j.TeamA)+len(j.TeamB))
	order = append(order, j.TeamA...)
	order = append(order, j.TeamB...)
	return order
}
