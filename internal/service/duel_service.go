// internal/service/duel_service.go
package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"duel/internal/config"
	"duel/internal/models"
	"duel/internal/monitoring"
	"duel/internal/repository"
)

// DuelServiceInterface définit les méthodes du registre des duels
type DuelServiceInterface interface {
	CreateDuel(req *models.CreateDuelRequest) (*models.Duel, error)
	GetDuel(id uuid.UUID) (*models.Duel, error)
	GetDuelByPlayer(player string) (*models.Duel, error)
	ListDuels() []*models.Duel
	GetCountdown(id uuid.UUID) (int, error)
	StartCombat(id uuid.UUID) error

	HandleKill(id uuid.UUID, victim, killer, location string) error
	HandleDamage(id uuid.UUID, victim, attacker string, damage int, location string) error
	EndDuel(id uuid.UUID, winningRoster []string) (*models.Duel, error)
	Forfeit(id uuid.UUID, player string) (*models.Duel, error)

	LiveCount() int
	StartTimeoutRoutine()
	Stop()
}

// DuelService implémente l'interface DuelServiceInterface.
// Il possède tous les duels vivants, indexés par identifiant et par
// participant, et orchestre journal, rivalités et statistiques à la fin
// d'un duel.
type DuelService struct {
	config  *config.Config
	journal JournalServiceInterface
	rivalry RivalryServiceInterface
	stats   repository.StatsRepositoryInterface

	mu          sync.RWMutex
	duels       map[uuid.UUID]*models.Duel
	byPlayer    map[string]uuid.UUID
	journalIDs  map[uuid.UUID]string
	damageDealt map[uuid.UUID]map[string]int

	stop chan struct{}
}

// NewDuelService crée une nouvelle instance du registre des duels
func NewDuelService(
	cfg *config.Config,
	journal JournalServiceInterface,
	rivalry RivalryServiceInterface,
	stats repository.StatsRepositoryInterface,
) DuelServiceInterface {
	return &DuelService{
		config:      cfg,
		journal:     journal,
		rivalry:     rivalry,
		stats:       stats,
		duels:       make(map[uuid.UUID]*models.Duel),
		byPlayer:    make(map[string]uuid.UUID),
		journalIDs:  make(map[uuid.UUID]string),
		damageDealt: make(map[uuid.UUID]map[string]int),
		stop:        make(chan struct{}),
	}
}

// validKinds types de duel acceptés
var validKinds = map[string]bool{
	models.DuelKindArena:    true,
	models.DuelKindArenaKit: true,
	models.DuelKindLocal:    true,
	models.DuelKindLocalKit: true,
	models.DuelKindTeam:     true,
}

// CreateDuel crée un duel et ouvre son journal. Échoue si l'un des
// participants est déjà engagé dans un duel vivant. Un duel dont le journal
// n'a pas pu être ouvert se joue quand même, sans journalisation.
func (s *DuelService) CreateDuel(req *models.CreateDuelRequest) (*models.Duel, error) {
	if !validKinds[req.Kind] {
		return nil, fmt.Errorf("unknown duel kind: %s", req.Kind)
	}
	if req.Wager > s.config.Duel.MaxWager {
		return nil, fmt.Errorf("wager %d exceeds maximum %d", req.Wager, s.config.Duel.MaxWager)
	}

	duel, err := models.NewDuel(req.Player1, req.Player2, req.Kind, req.Wager, time.Now())
	if err != nil {
		return nil, err
	}

	if req.Kind == models.DuelKindTeam {
		if err := s.fillTeams(duel, req); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, player := range duel.Participants() {
		if _, busy := s.byPlayer[player]; busy {
			return nil, fmt.Errorf("player %s is already in a duel", player)
		}
	}

	s.duels[duel.ID] = duel
	for _, player := range duel.Participants() {
		s.byPlayer[player] = duel.ID
	}
	s.damageDealt[duel.ID] = make(map[string]int)

	journalID, err := s.journal.StartLogging(duel)
	if err != nil {
		// Journalisation indisponible : le duel continue sans journal
		logrus.WithError(err).WithField("duel_id", duel.ID).Warn("Duel will not be journaled")
	} else {
		s.journalIDs[duel.ID] = journalID
	}

	monitoring.DuelsStartedTotal.WithLabelValues(duel.Kind).Inc()
	monitoring.LiveDuels.Inc()

	logrus.WithFields(logrus.Fields{
		"duel_id": duel.ID,
		"player1": duel.Player1,
		"player2": duel.Player2,
		"kind":    duel.Kind,
		"wager":   duel.Wager,
	}).Info("Duel created")

	return duel.Snapshot(), nil
}

// fillTeams complète les rosters d'un duel par équipes
func (s *DuelService) fillTeams(duel *models.Duel, req *models.CreateDuelRequest) error {
	for _, member := range req.TeamA {
		if member == req.Player1 {
			continue
		}
		if err := duel.AddTeamMember(member, models.WinningTeamA); err != nil {
			return err
		}
	}
	for _, member := range req.TeamB {
		if member == req.Player2 {
			continue
		}
		if err := duel.AddTeamMember(member, models.WinningTeamB); err != nil {
			return err
		}
	}

	if len(duel.TeamA) > s.config.Duel.MaxTeamSize || len(duel.TeamB) > s.config.Duel.MaxTeamSize {
		return fmt.Errorf("team size exceeds maximum %d", s.config.Duel.MaxTeamSize)
	}
	return nil
}

// GetDuel récupère un snapshot du duel vivant d'un identifiant.
// Les lectures ne retournent jamais l'objet vivant : il est muté sous le
// verrou du registre et les appelants sérialisent hors verrou.
func (s *DuelService) GetDuel(id uuid.UUID) (*models.Duel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	duel, ok := s.duels[id]
	if !ok {
		return nil, fmt.Errorf("duel not found: %s", id)
	}
	return duel.Snapshot(), nil
}

// GetDuelByPlayer récupère un snapshot du duel vivant d'un participant
func (s *DuelService) GetDuelByPlayer(player string) (*models.Duel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byPlayer[player]
	if !ok {
		return nil, fmt.Errorf("player %s is not in a duel", player)
	}
	return s.duels[id].Snapshot(), nil
}

// ListDuels retourne un snapshot de tous les duels vivants
func (s *DuelService) ListDuels() []*models.Duel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	duels := make([]*models.Duel, 0, len(s.duels))
	for _, duel := range s.duels {
		duels = append(duels, duel.Snapshot())
	}
	return duels
}

// GetCountdown calcule le compte à rebours restant d'un duel
func (s *DuelService) GetCountdown(id uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	duel, ok := s.duels[id]
	if !ok {
		return models.CountdownNotApplicable, fmt.Errorf("duel not found: %s", id)
	}
	return duel.GetCountdown(s.config.Duel.CountdownSeconds, time.Now()), nil
}

// StartCombat fait passer un duel en phase de combat
func (s *DuelService) StartCombat(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	duel, ok := s.duels[id]
	if !ok {
		return fmt.Errorf("duel not found: %s", id)
	}
	if err := duel.Begin(); err != nil {
		return err
	}

	logrus.WithField("duel_id", id).Info("Duel combat started")
	return nil
}

// HandleKill traite une élimination : compteur du duel puis journal
func (s *DuelService) HandleKill(id uuid.UUID, victim, killer, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	duel, ok := s.duels[id]
	if !ok {
		return fmt.Errorf("duel not found: %s", id)
	}
	if err := duel.RecordKill(killer); err != nil {
		return err
	}

	if journalID, ok := s.journalIDs[id]; ok {
		s.journal.LogKill(journalID, victim, killer, location)
	}
	return nil
}

// HandleDamage traite un coup porté : cumul du registre puis journal
func (s *DuelService) HandleDamage(id uuid.UUID, victim, attacker string, damage int, location string) error {
	if damage < 0 {
		return fmt.Errorf("damage must not be negative: %d", damage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	duel, ok := s.duels[id]
	if !ok {
		return fmt.Errorf("duel not found: %s", id)
	}
	if duel.IsEnded() {
		return models.ErrDuelEnded
	}

	if duel.IsParticipant(attacker) {
		s.damageDealt[id][attacker] += damage
	}

	if journalID, ok := s.journalIDs[id]; ok {
		s.journal.LogDamage(journalID, victim, attacker, damage, location)
	}
	return nil
}

// EndDuel termine un duel : résolution du gagnant, fermeture du journal,
// enregistrement de la rivalité, statistiques, puis éviction du registre.
// L'état en mémoire fait foi : un échec de persistance est signalé mais
// n'empêche pas la résolution du duel.
func (s *DuelService) EndDuel(id uuid.UUID, winningRoster []string) (*models.Duel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endDuelLocked(id, winningRoster)
}

// endDuelLocked termine un duel, verrou déjà détenu
func (s *DuelService) endDuelLocked(id uuid.UUID, winningRoster []string) (*models.Duel, error) {
	duel, ok := s.duels[id]
	if !ok {
		return nil, fmt.Errorf("duel not found: %s", id)
	}

	if err := duel.Finalize(winningRoster, time.Now()); err != nil {
		return nil, err
	}

	if journalID, ok := s.journalIDs[id]; ok {
		s.journal.StopLogging(journalID, winningRoster)
	}

	s.recordRivalry(duel)
	s.persistStats(duel, s.damageDealt[id])
	s.evict(duel)

	monitoring.LiveDuels.Dec()
	monitoring.DuelsEndedTotal.WithLabelValues(duel.Kind, endResult(duel)).Inc()

	logrus.WithFields(logrus.Fields{
		"duel_id":  id,
		"drawn":    duel.Drawn,
		"winner":   duel.WinningPlayer(),
		"duration": duel.Duration(time.Now()),
	}).Info("Duel ended")

	return duel.Snapshot(), nil
}

// Forfeit termine un duel par abandon : l'équipe adverse gagne
func (s *DuelService) Forfeit(id uuid.UUID, player string) (*models.Duel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	duel, ok := s.duels[id]
	if !ok {
		return nil, fmt.Errorf("duel not found: %s", id)
	}

	var winningRoster []string
	switch duel.TeamOf(player) {
	case models.WinningTeamA:
		winningRoster = duel.TeamB
	case models.WinningTeamB:
		winningRoster = duel.TeamA
	default:
		return nil, fmt.Errorf("player %s is not in duel %s", player, id)
	}

	logrus.WithFields(logrus.Fields{
		"duel_id": id,
		"player":  player,
	}).Info("Duel forfeited")

	return s.endDuelLocked(id, winningRoster)
}

// LiveCount retourne le nombre de duels vivants
func (s *DuelService) LiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.duels)
}

// StartTimeoutRoutine démarre la routine qui termine en égalité les duels
// dont la limite de temps configurée est dépassée
func (s *DuelService) StartTimeoutRoutine() {
	go func() {
		ticker := time.NewTicker(s.config.Duel.CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.expireOverdueDuels()
			case <-s.stop:
				return
			}
		}
	}()

	logrus.WithField("time_limit", s.config.Duel.TimeLimit).Info("Duel timeout routine started")
}

// Stop arrête la routine de timeout
func (s *DuelService) Stop() {
	close(s.stop)
}

// expireOverdueDuels termine en égalité les duels trop longs
func (s *DuelService) expireOverdueDuels() {
	now := time.Now()
	limit := int(s.config.Duel.TimeLimit.Seconds())

	s.mu.Lock()
	overdue := make([]uuid.UUID, 0)
	for id, duel := range s.duels {
		if duel.Duration(now) >= limit {
			overdue = append(overdue, id)
		}
	}

	for _, id := range overdue {
		if _, err := s.endDuelLocked(id, nil); err != nil {
			logrus.WithError(err).WithField("duel_id", id).Warn("Failed to expire overdue duel")
		} else {
			logrus.WithField("duel_id", id).Info("Duel time limit expired, recorded as draw")
		}
	}
	s.mu.Unlock()
}

// recordRivalry enregistre le résultat entre les deux chefs d'équipe.
// Le vainqueur transmis est le chef de l'équipe gagnante, nul en cas
// d'égalité ou de résultat indéterminé.
func (s *DuelService) recordRivalry(duel *models.Duel) {
	winner := ""
	switch duel.WinningTeamIndex() {
	case models.WinningTeamA:
		winner = duel.Player1
	case models.WinningTeamB:
		winner = duel.Player2
	}

	becameRival, err := s.rivalry.RecordOutcome(duel.Player1, duel.Player2, winner)
	if err != nil {
		logrus.WithError(err).WithField("duel_id", duel.ID).Error("Failed to record rivalry outcome")
		return
	}
	if becameRival {
		logrus.WithFields(logrus.Fields{
			"player1": duel.Player1,
			"player2": duel.Player2,
		}).Info("New rivalry formed")
	}
}

// persistStats met à jour les statistiques persistées de chaque participant.
// Le rating n'est ajusté que pour les duels singuliers, entre les deux chefs.
func (s *DuelService) persistStats(duel *models.Duel, damage map[string]int) {
	if s.stats == nil {
		return
	}

	winningIndex := duel.WinningTeamIndex()

	ratingChanges := s.singularRatingChanges(duel)

	for _, player := range duel.Participants() {
		stats, err := s.stats.GetPlayerStats(player)
		if err != nil {
			logrus.WithError(err).WithField("player", player).Error("Failed to load player stats")
			continue
		}

		switch {
		case duel.Drawn:
			stats.Draws++
		case duel.TeamOf(player) == winningIndex:
			stats.Wins++
		default:
			stats.Losses++
		}

		stats.Kills += duel.Kills[player]
		stats.DamageDealt += damage[player]
		stats.Rating += ratingChanges[player]

		if err := s.stats.UpsertPlayerStats(stats); err != nil {
			logrus.WithError(err).WithField("player", player).Error("Failed to persist player stats")
		}
	}

	entry := &models.DuelHistoryEntry{
		ID:        duel.ID.String(),
		Kind:      duel.Kind,
		Player1:   duel.Player1,
		Player2:   duel.Player2,
		Winner:    duel.Winner,
		Drawn:     duel.Drawn,
		Wager:     duel.Wager,
		StartedAt: duel.StartedAt,
		EndedAt:   duel.EndedAt,
	}
	if err := s.stats.InsertHistory(entry); err != nil {
		logrus.WithError(err).WithField("duel_id", duel.ID).Error("Failed to persist duel history")
	}
}

// singularRatingChanges calcule les ajustements de rating d'un duel 1c1
func (s *DuelService) singularRatingChanges(duel *models.Duel) map[string]int {
	changes := make(map[string]int)
	if duel.Drawn || len(duel.TeamA) != 1 || len(duel.TeamB) != 1 {
		return changes
	}

	winner := duel.WinningPlayer()
	if winner == "" {
		return changes
	}
	loser := duel.Player1
	if winner == duel.Player1 {
		loser = duel.Player2
	}

	winnerStats, err := s.stats.GetPlayerStats(winner)
	if err != nil {
		return changes
	}
	loserStats, err := s.stats.GetPlayerStats(loser)
	if err != nil {
		return changes
	}

	changes[winner] = winnerStats.GetRatingChange(loserStats.Rating, true)
	changes[loser] = loserStats.GetRatingChange(winnerStats.Rating, false)
	return changes
}

// evict retire un duel résolu du registre vivant
func (s *DuelService) evict(duel *models.Duel) {
	delete(s.duels, duel.ID)
	delete(s.journalIDs, duel.ID)
	delete(s.damageDealt, duel.ID)
	for _, player := range duel.Participants() {
		delete(s.byPlayer, player)
	}
}

// endResult étiquette le résultat d'un duel pour les métriques
func endResult(duel *models.Duel) string {
	if duel.Drawn {
		return "draw"
	}
	return "win"
}
