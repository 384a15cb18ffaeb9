// internal/service/journal_service.go
package service

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"duel/internal/config"
	"duel/internal/models"
	"duel/internal/monitoring"
	"duel/internal/repository"
)

// JournalServiceInterface définit les méthodes du registre des journaux
type JournalServiceInterface interface {
	StartLogging(duel *models.Duel) (string, error)
	StopLogging(journalID string, winningRoster []string) bool
	LogKill(journalID, victim, killer, location string)
	LogDamage(journalID, victim, attacker string, damage int, location string)
	CleanupOldLogs() (int, error)
	FinishAllLogs()

	GetReportByShortID(shortID string) (*models.JournalReportResponse, error)
	GetShortID(journalID string) string
	LiveCount() int
}

// JournalService implémente l'interface JournalServiceInterface.
// Il possède les journaux en cours, la correspondance bidirectionnelle
// short-id <-> identifiant durable, et la persistance des rapports.
type JournalService struct {
	config   *config.Config
	repo     repository.JournalRepositoryInterface
	realtime RealtimeServiceInterface

	mu          sync.Mutex
	journals    map[string]*models.DuelJournal
	shortToID   map[string]string
	idToShort   map[string]string
	nextShortID int64
}

// NewJournalService crée une nouvelle instance du registre des journaux.
// Le compteur de short-ids est réamorcé en parcourant la correspondance
// persistée : une entrée malformée est ignorée, jamais fatale.
func NewJournalService(
	cfg *config.Config,
	repo repository.JournalRepositoryInterface,
	realtime RealtimeServiceInterface,
) (JournalServiceInterface, error) {
	mapping, err := repo.LoadMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to load journal mapping: %w", err)
	}

	s := &JournalService{
		config:      cfg,
		repo:        repo,
		realtime:    realtime,
		journals:    make(map[string]*models.DuelJournal),
		shortToID:   make(map[string]string),
		idToShort:   make(map[string]string),
		nextShortID: 1,
	}

	for shortID, journalID := range mapping {
		n, err := strconv.ParseInt(shortID, 10, 64)
		if err != nil || n <= 0 {
			logrus.WithField("short_id", shortID).Warn("Skipping malformed journal short id")
			continue
		}

		s.shortToID[shortID] = journalID
		s.idToShort[journalID] = shortID
		if n >= s.nextShortID {
			s.nextShortID = n + 1
		}
	}

	logrus.WithFields(logrus.Fields{
		"mappings":      len(s.shortToID),
		"next_short_id": s.nextShortID,
	}).Info("Journal registry initialized")

	return s, nil
}

// StartLogging ouvre le journal d'un duel : rosters figés, agrégats à zéro,
// événement de début, et allocation immédiate du prochain short-id. L'écriture
// de la correspondance est synchrone, c'est le seul chemin de récupération
// après un crash.
func (s *JournalService) StartLogging(duel *models.Duel) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	journal := models.NewDuelJournal(duel, now)
	journal.Append(models.JournalEvent{
		Type:      models.JournalEventStart,
		Timestamp: now,
	})

	journalID := journal.ID.String()
	shortID := strconv.FormatInt(s.nextShortID, 10)
	s.nextShortID++

	s.shortToID[shortID] = journalID
	s.idToShort[journalID] = shortID

	if err := s.repo.SaveMapping(s.shortToID); err != nil {
		// La correspondance est le seul index de récupération, son échec
		// doit remonter au lieu d'être absorbé.
		delete(s.shortToID, shortID)
		delete(s.idToShort, journalID)
		return "", fmt.Errorf("failed to persist journal mapping: %w", err)
	}

	s.journals[journalID] = journal
	monitoring.LiveJournals.Inc()

	logrus.WithFields(logrus.Fields{
		"journal_id": journalID,
		"short_id":   shortID,
		"duel_id":    duel.ID,
	}).Info("Duel journal opened")

	s.broadcast(journal, journal.Events[0])
	return journalID, nil
}

// StopLogging ferme le journal : événement de fin avec classification de
// l'équipe gagnante, rapport persisté, puis retrait du registre vivant.
// Un échec d'écriture est signalé mais ne bloque pas le retrait, pour
// éviter l'accumulation de journaux en échec répété.
func (s *JournalService) StopLogging(journalID string, winningRoster []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	journal, ok := s.journals[journalID]
	if !ok {
		logrus.WithField("journal_id", journalID).Warn("StopLogging on unknown journal")
		return false
	}

	now := time.Now()
	ended := now
	journal.EndedAt = &ended

	event := models.JournalEvent{
		Type:      models.JournalEventEnd,
		Timestamp: now,
	}
	if len(winningRoster) > 0 {
		event.WinningTeam = winningRoster
		event.WinningTeamIndex = journal.TeamIndexOf(winningRoster[0])
		if len(winningRoster) == 1 {
			event.WinnerName = winningRoster[0]
		}
	}
	journal.Append(event)

	if err := s.repo.SaveReport(journalID, journal.RenderReport()); err != nil {
		logrus.WithError(err).WithField("journal_id", journalID).Error("Failed to persist duel report")
	}

	delete(s.journals, journalID)
	monitoring.LiveJournals.Dec()
	monitoring.JournalsClosedTotal.Inc()

	logrus.WithFields(logrus.Fields{
		"journal_id": journalID,
		"events":     len(journal.Events),
	}).Info("Duel journal closed")

	s.broadcast(journal, event)
	return true
}

// LogKill enregistre une élimination. La victime doit faire partie du
// journal ; un tueur vide représente une mort environnementale et
// l'événement est journalisé dans tous les cas.
func (s *JournalService) LogKill(journalID, victim, killer, location string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	journal, ok := s.journals[journalID]
	if !ok || !journal.HasParticipant(victim) {
		return
	}

	if killer != "" && journal.HasParticipant(killer) {
		journal.Kills[killer]++
	}

	event := models.JournalEvent{
		Type:      models.JournalEventKill,
		Timestamp: time.Now(),
		Victim:    victim,
		Killer:    killer,
		Location:  location,
	}
	journal.Append(event)
	monitoring.JournalEventsTotal.WithLabelValues(models.JournalEventKill).Inc()

	s.broadcast(journal, event)
}

// LogDamage met toujours à jour les agrégats de dégâts, mais ne journalise
// un événement qu'à partir du seuil de dégâts significatifs.
func (s *JournalService) LogDamage(journalID, victim, attacker string, damage int, location string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	journal, ok := s.journals[journalID]
	if !ok || !journal.HasParticipant(victim) {
		return
	}

	if journal.HasParticipant(attacker) {
		journal.DamageDealt[attacker] += damage
	}
	journal.DamageReceived[victim] += damage
	journal.TotalDamage += damage

	if damage < models.SignificantDamageThreshold {
		return
	}

	event := models.JournalEvent{
		Type:      models.JournalEventDamage,
		Timestamp: time.Now(),
		Victim:    victim,
		Attacker:  attacker,
		Damage:    damage,
		Location:  location,
	}
	journal.Append(event)
	monitoring.JournalEventsTotal.WithLabelValues(models.JournalEventDamage).Inc()

	s.broadcast(journal, event)
}

// CleanupOldLogs supprime les rapports plus vieux que la rétention
// configurée, retire leurs short-ids et réécrit la correspondance en une
// seule passe quel que soit le nombre d'entrées retirées.
func (s *JournalService) CleanupOldLogs() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -s.config.Journal.RetentionDays)
	removed, err := s.repo.DeleteReportsOlderThan(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep old reports: %w", err)
	}
	if len(removed) == 0 {
		return 0, nil
	}

	for _, journalID := range removed {
		if shortID, ok := s.idToShort[journalID]; ok {
			delete(s.shortToID, shortID)
			delete(s.idToShort, journalID)
		}
	}

	if err := s.repo.SaveMapping(s.shortToID); err != nil {
		return len(removed), fmt.Errorf("failed to persist journal mapping after sweep: %w", err)
	}

	logrus.WithField("removed", len(removed)).Info("Old duel reports swept")
	return len(removed), nil
}

// FinishAllLogs ferme tous les journaux encore vivants comme indéterminés.
// Appelé à l'arrêt du service pour ne perdre aucun rapport ; chaque échec
// est signalé sans interrompre la fermeture des journaux restants.
func (s *JournalService) FinishAllLogs() {
	s.mu.Lock()
	live := make([]string, 0, len(s.journals))
	for journalID := range s.journals {
		live = append(live, journalID)
	}
	s.mu.Unlock()

	for _, journalID := range live {
		if !s.StopLogging(journalID, nil) {
			logrus.WithField("journal_id", journalID).Warn("Failed to force-close journal on shutdown")
		}
	}

	if len(live) > 0 {
		logrus.WithField("journals", len(live)).Info("All live journals force-closed")
	}
}

// GetReportByShortID relit un rapport persisté via son short-id
func (s *JournalService) GetReportByShortID(shortID string) (*models.JournalReportResponse, error) {
	s.mu.Lock()
	journalID, ok := s.shortToID[shortID]
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unknown journal short id: %s", shortID)
	}

	report, err := s.repo.LoadReport(journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load report %s: %w", shortID, err)
	}

	return &models.JournalReportResponse{
		ShortID:   shortID,
		JournalID: journalID,
		Report:    report,
	}, nil
}

// GetShortID retourne le short-id d'un identifiant durable, ou une chaîne vide
func (s *JournalService) GetShortID(journalID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idToShort[journalID]
}

// LiveCount retourne le nombre de journaux en cours
func (s *JournalService) LiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.journals)
}

// broadcast diffuse un événement aux spectateurs du duel
func (s *JournalService) broadcast(journal *models.DuelJournal, event models.JournalEvent) {
	if s.realtime == nil {
		return
	}
	if err := s.realtime.BroadcastToDuel(journal.DuelID.String(), event); err != nil {
		logrus.WithError(err).Debug("Failed to broadcast journal event")
	}
}
