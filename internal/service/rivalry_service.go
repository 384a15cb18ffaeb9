// internal/service/rivalry_service.go
package service

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"duel/internal/config"
	"duel/internal/models"
	"duel/internal/monitoring"
	"duel/internal/repository"
)

// RivalryServiceInterface définit les méthodes du registre des rivalités
type RivalryServiceInterface interface {
	RecordOutcome(playerA, playerB, winner string) (bool, error)
	IsRivalry(playerA, playerB string) bool
	GetSummary(playerA, playerB string) *models.RivalrySummary
	GetPlayerRivalries(player string) []*models.RivalrySummary
	GetWins(player, opponent string) int
	GetTotalDuels(playerA, playerB string) int
	GetLastWinner(playerA, playerB string) string
}

// RivalryService implémente l'interface RivalryServiceInterface.
// Les écritures sont conditionnées : le registre n'est réécrit que si au
// moins un champ a réellement changé, les lectures ne déclenchent jamais d'I/O.
type RivalryService struct {
	config *config.Config
	repo   repository.RivalryRepositoryInterface

	mu      sync.Mutex
	entries map[string]*models.RivalryEntry
}

// NewRivalryService crée une nouvelle instance du registre des rivalités,
// rechargé depuis le registre persisté
func NewRivalryService(cfg *config.Config, repo repository.RivalryRepositoryInterface) (RivalryServiceInterface, error) {
	entries, err := repo.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load rivalry ledger: %w", err)
	}

	logrus.WithField("rivalries", len(entries)).Info("Rivalry ledger initialized")

	return &RivalryService{
		config:  cfg,
		repo:    repo,
		entries: entries,
	}, nil
}

// RecordOutcome enregistre le résultat d'un duel entre deux joueurs.
// Retourne true uniquement lors du passage du seuil de rivalité, c'est-à-dire
// exactement une fois sur le duel qui franchit le seuil. Un vainqueur vide
// (match indéterminé) ne modifie ni compteurs ni historique.
func (s *RivalryService) RecordOutcome(playerA, playerB, winner string) (bool, error) {
	if playerA == "" || playerB == "" || playerA == playerB {
		return false, fmt.Errorf("invalid rivalry pair: %q vs %q", playerA, playerB)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.RivalryPairKey(playerA, playerB)
	entry, ok := s.entries[key]
	changed := false
	if !ok {
		entry = models.NewRivalryEntry(playerA, playerB)
		s.entries[key] = entry
		changed = true
	}

	wasRivalry := s.meetsThreshold(entry)

	if entry.RecordWin(winner) {
		changed = true
	}

	if changed {
		if err := s.repo.Save(s.entries); err != nil {
			logrus.WithError(err).WithField("pair", key).Error("Failed to persist rivalry ledger")
		}
	}

	isRivalry := s.meetsThreshold(entry)
	becameRival := !wasRivalry && isRivalry
	if becameRival {
		monitoring.RivalriesFormedTotal.Inc()
		logrus.WithFields(logrus.Fields{
			"pair":  key,
			"duels": entry.TotalDuels(),
		}).Info("Rivalry threshold crossed")
	}

	return becameRival, nil
}

// IsRivalry indique si une paire a atteint le seuil de rivalité.
// Symétrique : IsRivalry(a, b) == IsRivalry(b, a).
func (s *RivalryService) IsRivalry(playerA, playerB string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[models.RivalryPairKey(playerA, playerB)]
	return ok && s.meetsThreshold(entry)
}

// GetSummary retourne le résumé d'une paire, vierge si aucune entrée
func (s *RivalryService) GetSummary(playerA, playerB string) *models.RivalrySummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[models.RivalryPairKey(playerA, playerB)]
	if !ok {
		entry = models.NewRivalryEntry(playerA, playerB)
	}
	return s.summarize(entry)
}

// GetPlayerRivalries retourne les rivalités actives d'un joueur :
// les paires où il apparaît et dont le seuil est atteint
func (s *RivalryService) GetPlayerRivalries(player string) []*models.RivalrySummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	rivalries := make([]*models.RivalrySummary, 0)
	for _, entry := range s.entries {
		if entry.Involves(player) && s.meetsThreshold(entry) {
			rivalries = append(rivalries, s.summarize(entry))
		}
	}
	return rivalries
}

// GetWins retourne le nombre de victoires d'un joueur contre un adversaire
func (s *RivalryService) GetWins(player, opponent string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[models.RivalryPairKey(player, opponent)]
	if !ok {
		return 0
	}
	return entry.Wins(player)
}

// GetTotalDuels retourne le nombre total de duels enregistrés pour une paire
func (s *RivalryService) GetTotalDuels(playerA, playerB string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[models.RivalryPairKey(playerA, playerB)]
	if !ok {
		return 0
	}
	return entry.TotalDuels()
}

// GetLastWinner retourne le vainqueur le plus récent d'une paire
func (s *RivalryService) GetLastWinner(playerA, playerB string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[models.RivalryPairKey(playerA, playerB)]
	if !ok {
		return ""
	}
	return entry.LastWinner()
}

// meetsThreshold vérifie le seuil de rivalité sur le total de duels
func (s *RivalryService) meetsThreshold(entry *models.RivalryEntry) bool {
	return entry.TotalDuels() >= s.config.Rivalry.Threshold
}

// summarize construit le résumé API d'une entrée
func (s *RivalryService) summarize(entry *models.RivalryEntry) *models.RivalrySummary {
	return &models.RivalrySummary{
		PlayerA:    entry.PlayerA,
		PlayerB:    entry.PlayerB,
		WinsA:      entry.WinsA,
		WinsB:      entry.WinsB,
		TotalDuels: entry.TotalDuels(),
		LastWinner: entry.LastWinner(),
		IsRivalry:  s.meetsThreshold(entry),
	}
}
