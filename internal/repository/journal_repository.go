// internal/repository/journal_repository.go
package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Nom du fichier de correspondance short-id -> identifiant durable
const mappingFileName = "journals.idx"

// JournalRepositoryInterface définit la persistance des journaux de duel
type JournalRepositoryInterface interface {
	SaveReport(journalID string, report string) error
	LoadReport(journalID string) (string, error)
	DeleteReportsOlderThan(cutoff time.Time) ([]string, error)
	SaveMapping(mapping map[string]string) error
	LoadMapping() (map[string]string, error)
}

// JournalRepository implémente l'interface JournalRepositoryInterface
// sur des fichiers plats : un rapport texte par journal, plus un fichier
// de correspondance "shortId=journalId" rechargeable après redémarrage.
type JournalRepository struct {
	path string
}

// NewJournalRepository crée une nouvelle instance du repository journal
func NewJournalRepository(path string) (JournalRepositoryInterface, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}
	return &JournalRepository{path: path}, nil
}

// SaveReport persiste le rapport textuel d'un journal
func (r *JournalRepository) SaveReport(journalID string, report string) error {
	file := r.reportFile(journalID)
	if err := os.WriteFile(file, []byte(report), 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", journalID, err)
	}
	return nil
}

// LoadReport relit un rapport persisté par identifiant durable
func (r *JournalRepository) LoadReport(journalID string) (string, error) {
	data, err := os.ReadFile(r.reportFile(journalID))
	if err != nil {
		return "", fmt.Errorf("failed to read report %s: %w", journalID, err)
	}
	return string(data), nil
}

// DeleteReportsOlderThan supprime les rapports dont la date de dernière
// modification précède le seuil et retourne leurs identifiants durables.
func (r *JournalRepository) DeleteReportsOlderThan(cutoff time.Time) ([]string, error) {
	entries, err := os.ReadDir(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal directory: %w", err)
	}

	removed := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logrus.WithError(err).WithField("file", entry.Name()).Warn("Failed to stat report file")
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(r.path, entry.Name())); err != nil {
			logrus.WithError(err).WithField("file", entry.Name()).Warn("Failed to delete old report")
			continue
		}
		removed = append(removed, strings.TrimSuffix(entry.Name(), ".txt"))
	}

	return removed, nil
}

// SaveMapping réécrit le fichier de correspondance en une seule passe
func (r *JournalRepository) SaveMapping(mapping map[string]string) error {
	shortIDs := make([]string, 0, len(mapping))
	for shortID := range mapping {
		shortIDs = append(shortIDs, shortID)
	}
	sort.Strings(shortIDs)

	var b strings.Builder
	for _, shortID := range shortIDs {
		fmt.Fprintf(&b, "%s=%s\n", shortID, mapping[shortID])
	}

	file := filepath.Join(r.path, mappingFileName)
	if err := os.WriteFile(file, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write journal mapping: %w", err)
	}
	return nil
}

// LoadMapping recharge la correspondance short-id -> identifiant durable.
// Les entrées malformées sont ignorées, jamais fatales.
func (r *JournalRepository) LoadMapping() (map[string]string, error) {
	mapping := make(map[string]string)

	data, err := os.ReadFile(filepath.Join(r.path, mappingFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return mapping, nil
		}
		return nil, fmt.Errorf("failed to read journal mapping: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			logrus.WithField("line", line).Warn("Skipping malformed journal mapping entry")
			continue
		}
		mapping[parts[0]] = parts[1]
	}

	return mapping, nil
}

// reportFile retourne le chemin du fichier de rapport d'un journal
func (r *JournalRepository) reportFile(journalID string) string {
	return filepath.Join(r.path, journalID+".txt")
}
