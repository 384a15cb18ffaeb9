// internal/repository/rivalry_repository.go
package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"duel/internal/models"
)

// Nom du fichier du registre des rivalités
const rivalryFileName = "rivalries.json"

// RivalryRepositoryInterface définit la persistance du registre des rivalités
type RivalryRepositoryInterface interface {
	Save(entries map[string]*models.RivalryEntry) error
	Load() (map[string]*models.RivalryEntry, error)
}

// RivalryRepository implémente l'interface RivalryRepositoryInterface sur un
// fichier JSON unique : table imbriquée indexée par clé de paire canonique.
type RivalryRepository struct {
	path string
}

// NewRivalryRepository crée une nouvelle instance du repository rivalités
func NewRivalryRepository(path string) (RivalryRepositoryInterface, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create rivalry directory: %w", err)
	}
	return &RivalryRepository{path: path}, nil
}

// Save réécrit le registre complet
func (r *RivalryRepository) Save(entries map[string]*models.RivalryEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rivalry ledger: %w", err)
	}

	file := filepath.Join(r.path, rivalryFileName)
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("failed to write rivalry ledger: %w", err)
	}
	return nil
}

// Load recharge le registre persisté, vide si le fichier n'existe pas encore
func (r *RivalryRepository) Load() (map[string]*models.RivalryEntry, error) {
	entries := make(map[string]*models.RivalryEntry)

	data, err := os.ReadFile(filepath.Join(r.path, rivalryFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return nil, fmt.Errorf("failed to read rivalry ledger: %w", err)
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rivalry ledger: %w", err)
	}
	return entries, nil
}
