// internal/database/migrations.go
package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Migration 1: Table des statistiques de duel par joueur
const createDuelStatsTable = `
CREATE TABLE IF NOT EXISTS duel_stats (
    player VARCHAR(100) PRIMARY KEY,
    rating INTEGER NOT NULL DEFAULT 1000,
    wins INTEGER NOT NULL DEFAULT 0,
    losses INTEGER NOT NULL DEFAULT 0,
    draws INTEGER NOT NULL DEFAULT 0,
    kills INTEGER NOT NULL DEFAULT 0,
    damage_dealt INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
);`

// Migration 2: Table de l'historique des duels terminés
const createDuelHistoryTable = `
CREATE TABLE IF NOT EXISTS duel_history (
    id UUID PRIMARY KEY,
    kind VARCHAR(20) NOT NULL CHECK (kind IN ('arena', 'arena_kit', 'local', 'local_kit', 'team')),
    player1 VARCHAR(100) NOT NULL,
    player2 VARCHAR(100) NOT NULL,
    winner VARCHAR(100),
    drawn BOOLEAN NOT NULL DEFAULT false,
    wager INTEGER NOT NULL DEFAULT 0,
    started_at TIMESTAMP WITH TIME ZONE NOT NULL,
    ended_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT different_players CHECK (player1 != player2)
);`

// Migration 3: Index pour les requêtes d'historique par joueur
const createDuelHistoryIndexes = `
CREATE INDEX IF NOT EXISTS idx_duel_history_player1 ON duel_history(player1);
CREATE INDEX IF NOT EXISTS idx_duel_history_player2 ON duel_history(player2);
CREATE INDEX IF NOT EXISTS idx_duel_stats_rating ON duel_stats(rating DESC);`

// RunMigrations exécute les migrations du service duel
func RunMigrations(db *DB) error {
	migrations := []struct {
		name  string
		query string
	}{
		{"duel_stats", createDuelStatsTable},
		{"duel_history", createDuelHistoryTable},
		{"indexes", createDuelHistoryIndexes},
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration.query); err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.name, err)
		}
		logrus.WithField("migration", migration.name).Debug("Migration applied")
	}

	logrus.Info("Database migrations completed")
	return nil
}
