// internal/service/realtime.go
package service

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// RealtimeServiceInterface définit les méthodes du service temps réel
type RealtimeServiceInterface interface {
	BroadcastToDuel(duelID string, message interface{}) error
	AddConnection(conn *websocket.Conn, duelID string) error
	RemoveConnection(conn *websocket.Conn) error
	Stop() error
}

// RealtimeService implémente l'interface RealtimeServiceInterface.
// Chaque connexion WebSocket est abonnée aux événements d'un duel.
type RealtimeService struct {
	mu          sync.Mutex
	connections map[*websocket.Conn]string
}

// NewRealtimeService crée une nouvelle instance du service temps réel
func NewRealtimeService() RealtimeServiceInterface {
	return &RealtimeService{
		connections: make(map[*websocket.Conn]string),
	}
}

// BroadcastToDuel diffuse un message aux spectateurs d'un duel
func (s *RealtimeService) BroadcastToDuel(duelID string, message interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn, subscribed := range s.connections {
		if subscribed != duelID {
			continue
		}
		if err := conn.WriteJSON(message); err != nil {
			logrus.WithError(err).WithField("duel_id", duelID).Debug("Dropping broken spectator connection")
			conn.Close()
			delete(s.connections, conn)
		}
	}
	return nil
}

// AddConnection abonne une connexion WebSocket à un duel
func (s *RealtimeService) AddConnection(conn *websocket.Conn, duelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connections[conn] = duelID
	logrus.WithField("duel_id", duelID).Info("Spectator connection added")
	return nil
}

// RemoveConnection désabonne une connexion WebSocket
func (s *RealtimeService) RemoveConnection(conn *websocket.Conn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if duelID, exists := s.connections[conn]; exists {
		delete(s.connections, conn)
		logrus.WithField("duel_id", duelID).Info("Spectator connection removed")
	}
	return nil
}

// Stop ferme toutes les connexions
func (s *RealtimeService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.connections {
		conn.Close()
	}
	s.connections = make(map[*websocket.Conn]string)

	logrus.Info("Realtime service stopped")
	return nil
}
