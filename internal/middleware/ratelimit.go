// internal/middleware/ratelimit.go
package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"duel/internal/config"
)

// duelClient associe un limiteur à sa dernière activité pour l'éviction
type duelClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limite le débit des requêtes de duel par client.
// Un client est l'IP seule, ou l'IP plus l'identifiant JWT une fois
// authentifié, pour que deux joueurs derrière la même IP ne partagent
// pas leur budget.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*duelClient
	config  config.RateLimitConfig
}

// NewRateLimiter crée un nouveau limiteur de débit
func NewRateLimiter(config config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*duelClient),
		config:  config,
	}

	go rl.evictIdleClients()

	return rl
}

// allow consomme un jeton du budget d'un client
func (rl *RateLimiter) allow(clientID string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	client, exists := rl.clients[clientID]
	if !exists {
		client = &duelClient{
			limiter: rate.NewLimiter(
				rate.Every(time.Minute/time.Duration(rl.config.RequestsPerMinute)),
				rl.config.BurstSize,
			),
		}
		rl.clients[clientID] = client
	}
	client.lastSeen = time.Now()

	return client.limiter.Allow(), int(client.limiter.Tokens())
}

// evictIdleClients retire les clients silencieux depuis un cycle complet
func (rl *RateLimiter) evictIdleClients() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		threshold := time.Now().Add(-rl.config.CleanupInterval)

		rl.mu.Lock()
		for clientID, client := range rl.clients {
			if client.lastSeen.Before(threshold) {
				delete(rl.clients, clientID)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit middleware de limitation de débit des requêtes de duel
func RateLimit(config config.RateLimitConfig) gin.HandlerFunc {
	limiter := NewRateLimiter(config)

	return func(c *gin.Context) {
		clientID := c.ClientIP()
		if userID, exists := c.Get("user_id"); exists {
			clientID = fmt.Sprintf("%s_%s", clientID, userID)
		}

		allowed, remaining := limiter.allow(clientID)
		if !allowed {
			logrus.WithFields(logrus.Fields{
				"client_id":  clientID,
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
				"request_id": c.GetHeader("X-Request-ID"),
			}).Warn("Duel rate limit exceeded")

			c.Header("X-Rate-Limit-Remaining", "0")
			c.Header("Retry-After", "60")
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"message":     "Too many duel requests, please slow down",
				"retry_after": 60,
				"request_id":  c.GetHeader("X-Request-ID"),
			})
			c.Abort()
			return
		}

		c.Header("X-Rate-Limit-Remaining", fmt.Sprintf("%d", remaining))
		c.Next()
	}
}

// RequestID middleware pour générer un ID unique par requête
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("duel-%d", time.Now().UnixNano())
		}

		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}
