package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"duel/internal/config"
	"duel/internal/database"
	"duel/internal/handlers"
	"duel/internal/middleware"
	"duel/internal/monitoring"
	"duel/internal/repository"
	"duel/internal/service"
)

// Version du service (à définir lors du build)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Initialisation du logger
	initLogger()

	logrus.WithFields(logrus.Fields{
		"service":    "duel",
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("⚔️  Starting Duel Service...")

	// Chargement de la configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatal("Failed to load config: ", err)
	}

	// Connexion à la base de données
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logrus.Fatal("Failed to connect to database: ", err)
	}
	defer db.Close()

	// Exécution des migrations
	if err := database.RunMigrations(db); err != nil {
		logrus.Fatal("Failed to run migrations: ", err)
	}

	// Initialisation des repositories
	journalRepo, err := repository.NewJournalRepository(cfg.Journal.Path)
	if err != nil {
		logrus.Fatal("Failed to initialize journal repository: ", err)
	}
	rivalryRepo, err := repository.NewRivalryRepository(cfg.Rivalry.Path)
	if err != nil {
		logrus.Fatal("Failed to initialize rivalry repository: ", err)
	}
	statsRepo := repository.NewStatsRepository(db)

	// Initialisation des services
	realtimeService := service.NewRealtimeService()
	journalService, err := service.NewJournalService(cfg, journalRepo, realtimeService)
	if err != nil {
		logrus.Fatal("Failed to initialize journal service: ", err)
	}
	rivalryService, err := service.NewRivalryService(cfg, rivalryRepo)
	if err != nil {
		logrus.Fatal("Failed to initialize rivalry service: ", err)
	}
	duelService := service.NewDuelService(cfg, journalService, rivalryService, statsRepo)

	// Démarrage des routines d'entretien
	duelService.StartTimeoutRoutine()
	startJournalSweepRoutine(cfg, journalService)

	// Initialisation du monitoring
	metrics := monitoring.NewMetrics()
	healthChecker := monitoring.NewHealthChecker(db)

	// Initialisation des handlers
	duelHandler := handlers.NewDuelHandler(duelService, cfg)
	journalHandler := handlers.NewJournalHandler(journalService, cfg)
	rivalryHandler := handlers.NewRivalryHandler(rivalryService, cfg)
	statsHandler := handlers.NewStatsHandler(statsRepo, cfg)
	wsHandler := handlers.NewWebSocketHandler(realtimeService, duelService, cfg)

	// Configuration du mode Gin
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Configuration des routes
	router := setupRoutes(duelHandler, journalHandler, rivalryHandler, statsHandler, wsHandler, healthChecker, metrics, cfg)

	// Configuration du serveur HTTP
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Démarrage du serveur en arrière-plan
	go func() {
		logrus.WithFields(logrus.Fields{
			"host": cfg.Server.Host,
			"port": cfg.Server.Port,
			"env":  cfg.Server.Environment,
		}).Info("⚔️  Duel Service started successfully")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatal("Failed to start server: ", err)
		}
	}()

	// Gestion gracieuse de l'arrêt
	gracefulShutdown(server, duelService, journalService, realtimeService)
}

// setupRoutes configure toutes les routes du service Duel
func setupRoutes(
	duelHandler *handlers.DuelHandler,
	journalHandler *handlers.JournalHandler,
	rivalryHandler *handlers.RivalryHandler,
	statsHandler *handlers.StatsHandler,
	wsHandler *handlers.WebSocketHandler,
	healthChecker *monitoring.HealthChecker,
	metrics *monitoring.Metrics,
	cfg *config.Config,
) *gin.Engine {
	router := gin.New()

	// Middleware globaux
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(metrics.Middleware())

	// Rate limiting global si configuré
	if cfg.RateLimit.RequestsPerMinute > 0 {
		router.Use(middleware.RateLimit(cfg.RateLimit))
	}

	// Routes de santé et monitoring (sans auth)
	router.GET(cfg.Monitoring.HealthPath, healthChecker.HealthCheck)
	router.GET("/ready", healthChecker.ReadinessCheck)
	router.GET("/live", healthChecker.LivenessCheck)
	router.GET(cfg.Monitoring.MetricsPath, gin.WrapH(metrics.Handler()))

	// Spectateurs WebSocket (le JWT est vérifié à l'upgrade)
	ws := router.Group("/ws")
	ws.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		ws.GET("/duels/:id", wsHandler.SpectateDuel)
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Routes protégées (authentification JWT requise)
		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			// Registre des duels
			duels := protected.Group("/duels")
			{
				duels.POST("", duelHandler.CreateDuel)
				duels.GET("", duelHandler.ListDuels)
				duels.GET("/:id", duelHandler.GetDuel)
				duels.GET("/:id/countdown", duelHandler.GetCountdown)
				duels.PUT("/:id/start", duelHandler.StartCombat)
				duels.POST("/:id/kill", duelHandler.HandleKill)
				duels.POST("/:id/damage", duelHandler.HandleDamage)
				duels.PUT("/:id/end", duelHandler.EndDuel)
				duels.POST("/:id/forfeit", duelHandler.Forfeit)
			}
			protected.GET("/players/:player/duel", duelHandler.GetDuelByPlayer)

			// Journaux de duel
			protected.GET("/journals/:shortId/report", journalHandler.GetReport)

			// Rivalités
			protected.GET("/rivalries/:player", rivalryHandler.GetPlayerRivalries)
			protected.GET("/rivalries/:player/:other", rivalryHandler.GetRivalry)

			// Statistiques persistées
			protected.GET("/stats/:player", statsHandler.GetPlayerStats)
			protected.GET("/leaderboard", statsHandler.GetLeaderboard)

			// Routes admin
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole("admin", "moderator"))
			{
				admin.POST("/journals/cleanup", journalHandler.CleanupOldReports)
			}
		}
	}

	return router
}

// startJournalSweepRoutine purge périodiquement les rapports expirés
func startJournalSweepRoutine(cfg *config.Config, journalService service.JournalServiceInterface) {
	go func() {
		ticker := time.NewTicker(cfg.Journal.SweepInterval)
		defer ticker.Stop()

		for range ticker.C {
			if _, err := journalService.CleanupOldLogs(); err != nil {
				logrus.WithError(err).Error("Journal sweep failed")
			}
		}
	}()

	logrus.WithFields(logrus.Fields{
		"interval":       cfg.Journal.SweepInterval,
		"retention_days": cfg.Journal.RetentionDays,
	}).Info("Journal sweep routine started")
}

// initLogger initialise le système de logging
func initLogger() {
	// Configuration du format de log selon l'environnement
	if os.Getenv("SERVER_ENVIRONMENT") == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logrus.SetLevel(logrus.DebugLevel)
	}

	logrus.SetOutput(os.Stdout)
}

// gracefulShutdown gère l'arrêt gracieux du service
func gracefulShutdown(
	server *http.Server,
	duelService service.DuelServiceInterface,
	journalService service.JournalServiceInterface,
	realtimeService service.RealtimeServiceInterface,
) {
	// Canal pour recevoir les signaux d'interruption
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Attendre le signal
	<-quit
	logrus.Info("⚔️  Duel Service is shutting down...")

	// Timeout pour l'arrêt gracieux
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Arrêter les nouvelles connexions
	if err := server.Shutdown(ctx); err != nil {
		logrus.Fatal("Server forced to shutdown: ", err)
	}

	// Arrêter les routines d'entretien
	duelService.Stop()

	// Fermer et persister tous les journaux encore vivants
	if live := journalService.LiveCount(); live > 0 {
		logrus.WithField("live_journals", live).Warn("Shutting down with live journals")
	}
	journalService.FinishAllLogs()

	// Couper les connexions spectateur
	realtimeService.Stop()

	logrus.Info("⚔️  Duel Service stopped gracefully")
}
