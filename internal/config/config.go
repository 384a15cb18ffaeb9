// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config structure principale de configuration
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Database   DatabaseConfig    `mapstructure:"database"`
	JWT        JWTConfig         `mapstructure:"jwt"`
	Duel       DuelConfig        `mapstructure:"duel"`
	Journal    JournalConfig     `mapstructure:"journal"`
	Rivalry    RivalryConfig     `mapstructure:"rivalry"`
	RateLimit  RateLimitConfig   `mapstructure:"rate_limit"`
	Monitoring MonitoringConfig  `mapstructure:"monitoring"`
	Logging    LoggingConfig     `mapstructure:"logging"`
	Messages   map[string]string `mapstructure:"messages"`
}

// ServerConfig configuration du serveur HTTP
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Environment  string        `mapstructure:"environment"`
	Debug        bool          `mapstructure:"debug"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig configuration de la base de données
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// JWTConfig configuration JWT
type JWTConfig struct {
	Secret         string        `mapstructure:"secret"`
	ExpirationTime time.Duration `mapstructure:"expiration_time"`
}

// DuelConfig configuration spécifique aux duels
type DuelConfig struct {
	CountdownSeconds int           `mapstructure:"countdown_seconds"`
	TimeLimit        time.Duration `mapstructure:"time_limit"`
	MaxWager         int           `mapstructure:"max_wager"`
	MaxTeamSize      int           `mapstructure:"max_team_size"`
	CleanupInterval  time.Duration `mapstructure:"cleanup_interval"`
}

// JournalConfig configuration du journal de duels
type JournalConfig struct {
	Path          string        `mapstructure:"path"`
	RetentionDays int           `mapstructure:"retention_days"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// RivalryConfig configuration du registre des rivalités
type RivalryConfig struct {
	Path      string `mapstructure:"path"`
	Threshold int    `mapstructure:"threshold"`
}

// RateLimitConfig configuration du rate limiting
type RateLimitConfig struct {
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	BurstSize         int           `mapstructure:"burst_size"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

// MonitoringConfig configuration du monitoring
type MonitoringConfig struct {
	MetricsPath string `mapstructure:"metrics_path"`
	HealthPath  string `mapstructure:"health_path"`
}

// LoggingConfig configuration des logs
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig charge la configuration depuis les variables d'environnement
func LoadConfig() (*Config, error) {
	// Configuration par défaut
	config := &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8085,
			Environment:  "development",
			Debug:        true,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Name:            "gameserver_duel",
			User:            "postgres",
			Password:        "postgres",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300 * time.Second,
		},
		JWT: JWTConfig{
			Secret:         "your-super-secret-jwt-key-change-in-production-minimum-64-characters",
			ExpirationTime: 24 * time.Hour,
		},
		Duel: DuelConfig{
			CountdownSeconds: 5,
			TimeLimit:        300 * time.Second,
			MaxWager:         100000,
			MaxTeamSize:      4,
			CleanupInterval:  30 * time.Second,
		},
		Journal: JournalConfig{
			Path:          "data/journals",
			RetentionDays: 30,
			SweepInterval: 12 * time.Hour,
		},
		Rivalry: RivalryConfig{
			Path:      "data/rivalries",
			Threshold: 5,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 100,
			BurstSize:         20,
			CleanupInterval:   5 * time.Minute,
		},
		Monitoring: MonitoringConfig{
			MetricsPath: "/metrics",
			HealthPath:  "/health",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Messages: map[string]string{},
	}

	// Configuration Viper
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Mapping des variables d'environnement
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.environment", "SERVER_ENVIRONMENT")
	viper.BindEnv("server.debug", "SERVER_DEBUG")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")
	viper.BindEnv("database.max_open_conns", "DATABASE_MAX_OPEN_CONNS")
	viper.BindEnv("database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS")
	viper.BindEnv("database.conn_max_lifetime", "DATABASE_CONN_MAX_LIFETIME")

	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("jwt.expiration_time", "JWT_EXPIRATION_TIME")

	viper.BindEnv("duel.countdown_seconds", "DUEL_COUNTDOWN_SECONDS")
	viper.BindEnv("duel.time_limit", "DUEL_TIME_LIMIT")
	viper.BindEnv("duel.max_wager", "DUEL_MAX_WAGER")
	viper.BindEnv("duel.max_team_size", "DUEL_MAX_TEAM_SIZE")
	viper.BindEnv("duel.cleanup_interval", "DUEL_CLEANUP_INTERVAL")

	viper.BindEnv("journal.path", "JOURNAL_PATH")
	viper.BindEnv("journal.retention_days", "JOURNAL_RETENTION_DAYS")
	viper.BindEnv("journal.sweep_interval", "JOURNAL_SWEEP_INTERVAL")

	viper.BindEnv("rivalry.path", "RIVALRY_PATH")
	viper.BindEnv("rivalry.threshold", "RIVALRY_THRESHOLD")

	viper.BindEnv("rate_limit.requests_per_minute", "RATE_LIMIT_REQUESTS_PER_MINUTE")
	viper.BindEnv("rate_limit.burst_size", "RATE_LIMIT_BURST_SIZE")

	viper.BindEnv("monitoring.metrics_path", "MONITORING_METRICS_PATH")
	viper.BindEnv("monitoring.health_path", "MONITORING_HEALTH_PATH")

	viper.BindEnv("logging.level", "LOG_LEVEL")
	viper.BindEnv("logging.format", "LOG_FORMAT")

	// Charger le fichier de configuration s'il existe
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Merger avec la configuration par défaut
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Compléter les messages manquants avec leurs valeurs par défaut
	EnsureMessageDefaults(config.Messages)

	// Validation
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate valide la configuration
func (c *Config) Validate() error {
	// Validation serveur
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Validation JWT
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters long")
	}

	// Validation database
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}

	// Validation duel
	if c.Duel.CountdownSeconds <= 0 {
		return fmt.Errorf("countdown duration must be positive")
	}
	if c.Duel.TimeLimit <= 0 {
		return fmt.Errorf("duel time limit must be positive")
	}
	if c.Duel.MaxWager < 0 {
		return fmt.Errorf("max wager must not be negative")
	}

	// Validation journal
	if c.Journal.Path == "" {
		return fmt.Errorf("journal path is required")
	}
	if c.Journal.RetentionDays <= 0 {
		return fmt.Errorf("journal retention must be positive")
	}

	// Validation rivalités
	if c.Rivalry.Path == "" {
		return fmt.Errorf("rivalry path is required")
	}
	if c.Rivalry.Threshold <= 0 {
		return fmt.Errorf("rivalry threshold must be positive")
	}

	return nil
}

// GetDSN retourne la chaîne de connection PostgreSQL
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
