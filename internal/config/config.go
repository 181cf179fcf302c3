package config

import (
	"os"
	"strconv"
	"time"

	"github.com/velotrack/rides-backend-go/internal/models"
)

// Config 应用配置
type Config struct {
	Port      string
	DBPath    string
	StatePath string // badger directory for the recording-state snapshot
	JWTSecret string
	LogLevel  string

	AutoPause         models.AutoPauseConfig
	GPSUpdateInterval time.Duration // requested fix cadence, read-only for the engine
	TickInterval      time.Duration // duration recompute cadence
}

// Load 加载配置
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/rides/rides.db"
	}

	statePath := os.Getenv("STATE_PATH")
	if statePath == "" {
		statePath = "./data/rides/state"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-in-production"
	}

	autoPause := models.AutoPauseConfig{
		Enabled:          envBool("AUTO_PAUSE_ENABLED", true),
		ThresholdSeconds: envInt("AUTO_PAUSE_THRESHOLD_SECONDS", models.DefaultAutoPauseThresholdSeconds),
	}.Normalize()

	return &Config{
		Port:              port,
		DBPath:            dbPath,
		StatePath:         statePath,
		JWTSecret:         jwtSecret,
		LogLevel:          os.Getenv("LOG_LEVEL"),
		AutoPause:         autoPause,
		GPSUpdateInterval: time.Duration(envInt("GPS_UPDATE_INTERVAL_MS", 1000)) * time.Millisecond,
		TickInterval:      time.Duration(envInt("TICK_INTERVAL_MS", 1000)) * time.Millisecond,
	}
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
