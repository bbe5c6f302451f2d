package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	DataDir     string
	CatalogFile string
	OverlayDir  string
	ScriptsDir  string
	SharedDir   string
	NetworkName string
	JwtSecret   string

	// Health-check wait tuning.
	HealthIntervalSeconds int
	HealthAttempts        int
	StopTimeoutSeconds    int
}

// Load loads configuration from environment variables
// Automatically loads .env file if present
func Load() *Config {
	// Try to load .env file (fail silently if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		DataDir:               getEnv("DATA_DIR", "/var/lib/playground"),
		CatalogFile:           getEnv("CATALOG_FILE", "/etc/playground/images.yml"),
		OverlayDir:            getEnv("OVERLAY_DIR", "/etc/playground/images.d"),
		ScriptsDir:            getEnv("SCRIPTS_DIR", "/etc/playground/scripts"),
		SharedDir:             getEnv("SHARED_DIR", "/var/lib/playground/shared"),
		NetworkName:           getEnv("NETWORK_NAME", "playground-network"),
		JwtSecret:             getEnv("JWT_SECRET", ""),
		HealthIntervalSeconds: getEnvInt("HEALTH_CHECK_INTERVAL", 2),
		HealthAttempts:        getEnvInt("HEALTH_CHECK_ATTEMPTS", 30),
		StopTimeoutSeconds:    getEnvInt("STOP_TIMEOUT", 10),
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
