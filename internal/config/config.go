// Package config reads runtime settings from MUDRA_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all runtime settings.
type Config struct {
	Addr      string // HTTP listen address
	StaticDir string // web overlay client; empty disables static files

	CameraID int
	ModelPath string // SQLite model file

	DatasetPath      string // CSV export; empty disables recording
	DatasetLabel     string
	DatasetThreshold int

	ZMQEndpoint string // external landmark stream; empty disables ingest
	ZMQLogEvery int

	ViewportWidth  float64
	ViewportHeight float64

	LogDrops bool
	Tray     bool
}

// Load returns the configuration from the environment.
func Load() *Config {
	dataDir := DataDir()

	return &Config{
		Addr:      getEnv("MUDRA_ADDR", ":8080"),
		StaticDir: getEnv("MUDRA_STATIC_DIR", ""),

		CameraID:  getEnvAsInt("MUDRA_CAMERA_ID", 0),
		ModelPath: getEnv("MUDRA_MODEL_PATH", filepath.Join(dataDir, "model.db")),

		DatasetPath:      getEnv("MUDRA_DATASET_PATH", ""),
		DatasetLabel:     getEnv("MUDRA_DATASET_LABEL", "1"),
		DatasetThreshold: getEnvAsInt("MUDRA_DATASET_THRESHOLD", 2000),

		ZMQEndpoint: getEnv("MUDRA_ZMQ_ENDPOINT", ""),
		ZMQLogEvery: getEnvAsInt("MUDRA_ZMQ_LOG_EVERY", 100),

		ViewportWidth:  getEnvAsFloat("MUDRA_VIEWPORT_WIDTH", 640),
		ViewportHeight: getEnvAsFloat("MUDRA_VIEWPORT_HEIGHT", 480),

		LogDrops: getEnvAsBool("MUDRA_LOG_DROPS", false),
		Tray:     getEnvAsBool("MUDRA_TRAY", false),
	}
}

// DataDir is ~/.mudra, or .mudra in the working directory when the home
// directory is unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mudra"
	}
	return filepath.Join(home, ".mudra")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}
