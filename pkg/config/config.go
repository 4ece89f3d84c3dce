package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName string
	Debug   bool
	Port    string

	// Logging
	LogLevel string
	LogJSON  bool

	// Database
	DatabaseURL string

	// Polling
	BatchSize             int           // servers probed concurrently per batch
	BatchDelay            time.Duration // pause between batches within a cycle
	PollInterval          time.Duration // pause between full cycles
	ReverifyInterval      time.Duration // low-frequency liveness check for paused servers
	PauseFailureThreshold int           // consecutive failures before a server is paused
	ProbeTimeout          time.Duration

	// Console sessions
	RCONDialTimeout time.Duration
	TailBacklog     int // lines pushed when a tail session opens

	// InfluxDB (optional time-series mirror of status samples)
	InfluxDBURL    string
	InfluxDBToken  string
	InfluxDBOrg    string
	InfluxDBBucket string
}

var AppConfig *Config

// Load loads configuration from environment
func Load() *Config {
	// Load .env file if exists
	_ = godotenv.Load()

	config := &Config{
		AppName:  getEnv("APP_NAME", "BlockSpy"),
		Debug:    getEnvBool("DEBUG", false),
		Port:     getEnv("PORT", "8000"),
		LogLevel: getEnv("LOG_LEVEL", "INFO"),
		LogJSON:  getEnvBool("LOG_JSON", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		BatchSize:             getEnvInt("BATCH_SIZE", 5),
		BatchDelay:            getEnvDuration("BATCH_DELAY_SECONDS", 5),
		PollInterval:          getEnvDuration("POLL_INTERVAL_SECONDS", 20),
		ReverifyInterval:      getEnvDuration("REVERIFY_INTERVAL_SECONDS", 1800),
		PauseFailureThreshold: getEnvInt("PAUSE_FAILURE_THRESHOLD", 3),
		ProbeTimeout:          getEnvDuration("PROBE_TIMEOUT_SECONDS", 10),

		RCONDialTimeout: getEnvDuration("RCON_DIAL_TIMEOUT_SECONDS", 5),
		TailBacklog:     getEnvInt("TAIL_BACKLOG_LINES", 15),

		InfluxDBURL:    getEnv("INFLUXDB_URL", ""),
		InfluxDBToken:  getEnv("INFLUXDB_TOKEN", ""),
		InfluxDBOrg:    getEnv("INFLUXDB_ORG", "blockspy"),
		InfluxDBBucket: getEnv("INFLUXDB_BUCKET", "status_samples"),
	}

	AppConfig = config
	return config
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			log.Printf("Invalid boolean for %s, using default: %v", key, defaultValue)
			return defaultValue
		}
		return boolVal
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		intVal, err := strconv.Atoi(value)
		if err != nil {
			log.Printf("Invalid integer for %s, using default: %d", key, defaultValue)
			return defaultValue
		}
		return intVal
	}
	return defaultValue
}

func getEnvDuration(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}
