package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort         string
	AppMode         string
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPort          string
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisDB         int
	BrokerBackend   string
	DeliveryTimeout time.Duration
	ReaperInterval  time.Duration
	StaleAfter      time.Duration
}

// Broker backends selectable via BROKER_BACKEND.
const (
	BrokerMemory = "memory"
	BrokerRedis  = "redis"
)

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:         getEnv("APP_PORT", "8000"),
		AppMode:         getEnv("APP_MODE", "debug"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", "postgres"),
		DBName:          getEnv("DB_NAME", "cryptex"),
		DBPort:          getEnv("DB_PORT", "5432"),
		RedisHost:       getEnv("REDIS_HOST", "localhost"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvAsInt("REDIS_DB", 0),
		BrokerBackend:   getEnv("BROKER_BACKEND", BrokerMemory),
		DeliveryTimeout: getEnvAsDuration("DELIVERY_TIMEOUT", 5*time.Second),
		ReaperInterval:  getEnvAsDuration("REAPER_INTERVAL", time.Minute),
		StaleAfter:      getEnvAsDuration("STALE_AFTER", 10*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
