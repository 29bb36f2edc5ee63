package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const ServiceName = "storefront"

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

var AppEnv Config

type Config struct {
	Port              string
	AppEnv            string
	LogLevel          string
	MongoURI          string
	DBName            string
	StoreDriver       string
	MongoTransactions bool
	JWTSecret         string
	RequestTimeout    time.Duration
	EventBuffer       int
	HeartbeatInterval time.Duration
	AllowedOrigins    []string
	KafkaBrokers      []string
	KafkaTopic        string
	OtelEndpoint      string
	OtelAuthHeader    string
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		AppEnv:            getEnvOrDefault("APP_ENV", "development"),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		MongoURI:          getEnvOrDefault("MONGO_URI", ""),
		DBName:            getEnvOrDefault("DB_NAME", "storefront"),
		StoreDriver:       strings.ToLower(getEnvOrDefault("STORE_DRIVER", DriverMongo)),
		MongoTransactions: getBoolEnv("MONGO_TRANSACTIONS", false),
		JWTSecret:         getEnvOrDefault("JWT_SECRET", ""),
		RequestTimeout:    getDurationEnv("REQUEST_TIMEOUT", 5, time.Second),
		EventBuffer:       getIntEnv("EVENT_BUFFER", 64),
		HeartbeatInterval: getDurationEnv("HEARTBEAT_INTERVAL", 15, time.Second),
		AllowedOrigins:    getListEnv("ALLOWED_ORIGINS"),
		KafkaBrokers:      getListEnv("KAFKA_BROKERS"),
		KafkaTopic:        getEnvOrDefault("KAFKA_TOPIC", "storefront-events"),
		OtelEndpoint:      getEnvOrDefault("OTEL_ENDPOINT", ""),
		OtelAuthHeader:    getEnvOrDefault("OTEL_AUTH_HEADER", ""),
	}
	return AppEnv
}

func (c Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required when STORE_DRIVER=mongo"))
		}
	case DriverMemory:
	default:
		errs = append(errs, errors.New("STORE_DRIVER must be mongo or memory"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	return errors.Join(errs...)
}

func (c Config) Production() bool {
	return c.AppEnv == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
