package config

import (
	"os"
	"strconv"
	"strings"

	"warehouse-service/pkg/database"

	"go.uber.org/zap"
)

type Config struct {
	Port     string
	GRPCPort string
	DB       DB
	Redis    Redis
	Kafka    Kafka

	// SalesZoneID явно назначенная зона продаж; пусто — зона ищется по флагу/имени.
	SalesZoneID string
	LockTTL     int
}

type DB struct {
	database.Config
}

type Redis struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type Kafka struct {
	Brokers     []string
	EventsTopic string
}

func Load(log *zap.Logger) *Config {
	cfg := &Config{
		Port:     getEnv("APP_PORT", log),
		GRPCPort: getEnvDefault("GRPC_PORT", ":50053"),
		DB: DB{
			Config: database.Config{
				Host:     getEnv("DB_HOST", log),
				Port:     getEnv("DB_PORT", log),
				User:     getEnv("DB_USER", log),
				Password: getEnv("DB_PASSWORD", log),
				Name:     getEnv("DB_NAME", log),
				SSLMode:  getEnv("DB_SSLMODE", log),
			},
		},
		Redis: Redis{
			Enabled: os.Getenv("REDIS_ENABLED") == "true",
		},
		Kafka: Kafka{
			Brokers:     splitAndTrim(os.Getenv("KAFKA_BROKERS")),
			EventsTopic: getEnvDefault("INVENTORY_EVENTS_TOPIC", "inventory.events"),
		},
		SalesZoneID: strings.TrimSpace(os.Getenv("SALES_ZONE_ID")),
		LockTTL:     atoiDefault(os.Getenv("LOCK_TTL_SECONDS"), 10),
	}

	// Redis обязателен только когда включён
	if cfg.Redis.Enabled {
		cfg.Redis.Addr = getEnv("REDIS_ADDR", log)
		cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
		cfg.Redis.DB = atoiDefault(os.Getenv("REDIS_DB"), 0)
	}

	return cfg
}

func getEnv(key string, log *zap.Logger) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	log.Error("Обязательная переменная окружения не установлена", zap.String("key", key))
	panic("missing required environment variable: " + key)
}

func getEnvDefault(key, def string) string {
	if val, exists := os.LookupEnv(key); exists && val != "" {
		return val
	}
	return def
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(s, ",") {
		pt := strings.TrimSpace(p)
		if pt != "" {
			parts = append(parts, pt)
		}
	}
	return parts
}
