package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("APP_PORT", ":8083")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "warehouse")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "warehouse")
	t.Setenv("DB_SSLMODE", "disable")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("REDIS_ENABLED", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("GRPC_PORT", "")
	t.Setenv("SALES_ZONE_ID", "")
	t.Setenv("LOCK_TTL_SECONDS", "")

	cfg := Load(zap.NewNop())

	assert.Equal(t, ":8083", cfg.Port)
	assert.Equal(t, ":50053", cfg.GRPCPort)
	assert.Equal(t, "warehouse", cfg.DB.Name)
	assert.False(t, cfg.Redis.Enabled)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Nil(t, cfg.Kafka.Brokers)
	assert.Equal(t, "inventory.events", cfg.Kafka.EventsTopic)
	assert.Empty(t, cfg.SalesZoneID)
	assert.Equal(t, 10, cfg.LockTTL)
}

func TestLoad_Optional(t *testing.T) {
	setRequired(t)
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")
	t.Setenv("INVENTORY_EVENTS_TOPIC", "warehouse.events")
	t.Setenv("SALES_ZONE_ID", " 0b5c3c2e-7a3f-4d7e-9a51-0c1f7f2d9a11 ")
	t.Setenv("LOCK_TTL_SECONDS", "30")

	cfg := Load(zap.NewNop())

	require.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "warehouse.events", cfg.Kafka.EventsTopic)
	assert.Equal(t, "0b5c3c2e-7a3f-4d7e-9a51-0c1f7f2d9a11", cfg.SalesZoneID)
	assert.Equal(t, 30, cfg.LockTTL)
}

func TestLoad_RedisAddrRequiredWhenEnabled(t *testing.T) {
	setRequired(t)
	t.Setenv("REDIS_ENABLED", "true")
	unsetForTest(t, "REDIS_ADDR")

	assert.Panics(t, func() { Load(zap.NewNop()) })
}

func TestLoad_PanicsOnMissingRequired(t *testing.T) {
	setRequired(t)
	unsetForTest(t, "DB_HOST")

	assert.Panics(t, func() { Load(zap.NewNop()) })
}

// unsetForTest удаляет переменную; t.Setenv вернёт прежнее значение после теста.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unsetenv %s: %v", key, err)
	}
}

func TestAtoiDefault(t *testing.T) {
	assert.Equal(t, 5, atoiDefault("5", 1))
	assert.Equal(t, 1, atoiDefault("five", 1))
	assert.Equal(t, 1, atoiDefault("", 1))
}
