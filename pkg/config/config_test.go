package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 200, cfg.Shifts.MaxEvents)
	assert.True(t, decimal.RequireFromString("0.9").Equal(cfg.Orders.MinWeightDifferencePercentage))
	assert.True(t, decimal.RequireFromString("0.1").Equal(cfg.Orders.SystemTaxRate))
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoad_EnvTienePrioridad(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ORDER_SYSTEM_TAX_RATE", "0.19")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, decimal.RequireFromString("0.19").Equal(cfg.Orders.SystemTaxRate))
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
}

func TestLoad_DriverDesconocido(t *testing.T) {
	t.Setenv("DB_DRIVER", "mongo")
	_, err := Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w/rd", DBName: "marketplace", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5432/marketplace?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
