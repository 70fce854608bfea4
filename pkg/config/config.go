package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App    AppConfig
	DB     DBConfig
	JWT    JWTConfig
	HTTP   HTTPConfig
	Kafka  KafkaConfig
	Orders OrdersConfig
	Shifts ShiftsConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de persistencia.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	Driver      string // postgres | memory
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración de JWT.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// KafkaConfig broker de eventos. Sin brokers los eventos solo se registran en el log.
type KafkaConfig struct {
	Brokers            []string
	TopicPrefix        string
	OutboxPollInterval int // milisegundos
	OutboxBatchSize    int
}

// Enabled indica si hay brokers configurados.
func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

// OrdersConfig parámetros del ciclo de vida de pedidos.
type OrdersConfig struct {
	MinWeightDifferencePercentage decimal.Decimal
	SystemTaxRate                 decimal.Decimal
}

// ShiftsConfig parámetros de turnos.
type ShiftsConfig struct {
	MaxEvents int
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JWT_SECRET, KAFKA_BROKERS, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	tolerance, err := getDecimal(v, "ORDER_MIN_WEIGHT_DIFFERENCE_PERCENTAGE", "0.9")
	if err != nil {
		return nil, err
	}
	taxRate, err := getDecimal(v, "ORDER_SYSTEM_TAX_RATE", "0.1")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "marketplace-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			Driver:      getString(v, "DB_DRIVER", "postgres"),
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "marketplace"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "marketplace-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Kafka: KafkaConfig{
			Brokers:            splitCSV(getString(v, "KAFKA_BROKERS", "")),
			TopicPrefix:        getString(v, "KAFKA_TOPIC_PREFIX", "marketplace"),
			OutboxPollInterval: getInt(v, "OUTBOX_POLL_INTERVAL_MS", 1000),
			OutboxBatchSize:    getInt(v, "OUTBOX_BATCH_SIZE", 100),
		},
		Orders: OrdersConfig{
			MinWeightDifferencePercentage: tolerance,
			SystemTaxRate:                 taxRate,
		},
		Shifts: ShiftsConfig{
			MaxEvents: getInt(v, "SHIFT_MAX_EVENTS", 200),
		},
	}
	if cfg.DB.Driver != "postgres" && cfg.DB.Driver != "memory" {
		return nil, fmt.Errorf("config: DB_DRIVER desconocido %q", cfg.DB.Driver)
	}
	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getDecimal(v *viper.Viper, key, def string) (decimal.Decimal, error) {
	raw := getString(v, key, def)
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("config: %s inválido: %w", key, err)
	}
	return d, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
