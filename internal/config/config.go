package config

import (
	"net"
	neturl "net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config centralises runtime configuration.
type Config struct {
	HTTPPort        string
	DatabaseURL     string
	JWTSecret       string
	JWTIssuer       string
	JWTExpiry       time.Duration
	AllowedOrigins  []string
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int

	// BootstrapAdminEmail and BootstrapAdminPassword create the first admin
	// account on start when both are set.
	BootstrapAdminEmail    string
	BootstrapAdminPassword string

	Log       LogConfig
	Kafka     KafkaConfig
	Telemetry TelemetryConfig
}

// LogConfig selects the zap encoder, level and optional rotating file.
type LogConfig struct {
	Level string
	// Format is "json" or "console".
	Format string
	File   string
}

// KafkaConfig enables product event publishing when Brokers is not empty.
type KafkaConfig struct {
	Brokers        []string
	ProductTopic   string
	// PublishTimeout bounds one event write, retries included.
	PublishTimeout time.Duration
}

// Enabled reports whether events should be published.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// TelemetryConfig configures trace export.
type TelemetryConfig struct {
	ServiceName string
	// OTLPEndpoint is host:port of an OTLP gRPC collector; empty disables export.
	OTLPEndpoint string
}

// Load reads configuration from an optional .env file and the environment.
// Environment variables win over the file.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("JWT_ISSUER", "catalog")
	v.SetDefault("JWT_EXPIRY", 12*time.Hour)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("HTTP_READ_TIMEOUT", 15)
	v.SetDefault("HTTP_WRITE_TIMEOUT", 15)
	v.SetDefault("HTTP_IDLE_TIMEOUT", 60)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("KAFKA_PRODUCT_TOPIC", "catalog.products")
	v.SetDefault("KAFKA_PUBLISH_TIMEOUT", 2*time.Second)
	v.SetDefault("OTEL_SERVICE_NAME", "catalog-backend")

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "loading %s", path)
		}
	}
	v.AutomaticEnv()

	httpPort := v.GetString("HTTP_PORT")
	if httpPort == "" {
		httpPort = v.GetString("PORT")
	}

	cfg := Config{
		HTTPPort:        httpPort,
		DatabaseURL:     resolveDatabaseURL(v.GetString),
		JWTSecret:       v.GetString("JWT_SECRET"),
		JWTIssuer:       v.GetString("JWT_ISSUER"),
		JWTExpiry:       v.GetDuration("JWT_EXPIRY"),
		AllowedOrigins:  splitCSV(v.GetString("CORS_ALLOWED_ORIGINS"), "*"),
		ReadTimeoutSec:  v.GetInt("HTTP_READ_TIMEOUT"),
		WriteTimeoutSec: v.GetInt("HTTP_WRITE_TIMEOUT"),
		IdleTimeoutSec:  v.GetInt("HTTP_IDLE_TIMEOUT"),

		BootstrapAdminEmail:    v.GetString("BOOTSTRAP_ADMIN_EMAIL"),
		BootstrapAdminPassword: v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),

		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
			File:   v.GetString("LOG_FILE"),
		},
		Kafka: KafkaConfig{
			Brokers:        splitCSV(v.GetString("KAFKA_BROKERS"), ""),
			ProductTopic:   v.GetString("KAFKA_PRODUCT_TOPIC"),
			PublishTimeout: v.GetDuration("KAFKA_PUBLISH_TIMEOUT"),
		},
		Telemetry: TelemetryConfig{
			ServiceName:  v.GetString("OTEL_SERVICE_NAME"),
			OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database configuration missing: provide DATABASE_URL or PG* env vars")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.JWTExpiry <= 0 {
		return Config{}, errors.Errorf("JWT_EXPIRY must be positive, got %s", cfg.JWTExpiry)
	}
	return cfg, nil
}

func splitCSV(value, fallback string) []string {
	parts := []string{}
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 && fallback != "" {
		return []string{fallback}
	}
	return parts
}

func resolveDatabaseURL(get func(string) string) string {
	for _, key := range []string{
		"DATABASE_URL",
		"DATABASE_PUBLIC_URL",
		"DATABASE_INTERNAL_URL",
		"POSTGRES_URL",
		"PGURL",
	} {
		if coerced := coerceDatabaseURL(get(key)); coerced != "" {
			return coerced
		}
	}

	for _, key := range []string{"DATABASE_URL_FILE", "PGURL_FILE"} {
		if coerced := coerceDatabaseURL(readFile(get(key))); coerced != "" {
			return coerced
		}
	}

	host := firstNonEmpty(get("PGHOST"), get("POSTGRES_HOST"), get("DATABASE_HOST"))
	user := firstNonEmpty(get("PGUSER"), get("POSTGRES_USER"), get("DATABASE_USER"))
	if host == "" || user == "" {
		return ""
	}
	password := firstNonEmpty(get("PGPASSWORD"), get("POSTGRES_PASSWORD"), get("DATABASE_PASSWORD"))
	database := firstNonEmpty(get("PGDATABASE"), get("POSTGRES_DB"), get("DATABASE_NAME"), user)
	port := firstNonEmpty(get("PGPORT"), get("POSTGRES_PORT"), get("DATABASE_PORT"), "5432")
	sslMode := firstNonEmpty(get("PGSSLMODE"), get("POSTGRES_SSL_MODE"), "require")

	dsn := &neturl.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + database,
		User:   neturl.User(user),
	}
	if password != "" {
		dsn.User = neturl.UserPassword(user, password)
	}
	query := dsn.Query()
	query.Set("sslmode", sslMode)
	dsn.RawQuery = query.Encode()

	return dsn.String()
}

func coerceDatabaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "postgres://"):
		return raw
	case strings.HasPrefix(raw, "postgresql://"):
		return "postgres://" + strings.TrimPrefix(raw, "postgresql://")
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func readFile(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
