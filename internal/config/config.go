package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends selectable through STORE_BACKEND.
const (
	BackendPostgres    = "postgres"
	BackendWooCommerce = "woocommerce"
	BackendMemory      = "memory"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config captures runtime configuration for the bridge service.
type Config struct {
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Store       StoreConfig
	WooCommerce WooCommerceConfig
	Auth        AuthConfig
	MCP         MCPConfig
	Events      EventsConfig
	Telemetry   TelemetryConfig
	Service     ServiceConfig
}

type HTTPConfig struct {
	Port          int
	MetricsPath   string
	BasePath      string
	ShutdownGrace int
}

type DatabaseConfig struct {
	URL            string
	AutoMigrate    bool
	MigrationsPath string
	IdempotencyTTL time.Duration
}

type StoreConfig struct {
	Backend         string
	TrackingEnabled bool
	// MemorySeedPath points at a JSON document loaded into the memory backend at startup.
	MemorySeedPath  string
}

type WooCommerceConfig struct {
	StoreURL       string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
	ChromeTLS      bool
}

// AuthConfig holds the marketplace shared secret. APIKeySecret is a Secret Manager
// version name and, when set, takes precedence over APIKey.
type AuthConfig struct {
	APIKey       string
	APIKeySecret string
	GCPProject   string
}

type MCPConfig struct {
	Enabled bool
	Path    string
}

// EventsConfig selects where order events go. An empty WebhookURL logs them instead.
type EventsConfig struct {
	WebhookURL string
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	OTelInsecure  bool
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	defaultHTTPPort            = 8080
	defaultMetricsPath         = "/metrics"
	defaultBasePath            = "/wp-json/mainstem/v1"
	defaultShutdownGrace       = 15
	defaultMigrationsPath      = "migrations"
	defaultIdempotencyTTLHours = 24
	defaultStoreBackend        = BackendPostgres
	defaultWooTimeout          = 15 * time.Second
	defaultMCPPath             = "/mcp"
	defaultServiceName         = "mainstem-bridge"
	defaultServiceVersion      = "0.1.0"
	defaultEnvironment         = "development"
	defaultLogLevel            = "info"
	defaultOTelSampleRate      = 1.0
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	dbCfg, err := loadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("loading database config: %w", err)
	}

	wooCfg, err := loadWooCommerceConfig()
	if err != nil {
		return nil, fmt.Errorf("loading WooCommerce config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	cfg := &Config{
		HTTP:        httpCfg,
		Database:    dbCfg,
		Store:       loadStoreConfig(),
		WooCommerce: wooCfg,
		Auth: AuthConfig{
			APIKey:       os.Getenv("MAINSTEM_API_KEY"),
			APIKeySecret: os.Getenv("MAINSTEM_API_KEY_SECRET"),
			GCPProject:   os.Getenv("GCP_PROJECT"),
		},
		MCP: MCPConfig{
			Enabled: getBoolEnv("MCP_ENABLED", false),
			Path:    normalizePath(getEnvOrDefault("MCP_PATH", defaultMCPPath)),
		},
		Events: EventsConfig{
			WebhookURL: os.Getenv("EVENTS_WEBHOOK_URL"),
		},
		Telemetry: telCfg,
		Service:   loadServiceConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements that defaults cannot satisfy.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendPostgres, BackendMemory:
	case BackendWooCommerce:
		if c.WooCommerce.StoreURL == "" || c.WooCommerce.ConsumerKey == "" || c.WooCommerce.ConsumerSecret == "" {
			return fmt.Errorf("%w: WOOCOMMERCE_STORE_URL, WOOCOMMERCE_CONSUMER_KEY and WOOCOMMERCE_CONSUMER_SECRET are required for the woocommerce backend", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown STORE_BACKEND %q", ErrInvalidConfig, c.Store.Backend)
	}

	if c.Store.MemorySeedPath != "" && c.Store.Backend != BackendMemory {
		return fmt.Errorf("%w: MEMORY_SEED_PATH requires STORE_BACKEND=memory", ErrInvalidConfig)
	}

	if c.Auth.APIKey == "" && c.Auth.APIKeySecret == "" {
		return fmt.Errorf("%w: MAINSTEM_API_KEY or MAINSTEM_API_KEY_SECRET is required", ErrInvalidConfig)
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("%w: API_HTTP_PORT %d out of range", ErrInvalidConfig, c.HTTP.Port)
	}
	return nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port, err := getIntEnv("API_HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return HTTPConfig{}, err
	}

	shutdownGrace, err := getIntEnv("API_SHUTDOWN_GRACE_SECONDS", defaultShutdownGrace)
	if err != nil {
		return HTTPConfig{}, err
	}

	return HTTPConfig{
		Port:          port,
		MetricsPath:   normalizePath(getEnvOrDefault("API_METRICS_PATH", defaultMetricsPath)),
		BasePath:      normalizePath(getEnvOrDefault("API_BASE_PATH", defaultBasePath)),
		ShutdownGrace: shutdownGrace,
	}, nil
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	}

	ttlHours, err := getIntEnv("IDEMPOTENCY_TTL_HOURS", defaultIdempotencyTTLHours)
	if err != nil {
		return DatabaseConfig{}, err
	}

	return DatabaseConfig{
		URL:            databaseURL,
		AutoMigrate:    getBoolEnv("AUTO_MIGRATE", true),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
		IdempotencyTTL: time.Duration(ttlHours) * time.Hour,
	}, nil
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		Backend:         strings.ToLower(getEnvOrDefault("STORE_BACKEND", defaultStoreBackend)),
		TrackingEnabled: getBoolEnv("SHIPMENT_TRACKING_ENABLED", true),
		MemorySeedPath:  os.Getenv("MEMORY_SEED_PATH"),
	}
}

func loadWooCommerceConfig() (WooCommerceConfig, error) {
	timeoutSeconds, err := getIntEnv("WOOCOMMERCE_TIMEOUT_SECONDS", int(defaultWooTimeout/time.Second))
	if err != nil {
		return WooCommerceConfig{}, err
	}

	return WooCommerceConfig{
		StoreURL:       strings.TrimRight(os.Getenv("WOOCOMMERCE_STORE_URL"), "/"),
		ConsumerKey:    os.Getenv("WOOCOMMERCE_CONSUMER_KEY"),
		ConsumerSecret: os.Getenv("WOOCOMMERCE_CONSUMER_SECRET"),
		Timeout:        time.Duration(timeoutSeconds) * time.Second,
		ChromeTLS:      getBoolEnv("WOOCOMMERCE_CHROME_TLS", false),
	}, nil
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	// Signals default to on only when there is a collector to send them to.
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

	return TelemetryConfig{
		LogLevel:      getEnvOrDefault("LOG_LEVEL", defaultLogLevel),
		OTelEndpoint:  endpoint,
		OTelInsecure:  getBoolEnv("OTEL_EXPORTER_OTLP_INSECURE", true),
		EnableTracing: getBoolEnv("OTEL_ENABLE_TRACING", endpoint != ""),
		EnableMetrics: getBoolEnv("OTEL_ENABLE_METRICS", endpoint != ""),
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func buildDatabaseURL() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "mainstem")
	sslMode := getEnvOrDefault("DB_SSLMODE", "disable")

	maxConns := getEnvOrDefault("DB_MAX_CONNS", "25")
	minConns := getEnvOrDefault("DB_MIN_CONNS", "5")
	maxLifetime := getEnvOrDefault("DB_MAX_CONN_LIFETIME", "5m")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s&pool_min_conns=%s&pool_max_conn_lifetime=%s",
		user, password, host, port, dbName, sslMode, maxConns, minConns, maxLifetime,
	)
}

// normalizePath ensures a leading slash and strips trailing ones.
func normalizePath(path string) string {
	path = "/" + strings.Trim(strings.TrimSpace(path), "/")
	return path
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getBoolEnv(key string, defaultValue bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
