package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StoreDynamoDB = "dynamodb"
)

// Auth providers
const (
	AuthLocal    = "local"
	AuthSupabase = "supabase"
)

// Metrics sinks
const (
	MetricsPrometheus = "prometheus"
	MetricsCloudWatch = "cloudwatch"
	MetricsNone       = "none"
)

const devJWTSecret = "ideatracker-dev-secret"

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`
	LogLevel      string `yaml:"log_level"`

	// Storage
	StoreBackend     string        `yaml:"store_backend"`
	SQLitePath       string        `yaml:"sqlite_path"`
	AWSRegion        string        `yaml:"aws_region"`
	DynamoDBTable    string        `yaml:"dynamodb_table"`
	DynamoDBEndpoint string        `yaml:"dynamodb_endpoint"`
	StoreTimeout     time.Duration `yaml:"store_timeout"`
	QueryCacheTTL    time.Duration `yaml:"query_cache_ttl"`
	EventBusName     string        `yaml:"event_bus_name"`

	// Authentication
	AuthProvider         string        `yaml:"auth_provider"`
	JWTSecret            string        `yaml:"jwt_secret"`
	JWTIssuer            string        `yaml:"jwt_issuer"`
	SessionTTL           time.Duration `yaml:"session_ttl"`
	SessionSettleTimeout time.Duration `yaml:"session_settle_timeout"`
	SupabaseURL          string        `yaml:"supabase_url"`
	SupabaseKey          string        `yaml:"supabase_key"`
	LoginRateLimit       int           `yaml:"login_rate_limit"`
	APIRateLimit         int           `yaml:"api_rate_limit"`
	SecureCookies        bool          `yaml:"secure_cookies"`

	// Lambda configuration
	IsLambda           bool   `yaml:"-"`
	LambdaFunctionName string `yaml:"-"`

	// Feature flags
	MetricsSink   string   `yaml:"metrics_sink"`
	EnableTracing bool     `yaml:"enable_tracing"`
	EnableCORS    bool     `yaml:"enable_cors"`
	CORSOrigins   []string `yaml:"cors_origins"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		ServerAddress:        ":8080",
		Environment:          "development",
		LogLevel:             "info",
		StoreBackend:         StoreSQLite,
		SQLitePath:           "ideatracker.db",
		AWSRegion:            "us-west-2",
		DynamoDBTable:        "ideatracker",
		QueryCacheTTL:        30 * time.Second,
		AuthProvider:         AuthLocal,
		JWTIssuer:            "ideatracker",
		SessionTTL:           7 * 24 * time.Hour,
		SessionSettleTimeout: 2 * time.Second,
		LoginRateLimit:       10,
		APIRateLimit:         100,
		MetricsSink:          MetricsPrometheus,
		EnableCORS:           true,
		CORSOrigins:          []string{"*"},
	}
}

// LoadConfig loads configuration from the optional YAML file named by
// IDEAS_CONFIG_PATH and then from environment variables.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("IDEAS_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if cfg.JWTSecret == "" && !cfg.IsProduction() && cfg.AuthProvider == AuthLocal {
		cfg.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", c.StoreBackend))
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", c.DynamoDBEndpoint)
	c.StoreTimeout = getEnvDuration("STORE_TIMEOUT", c.StoreTimeout)
	c.QueryCacheTTL = getEnvDuration("QUERY_CACHE_TTL", c.QueryCacheTTL)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	c.AuthProvider = strings.ToLower(getEnv("AUTH_PROVIDER", c.AuthProvider))
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.SessionTTL = getEnvDuration("SESSION_TTL", c.SessionTTL)
	c.SessionSettleTimeout = getEnvDuration("SESSION_SETTLE_TIMEOUT", c.SessionSettleTimeout)
	c.SupabaseURL = getEnv("SUPABASE_URL", c.SupabaseURL)
	c.SupabaseKey = getEnv("SUPABASE_KEY", c.SupabaseKey)
	c.LoginRateLimit = getEnvInt("LOGIN_RATE_LIMIT", c.LoginRateLimit)
	c.APIRateLimit = getEnvInt("API_RATE_LIMIT", c.APIRateLimit)
	c.SecureCookies = getEnvBool("SECURE_COOKIES", c.SecureCookies)

	c.LambdaFunctionName = getEnv("AWS_LAMBDA_FUNCTION_NAME", "")
	c.IsLambda = c.LambdaFunctionName != ""

	c.MetricsSink = strings.ToLower(getEnv("METRICS_SINK", c.MetricsSink))
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = splitList(origins)
	}
}

// Validate checks that the configuration is consistent
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory, StoreSQLite:
	case StoreDynamoDB:
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	if c.StoreBackend == StoreSQLite && c.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
	}

	switch c.AuthProvider {
	case AuthLocal:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for local auth")
		}
	case AuthSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required for supabase auth")
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}

	switch c.MetricsSink {
	case MetricsPrometheus, MetricsCloudWatch, MetricsNone:
	default:
		return fmt.Errorf("unknown METRICS_SINK %q", c.MetricsSink)
	}

	if c.IsProduction() && c.JWTSecret == devJWTSecret {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.SessionSettleTimeout <= 0 {
		return fmt.Errorf("SESSION_SETTLE_TIMEOUT must be positive")
	}
	if c.LoginRateLimit <= 0 || c.APIRateLimit <= 0 {
		return fmt.Errorf("rate limits must be positive")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
