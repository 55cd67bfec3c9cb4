// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Environment string `validate:"required,oneof=development staging production"`
	Server      ServerConfig
	Backend     BackendConfig
	NATS        NATSConfig
	Globe       GlobeConfig
	Log         LogConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int `validate:"min=1,max=65535"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
	RateLimit       int `validate:"min=1"`
	WebDir          string
}

// BackendConfig holds the REST backend the globe reads rooms and people from
type BackendConfig struct {
	BaseURL           string        `validate:"required,url"`
	UserID            string        `validate:"required"`
	Timeout           time.Duration `validate:"gt=0"`
	RecommendedLimit  int           `validate:"min=1"`
	BreakerMaxFailure uint32        `validate:"min=1"`
	BreakerTimeout    time.Duration `validate:"gt=0"`
}

// NATSConfig holds NATS configuration. An empty URL disables the event bus.
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
	SelectionTopic string `validate:"required"`
	GroupsTopic    string `validate:"required"`
}

// GlobeConfig holds the globe geometry and interaction constants
type GlobeConfig struct {
	NodeCount          int           `validate:"min=1"`
	Radius             float64       `validate:"gt=0"`
	ConnectionDistance float64       `validate:"gt=0"`
	NodeRadius         float64       `validate:"gt=0"`
	HitRadius          float64       `validate:"gtfield=NodeRadius"`
	DragSensitivity    float64       `validate:"gt=0"`
	TapTolerance       float64       `validate:"gte=0"`
	ScoreScale         float64       `validate:"gt=0"`
	Mode               string        `validate:"oneof=hover select"`
	FrameInterval      time.Duration `validate:"gt=0"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `validate:"oneof=trace debug info warn error fatal panic"`
	Format string `validate:"oneof=json console"`
	Caller bool
}

// Load loads configuration from environment variables, reading a .env file first when present
func Load() (Config, error) {
	if err := godotenv.Load(getEnv("ENV_FILE", ".env")); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("loading env file: %w", err)
	}

	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
			RateLimit:       getEnvAsInt("SERVER_RATE_LIMIT", 120),
			WebDir:          getEnv("SERVER_WEB_DIR", ""),
		},
		Backend: BackendConfig{
			BaseURL:           getEnv("BACKEND_BASE_URL", "http://127.0.0.1:8000"),
			UserID:            getEnv("BACKEND_USER_ID", "demo-user"),
			Timeout:           getEnvAsDuration("BACKEND_TIMEOUT", 10*time.Second),
			RecommendedLimit:  getEnvAsInt("BACKEND_RECOMMENDED_LIMIT", 12),
			BreakerMaxFailure: uint32(getEnvAsInt("BACKEND_BREAKER_MAX_FAILURES", 5)),
			BreakerTimeout:    getEnvAsDuration("BACKEND_BREAKER_TIMEOUT", 30*time.Second),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", ""),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
			SelectionTopic: getEnv("NATS_SELECTION_TOPIC", "globe.selection"),
			GroupsTopic:    getEnv("NATS_GROUPS_TOPIC", "globe.groups.updated"),
		},
		Globe: GlobeConfig{
			NodeCount:          getEnvAsInt("GLOBE_NODE_COUNT", 60),
			Radius:             getEnvAsFloat("GLOBE_RADIUS", 2),
			ConnectionDistance: getEnvAsFloat("GLOBE_CONNECTION_DISTANCE", 1.2),
			NodeRadius:         getEnvAsFloat("GLOBE_NODE_RADIUS", 0.04),
			HitRadius:          getEnvAsFloat("GLOBE_HIT_RADIUS", 0.13),
			DragSensitivity:    getEnvAsFloat("GLOBE_DRAG_SENSITIVITY", 0.004),
			TapTolerance:       getEnvAsFloat("GLOBE_TAP_TOLERANCE", 3),
			ScoreScale:         getEnvAsFloat("GLOBE_SCORE_SCALE", 1),
			Mode:               getEnv("GLOBE_MODE", "select"),
			FrameInterval:      getEnvAsDuration("GLOBE_FRAME_INTERVAL", 33*time.Millisecond),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			Caller: getEnvAsBool("LOG_CALLER", false),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if config.Environment == "production" && len(config.Server.CorsOrigins) == 1 && config.Server.CorsOrigins[0] == "*" {
		return fmt.Errorf("cors origins must be restricted in production")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
