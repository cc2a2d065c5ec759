// Package config provides configuration management and environment variable handling for the application
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the platform
type Config struct {
	Database DatabaseConfig `json:"database"`
	Server   ServerConfig   `json:"server"`
	Security SecurityConfig `json:"security"`
	JWT      JWTConfig      `json:"jwt"`
	Vision   VisionConfig   `json:"vision"`
	LLM      LLMConfig      `json:"llm"`
	Upload   UploadConfig   `json:"upload"`
	Worker   WorkerConfig   `json:"worker"`
	Webpush  WebpushConfig  `json:"webpush"`
	Cache    CacheConfig    `json:"cache"`
	Logging  LoggingConfig  `json:"logging"`
	Metrics  MetricsConfig  `json:"metrics"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
}

// DSN builds the Postgres connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	BodyLimit       int           `json:"body_limit"`
	EnableMetrics   bool          `json:"enable_metrics"`
	ProxyHeader     string        `json:"proxy_header"`
}

type SecurityConfig struct {
	AllowedOrigins   []string      `json:"allowed_origins"`
	AllowedMethods   []string      `json:"allowed_methods"`
	AllowedHeaders   []string      `json:"allowed_headers"`
	AllowCredentials bool          `json:"allow_credentials"`
	AuthRateLimit    int           `json:"auth_rate_limit"`   // requests per window
	GlobalRateLimit  int           `json:"global_rate_limit"` // requests per window
	RateLimitWindow  time.Duration `json:"rate_limit_window"`
	PasswordMinLen   int           `json:"password_min_length"`
	BcryptCost       int           `json:"bcrypt_cost"`
}

type JWTConfig struct {
	SecretKey      string        `json:"secret_key"`
	AccessTokenTTL time.Duration `json:"access_token_ttl"`
	Issuer         string        `json:"issuer"`
	Audience       string        `json:"audience"`
}

type VisionConfig struct {
	BaseURL string        `json:"base_url"`
	APIKey  string        `json:"api_key"`
	Model   string        `json:"model"`
	Timeout time.Duration `json:"timeout"`
}

type LLMConfig struct {
	Host        string        `json:"host"`
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Timeout     time.Duration `json:"timeout"`
}

type UploadConfig struct {
	Dir               string   `json:"dir"`
	MaxFileSize       int64    `json:"max_file_size"`
	AllowedExtensions []string `json:"allowed_extensions"`
}

type WorkerConfig struct {
	PollInterval             time.Duration `json:"poll_interval"`
	TicketSpacing            time.Duration `json:"ticket_spacing"`
	BatchSize                int           `json:"batch_size"`
	EnableDuplicateDetection bool          `json:"enable_duplicate_detection"`
}

type WebpushConfig struct {
	VAPIDPublicKey  string        `json:"vapid_public_key"`
	VAPIDPrivateKey string        `json:"vapid_private_key"`
	Subscriber      string        `json:"subscriber"`
	TTL             int           `json:"ttl"`
	Timeout         time.Duration `json:"timeout"`
}

type CacheConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	StoreNameTTL time.Duration `json:"store_name_ttl"`
}

// Addr builds the Redis address
func (c CacheConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LoggingConfig struct {
	WorkerLogFile string `json:"worker_log_file"`
	MaxSizeMB     int    `json:"max_size_mb"`
	MaxBackups    int    `json:"max_backups"`
	MaxAgeDays    int    `json:"max_age_days"`
	Compress      bool   `json:"compress"`
}

type MetricsConfig struct {
	Path string `json:"path"`
}

// Load builds the configuration from environment variables, reading an
// optional .env file first
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "loyalty"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
		},
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:       getEnvInt("SERVER_BODY_LIMIT", 12*1024*1024),
			EnableMetrics:   getEnvBool("SERVER_ENABLE_METRICS", true),
			ProxyHeader:     getEnvString("SERVER_PROXY_HEADER", "X-Real-IP"),
		},
		Security: SecurityConfig{
			AllowedOrigins:   getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods:   getEnvStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization"}),
			AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", false),
			AuthRateLimit:    getEnvInt("AUTH_RATE_LIMIT", 20),
			GlobalRateLimit:  getEnvInt("GLOBAL_RATE_LIMIT", 1000),
			RateLimitWindow:  getEnvDuration("RATE_LIMIT_WINDOW", 1*time.Minute),
			PasswordMinLen:   getEnvInt("PASSWORD_MIN_LENGTH", 8),
			BcryptCost:       getEnvInt("BCRYPT_COST", 12),
		},
		JWT: JWTConfig{
			SecretKey:      getEnvString("JWT_SECRET_KEY", ""),
			AccessTokenTTL: getEnvDuration("JWT_ACCESS_TOKEN_TTL", 24*time.Hour),
			Issuer:         getEnvString("JWT_ISSUER", "loyalty-platform"),
			Audience:       getEnvString("JWT_AUDIENCE", "loyalty-platform-api"),
		},
		Vision: VisionConfig{
			BaseURL: getEnvString("VISION_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
			APIKey:  getEnvString("VISION_API_KEY", ""),
			Model:   getEnvString("VISION_MODEL", "gemini-2.0-flash"),
			Timeout: getEnvDuration("VISION_TIMEOUT", 30*time.Second),
		},
		LLM: LLMConfig{
			Host:        getEnvString("LLM_HOST", "http://localhost:11434"),
			Model:       getEnvString("LLM_MODEL", "llama3.2"),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.2),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 512),
			Timeout:     getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Upload: UploadConfig{
			Dir:               getEnvString("UPLOAD_DIR", "./uploads"),
			MaxFileSize:       int64(getEnvInt("UPLOAD_MAX_FILE_SIZE", 10*1024*1024)),
			AllowedExtensions: getEnvStringSlice("UPLOAD_ALLOWED_EXTENSIONS", []string{".jpg", ".jpeg", ".png"}),
		},
		Worker: WorkerConfig{
			PollInterval:             getEnvDuration("WORKER_POLL_INTERVAL", 30*time.Second),
			TicketSpacing:            getEnvDuration("WORKER_TICKET_SPACING", 2*time.Second),
			BatchSize:                getEnvInt("WORKER_BATCH_SIZE", 20),
			EnableDuplicateDetection: getEnvBool("ENABLE_DUPLICATE_DETECTION", true),
		},
		Webpush: WebpushConfig{
			VAPIDPublicKey:  getEnvString("VAPID_PUBLIC_KEY", ""),
			VAPIDPrivateKey: getEnvString("VAPID_PRIVATE_KEY", ""),
			Subscriber:      getEnvString("VAPID_SUBSCRIBER", "mailto:admin@localhost"),
			TTL:             getEnvInt("WEBPUSH_TTL", 60),
			Timeout:         getEnvDuration("WEBPUSH_TIMEOUT", 30*time.Second),
		},
		Cache: CacheConfig{
			Host:         getEnvString("REDIS_HOST", "localhost"),
			Port:         getEnvInt("REDIS_PORT", 6379),
			Password:     getEnvString("REDIS_PASSWORD", ""),
			DB:           getEnvInt("REDIS_DB", 0),
			StoreNameTTL: getEnvDuration("REDIS_STORE_NAME_TTL", 5*time.Minute),
		},
		Logging: LoggingConfig{
			WorkerLogFile: getEnvString("WORKER_LOG_FILE", "./logs/ticket_worker.log"),
			MaxSizeMB:     getEnvInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups:    getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays:    getEnvInt("LOG_MAX_AGE_DAYS", 30),
			Compress:      getEnvBool("LOG_COMPRESS", true),
		},
		Metrics: MetricsConfig{
			Path: getEnvString("METRICS_PATH", "/metrics"),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required configuration values
func Validate(cfg *Config) error {
	var problems []string

	if cfg.Database.Host == "" {
		problems = append(problems, "database host is required")
	}
	if cfg.Database.Name == "" {
		problems = append(problems, "database name is required")
	}
	if cfg.JWT.SecretKey == "" {
		problems = append(problems, "JWT secret key is required")
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		problems = append(problems, "server port must be between 1 and 65535")
	}
	if cfg.Worker.PollInterval <= 0 {
		problems = append(problems, "worker poll interval must be positive")
	}
	if cfg.Upload.MaxFileSize <= 0 {
		problems = append(problems, "upload max file size must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}

	return nil
}

// loadEnvFile reads a .env file in the working directory, if present
func loadEnvFile() error {
	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return nil
	}

	file, err := os.Open(envFile)
	if err != nil {
		return fmt.Errorf("failed to open .env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.Contains(line, "=") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				key := strings.TrimSpace(parts[0])
				value := strings.TrimSpace(parts[1])

				if (strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`)) ||
					(strings.HasPrefix(value, `'`) && strings.HasSuffix(value, `'`)) {
					value = value[1 : len(value)-1]
				}

				if os.Getenv(key) == "" {
					os.Setenv(key, value)
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
