package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`
	Port     string `env:"PORT" envDefault:"8080"`

	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	RedisURL    string `env:"REDIS_URL,required,notEmpty"`

	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	JWTIssuer string        `env:"JWT_ISSUER" envDefault:"wallet-profile"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`

	// пустая строка - os.TempDir()
	ExportDir          string        `env:"EXPORT_DIR"`
	ExportCleanupDelay time.Duration `env:"EXPORT_CLEANUP_DELAY" envDefault:"30s"`
	MaxUploadBytes     int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	Storage      StorageConfig      `envPrefix:"STORAGE_"`
	Verification VerificationConfig `envPrefix:"AGE_"`
}

type StorageConfig struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Region    string `env:"REGION"`
	Bucket    string `env:"BUCKET"`
	Gateway   string `env:"GATEWAY"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"true"`
}

// Enabled - без endpoint и bucket загрузка файлов выключена
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

type VerificationConfig struct {
	BaseURL   string        `env:"API_URL"`
	SDKID     string        `env:"SDK_ID"`
	KeyPath   string        `env:"KEY_PATH"`
	Threshold int           `env:"THRESHOLD" envDefault:"18"`
	Operator  string        `env:"OPERATOR" envDefault:"OVER"`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"15s"`
}

func (v VerificationConfig) Enabled() bool {
	return v.BaseURL != "" && v.SDKID != "" && v.KeyPath != ""
}

// Load читает .env.local или .env (если есть), затем переменные окружения
func Load() (*Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		_ = godotenv.Load()
	}
	return Parse()
}

func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
