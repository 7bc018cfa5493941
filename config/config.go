package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string `env:"SERVER_PORT" envDefault:":3000"`
	Env        string `env:"ENV" envDefault:"dev"`
	BaseURL    string `env:"BASE_URL" envDefault:"http://localhost:5173"`

	DatabaseDSN string `env:"DATABASE_DSN,required"`

	AccessSecret  string        `env:"ACCESS_SECRET,required"`
	RefreshSecret string        `env:"REFRESH_SECRET,required"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`

	OTPLength    int           `env:"OTP_LENGTH" envDefault:"6"`
	VerifyOTPTTL time.Duration `env:"VERIFY_OTP_TTL" envDefault:"15m"`
	ResetOTPTTL  time.Duration `env:"RESET_OTP_TTL" envDefault:"30m"`

	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	KafkaBroker   string `env:"KAFKA_BROKER"`
	KafkaTopic    string `env:"KAFKA_TOPIC" envDefault:"mail-events"`
	KafkaUsername string `env:"KAFKA_USERNAME"`
	KafkaPassword string `env:"KAFKA_PASSWORD"`

	// Seed admin, created on startup when no account with this email exists.
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

func LoadConfig() (Config, error) {
	if os.Getenv("ENV") != "prod" {
		// .env is optional outside prod
		_ = godotenv.Overload()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}
