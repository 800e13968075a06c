package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN            string
	HTTPAddr         string
	Environment      string
	JWTSecret        string
	TimeZone         string
	DispatchToken    string
	DispatchInterval time.Duration
	SendTimeout      time.Duration

	SMTPAddr     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		DBDSN:         os.Getenv("DB_DSN"),
		HTTPAddr:      os.Getenv("HTTP_ADDR"),
		Environment:   os.Getenv("ENV"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TimeZone:      os.Getenv("TIME_ZONE"),
		DispatchToken: os.Getenv("DISPATCH_TOKEN"),
		SMTPAddr:      os.Getenv("SMTP_ADDR"),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:      os.Getenv("SMTP_FROM"),
	}

	// Устанавливаем дефолтные значения
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = "UTC"
	}

	var err error
	cfg.DispatchInterval, err = durationEnv("DISPATCH_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.SendTimeout, err = durationEnv("SEND_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	// The dispatcher must run at a cadence no coarser than the
	// one-minute reminder windows, or stages get skipped. Non-positive
	// intervals cannot drive a ticker at all.
	if cfg.DispatchInterval <= 0 || cfg.DispatchInterval > time.Minute {
		return nil, fmt.Errorf("DISPATCH_INTERVAL must be between 0 and 1m, got %s", cfg.DispatchInterval)
	}

	log.Printf("Config loaded\n")

	return cfg, nil
}

// Location разбирает настроенный часовой пояс
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("parse TIME_ZONE: %w", err)
	}
	return loc, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
