package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	SupabaseURL     string        `env:"SUPABASE_URL,required,notEmpty"`
	SupabaseAnonKey string        `env:"SUPABASE_ANON_KEY,required,notEmpty"`
	ServiceRoleKey  string        `env:"SUPABASE_SERVICE_ROLE_KEY"`
	SecretKey       string        `env:"SUPABASE_SECRET_KEY"`
	SessionSecret   string        `env:"SESSION_SECRET_KEY,required,notEmpty"`
	AdminEmail      string        `env:"ADMIN_EMAIL,required,notEmpty"`
	BaseURL         string        `env:"BASE_URL" envDefault:"http://localhost:5000"`
	Port            string        `env:"PORT" envDefault:"5000"`
	MongoURI        string        `env:"MONGO_URI,required,notEmpty"`
	DBName          string        `env:"DB_NAME" envDefault:"storefront"`
	SessionBackend  string        `env:"SESSION_BACKEND" envDefault:"mongo"`
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	CookieSecure    bool          `env:"COOKIE_SECURE" envDefault:"false"`
	UploadsDir      string        `env:"UPLOADS_DIR" envDefault:"./frontend/uploads"`
	IDPTimeout      time.Duration `env:"IDP_TIMEOUT" envDefault:"0s"`
	GinMode         string        `env:"GIN_MODE"`
}

// Load reads .env (optional) and the process environment into AppEnv.
func Load() error {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}

	cfg, err := Parse()
	if err != nil {
		return err
	}
	AppEnv = cfg
	return nil
}

// Parse builds a Config from the current environment without touching AppEnv.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if strings.TrimSpace(cfg.ServiceRoleKey) == "" {
		cfg.ServiceRoleKey = strings.TrimSpace(cfg.SecretKey)
	}
	if cfg.ServiceRoleKey == "" {
		return Config{}, errors.New("missing SUPABASE_SERVICE_ROLE_KEY or SUPABASE_SECRET_KEY")
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.AdminEmail = strings.TrimSpace(cfg.AdminEmail)

	switch cfg.SessionBackend {
	case "mongo", "memory":
	default:
		return Config{}, fmt.Errorf("unsupported SESSION_BACKEND %q", cfg.SessionBackend)
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, errors.New("SESSION_TTL must be positive")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.GinMode == "release"
}
