package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string   `mapstructure:"APP_PORT"`
	Env               string   `mapstructure:"ENV"`
	LogLevel          string   `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int      `mapstructure:"MAX_REQUESTS_PER_MIN"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`

	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisOTPDB     int    `mapstructure:"REDIS_OTP_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Kit backend (suggestions, pricing, identity, enquiries).
	BackendBaseURL string        `mapstructure:"BACKEND_BASE_URL"`
	BackendTimeout time.Duration `mapstructure:"BACKEND_TIMEOUT"`

	// Wizard rules.
	BudgetTiers      []int         `mapstructure:"BUDGET_TIERS"`
	MinKitQuantity   int           `mapstructure:"MIN_KIT_QUANTITY"`
	MaxLogoBytes     int64         `mapstructure:"MAX_LOGO_BYTES"`
	WizardSessionTTL time.Duration `mapstructure:"WIZARD_SESSION_TTL"`

	// Logo mirror. Empty disables the upload to Cloudinary.
	CloudinaryURL string `mapstructure:"CLOUDINARY_URL"`

	// Bootstrap administrator, created on startup when missing.
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
}

// Load reads config.yaml from "." or "./config", overlays environment variables and
// falls back to defaults for everything else.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	// Automatically use environment variables where available.
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	v.SetDefault("CORS_ORIGINS", []string{"*"})
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "giftkit")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_SESSION_DB", 0)
	v.SetDefault("REDIS_OTP_DB", 1)
	v.SetDefault("REDIS_QUEUE_DB", 2)
	v.SetDefault("BACKEND_BASE_URL", "http://localhost:9000")
	v.SetDefault("BACKEND_TIMEOUT", "10s")
	v.SetDefault("BUDGET_TIERS", []int{500, 800, 1200, 1500})
	v.SetDefault("MIN_KIT_QUANTITY", 20)
	v.SetDefault("MAX_LOGO_BYTES", 5<<20)
	v.SetDefault("WIZARD_SESSION_TTL", "30m")
	v.SetDefault("CLOUDINARY_URL", "")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		c.JWTSecret = "giftkit-dev-secret"
	}
	if len(c.BudgetTiers) == 0 {
		return fmt.Errorf("BUDGET_TIERS must list at least one tier")
	}
	if c.MinKitQuantity < 1 {
		return fmt.Errorf("MIN_KIT_QUANTITY must be positive, got %d", c.MinKitQuantity)
	}
	if c.MaxLogoBytes <= 0 {
		return fmt.Errorf("MAX_LOGO_BYTES must be positive, got %d", c.MaxLogoBytes)
	}
	if c.BackendBaseURL == "" {
		return fmt.Errorf("BACKEND_BASE_URL is required")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
