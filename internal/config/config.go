package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENV" default:"development"`

	TelegramToken string `envconfig:"TELEGRAM_TOKEN" required:"true"`

	DBDSN          string `envconfig:"DB_DSN" required:"true"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"migrations"`

	RedisURL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	GeminiAPIKey         string `envconfig:"GEMINI_API_KEY" required:"true"`
	GeminiModel          string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-pro"`
	GeminiEmbeddingModel string `envconfig:"GEMINI_EMBEDDING_MODEL" default:"text-embedding-004"`

	// Calendar mirroring is optional; with no credentials bookings simply
	// stay local.
	GoogleServiceAccountJSON string `envconfig:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	CalendarID               string `envconfig:"CALENDAR_ID"`

	Timezone string `envconfig:"TIMEZONE" default:"America/New_York"`

	CatalogPath string `envconfig:"CATALOG_PATH" default:"data/catalog.json"`
	FAQPath     string `envconfig:"FAQ_PATH" default:"data/faq.json"`

	HistoryTTL   time.Duration `envconfig:"HISTORY_TTL" default:"24h"`
	HistoryLimit int           `envconfig:"HISTORY_LIMIT" default:"20"`
}

func Load() (*Config, error) {
	// The .env file is optional; plain environment variables work too.
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	return cfg, nil
}

// MirrorEnabled reports whether calendar credentials are configured.
func (c *Config) MirrorEnabled() bool {
	return c.GoogleServiceAccountJSON != "" && c.CalendarID != ""
}
