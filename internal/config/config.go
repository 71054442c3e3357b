package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Scraper   ScraperConfig
	Browser   BrowserConfig
	Session   SessionConfig
	Artifacts ArtifactsConfig
	Update    UpdateConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type ScraperConfig struct {
	MaxStoreClicks  int
	MaxReviewClicks int
	ClickDelay      time.Duration
	SettleDelay     time.Duration
	ContentTimeout  time.Duration
	StoreThreshold  int
	ReviewThreshold int
	PhraseThreshold int
}

type BrowserConfig struct {
	UserAgent         string
	NavigationTimeout time.Duration
	ViewportWidth     int
	ViewportHeight    int
	AcceptLanguage    string
	TimezoneID        string
	Locale            string
	ProxyServer       string
}

type SessionConfig struct {
	Domain       string
	CookieFile   string
	MetadataFile string
	StaleAfter   time.Duration
}

type ArtifactsConfig struct {
	Dir string
}

type UpdateConfig struct {
	Delay    time.Duration
	MaxDelay time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Enabled  bool
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getStringSliceOrDefault("SERVER_ALLOWED_ORIGINS", []string{"*"}),
		},
		Scraper: ScraperConfig{
			MaxStoreClicks:  getIntOrDefault("SCRAPER_MAX_STORE_CLICKS", 10),
			MaxReviewClicks: getIntOrDefault("SCRAPER_MAX_REVIEW_CLICKS", 5),
			ClickDelay:      getDurationOrDefault("SCRAPER_CLICK_DELAY", 2*time.Second),
			SettleDelay:     getDurationOrDefault("SCRAPER_SETTLE_DELAY", time.Second),
			ContentTimeout:  getDurationOrDefault("SCRAPER_CONTENT_TIMEOUT", 30*time.Second),
			StoreThreshold:  getIntOrDefault("SCRAPER_STORE_THRESHOLD", 3),
			ReviewThreshold: getIntOrDefault("SCRAPER_REVIEW_THRESHOLD", 2),
			PhraseThreshold: getIntOrDefault("SCRAPER_CAPTCHA_PHRASE_THRESHOLD", 2),
		},
		Browser: BrowserConfig{
			UserAgent:         getEnvOrDefault("BROWSER_USER_AGENT", defaultUserAgent),
			NavigationTimeout: getDurationOrDefault("BROWSER_NAVIGATION_TIMEOUT", 60*time.Second),
			ViewportWidth:     getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight:    getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage:    getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "ar-SA,ar;q=0.9,en-US;q=0.8,en;q=0.7"),
			TimezoneID:        getEnvOrDefault("BROWSER_TIMEZONE", "Asia/Riyadh"),
			Locale:            getEnvOrDefault("BROWSER_LOCALE", "ar-SA"),
			ProxyServer:       getEnvOrDefault("BROWSER_PROXY", ""),
		},
		Session: SessionConfig{
			Domain:       getEnvOrDefault("SESSION_DOMAIN", "google.com"),
			CookieFile:   getEnvOrDefault("SESSION_COOKIE_FILE", "session/cookies.json"),
			MetadataFile: getEnvOrDefault("SESSION_METADATA_FILE", "session/metadata.json"),
			StaleAfter:   getDurationOrDefault("SESSION_STALE_AFTER", 12*time.Hour),
		},
		Artifacts: ArtifactsConfig{
			Dir: getEnvOrDefault("ARTIFACTS_DIR", "artifacts"),
		},
		Update: UpdateConfig{
			Delay:    getDurationOrDefault("UPDATE_DELAY", 30*time.Second),
			MaxDelay: getDurationOrDefault("UPDATE_MAX_DELAY", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "shopping_tracker"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
			MaxConns: getIntOrDefault("DB_MAX_CONNS", 10),
			MinConns: getIntOrDefault("DB_MIN_CONNS", 1),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:price_history"),
			Enabled:  getBoolOrDefault("REDIS_ENABLED", true),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

// Validate returns every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Scraper.MaxStoreClicks < 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_MAX_STORE_CLICKS cannot be negative"))
	}
	if c.Scraper.MaxReviewClicks < 0 {
		errs = append(errs, fmt.Errorf("SCRAPER_MAX_REVIEW_CLICKS cannot be negative"))
	}
	if c.Scraper.PhraseThreshold < 1 {
		errs = append(errs, fmt.Errorf("SCRAPER_CAPTCHA_PHRASE_THRESHOLD must be at least 1"))
	}
	if c.Browser.NavigationTimeout <= 0 {
		errs = append(errs, fmt.Errorf("BROWSER_NAVIGATION_TIMEOUT must be positive"))
	}
	if c.Update.Delay < 0 {
		errs = append(errs, fmt.Errorf("UPDATE_DELAY cannot be negative"))
	}
	if c.Update.MaxDelay < c.Update.Delay {
		c.Update.MaxDelay = c.Update.Delay
	}
	if c.Session.CookieFile == "" || c.Session.MetadataFile == "" {
		errs = append(errs, fmt.Errorf("SESSION_COOKIE_FILE and SESSION_METADATA_FILE are required"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
