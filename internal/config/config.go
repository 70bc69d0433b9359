package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const insecureSecretKey = "dev-insecure-secret-key"

// Config holds all configuration for the application. It is built once by
// Load and passed by pointer to every component that needs it.
type Config struct {
	AppMode  string
	Port     string
	LogLevel string
	Database DatabaseConfig
	Session  SessionConfig
	Cookie   CookieConfig
	Mail     MailConfig
	Site     SiteConfig
	Jobs     JobsConfig
	Seed     SeedConfig

	// SecretKey signs email verification tokens
	SecretKey string
	// VerifyTokenTTL bounds how long a verification link stays valid
	VerifyTokenTTL time.Duration

	// EnvFileLoaded is false when no .env file was found
	EnvFileLoaded bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string // mysql, postgres or memory
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// SessionConfig holds server-side session settings
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// MailConfig holds outbound email configuration
type MailConfig struct {
	Backend  string // smtp or console
	Host     string
	Port     int
	User     string
	Password string
	UseTLS   bool
	UseSSL   bool
	From     string
}

// SiteConfig holds presentation settings used in emails and host checks
type SiteConfig struct {
	OrgDisplayName   string
	InviteSenderName string
	InviteBannerURL  string
	PublicBaseURL    string
	AllowedHosts     []string
}

// JobsConfig holds background job schedules
type JobsConfig struct {
	SessionCleanupCron string
}

// SeedConfig describes the staff account created on start in dev mode
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminPhone    string
	AdminName     string
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	envErr := godotenv.Load()

	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	cfg.EnvFileLoaded = envErr == nil
	return cfg, nil
}

// FromEnv builds the configuration from the process environment only
func FromEnv() (*Config, error) {
	// Trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	database, err := loadDatabaseConfig(appMode)
	if err != nil {
		return nil, err
	}

	mail, err := loadMailConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppMode:        appMode,
		Port:           getEnv("PORT", "3000"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Database:       database,
		Session:        loadSessionConfig(),
		Cookie:         loadCookieConfig(appMode),
		Mail:           mail,
		Site:           loadSiteConfig(appMode),
		Jobs:           JobsConfig{SessionCleanupCron: getEnv("SESSION_CLEANUP_CRON", "@every 1h")},
		Seed:           loadSeedConfig(),
		SecretKey:      getEnv("SECRET_KEY", insecureSecretKey),
		VerifyTokenTTL: time.Duration(getEnvInt("VERIFY_TOKEN_HOURS", 72)) * time.Hour,
	}

	if cfg.IsProd() && cfg.SecretKey == insecureSecretKey {
		return nil, fmt.Errorf("SECRET_KEY must be set when APP_MODE=prod")
	}

	return cfg, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) (DatabaseConfig, error) {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	driver := strings.ToLower(getEnv("DB_DRIVER", "mysql"))
	defaultPort := "3306"
	switch driver {
	case "mysql", "memory":
	case "postgres":
		defaultPort = "5432"
	default:
		return DatabaseConfig{}, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql', 'postgres' or 'memory')", driver)
	}

	return DatabaseConfig{
		Driver:   driver,
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", defaultPort),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "loanportal"),
	}, nil
}

// loadSessionConfig loads session settings (default lifetime two weeks)
func loadSessionConfig() SessionConfig {
	return SessionConfig{
		CookieName: getEnv("SESSION_COOKIE_NAME", "sessionid"),
		TTL:        time.Duration(getEnvInt("SESSION_HOURS", 336)) * time.Hour,
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// loadMailConfig loads SMTP settings
func loadMailConfig() (MailConfig, error) {
	backend := strings.ToLower(getEnv("EMAIL_BACKEND", "smtp"))
	if backend != "smtp" && backend != "console" {
		return MailConfig{}, fmt.Errorf("invalid EMAIL_BACKEND: '%s' (must be 'smtp' or 'console')", backend)
	}

	useSSL, _ := strconv.ParseBool(getEnv("EMAIL_USE_SSL", "false"))
	useTLS, _ := strconv.ParseBool(getEnv("EMAIL_USE_TLS", strconv.FormatBool(!useSSL)))
	if useTLS && useSSL {
		return MailConfig{}, fmt.Errorf("EMAIL_USE_TLS and EMAIL_USE_SSL are mutually exclusive")
	}

	return MailConfig{
		Backend:  backend,
		Host:     getEnv("EMAIL_HOST", "localhost"),
		Port:     getEnvInt("EMAIL_PORT", 587),
		User:     getEnv("EMAIL_HOST_USER", ""),
		Password: getEnv("EMAIL_HOST_PASSWORD", ""),
		UseTLS:   useTLS,
		UseSSL:   useSSL,
		From:     getEnv("DEFAULT_FROM_EMAIL", "no-reply@localhost"),
	}, nil
}

// loadSiteConfig loads organization and host settings
func loadSiteConfig(mode string) SiteConfig {
	org := getEnv("ORG_DISPLAY_NAME", "3rd Gen Loan")

	defaultHosts := "localhost,127.0.0.1"
	if mode == "dev" {
		defaultHosts = "*"
	}

	return SiteConfig{
		OrgDisplayName:   org,
		InviteSenderName: getEnv("INVITE_SENDER_NAME", org),
		InviteBannerURL:  getEnv("INVITE_BANNER_URL", ""),
		PublicBaseURL:    strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
		AllowedHosts:     splitList(getEnv("ALLOWED_HOSTS", defaultHosts)),
	}
}

func loadSeedConfig() SeedConfig {
	return SeedConfig{
		AdminEmail:    getEnv("SEED_ADMIN_EMAIL", ""),
		AdminPassword: getEnv("SEED_ADMIN_PASSWORD", ""),
		AdminPhone:    getEnv("SEED_ADMIN_PHONE", ""),
		AdminName:     getEnv("SEED_ADMIN_NAME", "Administrator"),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable, falling back on parse errors
func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, strings.ToLower(item))
		}
	}
	return out
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return c.Site.PublicBaseURL
	}
	return origins
}

// HostAllowed reports whether host (port stripped) matches ALLOWED_HOSTS.
// "*" matches anything and ".example.com" matches the domain and its subdomains.
func (c *Config) HostAllowed(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if i := strings.LastIndex(host, ":"); i != -1 && !strings.HasSuffix(host, "]") {
		host = host[:i]
	}
	if host == "" {
		return false
	}

	for _, pattern := range c.Site.AllowedHosts {
		switch {
		case pattern == "*":
			return true
		case strings.HasPrefix(pattern, "."):
			if host == pattern[1:] || strings.HasSuffix(host, pattern) {
				return true
			}
		case host == pattern:
			return true
		}
	}
	return false
}
