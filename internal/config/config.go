// Package config loads service configuration from the environment, with the
// same development fallbacks the rest of the stack assumes.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds every runtime knob for the service.
type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Analytics abuse controls.
	SiteHosts       []string
	IPHashSalt      string
	RateLimitPerMin int
	UAMaxLen        int
	PathMaxLen      int
	RefMaxLen       int
	VIDMaxLen       int
	MetaMaxLen      int
	RetentionDays   int

	// Draft persistence.
	DataDir string

	// Admin access.
	JWTSecret         string
	AdminPasswordHash string

	AllowedOrigins []string
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getlist(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// Load reads the environment into a Config. Every value has a development
// default; production deployments are expected to set at least the database
// credentials, the IP hash salt and the admin secrets.
func Load() Config {
	return Config{
		Port: getenv("PORT", "8080"),

		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     getenv("DB_USER", "postgres"),
		DBPassword: getenv("DB_PASSWORD", "postgres"),
		DBName:     getenv("DB_NAME", "postgres"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),

		SiteHosts:       getlist("SITE_HOSTS", []string{"invoicegenerator.cloud", "www.invoicegenerator.cloud"}),
		IPHashSalt:      getenv("IP_HASH_SALT", "dev-salt-do-not-use-in-prod"),
		RateLimitPerMin: getint("RATE_LIMIT_MAX_PER_MIN", 120),
		UAMaxLen:        getint("UA_MAX_LEN", 255),
		PathMaxLen:      getint("PATH_MAX_LEN", 255),
		RefMaxLen:       getint("REF_MAX_LEN", 255),
		VIDMaxLen:       getint("VID_MAX_LEN", 64),
		MetaMaxLen:      getint("META_MAX_LEN", 2000),
		RetentionDays:   getint("RETENTION_DAYS", 90),

		DataDir: getenv("DATA_DIR", "data"),

		JWTSecret:         getenv("JWT_SECRET", ""),
		AdminPasswordHash: getenv("ADMIN_PASSWORD_HASH", ""),

		AllowedOrigins: getlist("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://127.0.0.1:5173"}),
	}
}

// DSN assembles the postgres connection string.
func (c Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort +
		"/" + c.DBName + "?sslmode=" + c.DBSSLMode
}
