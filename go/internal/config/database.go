package config

import (
	"fmt"
	"net/url"
	"os"
)

// DatabaseConfig locates the competition database that group rosters are
// read from. Leaving both DATABASE_URL and DB_HOST unset disables it.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func databaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		URL:      os.Getenv("DATABASE_URL"),
		Host:     os.Getenv("DB_HOST"),
		Port:     getEnvAsInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		Database: getEnv("DB_NAME", "barbell"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

// Enabled reports whether rosters come from Postgres.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != "" || c.Host != ""
}

// DSN is DATABASE_URL when set, otherwise a URL assembled from the DB_*
// parts with the credentials escaped.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}
