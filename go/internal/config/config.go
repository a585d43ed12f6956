// Package config loads the server configuration from the environment (and an
// optional .env file), with platform and timing settings optionally taken
// from a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/barbell/go/internal/fop"
	"github.com/mcdev12/barbell/go/internal/models"
)

// NATSConfig configures the notification relay. An empty URL disables it.
type NATSConfig struct {
	URL           string
	Stream        string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// Config is the complete server configuration.
type Config struct {
	HTTPPort       string
	LogLevel       string
	AllowedOrigins []string
	Platforms      []string
	GroupsFile     string
	DB             DatabaseConfig
	NATS           NATSConfig
	FOP            fop.Config
}

// File is the YAML layout of BARBELL_CONFIG.
type File struct {
	Platforms      []string `yaml:"platforms"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	ExpiryPolicy   string   `yaml:"expiry_policy"`
	Timing         struct {
		AthleteClock     time.Duration            `yaml:"athlete_clock"`
		ConsecutiveClock time.Duration            `yaml:"consecutive_clock"`
		Debounce         time.Duration            `yaml:"debounce"`
		Tick             time.Duration            `yaml:"tick"`
		DefaultBreak     time.Duration            `yaml:"default_break"`
		BreakDurations   map[string]time.Duration `yaml:"break_durations"`
	} `yaml:"timing"`
	Subscribers struct {
		Buffer          int           `yaml:"buffer"`
		DeliveryTimeout time.Duration `yaml:"delivery_timeout"`
	} `yaml:"subscribers"`
}

// Load reads .env (if present), the environment and BARBELL_CONFIG.
// Environment variables win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: []string{"*"},
		Platforms:      []string{"A"},
		GroupsFile:     os.Getenv("GROUPS_FILE"),
		DB:             databaseFromEnv(),
		NATS: NATSConfig{
			URL:           os.Getenv("NATS_URL"),
			Stream:        getEnv("NATS_STREAM", "FOP_EVENTS"),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "fop.events"),
			MaxReconnects: getEnvAsInt("NATS_MAX_RECONNECTS", -1),
			ReconnectWait: 2 * time.Second,
		},
		FOP: fop.DefaultConfig(),
	}

	expiry := ""
	if path := os.Getenv("BARBELL_CONFIG"); path != "" {
		f, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.apply(f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		expiry = f.ExpiryPolicy
	}

	if v := os.Getenv("PLATFORMS"); v != "" {
		cfg.Platforms = splitList(v)
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	expiry = getEnv("EXPIRY_POLICY", expiry)
	policy, err := fop.ParseExpiryPolicy(expiry)
	if err != nil {
		return nil, err
	}
	cfg.FOP.Expiry = policy

	return cfg, nil
}

func loadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &f, nil
}

// apply overlays the non-zero settings of f.
func (c *Config) apply(f *File) error {
	if len(f.Platforms) > 0 {
		c.Platforms = f.Platforms
	}
	if len(f.AllowedOrigins) > 0 {
		c.AllowedOrigins = f.AllowedOrigins
	}

	t := f.Timing
	setDuration(&c.FOP.AthleteClock, t.AthleteClock)
	setDuration(&c.FOP.ConsecutiveClock, t.ConsecutiveClock)
	setDuration(&c.FOP.Debounce, t.Debounce)
	setDuration(&c.FOP.TickInterval, t.Tick)
	setDuration(&c.FOP.DefaultBreak, t.DefaultBreak)
	setDuration(&c.FOP.DeliveryTimeout, f.Subscribers.DeliveryTimeout)
	if f.Subscribers.Buffer > 0 {
		c.FOP.SubscriberBuffer = f.Subscribers.Buffer
	}

	if len(t.BreakDurations) > 0 {
		durations := make(map[models.BreakType]time.Duration, len(c.FOP.BreakDurations)+len(t.BreakDurations))
		for bt, d := range c.FOP.BreakDurations {
			durations[bt] = d
		}
		for name, d := range t.BreakDurations {
			bt := models.BreakType(strings.ToUpper(name))
			if !bt.Valid() {
				return fmt.Errorf("unknown break type %q in break_durations", name)
			}
			durations[bt] = d
		}
		c.FOP.BreakDurations = durations
	}
	return nil
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
