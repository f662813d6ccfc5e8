package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/park285/pixelcv-arcade/internal/search"
)

type AppConfig struct {
	HTTPAddr string

	RedisURL    string
	DatabaseURL string

	BackendBaseURL string
	BackendToken   string
	BackendTimeout time.Duration

	FeedWSURL  string
	FeedToken  string
	FeedDryRun bool

	AIDelay            time.Duration
	DefaultDifficulty  string
	SessionTTL         time.Duration
	MaxSessionsPerUser int
	HistoryLimit       int
	SweepInterval      time.Duration

	MessagesDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:           ":8080",
		BackendTimeout:     5 * time.Second,
		DefaultDifficulty:  "medium",
		SessionTTL:         24 * time.Hour,
		MaxSessionsPerUser: 3,
		HistoryLimit:       10,
		SweepInterval:      time.Minute,
	}

	if v := env("ARCADE_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.RedisURL = env("REDIS_URL")
	cfg.DatabaseURL = env("DATABASE_URL")

	cfg.BackendBaseURL = strings.TrimRight(env("BACKEND_BASE_URL"), "/")
	cfg.BackendToken = env("BACKEND_TOKEN")
	if v := env("BACKEND_TIMEOUT_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("BACKEND_TIMEOUT_MS must be a positive integer: %q", v)
		}
		cfg.BackendTimeout = time.Duration(n) * time.Millisecond
	}

	cfg.FeedWSURL = env("FEED_WS_URL")
	cfg.FeedToken = env("FEED_TOKEN")
	if v := env("FEED_DRYRUN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.FeedDryRun = b
		}
	}

	if v := env("ARCADE_AI_DELAY_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("ARCADE_AI_DELAY_MS must be >= 0: %q", v)
		}
		cfg.AIDelay = time.Duration(n) * time.Millisecond
	}
	if v := env("ARCADE_DEFAULT_DIFFICULTY"); v != "" {
		cfg.DefaultDifficulty = strings.ToLower(v)
	}
	if v := env("ARCADE_SESSION_TTL"); v != "" {
		d, err := parseTTL(v)
		if err != nil {
			return nil, fmt.Errorf("ARCADE_SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = d
	}
	if v := env("ARCADE_MAX_SESSIONS_PER_USER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxSessionsPerUser = n
		}
	}
	if v := env("ARCADE_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryLimit = n
		}
	}
	if v := env("ARCADE_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SweepInterval = d
		}
	}
	cfg.MessagesDir = env("ARCADE_MESSAGES_DIR")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("ARCADE_HTTP_ADDR is required")
	}
	known := false
	for _, d := range search.Difficulties {
		if d == c.DefaultDifficulty {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("ARCADE_DEFAULT_DIFFICULTY %q is not one of %s", c.DefaultDifficulty, strings.Join(search.Difficulties, ", "))
	}
	if c.BackendToken != "" && c.BackendBaseURL == "" {
		return errors.New("BACKEND_TOKEN is set but BACKEND_BASE_URL is empty")
	}
	return nil
}

// parseTTL accepts plain seconds or a Go duration such as 6h.
func parseTTL(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("must be positive: %q", v)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return d, nil
}

func env(k string) string {
	return strings.TrimSpace(os.Getenv(k))
}
