package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	AIBackendHTTP = "http"
	AIBackendSDK  = "openai-sdk"
)

type Config struct {
	ListenAddr string

	RateEnabled      bool
	RateLimit        int
	RateKeyHeader    string
	TrustXFF         bool
	RetryAfter       time.Duration
	RateBackend      string
	RateIdleTTL      time.Duration
	RateCleanupEvery time.Duration
	RateRedisPrefix  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	StatsEnabled   bool
	StatsBackend   string
	StatsPrefix    string
	StatsTTL       time.Duration
	StatsBucket    string
	StatsTrackKeys bool

	ConcurrencyMax     int
	ConcurrencyTimeout time.Duration

	AIEnabled     bool
	AIBackend     string
	OpenAIKey     string
	OpenAIURL     string
	OpenAIBaseURL string
	OpenAIModel   string
	OpenAITimeout time.Duration
	OutboundRPS   float64
	OutboundBurst int
	Parallelism   int
	StylesFile    string
}

// NeedsRedis informa se algum backend escolhido usa Redis.
func (c Config) NeedsRedis() bool {
	return (c.RateEnabled && c.RateBackend == BackendRedis) ||
		(c.StatsEnabled && c.StatsBackend == BackendRedis)
}

// Load carrega o .env (se existir) e lê o ambiente.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv lê só o ambiente do processo, sem tocar em .env.
func FromEnv() (Config, error) {
	cfg := Config{}
	cfg.ListenAddr = getenvDefault("LISTEN_ADDR", ":8080")

	cfg.RateEnabled = getenvBoolDefault("RATE_ENABLED", true)
	cfg.RateLimit = getenvIntDefault("RATE_LIMIT", 10)
	cfg.RateKeyHeader = os.Getenv("RATE_KEY_HEADER")
	cfg.TrustXFF = getenvBoolDefault("TRUST_XFF", false)
	cfg.RetryAfter = getenvDurationDefault("RETRY_AFTER", 1*time.Second)
	cfg.RateBackend = strings.ToLower(getenvDefault("RATE_BACKEND", BackendMemory))
	cfg.RateIdleTTL = getenvDurationDefault("RATE_IDLE_TTL", 15*time.Minute)
	cfg.RateCleanupEvery = getenvDurationDefault("RATE_CLEANUP_EVERY", 2*time.Minute)
	cfg.RateRedisPrefix = getenvDefault("RATE_REDIS_PREFIX", "ratelimit:window")

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getenvIntDefault("REDIS_DB", 0)

	cfg.StatsEnabled = getenvBoolDefault("RATE_STATS_ENABLED", false)
	cfg.StatsBackend = strings.ToLower(getenvDefault("RATE_STATS_BACKEND", BackendMemory))
	cfg.StatsPrefix = getenvDefault("RATE_STATS_PREFIX", "ratelimit:stats")
	cfg.StatsTTL = getenvDurationDefault("RATE_STATS_TTL", 24*time.Hour)
	cfg.StatsBucket = getenvDefault("RATE_STATS_BUCKET", "minute")
	cfg.StatsTrackKeys = getenvBoolDefault("RATE_STATS_TRACK_KEYS", false)

	cfg.ConcurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 100)
	cfg.ConcurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 0)

	cfg.AIEnabled = getenvBoolDefault("AI_ENABLED", true)
	cfg.AIBackend = strings.ToLower(getenvDefault("AI_BACKEND", AIBackendHTTP))
	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIURL = getenvDefault("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions")
	cfg.OpenAIBaseURL = getenvDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	cfg.OpenAIModel = getenvDefault("OPENAI_MODEL", "gpt-4o-mini")
	cfg.OpenAITimeout = time.Duration(getenvIntDefault("OPENAI_TIMEOUT_MS", 10000)) * time.Millisecond
	cfg.OutboundRPS = getenvFloatDefault("AI_OUTBOUND_RPS", 0)
	cfg.OutboundBurst = getenvIntDefault("AI_OUTBOUND_BURST", 1)
	cfg.Parallelism = getenvIntDefault("AI_PARALLELISM", 1)
	cfg.StylesFile = os.Getenv("AI_STYLES_FILE")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.RateLimit <= 0 {
		return errors.New("RATE_LIMIT must be > 0")
	}
	if err := oneOf("RATE_BACKEND", c.RateBackend, BackendMemory, BackendRedis); err != nil {
		return err
	}
	if err := oneOf("RATE_STATS_BACKEND", c.StatsBackend, BackendMemory, BackendRedis); err != nil {
		return err
	}
	if err := oneOf("AI_BACKEND", c.AIBackend, AIBackendHTTP, AIBackendSDK); err != nil {
		return err
	}
	if c.NeedsRedis() && strings.TrimSpace(c.RedisAddr) == "" {
		return errors.New("REDIS_ADDR is required when a redis backend is selected")
	}
	if c.ConcurrencyMax < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if c.AIEnabled && strings.TrimSpace(c.OpenAIKey) == "" {
		return errors.New("OPENAI_API_KEY is required when AI_ENABLED=true")
	}
	if c.OpenAITimeout <= 0 {
		return errors.New("OPENAI_TIMEOUT_MS must be > 0")
	}
	if c.Parallelism < 1 {
		return errors.New("AI_PARALLELISM must be >= 1")
	}
	if c.OutboundRPS < 0 {
		return errors.New("AI_OUTBOUND_RPS must be >= 0")
	}
	return nil
}

func oneOf(name, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", name, strings.Join(allowed, "|"), v)
}
