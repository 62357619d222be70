package main

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"chat-gateway/middleware/ratelimit/domain"
)

type config struct {
	listenAddr string
	appName    string
	appVersion string

	jwtSecret string
	tokenTTL  time.Duration
	seedUsers bool

	storeType     string // "redis" (cota global) ou "memory" (instância única)
	redisAddr     string
	redisPassword string
	redisDB       int
	storeTimeout  time.Duration

	limits    domain.Limits
	trustXFF  bool
	keyHeader string

	statsEnabled         bool
	statsPrefix          string
	statsTTL             time.Duration
	statsBucket          string
	statsTrackIdentities bool

	chatConcurrencyMax     int
	chatConcurrencyTimeout time.Duration

	llmURL    string
	llmAPIKey string
	llmModel  string
	llmRPS    float64
	llmBurst  int
}

func readConfig() (config, error) {
	// .env é opcional; variáveis de ambiente reais têm precedência
	_ = godotenv.Load()

	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.appName = getenvDefault("APP_NAME", "chat-gateway")
	cfg.appVersion = getenvDefault("APP_VERSION", "0.1.0")

	cfg.jwtSecret = os.Getenv("JWT_SECRET_KEY")
	cfg.tokenTTL = time.Duration(getenvIntDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute
	cfg.seedUsers = getenvBoolDefault("SEED_USERS", false)

	cfg.storeType = strings.ToLower(getenvDefault("RATE_LIMIT_STORE", "redis"))
	cfg.redisAddr = getenvDefault("REDIS_ADDR", "localhost:6379")
	cfg.redisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.redisDB = getenvIntDefault("REDIS_DB", 0)
	// timeout curto de propósito: acima disso o limiter trata o store como
	// indisponível e libera a requisição (fail open)
	cfg.storeTimeout = getenvDurationDefault("RATE_LIMIT_STORE_TIMEOUT", 300*time.Millisecond)

	window := time.Duration(getenvIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
	cfg.limits = domain.Limits{
		domain.ClassDefault:       {Requests: getenvIntDefault("RATE_LIMIT_DEFAULT_RPM", 100), Window: window},
		domain.ClassAuthenticated: {Requests: getenvIntDefault("RATE_LIMIT_AUTH_RPM", 1000), Window: window},
		domain.ClassChat:          {Requests: getenvIntDefault("RATE_LIMIT_CHAT_RPM", 50), Window: window},
	}
	cfg.trustXFF = getenvBoolDefault("TRUST_XFF", false)
	cfg.keyHeader = os.Getenv("RATE_KEY_HEADER")

	cfg.statsEnabled = getenvBoolDefault("RATE_STATS_ENABLED", false)
	cfg.statsPrefix = getenvDefault("RATE_STATS_PREFIX", "ratelimit:stats")
	cfg.statsTTL = getenvDurationDefault("RATE_STATS_TTL", 24*time.Hour)
	cfg.statsBucket = getenvDefault("RATE_STATS_BUCKET", "minute")
	cfg.statsTrackIdentities = getenvBoolDefault("RATE_STATS_TRACK_IDENTITIES", false)

	cfg.chatConcurrencyMax = getenvIntDefault("CHAT_CONCURRENCY_MAX", 8)
	cfg.chatConcurrencyTimeout = getenvDurationDefault("CHAT_CONCURRENCY_TIMEOUT", 0)

	cfg.llmURL = os.Getenv("LLM_API_URL")
	cfg.llmAPIKey = os.Getenv("LLM_API_KEY")
	cfg.llmModel = getenvDefault("LLM_MODEL", "gpt-4o-mini")
	cfg.llmRPS = getenvFloatDefault("LLM_UPSTREAM_RPS", 5)
	cfg.llmBurst = getenvIntDefault("LLM_UPSTREAM_BURST", 5)

	if cfg.jwtSecret == "" {
		return config{}, errors.New("JWT_SECRET_KEY is required")
	}
	if cfg.storeType != "redis" && cfg.storeType != "memory" {
		return config{}, errors.New("RATE_LIMIT_STORE must be \"redis\" or \"memory\"")
	}
	if cfg.storeType == "redis" && strings.TrimSpace(cfg.redisAddr) == "" {
		return config{}, errors.New("REDIS_ADDR is required when RATE_LIMIT_STORE=redis")
	}
	for class, limit := range cfg.limits {
		if limit.Requests <= 0 {
			return config{}, errors.New("rate limit for class " + string(class) + " must be > 0")
		}
	}
	if window <= 0 {
		return config{}, errors.New("RATE_LIMIT_WINDOW_SECONDS must be > 0")
	}
	if cfg.chatConcurrencyMax < 0 {
		return config{}, errors.New("CHAT_CONCURRENCY_MAX must be >= 0")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
