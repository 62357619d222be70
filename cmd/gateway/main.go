package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"chat-gateway/auth"
	"chat-gateway/gateway"
	"chat-gateway/llm"
	"chat-gateway/middleware/ratelimit"
	"chat-gateway/middleware/ratelimit/domain"
	"chat-gateway/middleware/ratelimit/infra"
)

func main() {
	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var store domain.CounterStore
	var statsStore domain.StatsStore
	switch cfg.storeType {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			log.Fatalf("redis ping error: %v", err)
		}

		store = infra.NewRedisStore(rdb, infra.WithRedisTimeout(cfg.storeTimeout))
		if cfg.statsEnabled {
			statsStore = infra.NewRedisStatsStore(
				rdb,
				infra.WithStatsPrefix(cfg.statsPrefix),
				infra.WithStatsTTL(cfg.statsTTL),
				infra.WithStatsBucket(cfg.statsBucket),
				infra.WithStatsTrackIdentities(cfg.statsTrackIdentities),
			)
		}
	case "memory":
		mem := infra.NewMemoryStore()
		mem.StartJanitor(ctx)
		store = mem
		if cfg.statsEnabled {
			statsStore = infra.NewMemoryStatsStore(infra.WithTrackIdentities(cfg.statsTrackIdentities))
		}
	}

	users := auth.NewStore()
	if cfg.seedUsers {
		seedUsers(users)
	}
	tokens := auth.NewTokenIssuer(cfg.jwtSecret, cfg.tokenTTL)

	var responder llm.Responder = llm.StaticResponder{}
	if cfg.llmURL != "" {
		responder = &llm.HTTPResponder{URL: cfg.llmURL, APIKey: cfg.llmAPIKey, Model: cfg.llmModel}
	}
	chat := llm.NewManager(responder, llm.WithUpstreamLimit(cfg.llmRPS, cfg.llmBurst))

	api := &gateway.API{
		AppName: cfg.appName,
		Version: cfg.appVersion,
		Users:   users,
		Tokens:  tokens,
		Chat:    chat,
	}
	h := api.Router(
		ratelimit.Options{
			Store:              store,
			Limits:             cfg.limits,
			Stats:              statsStore,
			KeyHeader:          cfg.keyHeader,
			TrustXForwardedFor: cfg.trustXFF,
		},
		ratelimit.ConcurrencyOptions{
			Max:            cfg.chatConcurrencyMax,
			RejectStatus:   http.StatusServiceUnavailable,
			AcquireTimeout: cfg.chatConcurrencyTimeout,
		},
	)

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("%s %s listening on %s", cfg.appName, cfg.appVersion, cfg.listenAddr)
	log.Printf("rate: store=%s timeout=%s window=%s default=%d auth=%d chat=%d trustXFF=%v keyHeader=%q",
		cfg.storeType, cfg.storeTimeout, cfg.limits[domain.ClassDefault].Window,
		cfg.limits[domain.ClassDefault].Requests, cfg.limits[domain.ClassAuthenticated].Requests,
		cfg.limits[domain.ClassChat].Requests, cfg.trustXFF, cfg.keyHeader)
	log.Printf("rate-stats: enabled=%v bucket=%q ttl=%s trackIdentities=%v", cfg.statsEnabled, cfg.statsBucket, cfg.statsTTL, cfg.statsTrackIdentities)
	log.Printf("chat: concurrencyMax=%d acquireTimeout=%s upstream=%q model=%q", cfg.chatConcurrencyMax, cfg.chatConcurrencyTimeout, cfg.llmURL, cfg.llmModel)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

// seedUsers cria contas de desenvolvimento (senha igual ao usuário).
// Nunca habilite SEED_USERS em produção.
func seedUsers(users *auth.Store) {
	seeds := []struct {
		name string
		role auth.Role
	}{
		{"admin", auth.RoleAdmin},
		{"moderator", auth.RoleModerator},
		{"user", auth.RoleUser},
	}
	for _, s := range seeds {
		u := auth.User{
			Username: s.name,
			Email:    s.name + "@example.com",
			FullName: "Seed " + s.name,
			Role:     s.role,
		}
		if err := users.Register(u, s.name); err != nil {
			log.Printf("seed user %s: %v", s.name, err)
			continue
		}
		log.Printf("seeded user %s (role %s)", s.name, s.role)
	}
}
