package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-storefront/internal/auth"
	"github.com/ariefcatur/go-storefront/internal/baas"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/config"
	"github.com/ariefcatur/go-storefront/internal/httpx"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/logx"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logx.New(cfg.ServiceName, cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Backend
	bc := baas.New(cfg.BaaSURL, cfg.BaaSAnonKey, nil)
	var store shop.Store
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if cfg.RunMigrations {
			if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
				log.Fatal().Err(err).Msg("migrate")
			}
		}
		db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.ServiceName)
		if err != nil {
			log.Fatal().Err(err).Msg("db connect")
		}
		defer db.Close()
		store = &postgres.Store{DB: db}
	case config.BackendBaaS:
		store = baas.NewStore(bc)
	default:
		log.Fatal().Str("backend", cfg.StoreBackend).Msg("unknown STORE_BACKEND")
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping")
	}

	// Kafka producers
	var sessionEvents, orderEvents kafkax.Publisher = kafkax.Discard{}, kafkax.Discard{}
	var producers []*kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		ps := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicSessionChanged, 1024, log)
		po := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicOrderPlaced, 1024, log)
		for _, p := range []*kafkax.Producer{ps, po} {
			p.Start(ctx)
			producers = append(producers, p)
		}
		sessionEvents, orderEvents = ps, po
	} else {
		log.Warn().Msg("KAFKA_BROKERS empty, events are not published")
	}

	// Services
	counter := &cart.Counter{Store: store, Redis: rdb, TTL: cfg.CartCountTTL, Log: log}
	sf := &httpx.Storefront{
		Auth: &auth.Service{
			Provider:    bc,
			Sessions:    auth.NewSessions(rdb, cfg.SessionTTL),
			Verifier:    auth.NewVerifier(cfg.BaaSJWTSecret),
			Events:      sessionEvents,
			SiteURL:     cfg.SiteURL,
			ServiceName: cfg.ServiceName,
			Log:         log.With().Str("component", "auth").Logger(),
		},
		Catalog: &catalog.Service{Store: store, Redis: rdb, TTL: cfg.CatalogTTL, Counter: counter, Log: log},
		Cart:    &cart.Service{Store: store, Counter: counter, Log: log},
		Checkout: &checkout.Service{
			Store:       store,
			Counter:     counter,
			Events:      orderEvents,
			ServiceName: cfg.ServiceName,
			Log:         log.With().Str("component", "checkout").Logger(),
		},
		Flashes:       httpx.NewFlashes(rdb),
		Limiter:       httpx.NewRateLimiter(cfg.LoginRatePerMin),
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: strings.HasPrefix(cfg.SiteURL, "https://"),
		Log:           log,
	}

	router := httpx.NewRouter(log)
	if err := sf.Register(router); err != nil {
		log.Fatal().Err(err).Msg("templates")
	}

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	// graceful shutdown
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("backend", cfg.StoreBackend).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	for _, p := range producers {
		p.Close() // flush & close writer
	}
	for _, p := range producers {
		p.WaitClosed()
	}
	cancel()
}
