package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-storefront/internal/auth"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/config"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/logx"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/shop"
	"github.com/ariefcatur/go-storefront/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	service := cfg.ServiceName + "-worker"
	log := logx.New(service, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal().Msg("KAFKA_BROKERS is required")
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Service
	svc := &worker.Service{
		Redis:       rdb,
		Sessions:    auth.NewSessions(rdb, cfg.SessionTTL),
		Counter:     &cart.Counter{Redis: rdb, TTL: cfg.CartCountTTL, Log: log},
		ServiceName: service,
		Log:         log,
	}

	// Consumers, one per topic
	g, gctx := errgroup.WithContext(ctx)
	for topic, h := range map[string]kafkax.Handler{
		shop.TopicSessionChanged: svc.HandleSessionChanged,
		shop.TopicOrderPlaced:    svc.HandleOrderPlaced,
	} {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.WorkerGroup, topic, cfg.WorkerCount, log)
		g.Go(func() error {
			log.Info().Str("group", cfg.WorkerGroup).Str("topic", topic).Int("workers", cfg.WorkerCount).Msg("consumer started")
			return cons.Start(gctx, h)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("consumer exit")
		os.Exit(1)
	}
	log.Info().Msg("worker stopped")
}
