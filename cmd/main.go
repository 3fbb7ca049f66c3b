/**
 * @description
 * This is the main entry point for the transfer-service. It initializes
 * configuration, the ledger and risk service clients, the RabbitMQ producer
 * for notifications, the optional transfer journal and rate limiter, and the
 * HTTP server, then runs until a shutdown signal arrives.
 *
 * @dependencies
 * - log, net/http, os/signal: Standard Go libraries.
 * - github.com/jackc/pgx/v5/pgxpool: PostgreSQL pool for the journal.
 * - github.com/redis/go-redis/v9: Redis client for rate limiting.
 * - internal/api, internal/app, internal/config, internal/notify,
 *   internal/store, pkg/ledgerclient, pkg/riskclient, pkg/rabbitmq.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/PovetkinRoman/bankApp-sub000/internal/api"
	"github.com/PovetkinRoman/bankApp-sub000/internal/app"
	"github.com/PovetkinRoman/bankApp-sub000/internal/config"
	"github.com/PovetkinRoman/bankApp-sub000/internal/notify"
	"github.com/PovetkinRoman/bankApp-sub000/internal/store"
	"github.com/PovetkinRoman/bankApp-sub000/pkg/ledgerclient"
	"github.com/PovetkinRoman/bankApp-sub000/pkg/rabbitmq"
	"github.com/PovetkinRoman/bankApp-sub000/pkg/riskclient"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if cfg.LedgerServiceURL == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"ledger service url must be configured\" env=LEDGER_SERVICE_URL")
	}
	if cfg.RiskServiceURL == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"risk service url must be configured\" env=RISK_SERVICE_URL")
	}

	log.Printf("level=info component=bootstrap msg=\"starting transfer-service\" port=%s", cfg.ServerPort)

	// The notification pipeline is best-effort end to end, so a missing
	// broker degrades to a logging fallback instead of blocking startup.
	var producer rabbitmq.Publisher
	eventProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rabbitmq.NoopProducer{}
	} else {
		defer eventProducer.Close()
		producer = eventProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	ledger := ledgerclient.NewClient(cfg.LedgerServiceURL, cfg.LedgerAPIKey,
		ledgerclient.WithRetryAttempts(cfg.LedgerRetryAttempts))
	risk := riskclient.NewClient(cfg.RiskServiceURL)
	emitter := notify.NewEmitter(producer, cfg.NotifyExchange)

	service := app.NewService(ledger, risk, emitter, app.LogRecorder{})

	// The journal is audit-only; without a database the service still moves
	// money, it just loses the read API and the operator trail.
	if cfg.DatabaseURL == "" {
		log.Println("level=warn component=bootstrap msg=\"database url missing; transfer journal disabled\" env=DATABASE_URL")
	} else {
		dbpool, poolErr := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if poolErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"database pool init failed; transfer journal disabled\" err=%v", poolErr)
		} else {
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			if pingErr := dbpool.Ping(pingCtx); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"database ping failed; transfer journal disabled\" err=%v", pingErr)
				dbpool.Close()
			} else {
				defer dbpool.Close()
				service.SetJournal(store.NewPostgresRepository(dbpool))
				log.Println("level=info component=bootstrap msg=\"database connected\"")
			}
			cancelPing()
		}
	}

	handlers := api.NewTransferHandlers(service)

	if cfg.TransferRateLimitPerMinute > 0 {
		if cfg.RedisURL == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; transfer rate limiting disabled\" env=REDIS_URL")
		} else if redisOptions, parseErr := redis.ParseURL(cfg.RedisURL); parseErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; transfer rate limiting disabled\" err=%v", parseErr)
		} else {
			redisClient := redis.NewClient(redisOptions)
			pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
			if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis ping failed; transfer rate limiting disabled\" err=%v", pingErr)
				redisClient.Close()
			} else {
				defer redisClient.Close()
				handlers.SetRateLimiter(
					app.NewRedisTransferRateLimiter(redisClient, cfg.RedisRateLimitPrefix),
					cfg.TransferRateLimitPerMinute,
				)
				log.Println("level=info component=bootstrap msg=\"redis connected\"")
			}
			cancelPing()
		}
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: api.TransferRoutes(handlers),
	}

	go func() {
		log.Printf("level=info component=http msg=\"server listening\" addr=%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
