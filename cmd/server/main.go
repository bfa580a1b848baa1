// main wires high-level dependencies, exposes the HTTP router, and keeps
// the server lifecycle small. Business logic lives in internal packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"testament/internal/audit"
	"testament/internal/authz"
	"testament/internal/claimindex"
	planhandler "testament/internal/plan/handler"
	planmetrics "testament/internal/plan/metrics"
	"testament/internal/plan/service"
	planstore "testament/internal/plan/store"
	"testament/internal/platform/config"
	"testament/internal/platform/httpserver"
	"testament/internal/platform/logger"
	"testament/internal/platform/metrics"
	platformredis "testament/internal/platform/redis"
	httptransport "testament/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		plans      service.PlanStore
		auditStore audit.Store
		outbox     audit.OutboxSource
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}

		pgPlans := planstore.NewPostgres(db)
		if err := pgPlans.EnsureSchema(ctx); err != nil {
			return err
		}
		pgAudit := audit.NewPostgresStore(db)
		if err := pgAudit.EnsureSchema(ctx); err != nil {
			return err
		}
		plans, auditStore, outbox = pgPlans, pgAudit, pgAudit
		log.Info("using postgres storage")
	} else {
		plans = planstore.NewInMemory()
		auditStore = audit.NewInMemoryStore()
		log.Warn("no database configured, using in-memory storage")
	}

	var claims claimindex.Index
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		claims = claimindex.NewRedis(redisClient.Client)
		log.Info("using redis claim index")
	} else {
		claims = claimindex.NewInMemory()
	}

	verifier := authz.NewJWTVerifier(cfg.JWTSigningKey, cfg.JWTIssuer)

	registry := service.New(plans, verifier,
		service.WithLogger(log),
		service.WithAuditPublisher(audit.NewPublisher(auditStore)),
		service.WithClaimIndex(claims),
		service.WithMetrics(planmetrics.New()),
	)

	handler := planhandler.New(registry, log, metrics.New())
	router := httptransport.NewRouter(handler)
	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting testament server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if len(cfg.Kafka.Brokers) > 0 && outbox != nil {
		producer, err := audit.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer producer.Close()
		relay := audit.NewRelay(outbox, producer, log)
		group.Go(func() error {
			log.Info("starting audit relay", "topic", cfg.Kafka.Topic)
			return relay.Run(ctx)
		})
	} else if len(cfg.Kafka.Brokers) > 0 {
		log.Warn("kafka configured without a database, audit relay disabled")
	}

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
