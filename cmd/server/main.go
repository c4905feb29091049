package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/DaghanEmre/fintech-modular-platform/internal/customer/handler"
	customermetrics "github.com/DaghanEmre/fintech-modular-platform/internal/customer/metrics"
	"github.com/DaghanEmre/fintech-modular-platform/internal/customer/service"
	customerstore "github.com/DaghanEmre/fintech-modular-platform/internal/customer/store"
	jwttoken "github.com/DaghanEmre/fintech-modular-platform/internal/jwt_token"
	"github.com/DaghanEmre/fintech-modular-platform/internal/platform/config"
	"github.com/DaghanEmre/fintech-modular-platform/internal/platform/httpserver"
	"github.com/DaghanEmre/fintech-modular-platform/internal/platform/kafka"
	"github.com/DaghanEmre/fintech-modular-platform/internal/platform/logger"
	"github.com/DaghanEmre/fintech-modular-platform/internal/platform/metrics"
	"github.com/DaghanEmre/fintech-modular-platform/internal/platform/otel"
	"github.com/DaghanEmre/fintech-modular-platform/internal/platform/postgres"
	"github.com/DaghanEmre/fintech-modular-platform/internal/platform/ratelimit"
	"github.com/DaghanEmre/fintech-modular-platform/internal/platform/redis"
	audit "github.com/DaghanEmre/fintech-modular-platform/pkg/platform/audit"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/platform/audit/publishers/compliance"
	auditmemory "github.com/DaghanEmre/fintech-modular-platform/pkg/platform/audit/store/memory"
	auditpostgres "github.com/DaghanEmre/fintech-modular-platform/pkg/platform/audit/store/postgres"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/platform/audit/worker"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/platform/circuit"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/platform/middleware/metadata"
	"github.com/DaghanEmre/fintech-modular-platform/pkg/platform/middleware/requesttime"
	txcontext "github.com/DaghanEmre/fintech-modular-platform/pkg/platform/tx"
)

// main wires infrastructure, the customer module and the outbox relay, and
// keeps the process lifecycle small. Business logic lives in internal/customer.
func main() {
	if err := run(); err != nil {
		slog.Error("customer service stopped", "error", err)
		os.Exit(1)
	}
}

type infra struct {
	db     *sql.DB
	redis  *redis.Client
	kafka  *kafka.Client
	tracer func(context.Context) error
}

func (i *infra) close(ctx context.Context, log *slog.Logger) {
	if i.kafka != nil {
		i.kafka.Close()
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			log.Warn("redis close failed", "error", err)
		}
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			log.Warn("database close failed", "error", err)
		}
	}
	if i.tracer != nil {
		if err := i.tracer(ctx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Server.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := connect(ctx, cfg, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		deps.close(shutdownCtx, log)
	}()
	if err != nil {
		return err
	}

	reg := prometheus.DefaultRegisterer

	var (
		repo   service.Repository
		outbox audit.Outbox
		opts   []service.Option
	)
	if deps.db != nil {
		repo = customerstore.NewPostgres(deps.db)
		outbox = auditpostgres.New(deps.db)
		opts = append(opts, service.WithTxRunner(txcontext.NewRunner(deps.db)))
		log.Info("using postgres customer store")
	} else {
		repo = customerstore.NewInMemory()
		outbox = auditmemory.NewInMemoryStore()
		log.Warn("DATABASE_URL not set; using in-memory stores")
	}
	if deps.redis != nil {
		repo = customerstore.NewCachedRepository(repo, deps.redis.Client, cfg.Redis.CacheTTL, log)
	}

	auditPublisher := compliance.New(outbox,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics(reg)),
	)
	svc := service.New(repo, auditPublisher, append(opts,
		service.WithLogger(log),
		service.WithMetrics(customermetrics.New(reg)),
		service.WithEmailHashKey([]byte(cfg.Audit.EmailHashKey)),
	)...)

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	customerHandler := handler.New(svc, log, jwttoken.NewJWTServiceAdapter(jwtService))

	router := newRouter(deps, metrics.New(reg))
	router.Group(func(r chi.Router) {
		if cfg.RateLimit.Enabled {
			r.Use(ratelimit.Middleware(newLimiter(cfg.RateLimit, deps), log))
		}
		customerHandler.Register(r)
	})

	var sink worker.Sink = worker.NewLogSink(log)
	if deps.kafka != nil {
		sink = deps.kafka
	}
	relay := worker.NewRelay(outbox, sink, log,
		worker.WithInterval(cfg.Kafka.RelayInterval),
		worker.WithBatchSize(cfg.Kafka.RelayBatchSize),
		worker.WithMaxAttempts(cfg.Kafka.RelayMaxAttempts),
		worker.WithMetrics(worker.NewMetrics(reg)),
		worker.WithBreaker(circuit.New("outbox-relay", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2))),
	)

	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting customer service", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := relay.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("outbox relay: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down customer service")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// connect opens the optional backends. Each one stays nil when unconfigured.
func connect(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	deps := &infra{}

	shutdownTracer, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		return deps, fmt.Errorf("setup tracing: %w", err)
	}
	deps.tracer = shutdownTracer

	if deps.db, err = postgres.Open(ctx, cfg.Database); err != nil {
		return deps, err
	}
	if deps.redis, err = redis.New(ctx, cfg.Redis); err != nil {
		return deps, err
	}
	if deps.kafka, err = kafka.New(cfg.Kafka); err != nil {
		return deps, err
	}
	if deps.kafka != nil {
		topicCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := deps.kafka.EnsureTopic(topicCtx, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			log.Warn("kafka topic bootstrap failed; relay will retry publishing", "topic", deps.kafka.Topic(), "error", err)
		}
	}
	return deps, nil
}

// newLimiter shares the budget through Redis when it is configured.
func newLimiter(cfg config.RateLimitConfig, deps *infra) ratelimit.Limiter {
	if deps.redis != nil {
		return ratelimit.NewRedis(deps.redis.Client, cfg.Requests, cfg.Window)
	}
	return ratelimit.NewInMemory(cfg.Requests, cfg.Window)
}

func newRouter(deps *infra, httpMetrics *metrics.Metrics) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(metadata.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(httpMetrics.Middleware)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", readiness(deps))
	r.Handle("/metrics", metrics.Handler(nil))
	return r
}

// readiness reports 503 until every configured backend answers.
func readiness(deps *infra) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]func(context.Context) error{}
		if deps.db != nil {
			checks["postgres"] = deps.db.PingContext
		}
		if deps.redis != nil {
			checks["redis"] = deps.redis.Health
		}
		if deps.kafka != nil {
			checks["kafka"] = deps.kafka.Health
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				http.Error(w, name+" unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
