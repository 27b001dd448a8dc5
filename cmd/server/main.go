// Command server runs the insurance administration backend: HTTP API,
// embedded schema migrations and the audit streaming worker.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"govinda/internal/audit"
	authhandler "govinda/internal/auth/handler"
	authservice "govinda/internal/auth/service"
	"govinda/internal/auth/store/revocation"
	"govinda/internal/auth/store/user"
	"govinda/internal/auth/token"
	caseshandler "govinda/internal/cases/handler"
	casesmetrics "govinda/internal/cases/metrics"
	casesservice "govinda/internal/cases/service"
	"govinda/internal/cases/store/cases"
	mdhandler "govinda/internal/masterdata/handler"
	mdmetrics "govinda/internal/masterdata/metrics"
	mdservice "govinda/internal/masterdata/service"
	"govinda/internal/masterdata/store/address"
	"govinda/internal/masterdata/store/household"
	"govinda/internal/masterdata/store/person"
	"govinda/internal/platform/config"
	"govinda/internal/platform/httpserver"
	"govinda/internal/platform/logger"
	"govinda/internal/platform/metrics"
	"govinda/internal/platform/postgres"
	"govinda/internal/platform/ratelimit"
	platformredis "govinda/internal/platform/redis"
	tenanthandler "govinda/internal/tenant/handler"
	tenantmetrics "govinda/internal/tenant/metrics"
	tenantservice "govinda/internal/tenant/service"
	"govinda/internal/tenant/store/tenant"
	httptransport "govinda/internal/transport/http"
	"govinda/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(db); err != nil {
		return err
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	var revocationStore authservice.RevocationStore
	if redisClient != nil {
		defer redisClient.Close()
		revocationStore = revocation.NewRedisStore(redisClient.Client)
		log.Info("token revocation backed by redis")
	} else {
		revocationStore = revocation.NewInMemory()
		log.Info("redis not configured, token revocation is in-memory")
	}

	// Audit events are persisted synchronously; the Kafka copy streams
	// through the worker inbox when brokers are configured.
	auditStore := audit.NewInMemoryStore()
	var (
		inbox  chan audit.Event
		worker *audit.Worker
	)
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer sink.Close()
		inbox = make(chan audit.Event, 256)
		worker = audit.NewWorker(sink, inbox, log)
		log.Info("audit streaming enabled", "topic", cfg.Kafka.Topic)
	}
	publisher := audit.NewPublisher(auditStore, inbox)

	runner := tx.NewSQLRunner(db)
	httpMetrics := metrics.New()

	persons := person.NewPostgres(db)
	addresses := address.NewPostgres(db)
	households := household.NewPostgres(db)

	mdm := mdmetrics.New()
	personSvc := mdservice.NewPersonService(persons,
		mdservice.WithLogger(log), mdservice.WithAuditPublisher(publisher),
		mdservice.WithMetrics(mdm), mdservice.WithTx(runner))
	addressSvc := mdservice.NewAddressService(persons, addresses,
		mdservice.WithLogger(log), mdservice.WithAuditPublisher(publisher),
		mdservice.WithMetrics(mdm), mdservice.WithTx(runner))
	householdSvc := mdservice.NewHouseholdService(households, persons,
		mdservice.WithLogger(log), mdservice.WithAuditPublisher(publisher),
		mdservice.WithMetrics(mdm), mdservice.WithTx(runner))

	caseSvc := casesservice.New(cases.NewPostgres(db), persons,
		casesservice.WithLogger(log), casesservice.WithAuditPublisher(publisher),
		casesservice.WithMetrics(casesmetrics.New()))

	tenantSvc := tenantservice.New(tenant.NewPostgres(db),
		tenantservice.WithLogger(log), tenantservice.WithAuditPublisher(publisher),
		tenantservice.WithMetrics(tenantmetrics.New()))

	tokens := token.NewService(cfg.JWTSigningKey, cfg.TokenTTL)
	authSvc := authservice.New(user.NewPostgres(db), tokens, revocationStore,
		authservice.WithLogger(log), authservice.WithAuditPublisher(publisher))

	var apiLimiter, loginLimiter *ratelimit.Limiter
	if cfg.RateLimit.PerTenantPerMinute > 0 {
		apiLimiter = ratelimit.NewLimiter(cfg.RateLimit.PerTenantPerMinute, time.Minute)
	}
	if cfg.RateLimit.LoginPerMinute > 0 {
		loginLimiter = ratelimit.NewLimiter(cfg.RateLimit.LoginPerMinute, time.Minute)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        httpMetrics,
		DB:             db,
		TokenValidator: tokens,
		Revocation:     revocationStore,
		TenantResolver: tenantSvc,
		AdminToken:     cfg.AdminToken,
		APILimiter:     apiLimiter,
		LoginLimiter:   loginLimiter,
		Auth:           authhandler.New(authSvc, log),
		MasterData:     mdhandler.New(personSvc, addressSvc, householdSvc, log),
		Cases:          caseshandler.New(caseSvc, log),
		Tenants:        tenanthandler.New(tenantSvc, log),
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if worker != nil {
		g.Go(func() error {
			if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
