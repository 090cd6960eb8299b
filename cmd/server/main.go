// Command server wires the control plane: stores, services, HTTP transport,
// and the audit pipeline. Business logic lives in the internal packages.
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

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"vantage/internal/approval"
	approvalhandler "vantage/internal/approval/handler"
	"vantage/internal/approval/lock"
	approvalmetrics "vantage/internal/approval/metrics"
	"vantage/internal/audit"
	"vantage/internal/blueprint"
	"vantage/internal/compliance"
	compliancehandler "vantage/internal/compliance/handler"
	"vantage/internal/grouppolicy"
	grouppolicyhandler "vantage/internal/grouppolicy/handler"
	"vantage/internal/jwtactor"
	"vantage/internal/platform/config"
	"vantage/internal/platform/httpserver"
	"vantage/internal/platform/kafka"
	"vantage/internal/platform/logger"
	platformredis "vantage/internal/platform/redis"
	"vantage/internal/report"
	reporthandler "vantage/internal/report/handler"
	"vantage/internal/tenant/store"
	tenantstore "vantage/internal/tenant/store/tenant"
	httptransport "vantage/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Blueprint policy table: built-in rules, optionally overlaid from file.
	table := blueprint.DefaultTable()
	if cfg.Policy.File != "" {
		var err error
		table, err = blueprint.LoadFile(cfg.Policy.File)
		if err != nil {
			return err
		}
		log.Info("loaded blueprint policy table", "file", cfg.Policy.File)
	}

	// Stores.
	var (
		tenants    approvalStore
		auditStore audit.Store
		directory  = grouppolicy.NewInMemoryDirectory()
		checks     = map[string]httptransport.HealthChecker{}
	)
	if cfg.Store.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.Store.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		tenants = tenantstore.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
		checks["postgres"] = dbHealth{db}
		log.Info("using postgres stores")
	} else {
		mem := tenantstore.NewInMemory()
		if cfg.Store.SeedDemo {
			_, holding, member, group := store.SeedDemoTenants(mem)
			directory.LoadGroups(group)
			log.Info("seeded demo tenants",
				"holding_id", holding.ID,
				"member_id", member.ID,
			)
		}
		tenants = mem
		auditStore = audit.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	// Optional Kafka sink for the audit pipeline.
	var publisherOpts []audit.Option
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return err
		}
		defer producer.Close(context.Background())
		publisherOpts = append(publisherOpts, audit.WithSink(producer))
		log.Info("audit events mirrored to kafka", "topic", cfg.Kafka.Topic)
	}
	publisher := audit.NewPublisher(auditStore, publisherOpts...)
	inbox := make(chan audit.Event, 256)
	emitter := audit.NewAsyncEmitter(inbox)
	worker := audit.NewWorker(publisher, inbox)

	// Approval lock: Redis when configured, in-process otherwise.
	var locker lock.Locker = lock.NewMemory()
	if cfg.Redis.URL != "" {
		redisClient, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		locker = lock.NewRedis(redisClient.Client, cfg.Redis.LockTTL)
		checks["redis"] = redisClient
		log.Info("using redis approval lock")
	}

	// Services.
	approvalService := approval.New(tenants, table,
		approval.WithLogger(log),
		approval.WithAuditPublisher(emitter),
		approval.WithMetrics(approvalmetrics.New()),
		approval.WithLocker(locker),
	)
	complianceService := compliance.New(tenants,
		compliance.WithLogger(log),
		compliance.WithAuditPublisher(emitter),
	)
	grouppolicyService := grouppolicy.New(tenants, directory,
		grouppolicy.WithLogger(log),
		grouppolicy.WithAuditPublisher(emitter),
	)
	reportService := report.New(tenants,
		report.WithLogger(log),
		report.WithAuditPublisher(emitter),
	)

	jwtService := jwtactor.New(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		ActorValidator: jwtService,
		Handlers: []httptransport.Registrar{
			approvalhandler.New(approvalService, log),
			compliancehandler.New(complianceService, log),
			grouppolicyhandler.New(grouppolicyService, log),
			reporthandler.New(reportService, log),
		},
		Checks: checks,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting vantage", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

// approvalStore is the union of store capabilities the services need.
type approvalStore interface {
	approval.TenantStore
	compliance.TenantStore
	grouppolicy.TenantStore
	report.TenantStore
}

type dbHealth struct{ db *sql.DB }

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
