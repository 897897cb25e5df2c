package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/client-portal/internal/audit"
	"github.com/BruksfildServices01/client-portal/internal/auth"
	"github.com/BruksfildServices01/client-portal/internal/clock"
	"github.com/BruksfildServices01/client-portal/internal/config"
	dbpkg "github.com/BruksfildServices01/client-portal/internal/db"
	"github.com/BruksfildServices01/client-portal/internal/domain/document"
	"github.com/BruksfildServices01/client-portal/internal/domain/payment"
	"github.com/BruksfildServices01/client-portal/internal/infra/cache"
	"github.com/BruksfildServices01/client-portal/internal/infra/gateway"
	"github.com/BruksfildServices01/client-portal/internal/infra/notify"
	"github.com/BruksfildServices01/client-portal/internal/infra/repository"
	"github.com/BruksfildServices01/client-portal/internal/infra/storage"
	"github.com/BruksfildServices01/client-portal/internal/logger"
	"github.com/BruksfildServices01/client-portal/internal/routes"
	"github.com/BruksfildServices01/client-portal/internal/scheduler"
	"github.com/BruksfildServices01/client-portal/internal/timezone"
	"github.com/BruksfildServices01/client-portal/internal/usecase/announce"
	ucclient "github.com/BruksfildServices01/client-portal/internal/usecase/client"
	paymentuc "github.com/BruksfildServices01/client-portal/internal/usecase/payment"
	"github.com/BruksfildServices01/client-portal/internal/usecase/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logger.New(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := dbpkg.NewDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	clk := clock.NewSystem(cfg.Timezone)
	repo := repository.NewClientGormRepository(db, clk)

	auditDispatcher := audit.NewDispatcher(audit.New(db), log)
	notifier := notify.NewDispatcher(notify.NewLogDeliverer(log), 256, 5*time.Second, log)

	gw, err := newGateway(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("payment gateway unavailable")
	}
	docs := newDocumentStore(cfg, log)
	dedupe, closeDedupe := newDedupe(ctx, cfg, db, clk, log)

	// ======================================================
	// USE CASES
	// ======================================================
	ann := announce.New(auditDispatcher, notifier)
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.StaffTokenTTL, cfg.PortalTokenTTL)

	orch := paymentuc.NewOrchestrator(repo, gw, docs, ann, clk, paymentuc.Config{
		CancellationPeriodBusinessDays: cfg.CancellationPeriodBusinessDays,
		HoldExpiry:                     cfg.HoldExpiry,
		MaxRetryCharges:                cfg.MaxRetryCharges,
		GatewayTimeout:                 cfg.GatewayTimeout,
		RequiredDocuments:              cfg.RequiredDocuments,
	}, log)

	sched := scheduler.New(repo, orch, dedupe, notifier, clk, scheduler.Config{
		CaptureDueSpec:       cfg.CronCaptureDue,
		ExpireStaleSpec:      cfg.CronExpireStale,
		PaymentRemindersSpec: cfg.CronPaymentReminders,
		JobTimeout:           10 * time.Minute,
		ReminderTTL:          48 * time.Hour,
		Location:             timezone.Location(cfg.Timezone),
	}, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	routes.RegisterRoutes(r, routes.Deps{
		DB:         db,
		Clients:    repo,
		Issuer:     issuer,
		Payments:   orch,
		CreateLead: ucclient.NewCreateLead(repo, ann, clk, log),
		Onboarding: ucclient.NewStartOnboarding(repo, issuer, nil, ann, clk, log),
		Cancel:     ucclient.NewCancel(repo, orch, ann, clk, log),
		Tokens:     token.NewService(repo, log),
		Scheduler:  sched,
		Logger:     log,

		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	if err := sched.Start(); err != nil {
		log.WithError(err).Fatal("scheduler failed to start")
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr()).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	sched.Stop(shutdownCtx)
	notifier.Close()
	auditDispatcher.Close()
	closeDedupe()
}

func newGateway(cfg *config.Config, log logrus.FieldLogger) (payment.Gateway, error) {
	if cfg.PaymentGateway == config.GatewayMercadoPago {
		return gateway.NewMercadoPago(cfg.MercadoPagoAccessToken, cfg.CurrencyMinorExponent, nil, log)
	}
	log.Warn("using sandbox payment gateway")
	return gateway.NewSandbox(), nil
}

func newDocumentStore(cfg *config.Config, log logrus.FieldLogger) document.Store {
	if cfg.S3Bucket == "" {
		log.Warn("S3_BUCKET not set, onboarding documents kept in memory")
		return storage.NewMemoryDocuments()
	}
	return storage.NewS3Documents(storage.S3Config{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		Bucket:          cfg.S3Bucket,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
}

func newDedupe(
	ctx context.Context,
	cfg *config.Config,
	db *gorm.DB,
	clk clock.Clock,
	log logrus.FieldLogger,
) (scheduler.Deduper, func()) {

	if cfg.RedisURL == "" {
		return repository.NewReminderGormDedupe(db, clk), func() {}
	}

	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Warn("redis unavailable, reminder dedupe falls back to postgres")
		return repository.NewReminderGormDedupe(db, clk), func() {}
	}
	return cache.NewRedisDedupe(client, "portal:"), func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("redis close")
		}
	}
}
