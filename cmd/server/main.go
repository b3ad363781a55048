package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Skotchmaster/storefront-fulfillment/internal/aftercommit"
	"github.com/Skotchmaster/storefront-fulfillment/internal/audit"
	"github.com/Skotchmaster/storefront-fulfillment/internal/cache"
	"github.com/Skotchmaster/storefront-fulfillment/internal/cancellation"
	"github.com/Skotchmaster/storefront-fulfillment/internal/config"
	"github.com/Skotchmaster/storefront-fulfillment/internal/db"
	"github.com/Skotchmaster/storefront-fulfillment/internal/events"
	"github.com/Skotchmaster/storefront-fulfillment/internal/gateway"
	"github.com/Skotchmaster/storefront-fulfillment/internal/httpserver"
	"github.com/Skotchmaster/storefront-fulfillment/internal/logging"
	"github.com/Skotchmaster/storefront-fulfillment/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront-fulfillment/internal/middleware/logging"
	"github.com/Skotchmaster/storefront-fulfillment/internal/mykafka"
	"github.com/Skotchmaster/storefront-fulfillment/internal/notify"
	"github.com/Skotchmaster/storefront-fulfillment/internal/payment"
	"github.com/Skotchmaster/storefront-fulfillment/internal/repo"
	"github.com/Skotchmaster/storefront-fulfillment/internal/webhook"
)

func main() {
	cfg := config.LoadServer()

	logger, err := logging.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	logger = logger.With(zap.String("service", cfg.ServiceName))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Fatal("db init error", zap.Error(err))
	}

	r := repo.New(gdb)
	hooks := &aftercommit.Hooks{Notifier: notify.LogNotifier{Log: logger}}
	optional := map[string]httpserver.Pinger{}

	var prod *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = mykafka.NewProducer(cfg.KafkaBrokers)
		hooks.Events = &events.Publisher{W: prod, Topic: cfg.KafkaEventsTopic, Producer: cfg.ServiceName}
		if cfg.KafkaEmailTopic != "" {
			hooks.Notifier = &notify.KafkaNotifier{W: prod, Topic: cfg.KafkaEmailTopic}
		}
	}
	if cfg.SMTP.Host != "" {
		hooks.Notifier = notify.NewSMTPNotifier(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
	}

	var statusCache *cache.StatusCache
	if cfg.RedisAddr != "" {
		statusCache = &cache.StatusCache{RDB: cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), TTL: cfg.StatusTTL}
		hooks.Cache = statusCache
		optional["redis"] = statusCache
	}

	var auditIndex *audit.Indexer
	if cfg.ESURL != "" {
		es, err := audit.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			logger.Fatal("elasticsearch init error", zap.Error(err))
		}
		auditIndex = &audit.Indexer{ES: es, Index: cfg.ESAuditIndex}
		hooks.Audit = auditIndex
	}

	proc := &cancellation.Processor{Repo: r, Hooks: hooks}
	payments := &payment.Service{
		Repo:           r,
		Gateway:        gateway.NewClient(cfg.Payment.APIURL, cfg.Payment.SecretKey, cfg.Payment.PublicKey, cfg.Payment.CheckoutURL),
		IntegrationIDs: cfg.Payment.IntegrationIDs,
	}
	if statusCache != nil {
		payments.Cache = statusCache
	}
	secret := []byte(cfg.Payment.HMACSecret)

	admin := &httpserver.AdminHTTP{Cancel: proc, Repo: r}
	if auditIndex != nil {
		admin.Audit = auditIndex
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		OrderHandler: &httpserver.OrderHTTP{Cancel: proc, Payments: payments},
		AdminHandler: admin,
		PaymentHandler: &httpserver.PaymentHTTP{
			Reconciler:      &webhook.Reconciler{Repo: r, Secret: secret, Hooks: hooks},
			Redirects:       &webhook.Redirects{Lookup: r, Secret: secret},
			FrontendBaseURL: cfg.FrontendBaseURL,
		},
		HealthHandler: &httpserver.HealthHTTP{DB: gdb, Optional: optional},
		JWTSecret:     cfg.JWTAccessSecret,
		CSRF: csrf.Config{
			Secure:         cfg.CSRFSecure,
			TrustedOrigins: trustedOrigins(cfg.FrontendBaseURL),
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("http server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", zap.Error(err))
		}
	}
	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka close error", zap.Error(err))
		}
	}
	if statusCache != nil {
		if err := statusCache.RDB.Close(); err != nil {
			logger.Error("redis close error", zap.Error(err))
		}
	}

	logger.Info("shutdown complete")
}

func trustedOrigins(frontend string) []string {
	if frontend == "" {
		return nil
	}
	return []string{frontend}
}
