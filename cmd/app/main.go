// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/config"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/adapter"
	pg "github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/db/postgres"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/logging"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/metrics"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/payment/click"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/payment/payme"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/payment/uzum"
	red "github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/redis"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/sched"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/web"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/worker"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, verbose level)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	payRepo := pg.NewPaymentRepo(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPlanRepo(pool), redisClient)
	subRepo := pg.NewSubscriptionRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Use cases ----
	subUC := usecase.NewSubscriptionUseCase(subRepo, planRepo, tm, logger)
	engine := usecase.NewReconcileUseCase(payRepo, planRepo, subUC, tm, logger)

	// ---- Provider adapters ----
	paymeCfg := payme.Config{
		MerchantKey: cfg.Payment.Payme.MerchantKey,
		TestKey:     cfg.Payment.Payme.TestKey,
		CheckoutURL: cfg.Payment.Payme.CheckoutURL,
		MerchantID:  cfg.Payment.Payme.MerchantID,
	}
	clickCfg := click.Config{
		ServiceID:      cfg.Payment.Click.ServiceID,
		MerchantID:     cfg.Payment.Click.MerchantID,
		MerchantUserID: cfg.Payment.Click.MerchantUserID,
		SecretKey:      cfg.Payment.Click.SecretKey,
	}
	uzumCfg := uzum.Config{
		ServiceID: cfg.Payment.Uzum.ServiceID,
		SecretKey: cfg.Payment.Uzum.SecretKey,
		PayURL:    cfg.Payment.Uzum.PayURL,
	}

	var linkers []adapter.CheckoutLinker
	if paymeCfg.MerchantKey != "" {
		linkers = append(linkers, payme.NewLinker(paymeCfg))
	}
	if clickCfg.SecretKey != "" {
		linkers = append(linkers, click.NewLinker(clickCfg))
	}
	if uzumCfg.SecretKey != "" {
		linkers = append(linkers, uzum.NewLinker(uzumCfg))
	}
	paymentUC := usecase.NewPaymentUseCase(payRepo, planRepo, linkers, logger)
	planUC := usecase.NewPlanUseCase(planRepo)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.HTTP.AdminKey, cfg.HTTP.AdminPass, cfg.HTTP.AdminTTL)
	srv := web.NewServer(
		paymentUC,
		planUC,
		engine,
		payme.NewHandler(engine, paymeCfg, logger),
		click.NewHandler(engine, clickCfg, logger),
		uzum.NewHandler(engine, uzumCfg, logger),
		auth,
		logger,
	)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Activation backlog worker ----
	wp := worker.NewPool(cfg.Worker.PoolSize, logger)
	wp.Start(ctx)
	aw := sched.NewActivationWorker(engine, payRepo, wp, locker, cfg.Worker.ActivationInterval, cfg.Worker.ActivationBatch, logger)
	go aw.Start(ctx)

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	wp.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
