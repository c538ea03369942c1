package main

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/config"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/events"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/gateway"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/handler"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/infra/db"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/infra/kafka"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/infra/redisx"
	infraRepo "github.com/riturajpurohit95/shopSphere-sub000/internal/infra/repository"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/metrics"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/server"
	"github.com/riturajpurohit95/shopSphere-sub000/internal/usecase"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Connect()
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := db.Migrate(db.DSN()); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("migrations applied")

	// metrics
	mp, err := metrics.NewProvider(ctx, metrics.ProviderConfig{
		ServiceName: cfg.OTelServiceName,
		Endpoint:    cfg.OTelEndpoint,
		Insecure:    cfg.OTelInsecure,
	})
	if err != nil {
		log.Fatalf("metrics provider: %v", err)
	}
	meter := metrics.NoopMeter()
	if mp != nil {
		meter = mp.Meter(cfg.OTelServiceName)
	}
	m, err := metrics.New(meter)
	if err != nil {
		log.Fatalf("metrics: %v", err)
	}

	// events
	var pub events.Publisher = events.NopPublisher{}
	var producer *kafka.Producer
	// outlives ctx so publishes from in-flight requests are flushed
	producerCtx, stopProducer := context.WithCancel(context.Background())
	defer stopProducer()
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafka.NewProducer(cfg.KafkaBrokers, 256)
		producer.Start(producerCtx)
		pub = producer
		log.Printf("kafka producer started brokers=%v", cfg.KafkaBrokers)
	}

	var dedup usecase.Deduper
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			log.Fatalf("redis: %v", err)
		}
		dedup = redisx.NewDeduper(rdb, "payment-result", redisx.TTLDedup)
	}

	gw := gateway.NewBreakerGateway(
		gateway.NewMockGateway(time.Now().UnixNano(), cfg.GatewaySuccessRate),
		gateway.BreakerSettings{},
	)

	// usecases
	tx := infraRepo.NewTxManagerGorm(gormDB)
	orderUC := usecase.NewOrderUsecase(tx, pub, m)
	syncUC := usecase.NewSynchronizer(tx, pub, m)
	paymentUC := usecase.NewPaymentUsecase(tx, gw, dedup, syncUC, pub, m)
	adminOrderUC := usecase.NewAdminOrderUsecase(tx, orderUC, pub, m)
	productUC := usecase.NewProductUsecase(tx)
	cartUC := usecase.NewCartUsecase(tx)
	reaper := usecase.NewReaper(tx, pub, m, usecase.ReaperConfig{
		Expiry:   cfg.OrderExpiry,
		Interval: cfg.ReaperInterval,
		Batch:    cfg.ReaperBatch,
	}, nil)

	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		reaper.Run(ctx)
	}()

	if len(cfg.KafkaBrokers) > 0 {
		consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, events.TopicPaymentResults, cfg.KafkaWorkers)
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := consumer.Start(ctx, handler.PaymentResultConsumer(paymentUC)); err != nil {
				log.Printf("payment result consumer stopped: %v", err)
			}
		}()
	}

	srv := server.New(cfg, server.Handlers{
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC, orderUC),
		Order:        handler.NewOrderHandler(orderUC, paymentUC),
		AdminOrder:   handler.NewAdminOrderHandler(adminOrderUC, reaper),
		Webhook:      handler.NewWebhookHandler(paymentUC, cfg.WebhookSecret),
	}, m)

	go func() {
		log.Printf("listening on :%s", cfg.Port)
		if err := srv.Start(); err != nil {
			log.Printf("http server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	workers.Wait()
	stopProducer()
	if producer != nil {
		producer.WaitClosed()
	}
	if mp != nil {
		if err := mp.Shutdown(shutdownCtx); err != nil {
			log.Printf("metrics shutdown: %v", err)
		}
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
