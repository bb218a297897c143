package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sofuled/catalog-service/internal/auth"
	"github.com/sofuled/catalog-service/internal/config"
	httpAPI "github.com/sofuled/catalog-service/internal/http"
	"github.com/sofuled/catalog-service/internal/http/controller"
	"github.com/sofuled/catalog-service/internal/logger"
	"github.com/sofuled/catalog-service/internal/metrics"
	"github.com/sofuled/catalog-service/internal/repository/sql"
	"github.com/sofuled/catalog-service/internal/service"
	sqspkg "github.com/sofuled/catalog-service/internal/sqs"
)

func main() {
	conf, err := config.LoadFromEnv()
	handleErr("loading config", err)

	logger.InitJSONLogger(conf.DebugMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := sql.StartDB(ctx, conf.Database)
	handleErr("starting database", err)
	defer db.Close()

	productRepository := sql.NewProductRepository(db)
	eventRepository := sql.NewEventRepository(db)

	productService := service.NewProductService(productRepository, eventRepository)

	// Event publication is optional; without a queue URL, lifecycle
	// events stay in the outbox table.
	if conf.AWS.SQSQueueURL != "" {
		sqsClient, err := sqspkg.NewClient(ctx, conf.AWS.Region, conf.AWS.Endpoint)
		handleErr("creating SQS client", err)

		publisher := sqspkg.NewPublisher(sqsClient, conf.AWS.SQSQueueURL)
		outboxWorker := service.NewOutboxWorker(eventRepository, publisher, 2*time.Second)
		go outboxWorker.Start(ctx)
	}

	verifier := auth.NewTokenVerifier(conf.Auth.TokenSecret)

	if !conf.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine = httpAPI.InitRouter(verifier, engine, controller.New(), controller.NewProductController(productService))

	httpServer := &http.Server{
		Addr:              ":" + conf.HTTPServer.Port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			handleErr("listening to HTTP requests", err)
		}
	}()

	metrics.StartMetricsServer(conf)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("error during HTTP server shutdown: %v", err)
	}
	cancel()
}

func handleErr(msg string, err error) {
	if err != nil {
		log.Fatalf("error while %s: %v", msg, err)
	}
}
