package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/poundtrades/catalog-service/internal/adapter/messaging/nats"
	"github.com/poundtrades/catalog-service/internal/adapter/repository/cache"
	"github.com/poundtrades/catalog-service/internal/adapter/repository/mongodb"
	"github.com/poundtrades/catalog-service/internal/adapter/rest"
	"github.com/poundtrades/catalog-service/internal/adapter/storage/s3"
	"github.com/poundtrades/catalog-service/internal/config"
	"github.com/poundtrades/catalog-service/internal/listing/usecase"
	"github.com/poundtrades/catalog-service/internal/mailer"
	"github.com/poundtrades/catalog-service/internal/platform/logger"
	"github.com/poundtrades/catalog-service/internal/platform/tracer"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.New()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	tp := tracer.InitTracer()
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", "error", err.Error())
		}
	}()

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", "error", err.Error())
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	db := mongoClient.Database(cfg.MongoDB)

	listingRepo := mongodb.NewListingRepository(db, appLogger)
	categoryRepo := mongodb.NewCategoryRepository(db, appLogger)
	favoriteRepo := mongodb.NewFavoriteRepository(db, appLogger)
	unlockRepo := mongodb.NewUnlockRepository(db, appLogger)
	userRepo := mongodb.NewUserRepository(db, appLogger)

	if err := favoriteRepo.EnsureIndexes(context.Background()); err != nil {
		appLogger.Warn("Failed to ensure favorite indexes", "error", err.Error())
	}

	listingCache, err := cache.NewListingCache(cfg.RedisAddress)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", "address", cfg.RedisAddress, "error", err.Error())
	}

	storageClient, err := s3.NewS3Storage(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOBucket, cfg.MinIOUseSSL, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize storage", "error", err.Error())
	}

	origin := uuid.New().String()
	natsPublisher, err := nats.NewPublisher(cfg.NATSURL, origin)
	if err != nil {
		appLogger.Fatal("Failed to initialize NATS publisher", "error", err.Error())
	}
	defer natsPublisher.Close()

	smtpMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword)

	catalogUc := usecase.NewCatalogUsecase(listingRepo, favoriteRepo, categoryRepo, listingCache, cfg.CacheTTL, cfg.RemoteTimeout, appLogger)
	listingUc := usecase.NewListingUsecase(listingRepo, storageClient, natsPublisher, userRepo, smtpMailer, catalogUc, cfg.RemoteTimeout, appLogger)
	photoUc := usecase.NewPhotoUsecase(storageClient, listingRepo, natsPublisher, catalogUc, cfg.RemoteTimeout, appLogger)
	favoriteUc := usecase.NewFavoriteUsecase(favoriteRepo, natsPublisher, catalogUc, cfg.RemoteTimeout, appLogger)
	unlockUc := usecase.NewUnlockUsecase(unlockRepo, natsPublisher, cfg.RemoteTimeout, appLogger)

	subscriber, err := nats.NewSubscriber(cfg.NATSURL, origin, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize NATS subscriber", "error", err.Error())
	}
	defer subscriber.Close()
	if err := subscriber.Start(catalogUc.ApplyChange); err != nil {
		appLogger.Fatal("Failed to subscribe to change feed", "error", err.Error())
	}

	handler := rest.NewHandler(catalogUc, listingUc, photoUc, favoriteUc, unlockUc, appLogger)
	mux := rest.NewRouter(handler, cfg.JWTSecret, appLogger)
	server, cleanup := rest.NewServer(":"+cfg.HTTPPort, mux, appLogger)
	defer cleanup()

	go func() {
		appLogger.Info("Starting HTTP server", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server failed", "error", err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down")
}
