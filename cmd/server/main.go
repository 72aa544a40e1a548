package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	redisAdapter "github.com/Abdurahmanit/GroupProject/announce-service/internal/adapter/cache/redis"
	emailAdapter "github.com/Abdurahmanit/GroupProject/announce-service/internal/adapter/email"
	mongoAdapter "github.com/Abdurahmanit/GroupProject/announce-service/internal/adapter/mongo"
	natsAdapter "github.com/Abdurahmanit/GroupProject/announce-service/internal/adapter/nats"
	minioAdapter "github.com/Abdurahmanit/GroupProject/announce-service/internal/adapter/storage/minio"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/config"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/index"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/notifier"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/platform/scheduler"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/search"
	"github.com/Abdurahmanit/GroupProject/announce-service/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	configPath := "config.yaml"
	if cp := os.Getenv("CONFIG_PATH"); cp != "" {
		configPath = cp
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logger.Level)
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Configuration loaded",
		zap.String("mongo_database", cfg.Mongo.Database),
		zap.String("index_path", cfg.Index.Path),
	)

	mongoClient, err := mongoAdapter.NewMongoDBConnection(&cfg.Mongo)
	if err != nil {
		zapLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			zapLogger.Error("Failed to disconnect from MongoDB", zap.Error(err))
		}
	}()

	announceRepo := mongoAdapter.NewAnnounceMongoRepository(mongoClient, cfg.Mongo.Database)
	responseRepo := mongoAdapter.NewResponseMongoRepository(mongoClient, cfg.Mongo.Database)
	categoryRepo := mongoAdapter.NewCategoryMongoRepository(mongoClient, cfg.Mongo.Database)
	queueRepo := mongoAdapter.NewActionQueueMongoRepository(mongoClient, cfg.Mongo.Database)
	subscriptionRepo := mongoAdapter.NewSubscriptionMongoRepository(mongoClient, cfg.Mongo.Database)
	filterRepo := mongoAdapter.NewSavedFilterMongoRepository(mongoClient, cfg.Mongo.Database)
	markerRepo := mongoAdapter.NewMarkerMongoRepository(mongoClient, cfg.Mongo.Database)
	userRepo := mongoAdapter.NewUserMongoRepository(mongoClient, cfg.Mongo.Database)

	redisClient, err := redisAdapter.NewRedisClient(&cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	cacheRepo := redisAdapter.NewRedisCacheRepository(redisClient, zapLogger)

	publisher, err := natsAdapter.NewNATSPublisher(&cfg.NATS, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer publisher.Close()

	mailer, err := emailAdapter.NewMailer(&cfg.SMTP, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to configure mailer", zap.Error(err))
	}

	photoStorage, err := minioAdapter.NewStorage(&cfg.MinIO, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize photo storage", zap.Error(err))
	}

	store, created, err := index.Open(cfg.Index.Path)
	if err != nil {
		zapLogger.Fatal("Failed to open search index", zap.Error(err))
	}
	defer store.Close()

	builder := index.NewBuilder(categoryRepo)
	synchronizer := index.NewSynchronizer(store, builder, announceRepo, responseRepo, queueRepo,
		cfg.Index.MaxSkipThreshold, zapLogger)
	planner := search.NewPlanner(store)

	dispatcher := notifier.NewMailDispatcher(userRepo, mailer, cfg.Notifier.Subject, zapLogger)
	differ := notifier.NewDiffer(markerRepo, announceRepo, subscriptionRepo, filterRepo,
		planner, dispatcher, zapLogger)

	announceUC := usecase.NewAnnounceUseCase(announceRepo, responseRepo, categoryRepo, queueRepo,
		cacheRepo, publisher, photoStorage, planner, zapLogger)
	subscriptionUC := usecase.NewSubscriptionUseCase(subscriptionRepo, filterRepo, zapLogger)

	commands := natsAdapter.NewSubscriber(publisher.Conn(), announceUC, subscriptionUC, synchronizer, zapLogger)
	if err := commands.Start(); err != nil {
		zapLogger.Fatal("Failed to register NATS command handlers", zap.Error(err))
	}
	defer commands.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if created {
		zapLogger.Info("Fresh index detected, running initial full rebuild")
		if err := synchronizer.RunFull(ctx); err != nil {
			zapLogger.Error("Initial full rebuild failed", zap.Error(err))
		}
	}

	jobs := scheduler.New(zapLogger)
	jobs.Add(scheduler.Job{
		Name:     "index-incremental-sync",
		Interval: cfg.Index.SyncInterval,
		Run:      synchronizer.RunIncremental,
	})
	jobs.Add(scheduler.Job{
		Name:     "subscription-notifications",
		Interval: cfg.Notifier.Interval,
		Run:      differ.RunOnce,
	})
	jobs.Start(ctx)

	zapLogger.Info("announce-service started")
	<-ctx.Done()
	zapLogger.Info("Shutting down")
	jobs.Wait()
}
