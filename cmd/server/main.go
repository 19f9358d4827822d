package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sos-service/config"
	"sos-service/internal/alert"
	"sos-service/internal/notify"
	"sos-service/internal/realtime"
	"sos-service/internal/user"
	"sos-service/pkg/consul"
	"sos-service/pkg/firebase"
	redisclient "sos-service/pkg/redis"
	"sos-service/pkg/zap"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.LoadConfig()

	logger, err := zap.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	consulConn := consul.NewConsulConn(logger, cfg)
	consulConn.Connect()
	defer consulConn.Deregister()

	mongoClient, err := connectToMongoDB(cfg.MongoURI)
	if err != nil {
		logger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Fatal(err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	_, messagingClient, err := firebase.SetUpFireBase(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Realtime channel: redis pub/sub backplane bridged into the local
	// websocket hub.
	hub := realtime.NewHub(logger)
	go hub.Run(ctx)
	realtime.RunSubscriber(ctx, redisClient, hub, logger)
	publisher := realtime.NewRedisPublisher(redisClient)

	db := mongoClient.Database(cfg.MongoDB)
	userRepository := user.NewUserRepository(db.Collection("users"))
	alertRepository := alert.NewAlertRepository(db.Collection("sosalerts"))

	pushSender := notify.NewPushSender(messagingClient, cfg.PushBatchSize, logger)
	notifier := notify.NewNotifier(userRepository, pushSender, publisher, logger)

	alertService := alert.NewAlertService(alertRepository, userRepository, notifier, logger, cfg)
	alertHandler := alert.NewAlertHandler(alertService)

	router := gin.Default()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ws", realtime.ServeWS(hub, cfg.JWTSecret))
	alert.RegisterRoutes(router, alertHandler, cfg.JWTSecret)

	// Expiration sweeper. Overlapping runs are safe: a second resolve on the
	// same alert is rejected as already resolved and skipped.
	c := cron.New(cron.WithSeconds())
	_, err = c.AddFunc(cfg.SweepCron, func() {
		sweepCtx, sweepCancel := context.WithTimeout(ctx, time.Minute)
		defer sweepCancel()
		if err := alertService.SweepExpired(sweepCtx); err != nil {
			logger.Errorf("SweepExpired failed: %v", err)
		}
	})
	if err != nil {
		logger.Fatalf("Failed to schedule expiration sweep: %v", err)
	}
	c.Start()
	defer c.Stop()

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("Error shutting down server: %v", err)
	}
	logger.Info("Server stopped")
}

func connectToMongoDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Println("Failed to connect to MongoDB")
		return nil, err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		log.Println("Failed to ping MongoDB")
		return nil, err
	}

	log.Println("Successfully connected to MongoDB")
	return client, nil
}
