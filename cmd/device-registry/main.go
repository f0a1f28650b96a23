package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"device-registry/internal/asset"
	"device-registry/internal/config"
	"device-registry/internal/events"
	"device-registry/internal/httpapi"
	"device-registry/internal/lock"
	"device-registry/internal/logger"
	"device-registry/internal/registry"
	"device-registry/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "device-registry")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, cfg.Mongo.Timeout)
	mongo, err := store.Connect(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Timeout)
	connectCancel()
	if err != nil {
		log.Fatal("MongoDB connection failed", zap.Error(err))
	}

	// Per-device assignment lock: Redis for multi-instance deployments,
	// in-process otherwise.
	var guard lock.Guard
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		guard = lock.NewRedisGuard(redisClient, "device-registry:lock:")
		log.Info("Redis lock guard enabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		guard = lock.NewMemoryGuard()
	}

	var publisher events.Publisher = events.NopPublisher{}
	var mqttPublisher *events.MQTTPublisher
	if cfg.MQTT.Enabled {
		mqttPublisher, err = events.NewMQTTPublisher(events.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Prefix:   cfg.MQTT.Topic,
			QoS:      cfg.MQTT.QoS,
		}, log)
		if err != nil {
			log.Warn("MQTT connection failed, lifecycle events disabled", zap.Error(err))
		} else {
			publisher = mqttPublisher
		}
	}

	reg := registry.New(mongo, guard, publisher, log)
	if err := reg.EnsureIndexes(ctx); err != nil {
		log.Fatal("Index creation failed", zap.Error(err))
	}

	resolver := asset.NewHTTPResolver(cfg.Asset.BaseURL, cfg.Asset.Timeout, log)

	api := httpapi.NewAPI(reg, resolver, log)
	router := httpapi.NewRouter(log)
	router.RegisterRegistryRoutes(api)

	srv := httpapi.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		log.Error("HTTP server exited", zap.Error(err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if mqttPublisher != nil {
		mqttPublisher.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	_ = mongo.Close(shutdownCtx)
}
