package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/nandanugg/sonecaz/config"
	"github.com/nandanugg/sonecaz/module/core"
	"github.com/nandanugg/sonecaz/module/core/domain"
	"github.com/nandanugg/sonecaz/module/core/service"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		log.Fatalf("settings: %v", err)
	}

	db, err := config.NewDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer func() { _ = amqpConn.Close() }()

	feed := service.NewPositionFeed(logger.With("component", "feed"))
	var built atomic.Pointer[core.Module]
	mqttClient, err := config.NewMQTT(cfg, config.MQTTHooks{
		OnLost: func(err error) {
			feed.PublishError(fmt.Errorf("%w: %v", domain.ErrPositionUnavailable, err))
		},
		OnConnect: func() {
			if m := built.Load(); m != nil {
				m.Reconnected()
			}
		},
	})
	if err != nil {
		log.Fatalf("mqtt: %v", err)
	}
	defer mqttClient.Disconnect(250)

	mongoClient, err := config.NewMongo(ctx, cfg)
	if err != nil {
		log.Fatalf("mongo: %v", err)
	}
	if mongoClient != nil {
		defer func() { _ = mongoClient.Disconnect(context.Background()) }()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	coreModule, err := core.Build(ctx, core.Deps{
		DB:               db,
		DBDriver:         cfg.DBDriver,
		AMQP:             amqpConn,
		MQTT:             mqttClient,
		Feed:             feed,
		Mongo:            mongoClient,
		MongoDB:          cfg.MongoDB,
		PlacesCollection: cfg.MongoPlacesCollection,
		KafkaBrokers:     cfg.KafkaBrokers,
		KafkaTopic:       cfg.KafkaTopic,
		KafkaGroup:       cfg.KafkaGroup,
		LocationTopic:    cfg.MQTTLocationTopic,
		DeviceID:         cfg.DeviceID,
		Settings:         settings,
		Location:         loc,
		LocalSound:       cfg.SoundOutput == "local",
		EffectTimeout:    cfg.EffectTimeout,
		Registerer:       reg,
		Logger:           logger,
	})
	if err != nil {
		log.Fatalf("core module: %v", err)
	}
	built.Store(coreModule)

	r := gin.Default()

	health := config.NewHealthChecker(db, amqpConn, mqttClient, mongoClient).
		WithAMQPChannel(coreModule.NotificationChannelOpen)
	health.Register(r)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	coreModule.RegisterRoutes(&r.RouterGroup)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: r}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return coreModule.Run(ctx) })
	if cfg.SettingsFile != "" {
		watcher, err := config.NewSettingsWatcher(cfg.SettingsFile, coreModule.Settings, logger.With("component", "settings"))
		if err != nil {
			log.Fatalf("settings watcher: %v", err)
		}
		g.Go(func() error { return watcher.Run(ctx) })
	}
	g.Go(func() error {
		log.Printf("listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("stopped")
}
