package core

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/nandanugg/sonecaz/module/core/domain"
	handler "github.com/nandanugg/sonecaz/module/core/internal/handler/http"
	"github.com/nandanugg/sonecaz/module/core/internal/handler/subscriber"
	"github.com/nandanugg/sonecaz/module/core/internal/repository/database"
	"github.com/nandanugg/sonecaz/module/core/internal/repository/database/postgres"
	"github.com/nandanugg/sonecaz/module/core/internal/repository/database/sqlite"
	placesmongo "github.com/nandanugg/sonecaz/module/core/internal/repository/places/mongo"
	mqttpub "github.com/nandanugg/sonecaz/module/core/internal/repository/publisher/mqtt"
	"github.com/nandanugg/sonecaz/module/core/internal/repository/publisher/rabbitmq"
	"github.com/nandanugg/sonecaz/module/core/internal/repository/sound"
	"github.com/nandanugg/sonecaz/module/core/service"
)

type Deps struct {
	DB       *sql.DB
	DBDriver string
	AMQP     *amqp.Connection
	MQTT     mqtt.Client
	Feed     *service.PositionFeed

	// Optional. A nil Mongo client leaves nearby lookups unavailable and
	// no Kafka brokers disables the Kafka consumer.
	Mongo            *mongo.Client
	MongoDB          string
	PlacesCollection string
	KafkaBrokers     []string
	KafkaTopic       string
	KafkaGroup       string

	LocationTopic string
	DeviceID      string
	Settings      domain.Settings
	Location      *time.Location
	LocalSound    bool
	EffectTimeout time.Duration
	Registerer    prometheus.Registerer
	Logger        *slog.Logger
}

type Module struct {
	Feed      *service.PositionFeed
	Settings  *service.SettingsStore
	Interests *service.InterestStore
	Alarm     *service.DestinationAlarm
	Nearby    *service.NearbyWatch
	Activator *service.RecurringActivator
	History   *service.HistoryService
	Recurring *service.RecurringService
	Places    *placesmongo.PlaceCatalog

	handlers   []interface{ Register(r *gin.RouterGroup) }
	notifier   *rabbitmq.NotificationPublisher
	subscriber *subscriber.LocationSubscriber
	kafka      *subscriber.KafkaConsumer
	logger     *slog.Logger
	stopOnce   sync.Once
}

func repositories(ctx context.Context, db *sql.DB, driver string) (database.HistoryRepository, database.RecurringAlarmRepository, error) {
	switch driver {
	case "postgres":
		if err := postgres.Migrate(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("postgres %w", err)
		}
		return postgres.NewHistoryRepo(db), postgres.NewRecurringRepo(db), nil
	case "sqlite":
		if err := sqlite.Migrate(ctx, db); err != nil {
			return nil, nil, fmt.Errorf("sqlite %w", err)
		}
		return sqlite.NewHistoryRepo(db), sqlite.NewRecurringRepo(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

func Build(ctx context.Context, d Deps) (*Module, error) {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Feed == nil {
		d.Feed = service.NewPositionFeed(d.Logger)
	}

	historyRepo, recurringRepo, err := repositories(ctx, d.DB, d.DBDriver)
	if err != nil {
		return nil, err
	}

	notifier, err := rabbitmq.NewNotificationPublisher(d.AMQP, d.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("notification publisher: %w", err)
	}
	commander := mqttpub.NewDeviceCommander(d.MQTT, d.DeviceID)

	var places *placesmongo.PlaceCatalog
	if d.Mongo != nil {
		places = placesmongo.NewPlaceCatalog(d.Mongo.Database(d.MongoDB).Collection(d.PlacesCollection))
		if err := places.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("places: %w", err)
		}
	}

	metrics := service.NewMetrics(d.Registerer)
	settings := service.NewSettingsStore(d.Settings)
	interests := service.NewInterestStore()
	historySvc := service.NewHistoryService(historyRepo)
	recurringSvc := service.NewRecurringService(recurringRepo, nil)

	sinks := service.Sinks{
		Haptic:       commander,
		Notification: notifier,
		Sound:        commander,
		Visual:       commander,
		History:      historySvc,
	}
	if d.LocalSound {
		sinks.Sound = sound.NewPlayer(d.Logger.With("component", "sound"))
	}
	dispatcher := service.NewEffectDispatcher(sinks, d.EffectTimeout, d.Logger.With("component", "dispatcher"), metrics)

	alarm := service.NewDestinationAlarm(d.Feed, dispatcher, settings, service.AlarmOptions{
		Location: d.Location,
		Logger:   d.Logger.With("component", "alarm"),
		Metrics:  metrics,
	})

	var lookup service.PlaceLookup = places
	nearby := service.NewNearbyWatch(d.Feed, lookup, interests, settings, dispatcher, service.NearbyOptions{
		Location: d.Location,
		Logger:   d.Logger.With("component", "nearby"),
		Metrics:  metrics,
	})

	activator := service.NewRecurringActivator(recurringSvc, alarm, settings, service.ActivatorOptions{
		Location:   d.Location,
		Logger:     d.Logger.With("component", "recurring"),
		Metrics:    metrics,
		Dispatcher: dispatcher,
	})

	m := &Module{
		Feed:      d.Feed,
		Settings:  settings,
		Interests: interests,
		Alarm:     alarm,
		Nearby:    nearby,
		Activator: activator,
		History:   historySvc,
		Recurring: recurringSvc,
		Places:    places,
		handlers: []interface{ Register(r *gin.RouterGroup) }{
			handler.NewAlarmHandler(alarm, settings),
			handler.NewHistoryHandler(historySvc),
			handler.NewRecurringHandler(recurringSvc, nil),
			handler.NewSettingsHandler(settings),
			handler.NewListHandler(interests),
			handler.NewPositionHandler(d.Feed, nil),
		},
		notifier:   notifier,
		subscriber: subscriber.NewLocationSubscriber(d.MQTT, d.LocationTopic, d.Feed),
		logger:     d.Logger,
	}
	if len(d.KafkaBrokers) > 0 {
		m.kafka = subscriber.NewKafkaConsumer(d.KafkaBrokers, d.KafkaTopic, d.KafkaGroup, d.Feed)
	}
	return m, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	for _, h := range m.handlers {
		h.Register(r)
	}
}

// Run starts the subscribers, the nearby watch and the recurring
// activator, and blocks until ctx is done.
func (m *Module) Run(ctx context.Context) error {
	if err := m.subscriber.Start(); err != nil {
		return fmt.Errorf("mqtt subscribe: %w", err)
	}
	m.Nearby.Start(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.Activator.Run(ctx) })
	if m.kafka != nil {
		g.Go(func() error { return m.kafka.Run(ctx) })
	}
	g.Go(func() error {
		<-ctx.Done()
		m.Stop()
		return nil
	})
	return g.Wait()
}

// NotificationChannelOpen reports the AMQP channel notifications go out on.
func (m *Module) NotificationChannelOpen() bool {
	return m.notifier.ChannelOpen()
}

// Reconnected restores the MQTT location subscription. Wire it to the
// client's connect handler.
func (m *Module) Reconnected() {
	if err := m.subscriber.Resubscribe(); err != nil {
		m.logger.Warn("mqtt resubscribe failed", "error", err)
		return
	}
	m.logger.Info("mqtt reconnected")
}

// Stop unsubscribes both watches and closes the feed.
func (m *Module) Stop() {
	m.stopOnce.Do(func() {
		if err := m.subscriber.Stop(); err != nil {
			m.logger.Warn("mqtt unsubscribe failed", "error", err)
		}
		m.Nearby.Stop()
		m.Alarm.Disarm()
		m.Feed.Close()
	})
}
