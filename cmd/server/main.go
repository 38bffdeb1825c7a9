package main

import (
	"context"
	"errors"

	availabilitycache "bizqueue/internal/availability/cache"
	availabilityhandler "bizqueue/internal/availability/handler"
	availabilityrepo "bizqueue/internal/availability/repository"
	availabilityservice "bizqueue/internal/availability/service"
	availabilityvalidator "bizqueue/internal/availability/validator"
	bookinghandler "bizqueue/internal/bookings/handler"
	bookingrepo "bizqueue/internal/bookings/repository"
	bookingservice "bizqueue/internal/bookings/service"
	bookingvalidator "bizqueue/internal/bookings/validator"
	cataloghandler "bizqueue/internal/catalog/handler"
	catalogrepo "bizqueue/internal/catalog/repository"
	catalogservice "bizqueue/internal/catalog/service"
	discoveryhandler "bizqueue/internal/discovery/handler"
	discoveryservice "bizqueue/internal/discovery/service"
	"bizqueue/internal/events"
	"bizqueue/internal/geoindex"
	"bizqueue/pkg/app"
	"bizqueue/pkg/clock"
	"bizqueue/pkg/config"
	"bizqueue/pkg/kafka"
	kafkaconfig "bizqueue/pkg/kafka/config"
	kafkamiddleware "bizqueue/pkg/kafka/middleware"
	"bizqueue/pkg/telemetry"

	"github.com/google/uuid"
)

const ServiceName = "bizqueue"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	serverApp := app.NewApplication()
	serverApp.OnShutdown("mongo", func(context.Context) error {
		cfg.GracefulShutdown()
		return nil
	})

	shutdownTracing, err := telemetry.Setup(context.Background(), ServiceName, cfg.OTelEndpoint)
	if err != nil {
		cfg.Log.Fatal("Failed to set up tracing", "error", err)
	}
	serverApp.OnShutdown("tracing", shutdownTracing)

	clk := clock.NewSystem()
	statusCache := availabilitycache.NewStatusCache(cfg.AvailabilityCacheSize, cfg.AvailabilityCacheTTL)
	publisher := initEvents(cfg, serverApp, statusCache)

	statusService := availabilityservice.NewStatusService(
		availabilityrepo.NewMongoStatusRepository(cfg),
		statusCache,
		availabilityvalidator.NewStatusValidator(cfg.Log),
		publisher,
		clk,
		cfg,
	)

	businessRepo := catalogrepo.NewMongoBusinessRepository(cfg)
	catalogService := catalogservice.NewCatalogService(
		businessRepo,
		catalogrepo.NewMongoServiceRepository(cfg),
		catalogrepo.NewMongoEmployeeRepository(cfg),
		statusService,
		cfg,
	)

	discoveryService := discoveryservice.NewDiscoveryService(
		geoindex.New(businessRepo),
		catalogService,
		statusService,
		cfg,
	)

	bookingService := bookingservice.NewBookingService(
		bookingrepo.NewMongoBookingRepository(cfg),
		bookingrepo.NewSlotLockRepository(cfg),
		catalogService,
		bookingvalidator.NewBookingValidator(cfg.Log),
		publisher,
		clk,
		cfg,
	)

	serverApp.SetApp(cfg,
		cataloghandler.NewHealthHandler(cfg.Client.Mongo.Client, cfg.Log),
		cataloghandler.NewBusinessHandler(catalogService, cfg.Log),
		availabilityhandler.NewStatusHandler(statusService, cfg.Log),
		discoveryhandler.NewDiscoveryHandler(discoveryService, discoveryhandler.RadiusLimits{
			DefaultKm: cfg.DefaultRadiusKm,
			MaxKm:     cfg.MaxRadiusKm,
		}, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, cfg.Log),
	)

	cfg.Log.Info("Services initialized",
		"database", cfg.MongoDatabaseName,
		"slot_policy", cfg.BookingSlotPolicy,
		"events_enabled", cfg.EventsEnabled,
	)
	serverApp.Run()
}

// initEvents wires Kafka when enabled. Each process gets its own consumer
// group so every instance sees every status change and can drop its cache.
func initEvents(cfg *config.Config, serverApp *app.Application, statusCache availabilitycache.StatusCache) events.Publisher {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Domain events disabled")
		return events.NopPublisher{}
	}

	kafkaCfg, err := kafkaconfig.Parse()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	origin := uuid.NewString()

	statusProducer := newProducer(cfg, kafkaCfg, cfg.StatusTopic)
	bookingProducer := newProducer(cfg, kafkaCfg, cfg.BookingTopic)
	serverApp.OnShutdown("kafka-producers", func(context.Context) error {
		return errors.Join(statusProducer.Close(), bookingProducer.Close())
	})

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.StatusTopic,
		ServiceName+"-status-"+origin,
		events.NewStatusInvalidationHandler(statusCache, origin, cfg.Log),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create status consumer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		consumer.Use(kafkamiddleware.TracingConsumerMiddleware())
		consumer.Use(kafkamiddleware.LoggingConsumerMiddleware(cfg.Log))
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			cfg.Log.Error("Status consumer stopped", "error", err)
		}
	}()
	serverApp.OnShutdown("kafka-consumer", func(context.Context) error {
		cancel()
		return consumer.Close()
	})

	cfg.Log.Info("Domain events enabled",
		"status_topic", cfg.StatusTopic,
		"booking_topic", cfg.BookingTopic,
		"origin", origin,
	)
	return events.NewKafkaPublisher(statusProducer, bookingProducer, ServiceName, origin)
}

func newProducer(cfg *config.Config, kafkaCfg *kafkaconfig.Config, topic string) *kafka.Producer {
	producer, err := kafka.NewProducer(kafkaCfg, topic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "topic", topic, "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafkamiddleware.TracingProducerMiddleware())
		producer.Use(kafkamiddleware.LoggingProducerMiddleware(cfg.Log))
	}
	return producer
}
