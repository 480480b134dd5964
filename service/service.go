package service

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"fanclub/db"
	"fanclub/db/bookings"
	"fanclub/db/content"
	"fanclub/db/event_archive"
	"fanclub/db/orders"
	"fanclub/db/products"
	"fanclub/db/sessions"
	"fanclub/db/users"
	"fanclub/http"
	"fanclub/pubsub"
	"fanclub/pubsub/bus"
	"fanclub/pubsub/command"
	"fanclub/pubsub/event"
	"fanclub/pubsub/outbox"
)

func init() {
	log.Init(logrus.InfoLevel)
}

// PaymentService is the full payment provider surface: checkout for the
// HTTP layer, refunds for the event handlers.
type PaymentService interface {
	http.PaymentService
	event.PaymentService
}

type Service struct {
	db              *sqlx.DB
	watermillRouter *message.Router
	httpServer      *http.Server
}

func New(
	addr string,
	publicURL string,
	webhookSecret string,
	dbConn *sqlx.DB,
	redisClient *redis.Client,
	paymentService PaymentService,
	roomsService event.RoomsService,
	notificationsService event.NotificationsService,
) Service {
	ordersRepo := orders.NewPostgresRepository(dbConn)
	bookingsRepo := bookings.NewPostgresRepository(dbConn)
	productsRepo := products.NewPostgresRepository(dbConn)
	sessionsRepo := sessions.NewPostgresRepository(dbConn)
	contentRepo := content.NewPostgresRepository(dbConn)
	usersRepo := users.NewPostgresRepository(dbConn)
	eventArchive := event_archive.NewRepository(dbConn)

	watermillLogger := log.NewWatermill(log.FromContext(context.Background()))

	var redisPublisher message.Publisher
	redisPublisher = pubsub.NewRedisPublisher(redisClient, watermillLogger)
	redisPublisher = log.CorrelationPublisherDecorator{Publisher: redisPublisher}

	eventBus, err := bus.NewEventBus(redisPublisher)
	if err != nil {
		panic(fmt.Errorf("failed to create event bus: %w", err))
	}

	eventsHandler := event.NewHandler(
		eventBus,
		roomsService,
		notificationsService,
		paymentService,
		bookingsRepo,
	)

	commandBus, err := bus.NewCommandBus(redisPublisher)
	if err != nil {
		panic(fmt.Errorf("failed to create command bus: %w", err))
	}

	commandsHandler := command.NewHandler(ordersRepo, bookingsRepo)

	postgresSubscriber := outbox.NewPostgresSubscriber(dbConn.DB, watermillLogger)
	eventProcessorConfig := event.NewProcessorConfig(redisClient, watermillLogger)
	commandProcessorConfig := command.NewProcessorConfig(redisClient, watermillLogger)

	redisSubscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        redisClient,
		ConsumerGroup: "svc-fanclub.events",
	}, watermillLogger)
	if err != nil {
		panic(fmt.Errorf("failed to create redis subscriber: %w", err))
	}

	watermillRouter, err := pubsub.NewWatermillRouter(
		postgresSubscriber,
		redisPublisher,
		redisSubscriber,
		eventProcessorConfig,
		eventsHandler,
		commandProcessorConfig,
		commandsHandler,
		eventArchive,
		watermillLogger,
	)
	if err != nil {
		panic(fmt.Errorf("failed to create watermill router: %w", err))
	}

	httpServer := http.NewServer(
		addr,
		commandBus,
		paymentService,
		webhookSecret,
		publicURL,
		ordersRepo,
		bookingsRepo,
		productsRepo,
		sessionsRepo,
		contentRepo,
		usersRepo,
	)

	return Service{
		dbConn,
		watermillRouter,
		httpServer,
	}
}

func (s Service) Run(ctx context.Context) error {
	if err := db.InitializeDatabaseSchema(s.db); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.watermillRouter.Run(ctx)
	})

	g.Go(func() error {
		// the HTTP server starts only once the router is ready, so the
		// service isn't reported healthy before it can process events
		<-s.watermillRouter.Running()

		return s.httpServer.Run(ctx)
	})

	return g.Wait()
}
