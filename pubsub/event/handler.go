package event

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"fanclub/entity"
	"fanclub/gateway"
)

type RoomsService interface {
	CreateRoom(ctx context.Context, request gateway.CreateRoomRequest) (string, error)
}

type NotificationsService interface {
	SendEmail(ctx context.Context, email gateway.Email) error
}

type PaymentService interface {
	RefundPayment(ctx context.Context, checkoutSessionID, reason string) error
}

type BookingsRepository interface {
	Get(ctx context.Context, bookingID string) (entity.Booking, error)
	SetRoomURL(ctx context.Context, bookingID, roomURL string) (string, bool, error)
}

type Handler struct {
	eventBus             *cqrs.EventBus
	roomsService         RoomsService
	notificationsService NotificationsService
	paymentService       PaymentService
	bookingsRepo         BookingsRepository
}

func NewHandler(
	eventBus *cqrs.EventBus,
	roomsService RoomsService,
	notificationsService NotificationsService,
	paymentService PaymentService,
	bookingsRepo BookingsRepository,
) Handler {
	if eventBus == nil {
		panic("missing eventBus")
	}
	if roomsService == nil {
		panic("missing roomsService")
	}
	if notificationsService == nil {
		panic("missing notificationsService")
	}
	if paymentService == nil {
		panic("missing paymentService")
	}
	if bookingsRepo == nil {
		panic("missing bookingsRepo")
	}

	return Handler{
		eventBus:             eventBus,
		roomsService:         roomsService,
		notificationsService: notificationsService,
		paymentService:       paymentService,
		bookingsRepo:         bookingsRepo,
	}
}

func NewProcessorConfig(rdb *redis.Client, watermillLogger watermill.LoggerAdapter) cqrs.EventProcessorConfig {
	return cqrs.EventProcessorConfig{
		SubscriberConstructor: func(params cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        rdb,
				ConsumerGroup: "svc-fanclub." + params.HandlerName,
			}, watermillLogger)
		},
		GenerateSubscribeTopic: func(params cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
			return "events." + params.EventName, nil
		},
		Marshaler: cqrs.JSONMarshaler{
			GenerateName: cqrs.StructName,
		},
		Logger: watermillLogger,
	}
}
