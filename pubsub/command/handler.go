package command

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/redis/go-redis/v9"

	"fanclub/entity"
	"fanclub/pubsub/bus"
)

type OrdersRepository interface {
	Cancel(ctx context.Context, orderID string) (entity.Order, error)
}

type BookingsRepository interface {
	Cancel(ctx context.Context, bookingID string) (entity.Booking, error)
	Complete(ctx context.Context, bookingID string) error
}

type Handler struct {
	ordersRepo   OrdersRepository
	bookingsRepo BookingsRepository
}

func NewHandler(
	ordersRepo OrdersRepository,
	bookingsRepo BookingsRepository,
) Handler {
	if ordersRepo == nil {
		panic("missing ordersRepo")
	}
	if bookingsRepo == nil {
		panic("missing bookingsRepo")
	}

	return Handler{
		ordersRepo:   ordersRepo,
		bookingsRepo: bookingsRepo,
	}
}

func NewProcessorConfig(rdb *redis.Client, watermillLogger watermill.LoggerAdapter) cqrs.CommandProcessorConfig {
	return cqrs.CommandProcessorConfig{
		SubscriberConstructor: func(params cqrs.CommandProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        rdb,
				ConsumerGroup: "svc-fanclub.commands." + params.HandlerName,
			}, watermillLogger)
		},
		GenerateSubscribeTopic: func(params cqrs.CommandProcessorGenerateSubscribeTopicParams) (string, error) {
			return bus.CommandTopic(params.CommandName), nil
		},
		Marshaler: cqrs.JSONMarshaler{
			GenerateName: cqrs.StructName,
		},
		Logger: watermillLogger,
	}
}
