package outbox

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	watermillSQL "github.com/ThreeDotsLabs/watermill-sql/v2/pkg/sql"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/jmoiron/sqlx"
)

const Topic = "events_to_forward"

// NewPublisherForDb returns a publisher that stores messages in the
// outbox table within the given transaction. Messages are forwarded to
// the message broker only after the transaction commits.
func NewPublisherForDb(ctx context.Context, tx *sqlx.Tx) (message.Publisher, error) {
	logger := log.NewWatermill(log.FromContext(ctx))

	var publisher message.Publisher
	publisher, err := watermillSQL.NewPublisher(
		tx,
		watermillSQL.PublisherConfig{
			SchemaAdapter: watermillSQL.DefaultPostgreSQLSchema{},
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("could not create outbox publisher: %w", err)
	}

	publisher = forwarder.NewPublisher(publisher, forwarder.PublisherConfig{
		ForwarderTopic: Topic,
	})

	return publisher, nil
}

func NewPostgresSubscriber(db *sql.DB, logger watermill.LoggerAdapter) *watermillSQL.Subscriber {
	subscriber, err := watermillSQL.NewSubscriber(
		db,
		watermillSQL.SubscriberConfig{
			SchemaAdapter:    watermillSQL.DefaultPostgreSQLSchema{},
			OffsetsAdapter:   watermillSQL.DefaultPostgreSQLOffsetsAdapter{},
			InitializeSchema: true,
		},
		logger,
	)
	if err != nil {
		panic(fmt.Errorf("could not create outbox subscriber: %w", err))
	}

	return subscriber
}

// AddForwarderHandler attaches the outbox forwarder to the given
// router, moving committed outbox messages from Postgres to the broker.
func AddForwarderHandler(
	postgresSubscriber message.Subscriber,
	publisher message.Publisher,
	router *message.Router,
	logger watermill.LoggerAdapter,
) {
	_, err := forwarder.NewForwarder(postgresSubscriber, publisher, logger, forwarder.Config{
		ForwarderTopic: Topic,
		Router:         router,
	})
	if err != nil {
		panic(fmt.Errorf("could not create forwarder: %w", err))
	}
}
