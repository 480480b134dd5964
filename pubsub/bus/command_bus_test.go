package bus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fanclub/entity"
)

func TestCommandBusPublishesToPerCommandTopic(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() {
		_ = pubSub.Close()
	})

	// subscribe with the same topic naming the command processor uses
	topic := CommandTopic(cqrs.StructName(entity.CancelOrder{}))
	messages, err := pubSub.Subscribe(context.Background(), topic)
	require.NoError(t, err)

	commandBus, err := NewCommandBus(pubSub)
	require.NoError(t, err)

	err = commandBus.Send(context.Background(), entity.CancelOrder{
		Header:  entity.NewEventHeader(),
		OrderID: "order-1",
	})
	require.NoError(t, err)

	select {
	case msg := <-messages:
		assert.Contains(t, string(msg.Payload), "order-1")
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("command was not delivered on the per-command topic")
	}
}
