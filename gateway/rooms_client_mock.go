package gateway

import (
	"context"
	"fmt"
	"sync"
)

type RoomsMock struct {
	mock sync.Mutex

	CreatedRooms []CreateRoomRequest
	Err          error
}

func (c *RoomsMock) CreateRoom(ctx context.Context, request CreateRoomRequest) (string, error) {
	c.mock.Lock()
	defer c.mock.Unlock()

	if c.Err != nil {
		return "", c.Err
	}

	c.CreatedRooms = append(c.CreatedRooms, request)
	return fmt.Sprintf("https://rooms.example.com/%s", request.Name), nil
}

// CreateRoomCalls counts provider calls, for asserting that duplicate
// deliveries provision at most one room.
func (c *RoomsMock) CreateRoomCalls() int {
	c.mock.Lock()
	defer c.mock.Unlock()
	return len(c.CreatedRooms)
}
