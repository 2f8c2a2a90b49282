package feed_test

import (
	"sync"

	"cleantrack/backend/internal/models"
)

type MockClient struct {
	userID      string
	role        models.Role
	RecvChannel chan models.Event

	mu     sync.Mutex
	closed bool
}

func newMockClient(userID string, role models.Role, buffer int) *MockClient {
	return &MockClient{
		userID:      userID,
		role:        role,
		RecvChannel: make(chan models.Event, buffer),
	}
}

func (c *MockClient) GetUserID() string                   { return c.userID }
func (c *MockClient) GetRole() models.Role                { return c.role }
func (c *MockClient) GetSendChannel() chan<- models.Event { return c.RecvChannel }

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Drain returns the events received so far.
func (c *MockClient) Drain() []models.Event {
	var events []models.Event
	for {
		select {
		case ev := <-c.RecvChannel:
			events = append(events, ev)
		default:
			return events
		}
	}
}
