// Package feed pushes complaint events to connected clients. A single hub
// goroutine registers clients and fans events out; with Redis configured the
// events travel through pub/sub so every server instance sees them.
package feed

import (
	"context"
	"log"
	"sync"

	"cleantrack/backend/internal/models"
	"cleantrack/backend/internal/storage"
)

// ManagerService is the hub.
type ManagerService struct {
	mu      sync.RWMutex
	Clients map[string]Client

	RegisterCh   chan Client
	UnregisterCh chan Client
	EventsCh     chan models.Event

	// Bus is optional. When set, Publish goes through Redis and the hub
	// delivers what it receives from the subscription.
	Bus *storage.EventBus

	done chan struct{}
}

func NewManagerService(bus *storage.EventBus) *ManagerService {
	return &ManagerService{
		Clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		EventsCh:     make(chan models.Event, 64),
		Bus:          bus,
		done:         make(chan struct{}),
	}
}

// Done is closed once Run has returned.
func (m *ManagerService) Done() <-chan struct{} {
	return m.done
}

// Register hands a client to the hub. It reports false once the hub has
// stopped; the caller then still owns the connection.
func (m *ManagerService) Register(client Client) bool {
	select {
	case m.RegisterCh <- client:
		return true
	case <-m.done:
		return false
	}
}

// Publish hands an event to the hub, directly or through the bus.
func (m *ManagerService) Publish(ctx context.Context, ev models.Event) error {
	if m.Bus != nil {
		return m.Bus.Publish(ctx, ev)
	}
	select {
	case m.EventsCh <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes registrations and events until ctx is cancelled. All
// connected clients are closed on the way out.
func (m *ManagerService) Run(ctx context.Context) {
	defer close(m.done)
	if m.Bus != nil {
		m.startPubSubListener(ctx)
	}

	for {
		select {
		case client := <-m.RegisterCh:
			m.register(client)

		case client := <-m.UnregisterCh:
			m.unregister(client)

		case ev := <-m.EventsCh:
			m.deliver(ev)

		case <-ctx.Done():
			m.closeAll()
			return
		}
	}
}

// startPubSubListener forwards events published by any instance to this hub.
func (m *ManagerService) startPubSubListener(ctx context.Context) {
	pubsub := m.Bus.Subscribe(ctx)
	go func() {
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ev, err := storage.DecodeEvent(msg.Payload)
				if err != nil {
					log.Printf("ERROR: Failed to decode feed event: %v", err)
					continue
				}
				select {
				case m.EventsCh <- ev:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// register keeps one connection per user; a newer one replaces the old.
func (m *ManagerService) register(client Client) {
	m.mu.Lock()
	old, exists := m.Clients[client.GetUserID()]
	m.Clients[client.GetUserID()] = client
	m.mu.Unlock()

	if exists && old != client {
		old.Close()
	}
	log.Printf("INFO: Feed client %s (%s) connected.", client.GetUserID(), client.GetRole())
}

func (m *ManagerService) unregister(client Client) {
	m.mu.Lock()
	current, ok := m.Clients[client.GetUserID()]
	if !ok || current != client {
		m.mu.Unlock()
		return
	}
	delete(m.Clients, client.GetUserID())
	m.mu.Unlock()

	client.Close()
	log.Printf("INFO: Feed client %s disconnected.", client.GetUserID())
}

func (m *ManagerService) deliver(ev models.Event) {
	var slow []Client

	m.mu.RLock()
	for _, client := range m.Clients {
		if !CanSee(client, ev) {
			continue
		}
		select {
		case client.GetSendChannel() <- ev:
		default:
			slow = append(slow, client)
		}
	}
	m.mu.RUnlock()

	for _, client := range slow {
		log.Printf("WARNING: Dropping slow feed client %s.", client.GetUserID())
		m.unregister(client)
	}
}

func (m *ManagerService) closeAll() {
	m.mu.Lock()
	clients := m.Clients
	m.Clients = make(map[string]Client)
	m.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
}

// IsConnected reports whether the user has a live connection.
func (m *ManagerService) IsConnected(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.Clients[userID]
	return ok
}

// ClientCount is the number of users with a live connection.
func (m *ManagerService) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Clients)
}
