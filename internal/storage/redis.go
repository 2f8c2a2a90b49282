package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"cleantrack/backend/internal/apperr"
	"cleantrack/backend/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisKV is a string key-value store on top of Redis. Sessions are kept here.
type RedisKV struct {
	Client *redis.Client
}

func NewRedisKV(rdb *redis.Client) *RedisKV {
	return &RedisKV{Client: rdb}
}

// Get returns the value and whether the key exists.
func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores the value; ttl 0 means no expiration.
func (r *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.Client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	return r.Client.Del(ctx, key).Err()
}

// MemoryKV is the in-process KV used when Redis isn't configured.
type MemoryKV struct {
	mu      sync.Mutex
	values  map[string]string
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		values:  make(map[string]string),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if exp, ok := m.expires[key]; ok && !m.now().Before(exp) {
		delete(m.values, key)
		delete(m.expires, key)
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	if ttl > 0 {
		m.expires[key] = m.now().Add(ttl)
	} else {
		delete(m.expires, key)
	}
	return nil
}

func (m *MemoryKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	delete(m.expires, key)
	return nil
}

// InFlightGuard rejects a second acquisition of the same key until the first
// holder calls release. Release must always run, typically via defer.
type InFlightGuard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// guardTTL bounds how long a crashed holder can block a key.
const guardTTL = 30 * time.Second

// RedisGuard implements InFlightGuard with SETNX so it holds across instances.
// Each holder writes its own token, and release only deletes the key while it
// still carries that token, so a holder whose entry expired cannot free the
// next holder's lock.
type RedisGuard struct {
	Client *redis.Client
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func NewRedisGuard(rdb *redis.Client) *RedisGuard {
	return &RedisGuard{Client: rdb}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := "inflight:" + key
	token := uuid.New().String()
	ok, err := g.Client.SetNX(ctx, redisKey, token, guardTTL).Result()
	if err != nil {
		return nil, apperr.Transient("acquire request lock", err)
	}
	if !ok {
		return nil, &apperr.InFlightError{Key: key}
	}
	return func() {
		if err := releaseScript.Run(context.Background(), g.Client, []string{redisKey}, token).Err(); err != nil {
			log.Printf("ERROR: Failed to release request lock %s: %v", key, err)
		}
	}, nil
}

// MemoryGuard implements InFlightGuard for a single process.
type MemoryGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{held: make(map[string]struct{})}
}

func (g *MemoryGuard) Acquire(ctx context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.held[key]; busy {
		return nil, &apperr.InFlightError{Key: key}
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}

// EventsChannel is the Redis channel complaint events are fanned out on.
const EventsChannel = "complaints:events"

// EventBus carries complaint events between server instances.
type EventBus struct {
	Client *redis.Client
}

func NewEventBus(rdb *redis.Client) *EventBus {
	return &EventBus{Client: rdb}
}

// Publish sends the event to every subscribed instance.
func (b *EventBus) Publish(ctx context.Context, ev models.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.Client.Publish(ctx, EventsChannel, payload).Err(); err != nil {
		log.Printf("ERROR: Failed to publish %s event for complaint %s: %v", ev.Type, ev.ComplaintID, err)
		return err
	}
	return nil
}

// Subscribe listens on EventsChannel. The caller must Close the result.
func (b *EventBus) Subscribe(ctx context.Context) *redis.PubSub {
	return b.Client.Subscribe(ctx, EventsChannel)
}

// DecodeEvent parses a pub/sub payload.
func DecodeEvent(payload string) (models.Event, error) {
	var ev models.Event
	err := json.Unmarshal([]byte(payload), &ev)
	return ev, err
}
