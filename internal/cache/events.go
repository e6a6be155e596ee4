package cache

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	CartUpdated = "updated"
	CartCleared = "cleared"
)

func cartChannel(userID string) string { return "cart:" + userID }

// CartEvents diffuse les changements de panier aux connexions WebSocket.
type CartEvents interface {
	Publish(ctx context.Context, userID, event string) error
	// Subscribe retourne un canal d'événements et une fonction de fermeture.
	Subscribe(ctx context.Context, userID string) (<-chan string, func())
}

type RedisCartEvents struct {
	client *redis.Client
}

func NewRedisCartEvents(client *redis.Client) *RedisCartEvents {
	return &RedisCartEvents{client: client}
}

func (e *RedisCartEvents) Publish(ctx context.Context, userID, event string) error {
	return e.client.Publish(ctx, cartChannel(userID), event).Err()
}

func (e *RedisCartEvents) Subscribe(ctx context.Context, userID string) (<-chan string, func()) {
	pubsub := e.client.Subscribe(ctx, cartChannel(userID))
	out := make(chan string, 8)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- msg.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, func() { pubsub.Close() }
}

// LocalCartEvents est l'équivalent en processus pour le mode mémoire.
type LocalCartEvents struct {
	mu   sync.Mutex
	subs map[string]map[chan string]struct{}
}

func NewLocalCartEvents() *LocalCartEvents {
	return &LocalCartEvents{subs: make(map[string]map[chan string]struct{})}
}

func (e *LocalCartEvents) Publish(_ context.Context, userID, event string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for ch := range e.subs[userID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (e *LocalCartEvents) Subscribe(_ context.Context, userID string) (<-chan string, func()) {
	ch := make(chan string, 8)
	e.mu.Lock()
	if e.subs[userID] == nil {
		e.subs[userID] = make(map[chan string]struct{})
	}
	e.subs[userID][ch] = struct{}{}
	e.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs[userID], ch)
			e.mu.Unlock()
			close(ch)
		})
	}
}
