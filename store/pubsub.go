package store

import (
	"context"
	"sync"
)

// Handler receives messages published on a channel.
type Handler func(message []byte)

// PubSub represents an external publish-subscribe mechanism for multi-process
// broadcasting. Subscribe returns a function that removes the subscription.
type PubSub interface {
	Publish(ctx context.Context, channel string, message []byte) error
	Subscribe(ctx context.Context, channel string, handler Handler) (func(), error)
}

type memorySub struct {
	id      uint64
	handler Handler
}

// MemoryPubSub provides an in-memory implementation of the PubSub interface.
// It is intended for single-process environments where external infrastructure is not needed.
type MemoryPubSub struct {
	subscribers map[string][]memorySub
	nextID      uint64
	mu          sync.RWMutex
}

// NewMemoryPubSub creates a new in-memory PubSub system.
func NewMemoryPubSub() *MemoryPubSub {
	return &MemoryPubSub{
		subscribers: make(map[string][]memorySub),
	}
}

// Publish sends a message to all subscribers of a channel. Handlers run on
// their own goroutines so a slow subscriber never blocks the publisher.
func (p *MemoryPubSub) Publish(_ context.Context, channel string, message []byte) error {
	p.mu.RLock()
	subs := make([]memorySub, len(p.subscribers[channel]))
	copy(subs, p.subscribers[channel])
	p.mu.RUnlock()

	for _, sub := range subs {
		msg := make([]byte, len(message))
		copy(msg, message)
		go sub.handler(msg)
	}
	return nil
}

// Subscribe registers a handler function for messages on a channel.
func (p *MemoryPubSub) Subscribe(_ context.Context, channel string, handler Handler) (func(), error) {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.subscribers[channel] = append(p.subscribers[channel], memorySub{id: id, handler: handler})
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { p.unsubscribe(channel, id) })
	}, nil
}

func (p *MemoryPubSub) unsubscribe(channel string, id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	subs := p.subscribers[channel]
	for i, sub := range subs {
		if sub.id == id {
			p.subscribers[channel] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(p.subscribers[channel]) == 0 {
		delete(p.subscribers, channel)
	}
}

// Subscribers returns the number of handlers on channel.
func (p *MemoryPubSub) Subscribers(channel string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscribers[channel])
}
