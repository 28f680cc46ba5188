package mq

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultMemoryRetain is the number of recent messages kept per channel.
const DefaultMemoryRetain = 256

var errMemoryClosed = errors.New("memory broker closed")

// MemoryBroker delivers messages to in-process subscribers. The most recent
// messages of each channel are kept for inspection.
type MemoryBroker struct {
	mu        sync.Mutex
	closed    bool
	retain    int
	published map[string][]Message
	subs      map[string]map[chan Message]struct{}
}

// NewMemoryBroker returns an empty broker retaining DefaultMemoryRetain
// messages per channel.
func NewMemoryBroker() *MemoryBroker {
	return NewMemoryBrokerWithRetain(DefaultMemoryRetain)
}

// NewMemoryBrokerWithRetain returns an empty broker keeping at most retain
// messages per channel. A retain of zero keeps nothing.
func NewMemoryBrokerWithRetain(retain int) *MemoryBroker {
	if retain < 0 {
		retain = 0
	}
	return &MemoryBroker{
		retain:    retain,
		published: make(map[string][]Message),
		subs:      make(map[string]map[chan Message]struct{}),
	}
}

func (m *MemoryBroker) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("memory channel is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", errMemoryClosed
	}
	msg := Message{ID: uuid.NewString(), Data: append([]byte(nil), data...), Attributes: attrs}
	if m.retain > 0 {
		kept := append(m.published[channel], msg)
		if len(kept) > m.retain {
			kept = append([]Message(nil), kept[len(kept)-m.retain:]...)
		}
		m.published[channel] = kept
	}
	for sub := range m.subs[channel] {
		// slow subscribers drop messages
		select {
		case sub <- msg:
		default:
		}
	}
	return msg.ID, nil
}

// Subscribe blocks until ctx ends or the broker is closed.
func (m *MemoryBroker) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("memory channel is required")
	}
	sub := make(chan Message, 64)
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errMemoryClosed
	}
	if m.subs[channel] == nil {
		m.subs[channel] = make(map[chan Message]struct{})
	}
	m.subs[channel][sub] = struct{}{}
	m.mu.Unlock()
	defer m.unsubscribe(channel, sub)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub:
			if !ok {
				return errMemoryClosed
			}
			_ = handler(ctx, msg)
		}
	}
}

func (m *MemoryBroker) unsubscribe(channel string, sub chan Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs, ok := m.subs[channel]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(m.subs, channel)
	}
}

// Published returns the retained messages sent to channel.
func (m *MemoryBroker) Published(channel string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.published[channel]...)
}

// Close stops every subscriber and rejects further use.
func (m *MemoryBroker) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	for _, subs := range m.subs {
		for sub := range subs {
			close(sub)
		}
	}
	m.subs = make(map[string]map[chan Message]struct{})
	return nil
}
