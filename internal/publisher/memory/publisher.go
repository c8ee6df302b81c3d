// Package memory keeps batch completion events in process, for local runs and tests.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrNoTopic mirrors the Pub/Sub publisher when no topic is given.
var ErrNoTopic = errors.New("memory publisher: topic is required")

// Event is one completion event as it would reach subscribers.
type Event struct {
	ID      string
	Topic   string
	BatchID string
	// Data is the JSON body a Pub/Sub subscriber would receive.
	Data    []byte
	Payload any
}

// Publisher records completion events instead of sending them.
type Publisher struct {
	mu     sync.RWMutex
	events []Event
	err    error
}

// New returns an empty Publisher.
func New() *Publisher {
	return &Publisher{}
}

// FailWith makes every later Publish return err. Nil restores normal behavior.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Publish encodes payload the same way the Pub/Sub publisher does and keeps
// the event. The returned ID is stable per topic and sequence.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	if topic == "" {
		return "", ErrNoTopic
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	id := fmt.Sprintf("%s/%d", topic, len(p.events)+1)
	p.events = append(p.events, Event{
		ID:      id,
		Topic:   topic,
		BatchID: batchID(payload),
		Data:    data,
		Payload: payload,
	})
	return id, nil
}

// Messages returns a copy of every recorded event in publish order.
func (p *Publisher) Messages() []Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// ForBatch returns the events published for batchID.
func (p *Publisher) ForBatch(id string) []Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []Event
	for _, ev := range p.events {
		if ev.BatchID == id {
			out = append(out, ev)
		}
	}
	return out
}

func batchID(payload any) string {
	if m, ok := payload.(map[string]any); ok {
		if id, ok := m["batch_id"].(string); ok {
			return id
		}
	}
	return ""
}
