package event

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
)

// EventSerializer encodes events as JSON and decodes them back by event type
type EventSerializer struct {
	mu        sync.RWMutex
	factories map[string]func() shared.DomainEvent
}

// NewEventSerializer creates an empty serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{factories: make(map[string]func() shared.DomainEvent)}
}

// NewJobEventSerializer knows every job and batch lifecycle event
func NewJobEventSerializer() *EventSerializer {
	s := NewEventSerializer()
	for _, t := range []string{
		job.EventTypeJobCompleted,
		job.EventTypeJobFailed,
		job.EventTypeJobCancelled,
		job.EventTypeJobRetried,
	} {
		s.Register(t, func() shared.DomainEvent { return &job.JobEvent{} })
	}
	s.Register(job.EventTypeBatchFinished, func() shared.DomainEvent { return &job.BatchEvent{} })
	return s
}

// Register binds eventType to a constructor of an empty event
func (s *EventSerializer) Register(eventType string, factory func() shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[eventType] = factory
}

// Serialize encodes event
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("event: failed to marshal %s: %w", event.EventType(), err)
	}
	return data, nil
}

// Deserialize decodes data into the event registered for eventType
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	factory, ok := s.factories[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("event: unknown event type %q", eventType)
	}

	event := factory()
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("event: failed to unmarshal %s: %w", eventType, err)
	}
	return event, nil
}

// IsRegistered reports whether eventType can be decoded
func (s *EventSerializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.factories[eventType]
	return ok
}

// RegisteredTypes returns the known event types, sorted
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]string, 0, len(s.factories))
	for t := range s.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
