package event

import (
	"context"
	"errors"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
)

// FanoutPublisher publishes to several sinks. Every sink is tried; the
// failures are joined.
type FanoutPublisher struct {
	sinks []shared.EventPublisher
}

// NewFanoutPublisher creates a publisher over sinks; nil sinks are skipped
func NewFanoutPublisher(sinks ...shared.EventPublisher) *FanoutPublisher {
	f := &FanoutPublisher{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Publish implements shared.EventPublisher
func (f *FanoutPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Publish(ctx, events...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
