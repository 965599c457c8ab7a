package infrastructure

import (
	"jackpot/domain/events"
)

// NoopEventPublisher drops every event. Admin commands use it so that
// maintenance operations do not notify subscribers.
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a new no-op event publisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

func (n *NoopEventPublisher) Publish(event events.Event) error {
	return nil
}
