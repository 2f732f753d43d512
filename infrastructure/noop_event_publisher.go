package infrastructure

import (
	"context"

	"ispwallet/events"
)

// NoopEventPublisher discards all events. Used when NATS is not configured.
type NoopEventPublisher struct{}

// NewNoopEventPublisher creates a new no-op publisher
func NewNoopEventPublisher() *NoopEventPublisher {
	return &NoopEventPublisher{}
}

// Publish discards the event
func (p *NoopEventPublisher) Publish(event events.Event) error {
	return nil
}

// Flush does nothing
func (p *NoopEventPublisher) Flush(ctx context.Context) error {
	return nil
}

// Discard does nothing
func (p *NoopEventPublisher) Discard() {}
