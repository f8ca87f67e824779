package events

import (
	"context"

	"github.com/moneta-app/moneta/internal/interfaces"
)

// Nop discards every event. Used when no broker is configured and in
// tests; a dropped notification is never a correctness failure.
type Nop struct{}

func (Nop) Publish(ctx context.Context, topic string, event any) error { return nil }

var _ interfaces.EventPublisher = Nop{}
