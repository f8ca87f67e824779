package interfaces

import "context"

// EventPublisher delivers fire-and-forget notifications after committed
// mutations. Delivery is attempted once; a failed publish is logged and
// dropped, never surfaced to the caller.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event any) error
}
