package providers

import (
	"context"

	"github.com/zatekoja/healthatlas/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to directory events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.DirectoryEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.DirectoryEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

// EventChannel constants for directory events
const (
	// EventChannelDirectoryUpdates is the channel for every directory write
	EventChannelDirectoryUpdates = "directory:updates"

	// EventChannelKindPrefix is the prefix for per-kind channels
	EventChannelKindPrefix = "directory:"
)

// GetKindChannel returns the channel name for a specific entity kind
func GetKindChannel(kind entities.EntityKind) string {
	return EventChannelKindPrefix + string(kind)
}
