package entities

import (
	"time"

	"github.com/google/uuid"
)

// DirectoryEventType represents the type of directory event
type DirectoryEventType string

const (
	DirectoryEventCreated DirectoryEventType = "created"
	DirectoryEventUpdated DirectoryEventType = "updated"
	DirectoryEventDeleted DirectoryEventType = "deleted"
)

// DirectoryEvent is published after a composite write to a directory entry
type DirectoryEvent struct {
	ID         string             `json:"id"`
	Kind       EntityKind         `json:"kind"`
	EntityID   string             `json:"entity_id"`
	EventType  DirectoryEventType `json:"event_type"`
	LocationID string             `json:"location_id,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

// NewDirectoryEvent creates a new directory event
func NewDirectoryEvent(kind EntityKind, entityID string, eventType DirectoryEventType, locationID string) *DirectoryEvent {
	return &DirectoryEvent{
		ID:         uuid.NewString(),
		Kind:       kind,
		EntityID:   entityID,
		EventType:  eventType,
		LocationID: locationID,
		Timestamp:  time.Now().UTC(),
	}
}
