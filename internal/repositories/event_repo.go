package repositories

import (
	"context"

	"github.com/geoplaces/core/internal/entities"
)

// EventRepo is the persistence contract for events.
type EventRepo interface {
	CreateEvent(ctx context.Context, event entities.Event) error
	UpdateEvent(ctx context.Context, event entities.Event) error
	ArchiveEvents(ctx context.Context, ids []entities.Id, archivedAt entities.Timestamp) (int, error)

	GetEvent(ctx context.Context, id entities.Id) (entities.Event, error)
	GetEventsChronologically(ctx context.Context, ids []entities.Id) ([]entities.Event, error)

	AllEventsChronologically(ctx context.Context) ([]entities.Event, error)

	CountEvents(ctx context.Context) (int, error)

	// DeleteEventWithMatchingTags deletes the event if it carries at
	// least one of tags (or unconditionally when tags is empty).
	// Returns (true, nil) when deleted, (false, nil) when the event
	// exists but has no matching tag, and ErrNotFound if absent.
	DeleteEventWithMatchingTags(ctx context.Context, id entities.Id, tags []string) (bool, error)

	IsEventOwnedByAnyOrganization(ctx context.Context, id entities.Id) (bool, error)
}
