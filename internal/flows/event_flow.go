package flows

import (
	"context"

	"go.uber.org/zap"

	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/gateways"
	"github.com/geoplaces/core/internal/index"
	"github.com/geoplaces/core/internal/repositories"
	"github.com/geoplaces/core/internal/usecases"
)

// Events bundles the repository and collaborators an event-centric
// flow needs.
type Events struct {
	Repo   repositories.EventRepo
	Index  index.EventIndex
	Notify gateways.NotificationGateway
	Log    *zap.Logger
}

func (e *Events) logger() *zap.Logger {
	if e.Log != nil {
		return e.Log
	}
	return zap.NewNop()
}

// CreateEvent validates event, persists it, then best-effort indexes
// it and emits an EventAdded notification.
func (e *Events) CreateEvent(ctx context.Context, event entities.Event) (entities.Event, error) {
	validated, err := usecases.ValidateEventInput(event)
	if err != nil {
		return entities.Event{}, err
	}
	if err := e.Repo.CreateEvent(ctx, validated); err != nil {
		return entities.Event{}, err
	}
	e.afterWrite(ctx, validated, gateways.EventAdded)
	return validated, nil
}

// UpdateEvent validates event, persists the in-place update, then
// best-effort re-indexes it and emits an EventUpdated notification.
func (e *Events) UpdateEvent(ctx context.Context, event entities.Event) (entities.Event, error) {
	validated, err := usecases.ValidateEventInput(event)
	if err != nil {
		return entities.Event{}, err
	}
	if err := e.Repo.UpdateEvent(ctx, validated); err != nil {
		return entities.Event{}, err
	}
	e.afterWrite(ctx, validated, gateways.EventUpdated)
	return validated, nil
}

// ArchiveEvents soft-deletes every listed event and drops each from
// the index, best-effort.
func (e *Events) ArchiveEvents(ctx context.Context, ids []entities.Id, archivedAt entities.Timestamp) (int, error) {
	if len(ids) == 0 {
		return 0, usecases.ErrEmptyIdList
	}
	n, err := e.Repo.ArchiveEvents(ctx, ids, archivedAt)
	if err != nil {
		return 0, err
	}
	if e.Index != nil {
		log := e.logger()
		for _, id := range ids {
			id := id
			bestEffort(ctx, log, "index.RemoveByID", func() error { return e.Index.RemoveByID(id) })
		}
	}
	return n, nil
}

// DeleteEvent removes event id if it carries one of tags (or
// unconditionally when tags is empty), dropping it from the index on
// success.
func (e *Events) DeleteEvent(ctx context.Context, id entities.Id, tags []string) (bool, error) {
	deleted, err := e.Repo.DeleteEventWithMatchingTags(ctx, id, tags)
	if err != nil {
		return false, err
	}
	if deleted && e.Index != nil {
		bestEffort(ctx, e.logger(), "index.RemoveByID", func() error { return e.Index.RemoveByID(id) })
	}
	return deleted, nil
}

// Reindex rebuilds the search index from every stored event,
// replacing whatever it currently holds. Counterpart to
// Places.Reindex for the same startup pass.
func (e *Events) Reindex(ctx context.Context) (int, error) {
	if e.Index == nil {
		return 0, nil
	}
	if err := e.Index.FlushIndex(); err != nil {
		return 0, err
	}
	all, err := e.Repo.AllEventsChronologically(ctx)
	if err != nil {
		return 0, err
	}
	for _, event := range all {
		if err := e.Index.AddOrUpdate(eventDoc(event)); err != nil {
			return 0, err
		}
	}
	return len(all), nil
}

// SearchEvents runs the two-pass geographic search over the event
// index (spec.md §4.5), the counterpart of Places.SearchPlaces.
func (e *Events) SearchEvents(ctx context.Context, visibleBbox entities.MapBbox, q index.Query, limit uint64) (visible, invisible []index.EventResult, err error) {
	if e.Index == nil {
		return nil, nil, nil
	}
	return index.SearchEvents(e.Index, visibleBbox, q, limit)
}

func (e *Events) afterWrite(ctx context.Context, event entities.Event, kind gateways.NotificationKind) {
	log := e.logger()
	if e.Index != nil {
		bestEffort(ctx, log, "index.AddOrUpdate", func() error { return e.Index.AddOrUpdate(eventDoc(event)) })
	}
	if e.Notify != nil {
		eventID := event.ID
		bestEffort(ctx, log, "notify.EventChanged", func() error {
			return e.Notify.Notify(ctx, gateways.Notification{Kind: kind, EventID: &eventID})
		})
	}
}

func eventDoc(event entities.Event) index.EventDoc {
	var pos *entities.MapPoint
	if event.Location != nil {
		pos = &event.Location.Pos
	}
	tags := append([]string{index.EventCategory}, event.Tags...)
	return index.EventDoc{
		ID:    event.ID,
		Start: event.Start,
		End:   event.End,
		Pos:   pos,
		Title: event.Title,
		Tags:  tags,
	}
}
