package entities

// PlaceBuilder constructs a Place fluently, filling in sensible
// defaults for fields a test doesn't care about — mirrors the
// `Place::build()...finish()` pattern used throughout the fixtures
// this system was modeled on.
type PlaceBuilder struct {
	place Place
}

// NewPlaceBuilder starts from a Place with a fresh Id and an empty
// title/description, current revision 0.
func NewPlaceBuilder() *PlaceBuilder {
	return &PlaceBuilder{place: Place{
		ID:      NewId(),
		License: "CC0-1.0",
		Created: Activity{At: Now()},
	}}
}

func (b *PlaceBuilder) ID(id string) *PlaceBuilder {
	b.place.ID = Id(id)
	return b
}

func (b *PlaceBuilder) Revision(rev uint64) *PlaceBuilder {
	b.place.Revision = Revision(rev)
	return b
}

func (b *PlaceBuilder) Title(title string) *PlaceBuilder {
	b.place.Title = title
	return b
}

func (b *PlaceBuilder) Description(desc string) *PlaceBuilder {
	b.place.Description = desc
	return b
}

func (b *PlaceBuilder) Pos(pos MapPoint) *PlaceBuilder {
	b.place.Location.Pos = pos
	return b
}

func (b *PlaceBuilder) Tags(tags ...string) *PlaceBuilder {
	b.place.Tags = tags
	return b
}

func (b *PlaceBuilder) License(license string) *PlaceBuilder {
	b.place.License = license
	return b
}

// Finish returns the built Place.
func (b *PlaceBuilder) Finish() Place {
	return b.place
}

// EventBuilder constructs an Event fluently.
type EventBuilder struct {
	event Event
}

// NewEventBuilder starts from an Event with a fresh Id.
func NewEventBuilder() *EventBuilder {
	return &EventBuilder{event: Event{ID: NewId()}}
}

func (b *EventBuilder) ID(id string) *EventBuilder {
	b.event.ID = Id(id)
	return b
}

func (b *EventBuilder) Title(title string) *EventBuilder {
	b.event.Title = title
	return b
}

func (b *EventBuilder) Start(ts Timestamp) *EventBuilder {
	b.event.Start = ts
	return b
}

func (b *EventBuilder) End(ts Timestamp) *EventBuilder {
	b.event.End = &ts
	return b
}

func (b *EventBuilder) Pos(pos MapPoint) *EventBuilder {
	b.event.Location = &Location{Pos: pos}
	return b
}

func (b *EventBuilder) Tags(tags ...string) *EventBuilder {
	b.event.Tags = tags
	return b
}

func (b *EventBuilder) CreatedBy(email string) *EventBuilder {
	b.event.CreatedBy = email
	return b
}

// Finish returns the built Event.
func (b *EventBuilder) Finish() Event {
	return b.event
}
