package entities

// PendingClearanceForPlace records that an organization must clear a
// place (one of whose tags requires its clearance) before edits under
// that tag become visible again. LastClearedRevision is nil when the
// place has never been cleared for this organization.
type PendingClearanceForPlace struct {
	OrganizationID       Id
	PlaceID              Id
	LastClearedRevision  *Revision
	CreatedAt            Timestamp
}

// ClearanceForPlace is the apply-side payload: set a pending record's
// last-cleared revision.
type ClearanceForPlace struct {
	PlaceID  Id
	Revision Revision
}

// BboxSubscription is a user's subscription to a geographic region;
// the subscriber is notified when a place is created or moved into
// the box.
type BboxSubscription struct {
	ID        Id
	UserEmail string
	Southwest MapPoint
	Northeast MapPoint
}

// Bbox returns the subscription's region as a MapBbox.
func (s BboxSubscription) Bbox() MapBbox {
	return NewMapBbox(s.Southwest, s.Northeast)
}
