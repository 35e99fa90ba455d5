package entities

import "strings"

// Activity records who did something and when.
type Activity struct {
	At Timestamp
	By *string // optional author email
}

// Anonymize strips the author, keeping only the timestamp.
func (a Activity) Anonymize() Activity { return Activity{At: a.At} }

// Address is a free-text postal address attached to a Location.
type Address struct {
	Street     *string
	Zip        *string
	City       *string
	Country    *string
	State      *string
}

// Location pairs a geographic point with an optional address.
type Location struct {
	Pos     MapPoint
	Address *Address
}

// Contact is an optional contact block on a place or event.
type Contact struct {
	Email *string
	Phone *string
}

// Links bundles the optional URLs a place revision may carry.
type Links struct {
	Homepage     *string
	Image        *string
	ImageHref    *string
}

// OpeningHoursMinLen is the minimum trimmed length accepted for an
// OpeningHours string.
const OpeningHoursMinLen = 4

// OpeningHours is a calendar-string describing when a place is open.
// It is validated at construction time; the exact grammar it must
// parse against is owned by the caller's calendar-string parser.
type OpeningHours string

// ParseOpeningHours trims s and rejects it if shorter than
// OpeningHoursMinLen.
func ParseOpeningHours(s string) (OpeningHours, bool) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < OpeningHoursMinLen {
		return "", false
	}
	return OpeningHours(trimmed), true
}

// PlaceRoot is the immutable part of a place: its identity and
// license. It never changes across revisions.
type PlaceRoot struct {
	ID      Id
	License string
}

// PlaceRevision is one versioned snapshot of a place's mutable data.
type PlaceRevision struct {
	Revision     Revision
	Created      Activity
	Title        string
	Description  string
	Location     Location
	Contact      *Contact
	OpeningHours *OpeningHours
	FoundedOn    *string // ISO-8601 calendar date, e.g. "2024-03-01"
	Links        *Links
	Tags         []string
}

// Place flattens a PlaceRoot and its current PlaceRevision into a
// single read-friendly struct, the shape most callers want.
type Place struct {
	ID           Id
	License      string
	Revision     Revision
	Created      Activity
	Title        string
	Description  string
	Location     Location
	Contact      *Contact
	OpeningHours *OpeningHours
	FoundedOn    *string
	Links        *Links
	Tags         []string
}

// NewPlace merges a root and a revision into a flat Place.
func NewPlace(root PlaceRoot, rev PlaceRevision) Place {
	return Place{
		ID:           root.ID,
		License:      root.License,
		Revision:     rev.Revision,
		Created:      rev.Created,
		Title:        rev.Title,
		Description:  rev.Description,
		Location:     rev.Location,
		Contact:      rev.Contact,
		OpeningHours: rev.OpeningHours,
		FoundedOn:    rev.FoundedOn,
		Links:        rev.Links,
		Tags:         rev.Tags,
	}
}

// Split separates a Place back into its root and revision parts.
func (p Place) Split() (PlaceRoot, PlaceRevision) {
	return PlaceRoot{ID: p.ID, License: p.License},
		PlaceRevision{
			Revision:     p.Revision,
			Created:      p.Created,
			Title:        p.Title,
			Description:  p.Description,
			Location:     p.Location,
			Contact:      p.Contact,
			OpeningHours: p.OpeningHours,
			FoundedOn:    p.FoundedOn,
			Links:        p.Links,
			Tags:         p.Tags,
		}
}

// StripActivityDetails drops the author of the creation activity,
// keeping only the timestamp.
func (p Place) StripActivityDetails() Place {
	p.Created = p.Created.Anonymize()
	return p
}

// StripContactDetails removes the contact block.
func (p Place) StripContactDetails() Place {
	p.Contact = nil
	return p
}

// IsOwned reports whether any of moderatedTags appears in p's tag
// list, meaning the place is under that organization's moderation.
func (p Place) IsOwned(moderatedTags []string) bool {
	for _, mt := range moderatedTags {
		for _, tag := range p.Tags {
			if tag == mt {
				return true
			}
		}
	}
	return false
}

// PlaceHistory is the full revision history of a place, each revision
// paired with its review-status transitions.
type PlaceHistory struct {
	Place     PlaceRoot
	Revisions []PlaceRevisionWithLog
}

// PlaceRevisionWithLog pairs a revision with its review-status log.
type PlaceRevisionWithLog struct {
	Revision PlaceRevision
	Log      []ReviewStatusLogEntry
}

// NormalizeTags trims and lower-cases nothing (tags are case-sensitive)
// but trims whitespace, drops empty entries, and rejects any tag
// containing the reserved '#' character. Returns the cleaned tag list
// and whether every tag was valid.
func NormalizeTags(tags []string) ([]string, bool) {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		trimmed := strings.TrimSpace(t)
		if trimmed == "" {
			continue
		}
		if strings.Contains(trimmed, "#") {
			return nil, false
		}
		out = append(out, trimmed)
	}
	return out, true
}
