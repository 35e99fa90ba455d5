package sqlite

import (
	"context"
	"database/sql"
	"sort"

	"github.com/geoplaces/core/internal/dberrors"
	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/repositories"
	"github.com/geoplaces/core/internal/storage/pool"
)

var _ repositories.EventRepo = (*Store)(nil)

func registrationTypeToString(rt entities.RegistrationType) string {
	switch rt {
	case entities.RegistrationEmail:
		return "email"
	case entities.RegistrationPhone:
		return "phone"
	case entities.RegistrationHomepage:
		return "homepage"
	default:
		return "email"
	}
}

func registrationTypeFromString(s string) entities.RegistrationType {
	switch s {
	case "phone":
		return entities.RegistrationPhone
	case "homepage":
		return entities.RegistrationHomepage
	default:
		return entities.RegistrationEmail
	}
}

const eventColumns = `rowid, id, title, start_at, end_at, lat, lng, contact_email, contact_phone,
	homepage, registration_type, organizer, image, image_href, created_by, archived_at`

func scanEvent(row interface{ Scan(dest ...any) error }) (int64, entities.Event, error) {
	var rowid int64
	var e entities.Event
	var id string
	var startAt int64
	var endAt, lat, lng sql.NullInt64
	var contactEmail, contactPhone, homepage, registrationType, organizer, image, imageHref sql.NullString
	var archivedAt sql.NullInt64

	err := row.Scan(&rowid, &id, &e.Title, &startAt, &endAt, &lat, &lng, &contactEmail, &contactPhone,
		&homepage, &registrationType, &organizer, &image, &imageHref, &e.CreatedBy, &archivedAt)
	if err != nil {
		return 0, entities.Event{}, err
	}
	e.ID = entities.Id(id)
	e.Start = entities.Timestamp(startAt)
	if endAt.Valid {
		end := entities.Timestamp(endAt.Int64)
		e.End = &end
	}
	if lat.Valid && lng.Valid {
		e.Location = &entities.Location{Pos: entities.MapPoint{LatMicro: lat.Int64, LngMicro: lng.Int64}}
	}
	if contactEmail.Valid || contactPhone.Valid {
		e.Contact = &entities.Contact{Email: nullableString(contactEmail), Phone: nullableString(contactPhone)}
	}
	e.Homepage = nullableString(homepage)
	if registrationType.Valid {
		rt := registrationTypeFromString(registrationType.String)
		e.RegistrationType = &rt
	}
	e.Organizer = nullableString(organizer)
	e.Image = nullableString(image)
	e.ImageHref = nullableString(imageHref)
	if archivedAt.Valid {
		at := entities.Timestamp(archivedAt.Int64)
		e.ArchivedAt = &at
	}
	return rowid, e, nil
}

func (s *Store) loadEventTags(ctx context.Context, eventRowid int64) ([]string, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	rows, err := reader.QueryContext(ctx, `SELECT tag FROM event_tags WHERE event_rowid = ? ORDER BY tag`, eventRowid)
	if err != nil {
		return nil, dberrors.Wrap("load event tags", err)
	}
	defer rows.Close()
	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, dberrors.Wrap("scan event tag", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func eventLatLng(e entities.Event) (sql.NullInt64, sql.NullInt64) {
	if e.Location == nil {
		return sql.NullInt64{}, sql.NullInt64{}
	}
	return sql.NullInt64{Int64: e.Location.Pos.LatMicro, Valid: true}, sql.NullInt64{Int64: e.Location.Pos.LngMicro, Valid: true}
}

func eventContact(e entities.Event) (*string, *string) {
	if e.Contact == nil {
		return nil, nil
	}
	return e.Contact.Email, e.Contact.Phone
}

func eventRegistrationType(e entities.Event) *string {
	if e.RegistrationType == nil {
		return nil
	}
	s := registrationTypeToString(*e.RegistrationType)
	return &s
}

// CreateEvent inserts a new event and its tags.
func (s *Store) CreateEvent(ctx context.Context, event entities.Event) error {
	return s.pool.Transaction(ctx, func(w pool.Writer) error {
		lat, lng := eventLatLng(event)
		contactEmail, contactPhone := eventContact(event)
		res, err := w.ExecContext(ctx, `
			INSERT INTO events (id, title, start_at, end_at, lat, lng, contact_email, contact_phone,
				homepage, registration_type, organizer, image, image_href, created_by, archived_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
			string(event.ID), event.Title, int64(event.Start), event.End, lat, lng, contactEmail, contactPhone,
			event.Homepage, eventRegistrationType(event), event.Organizer, event.Image, event.ImageHref, event.CreatedBy)
		if err != nil {
			return dberrors.Wrap("insert event", err)
		}
		rowid, err := res.LastInsertId()
		if err != nil {
			return dberrors.Wrap("insert event", err)
		}
		for _, tag := range event.Tags {
			if _, err := w.ExecContext(ctx, `INSERT INTO event_tags (event_rowid, tag) VALUES (?, ?)`, rowid, tag); err != nil {
				return dberrors.Wrap("insert event tag", err)
			}
		}
		return nil
	})
}

// UpdateEvent overwrites an existing event's fields and tags.
func (s *Store) UpdateEvent(ctx context.Context, event entities.Event) error {
	return s.pool.Transaction(ctx, func(w pool.Writer) error {
		lat, lng := eventLatLng(event)
		contactEmail, contactPhone := eventContact(event)
		res, err := w.ExecContext(ctx, `
			UPDATE events SET title = ?, start_at = ?, end_at = ?, lat = ?, lng = ?,
				contact_email = ?, contact_phone = ?, homepage = ?, registration_type = ?,
				organizer = ?, image = ?, image_href = ?
			WHERE id = ?`,
			event.Title, int64(event.Start), event.End, lat, lng, contactEmail, contactPhone,
			event.Homepage, eventRegistrationType(event), event.Organizer, event.Image, event.ImageHref, string(event.ID))
		if err != nil {
			return dberrors.Wrap("update event", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return dberrors.Wrap("update event", err)
		}
		if n == 0 {
			return dberrors.Wrap("update event", sql.ErrNoRows)
		}
		var rowid int64
		if err := w.QueryRowContext(ctx, `SELECT rowid FROM events WHERE id = ?`, string(event.ID)).Scan(&rowid); err != nil {
			return dberrors.Wrap("lookup event", err)
		}
		if _, err := w.ExecContext(ctx, `DELETE FROM event_tags WHERE event_rowid = ?`, rowid); err != nil {
			return dberrors.Wrap("clear event tags", err)
		}
		for _, tag := range event.Tags {
			if _, err := w.ExecContext(ctx, `INSERT INTO event_tags (event_rowid, tag) VALUES (?, ?)`, rowid, tag); err != nil {
				return dberrors.Wrap("insert event tag", err)
			}
		}
		return nil
	})
}

// ArchiveEvents soft-archives the listed events, returning the count
// actually archived.
func (s *Store) ArchiveEvents(ctx context.Context, ids []entities.Id, archivedAt entities.Timestamp) (int, error) {
	archived := 0
	err := s.pool.Transaction(ctx, func(w pool.Writer) error {
		for _, id := range ids {
			res, err := w.ExecContext(ctx, `UPDATE events SET archived_at = ? WHERE id = ? AND archived_at IS NULL`, int64(archivedAt), string(id))
			if err != nil {
				return dberrors.Wrap("archive event", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return dberrors.Wrap("archive event", err)
			}
			archived += int(n)
		}
		return nil
	})
	return archived, err
}

// GetEvent loads a single event with its tags.
func (s *Store) GetEvent(ctx context.Context, id entities.Id) (entities.Event, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return entities.Event{}, err
	}
	defer release()
	row := reader.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, string(id))
	rowid, e, err := scanEvent(row)
	if err != nil {
		return entities.Event{}, dberrors.Wrap("load event", err)
	}
	tags, err := s.loadEventTags(ctx, rowid)
	if err != nil {
		return entities.Event{}, err
	}
	e.Tags = tags
	return e, nil
}

// GetEventsChronologically loads the listed events, skipping missing
// ones, ordered by start time.
func (s *Store) GetEventsChronologically(ctx context.Context, ids []entities.Id) ([]entities.Event, error) {
	out := make([]entities.Event, 0, len(ids))
	for _, id := range ids {
		e, err := s.GetEvent(ctx, id)
		if dberrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

// AllEventsChronologically loads every event, ordered by start time.
func (s *Store) AllEventsChronologically(ctx context.Context) ([]entities.Event, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := reader.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY start_at`)
	if err != nil {
		release()
		return nil, dberrors.Wrap("list events", err)
	}
	type scanned struct {
		rowid int64
		event entities.Event
	}
	var scannedRows []scanned
	for rows.Next() {
		rowid, e, err := scanEvent(rows)
		if err != nil {
			rows.Close()
			release()
			return nil, dberrors.Wrap("scan event", err)
		}
		scannedRows = append(scannedRows, scanned{rowid: rowid, event: e})
	}
	rows.Close()
	release()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]entities.Event, 0, len(scannedRows))
	for _, sc := range scannedRows {
		tags, err := s.loadEventTags(ctx, sc.rowid)
		if err != nil {
			return nil, err
		}
		sc.event.Tags = tags
		out = append(out, sc.event)
	}
	return out, nil
}

// CountEvents returns the total number of events.
func (s *Store) CountEvents(ctx context.Context) (int, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return 0, err
	}
	defer release()
	var n int
	if err := reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, dberrors.Wrap("count events", err)
	}
	return n, nil
}

// DeleteEventWithMatchingTags deletes id if it carries at least one of
// tags (or unconditionally when tags is empty).
func (s *Store) DeleteEventWithMatchingTags(ctx context.Context, id entities.Id, tags []string) (bool, error) {
	var deleted bool
	err := s.pool.Transaction(ctx, func(w pool.Writer) error {
		var rowid int64
		err := w.QueryRowContext(ctx, `SELECT rowid FROM events WHERE id = ?`, string(id)).Scan(&rowid)
		if err != nil {
			return dberrors.Wrap("lookup event", err)
		}
		if len(tags) > 0 {
			matches := false
			rows, err := w.QueryContext(ctx, `SELECT tag FROM event_tags WHERE event_rowid = ?`, rowid)
			if err != nil {
				return dberrors.Wrap("load event tags", err)
			}
			for rows.Next() {
				var tag string
				if err := rows.Scan(&tag); err != nil {
					rows.Close()
					return dberrors.Wrap("scan event tag", err)
				}
				for _, want := range tags {
					if tag == want {
						matches = true
					}
				}
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return err
			}
			if !matches {
				return nil
			}
		}
		if _, err := w.ExecContext(ctx, `DELETE FROM event_tags WHERE event_rowid = ?`, rowid); err != nil {
			return dberrors.Wrap("delete event tags", err)
		}
		if _, err := w.ExecContext(ctx, `DELETE FROM events WHERE rowid = ?`, rowid); err != nil {
			return dberrors.Wrap("delete event", err)
		}
		deleted = true
		return nil
	})
	return deleted, err
}

// IsEventOwnedByAnyOrganization reports whether id carries any tag
// moderated by an organization.
func (s *Store) IsEventOwnedByAnyOrganization(ctx context.Context, id entities.Id) (bool, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return false, err
	}
	defer release()
	var rowid int64
	if err := reader.QueryRowContext(ctx, `SELECT rowid FROM events WHERE id = ?`, string(id)).Scan(&rowid); err != nil {
		return false, dberrors.Wrap("lookup event", err)
	}
	var n int
	err = reader.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM event_tags t
		JOIN organization_tag ot ON ot.tag_label = t.tag
		WHERE t.event_rowid = ?`, rowid).Scan(&n)
	if err != nil {
		return false, dberrors.Wrap("check event organization ownership", err)
	}
	return n > 0, nil
}
