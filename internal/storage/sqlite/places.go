package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/geoplaces/core/internal/dberrors"
	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/repositories"
	"github.com/geoplaces/core/internal/storage/pool"
)

var _ repositories.PlaceRepo = (*Store)(nil)

func statusToString(s entities.ReviewStatus) string { return s.String() }

func statusFromString(s string) entities.ReviewStatus {
	switch s {
	case "confirmed":
		return entities.Confirmed
	case "rejected":
		return entities.Rejected
	case "archived":
		return entities.Archived
	default:
		return entities.Created
	}
}

type placeRow struct {
	rowid      int64
	id         string
	license    string
	currentRev uint64
}

func (s *Store) lookupPlaceRow(ctx context.Context, id entities.Id) (placeRow, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return placeRow{}, err
	}
	defer release()
	return lookupPlaceRowWith(ctx, reader, id)
}

func lookupPlaceRowWith(ctx context.Context, reader interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, id entities.Id) (placeRow, error) {
	var row placeRow
	err := reader.QueryRowContext(ctx, `SELECT rowid, id, license, current_rev FROM place WHERE id = ?`, string(id)).
		Scan(&row.rowid, &row.id, &row.license, &row.currentRev)
	if err != nil {
		return placeRow{}, dberrors.Wrap("lookup place", err)
	}
	return row, nil
}

func (s *Store) loadRevisionTags(ctx context.Context, revisionRowid int64) ([]string, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	rows, err := reader.QueryContext(ctx, `SELECT tag FROM place_revision_tag WHERE parent_rowid = ? ORDER BY tag`, revisionRowid)
	if err != nil {
		return nil, dberrors.Wrap("load revision tags", err)
	}
	defer rows.Close()
	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, dberrors.Wrap("scan revision tag", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

type revisionRow struct {
	rowid        int64
	rev          uint64
	createdAt    int64
	createdBy    sql.NullString
	status       string
	title        string
	description  string
	lat, lng     int64
	addrStreet   sql.NullString
	addrZip      sql.NullString
	addrCity     sql.NullString
	addrCountry  sql.NullString
	addrState    sql.NullString
	contactEmail sql.NullString
	contactPhone sql.NullString
	homepage     sql.NullString
	openingHours sql.NullString
	foundedOn    sql.NullString
	image        sql.NullString
	imageHref    sql.NullString
}

const revisionColumns = `rowid, rev, created_at, created_by, current_status, title, description,
	lat, lng, addr_street, addr_zip, addr_city, addr_country, addr_state,
	contact_email, contact_phone, homepage, opening_hours, founded_on, image, image_href`

func scanRevisionRow(row interface{ Scan(dest ...any) error }) (revisionRow, error) {
	var r revisionRow
	err := row.Scan(&r.rowid, &r.rev, &r.createdAt, &r.createdBy, &r.status, &r.title, &r.description,
		&r.lat, &r.lng, &r.addrStreet, &r.addrZip, &r.addrCity, &r.addrCountry, &r.addrState,
		&r.contactEmail, &r.contactPhone, &r.homepage, &r.openingHours, &r.foundedOn, &r.image, &r.imageHref)
	return r, err
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func (r revisionRow) toEntity(root placeRow, tags []string) entities.Place {
	p := entities.Place{
		ID:          entities.Id(root.id),
		License:     root.license,
		Revision:    entities.Revision(r.rev),
		Created:     entities.Activity{At: entities.Timestamp(r.createdAt), By: nullableString(r.createdBy)},
		Title:       r.title,
		Description: r.description,
		Location: entities.Location{
			Pos: entities.MapPoint{LatMicro: r.lat, LngMicro: r.lng},
		},
		Tags: tags,
	}
	if r.addrStreet.Valid || r.addrZip.Valid || r.addrCity.Valid || r.addrCountry.Valid || r.addrState.Valid {
		p.Location.Address = &entities.Address{
			Street:  nullableString(r.addrStreet),
			Zip:     nullableString(r.addrZip),
			City:    nullableString(r.addrCity),
			Country: nullableString(r.addrCountry),
			State:   nullableString(r.addrState),
		}
	}
	if r.contactEmail.Valid || r.contactPhone.Valid {
		p.Contact = &entities.Contact{Email: nullableString(r.contactEmail), Phone: nullableString(r.contactPhone)}
	}
	if r.openingHours.Valid {
		oh := entities.OpeningHours(r.openingHours.String)
		p.OpeningHours = &oh
	}
	if r.foundedOn.Valid {
		p.FoundedOn = nullableString(r.foundedOn)
	}
	if r.image.Valid || r.imageHref.Valid {
		p.Links = &entities.Links{Image: nullableString(r.image), ImageHref: nullableString(r.imageHref)}
	}
	return p
}

// GetPlace returns the place's current revision and status.
func (s *Store) GetPlace(ctx context.Context, id entities.Id) (repositories.PlaceWithStatus, error) {
	root, err := s.lookupPlaceRow(ctx, id)
	if err != nil {
		return repositories.PlaceWithStatus{}, err
	}
	return s.loadRevisionByRev(ctx, root, root.currentRev)
}

func (s *Store) loadRevisionByRev(ctx context.Context, root placeRow, rev uint64) (repositories.PlaceWithStatus, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return repositories.PlaceWithStatus{}, err
	}
	defer release()

	row := reader.QueryRowContext(ctx,
		`SELECT `+revisionColumns+` FROM place_revision WHERE parent_rowid = ? AND rev = ?`,
		root.rowid, rev)
	rr, err := scanRevisionRow(row)
	if err != nil {
		return repositories.PlaceWithStatus{}, dberrors.Wrap("load place revision", err)
	}
	tags, err := s.loadRevisionTags(ctx, rr.rowid)
	if err != nil {
		return repositories.PlaceWithStatus{}, err
	}
	return repositories.PlaceWithStatus{
		Place:  rr.toEntity(root, tags),
		Status: statusFromString(rr.status),
	}, nil
}

// GetPlaces loads many places by id, skipping any that don't exist.
func (s *Store) GetPlaces(ctx context.Context, ids []entities.Id) ([]repositories.PlaceWithStatus, error) {
	out := make([]repositories.PlaceWithStatus, 0, len(ids))
	for _, id := range ids {
		pws, err := s.GetPlace(ctx, id)
		if dberrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, pws)
	}
	return out, nil
}

// AllPlaces returns every place at its current revision.
func (s *Store) AllPlaces(ctx context.Context) ([]repositories.PlaceWithStatus, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := func() ([]string, error) {
		defer release()
		rows, err := reader.QueryContext(ctx, `SELECT id FROM place ORDER BY rowid`)
		if err != nil {
			return nil, dberrors.Wrap("list places", err)
		}
		defer rows.Close()
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return nil, dberrors.Wrap("scan place id", err)
			}
			ids = append(ids, id)
		}
		return ids, rows.Err()
	}()
	if err != nil {
		return nil, err
	}
	out := make([]repositories.PlaceWithStatus, 0, len(ids))
	for _, id := range ids {
		pws, err := s.GetPlace(ctx, entities.Id(id))
		if err != nil {
			return nil, err
		}
		out = append(out, pws)
	}
	return out, nil
}

// CountPlaces returns the total number of places.
func (s *Store) CountPlaces(ctx context.Context) (int, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return 0, err
	}
	defer release()
	var n int
	err = reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM place`).Scan(&n)
	if err != nil {
		return 0, dberrors.Wrap("count places", err)
	}
	return n, nil
}

// CreateOrUpdatePlace inserts a new place (revision 0) or appends a
// new revision, enforcing the dense-revision invariant.
func (s *Store) CreateOrUpdatePlace(ctx context.Context, place entities.Place) error {
	return s.pool.Transaction(ctx, func(w pool.Writer) error {
		var rootRowid int64
		var currentRev uint64
		err := w.QueryRowContext(ctx, `SELECT rowid, current_rev FROM place WHERE id = ?`, string(place.ID)).
			Scan(&rootRowid, &currentRev)
		switch {
		case err == sql.ErrNoRows:
			if place.Revision != 0 {
				return fmt.Errorf("create place %s: %w", place.ID, dberrors.ErrInvalidVersion)
			}
			res, err := w.ExecContext(ctx, `INSERT INTO place (id, license, current_rev) VALUES (?, ?, 0)`,
				string(place.ID), place.License)
			if err != nil {
				return dberrors.Wrap("insert place", err)
			}
			rootRowid, err = res.LastInsertId()
			if err != nil {
				return dberrors.Wrap("insert place", err)
			}
		case err != nil:
			return dberrors.Wrap("lookup place", err)
		default:
			if place.Revision != entities.Revision(currentRev)+1 {
				return fmt.Errorf("update place %s: %w", place.ID, dberrors.ErrInvalidVersion)
			}
		}

		revRowid, err := insertRevision(ctx, w, rootRowid, place)
		if err != nil {
			return err
		}
		if err := insertRevisionTags(ctx, w, revRowid, place.Tags); err != nil {
			return err
		}
		if err := insertReviewLog(ctx, w, revRowid, uint64(place.Revision), entities.Created, place.Created, nil, nil); err != nil {
			return err
		}
		if _, err := w.ExecContext(ctx, `UPDATE place SET current_rev = ? WHERE rowid = ?`, uint64(place.Revision), rootRowid); err != nil {
			return dberrors.Wrap("update place current_rev", err)
		}
		return nil
	})
}

func insertRevision(ctx context.Context, w interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, rootRowid int64, place entities.Place) (int64, error) {
	var street, zip, city, country, state *string
	if place.Location.Address != nil {
		a := place.Location.Address
		street, zip, city, country, state = a.Street, a.Zip, a.City, a.Country, a.State
	}
	var contactEmail, contactPhone *string
	if place.Contact != nil {
		contactEmail, contactPhone = place.Contact.Email, place.Contact.Phone
	}
	var homepage, image, imageHref *string
	if place.Links != nil {
		homepage, image, imageHref = place.Links.Homepage, place.Links.Image, place.Links.ImageHref
	}
	var openingHours *string
	if place.OpeningHours != nil {
		s := string(*place.OpeningHours)
		openingHours = &s
	}

	res, err := w.ExecContext(ctx, `
		INSERT INTO place_revision (
			parent_rowid, rev, created_at, created_by, current_status, title, description,
			lat, lng, addr_street, addr_zip, addr_city, addr_country, addr_state,
			contact_email, contact_phone, homepage, opening_hours, founded_on, image, image_href
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rootRowid, uint64(place.Revision), int64(place.Created.At), place.Created.By, statusToString(entities.Created),
		place.Title, place.Description, place.Location.Pos.LatMicro, place.Location.Pos.LngMicro,
		street, zip, city, country, state, contactEmail, contactPhone, homepage, openingHours, place.FoundedOn, image, imageHref,
	)
	if err != nil {
		return 0, dberrors.Wrap("insert place revision", err)
	}
	return res.LastInsertId()
}

func insertRevisionTags(ctx context.Context, w interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, revRowid int64, tags []string) error {
	for _, tag := range tags {
		if _, err := w.ExecContext(ctx, `INSERT INTO place_revision_tag (parent_rowid, tag) VALUES (?, ?)`, revRowid, tag); err != nil {
			return dberrors.Wrap("insert place revision tag", err)
		}
	}
	return nil
}

func insertReviewLog(ctx context.Context, w interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, revRowid int64, rev uint64, status entities.ReviewStatus, activity entities.Activity, reviewCtx, comment *string) error {
	_, err := w.ExecContext(ctx, `
		INSERT INTO place_revision_review (parent_rowid, rev, created_at, created_by, status, context, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		revRowid, rev, int64(activity.At), activity.By, statusToString(status), reviewCtx, comment)
	if err != nil {
		return dberrors.Wrap("insert review log", err)
	}
	return nil
}

// ReviewPlaces transitions each listed place's current revision to
// status, skipping places already at that status.
func (s *Store) ReviewPlaces(ctx context.Context, ids []entities.Id, status entities.ReviewStatus, activity repositories.ActivityLogEntry) (int, error) {
	transitioned := 0
	err := s.pool.Transaction(ctx, func(w pool.Writer) error {
		for _, id := range ids {
			var rootRowid int64
			var currentRev uint64
			err := w.QueryRowContext(ctx, `SELECT rowid, current_rev FROM place WHERE id = ?`, string(id)).Scan(&rootRowid, &currentRev)
			if err == sql.ErrNoRows {
				continue
			}
			if err != nil {
				return dberrors.Wrap("lookup place for review", err)
			}
			var revRowid int64
			var currentStatus string
			err = w.QueryRowContext(ctx, `SELECT rowid, current_status FROM place_revision WHERE parent_rowid = ? AND rev = ?`, rootRowid, currentRev).
				Scan(&revRowid, &currentStatus)
			if err != nil {
				return dberrors.Wrap("lookup current revision", err)
			}
			if statusFromString(currentStatus) == status {
				continue
			}
			if _, err := w.ExecContext(ctx, `UPDATE place_revision SET current_status = ? WHERE rowid = ?`, statusToString(status), revRowid); err != nil {
				return dberrors.Wrap("update revision status", err)
			}
			if err := insertReviewLog(ctx, w, revRowid, currentRev, status, activity.Activity, activity.Context, activity.Comment); err != nil {
				return err
			}
			transitioned++
		}
		return nil
	})
	return transitioned, err
}

// RecentlyChangedPlaces returns places whose last status transition
// falls in (since, until], newest first.
func (s *Store) RecentlyChangedPlaces(ctx context.Context, params entities.RecentlyChangedEntriesParams) ([]repositories.RecentlyChangedEntry, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	query := `
		SELECT p.id, MAX(r.created_at) AS last_change
		FROM place_revision_review r
		JOIN place_revision pr ON pr.rowid = r.parent_rowid
		JOIN place p ON p.rowid = pr.parent_rowid
		WHERE 1=1`
	var args []any
	if params.Since != nil {
		query += ` AND r.created_at > ?`
		args = append(args, int64(*params.Since))
	}
	if params.Until != nil {
		query += ` AND r.created_at <= ?`
		args = append(args, int64(*params.Until))
	}
	query += ` GROUP BY p.id ORDER BY last_change DESC`
	if params.Pagination.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, params.Pagination.Limit, params.Pagination.Offset)
	}

	rows, err := reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dberrors.Wrap("recently changed places", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		var lastChange int64
		if err := rows.Scan(&id, &lastChange); err != nil {
			rows.Close()
			return nil, dberrors.Wrap("scan recently changed place", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]repositories.RecentlyChangedEntry, 0, len(ids))
	for _, id := range ids {
		pws, err := s.GetPlace(ctx, entities.Id(id))
		if err != nil {
			return nil, err
		}
		log, err := s.loadReviewLogForCurrentRevision(ctx, pws.Place.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, repositories.RecentlyChangedEntry{Place: pws.Place, Status: pws.Status, Log: log})
	}
	return out, nil
}

func (s *Store) loadReviewLogForCurrentRevision(ctx context.Context, id entities.Id) ([]repositories.ActivityLogEntry, error) {
	root, err := s.lookupPlaceRow(ctx, id)
	if err != nil {
		return nil, err
	}
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	var revRowid int64
	if err := reader.QueryRowContext(ctx, `SELECT rowid FROM place_revision WHERE parent_rowid = ? AND rev = ?`, root.rowid, root.currentRev).Scan(&revRowid); err != nil {
		return nil, dberrors.Wrap("lookup current revision rowid", err)
	}
	rows, err := reader.QueryContext(ctx, `SELECT created_at, created_by, status, context, comment FROM place_revision_review WHERE parent_rowid = ? ORDER BY rowid`, revRowid)
	if err != nil {
		return nil, dberrors.Wrap("load review log", err)
	}
	defer rows.Close()
	var log []repositories.ActivityLogEntry
	for rows.Next() {
		var createdAt int64
		var createdBy, revCtx, comment sql.NullString
		var status string
		if err := rows.Scan(&createdAt, &createdBy, &status, &revCtx, &comment); err != nil {
			return nil, dberrors.Wrap("scan review log entry", err)
		}
		log = append(log, repositories.ActivityLogEntry{
			Status:   statusFromString(status),
			Activity: entities.Activity{At: entities.Timestamp(createdAt), By: nullableString(createdBy)},
			Context:  nullableString(revCtx),
			Comment:  nullableString(comment),
		})
	}
	return log, rows.Err()
}

// MostPopularPlaceRevisionTags counts distinct (current revision, tag)
// pairs across visible places.
func (s *Store) MostPopularPlaceRevisionTags(ctx context.Context, params entities.MostPopularTagsParams) ([]entities.TagCount, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := reader.QueryContext(ctx, `
		SELECT t.tag, COUNT(*) AS cnt
		FROM place_revision_tag t
		JOIN place_revision pr ON pr.rowid = t.parent_rowid
		JOIN place p ON p.rowid = pr.parent_rowid AND p.current_rev = pr.rev
		WHERE pr.current_status IN ('created', 'confirmed')
		GROUP BY t.tag
		ORDER BY cnt DESC, t.tag ASC`)
	if err != nil {
		return nil, dberrors.Wrap("most popular tags", err)
	}
	defer rows.Close()

	var all []entities.TagCount
	for rows.Next() {
		var tag string
		var cnt uint64
		if err := rows.Scan(&tag, &cnt); err != nil {
			return nil, dberrors.Wrap("scan tag count", err)
		}
		if params.MinCount != nil && cnt < *params.MinCount {
			continue
		}
		if params.MaxCount != nil && cnt > *params.MaxCount {
			continue
		}
		all = append(all, entities.TagCount{Tag: tag, Count: cnt})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Count > all[j].Count })

	offset := int(params.Pagination.Offset)
	if offset > len(all) {
		return nil, nil
	}
	all = all[offset:]
	if params.Pagination.Limit > 0 && uint64(len(all)) > params.Pagination.Limit {
		all = all[:params.Pagination.Limit]
	}
	return all, nil
}

// GetPlaceHistory returns every revision of id with its review log.
func (s *Store) GetPlaceHistory(ctx context.Context, id entities.Id) (entities.PlaceHistory, error) {
	root, err := s.lookupPlaceRow(ctx, id)
	if err != nil {
		return entities.PlaceHistory{}, err
	}
	var history entities.PlaceHistory
	history.Place = entities.PlaceRoot{ID: entities.Id(root.id), License: root.license}

	for rev := uint64(0); rev <= root.currentRev; rev++ {
		pws, err := s.loadRevisionByRev(ctx, root, rev)
		if err != nil {
			return entities.PlaceHistory{}, err
		}
		_, prRev := pws.Place.Split()
		log, err := s.loadReviewLogForRevision(ctx, root, rev)
		if err != nil {
			return entities.PlaceHistory{}, err
		}
		history.Revisions = append(history.Revisions, entities.PlaceRevisionWithLog{Revision: prRev, Log: log})
	}
	return history, nil
}

func (s *Store) loadReviewLogForRevision(ctx context.Context, root placeRow, rev uint64) ([]entities.ReviewStatusLogEntry, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	var revRowid int64
	if err := reader.QueryRowContext(ctx, `SELECT rowid FROM place_revision WHERE parent_rowid = ? AND rev = ?`, root.rowid, rev).Scan(&revRowid); err != nil {
		return nil, dberrors.Wrap("lookup revision rowid", err)
	}
	rows, err := reader.QueryContext(ctx, `SELECT created_at, created_by, status, context, comment FROM place_revision_review WHERE parent_rowid = ? ORDER BY rowid`, revRowid)
	if err != nil {
		return nil, dberrors.Wrap("load review log", err)
	}
	defer rows.Close()
	var log []entities.ReviewStatusLogEntry
	for rows.Next() {
		var createdAt int64
		var createdBy, revCtx, comment sql.NullString
		var status string
		if err := rows.Scan(&createdAt, &createdBy, &status, &revCtx, &comment); err != nil {
			return nil, dberrors.Wrap("scan review log entry", err)
		}
		log = append(log, entities.ReviewStatusLogEntry{
			Status:   statusFromString(status),
			Activity: entities.Activity{At: entities.Timestamp(createdAt), By: nullableString(createdBy)},
			Context:  nullableString(revCtx),
			Comment:  nullableString(comment),
		})
	}
	return log, rows.Err()
}

// LoadPlaceRevision returns a specific historical revision and the
// status it held (as of its own log, not necessarily the place's
// current status).
func (s *Store) LoadPlaceRevision(ctx context.Context, id entities.Id, rev entities.Revision) (repositories.PlaceWithStatus, error) {
	root, err := s.lookupPlaceRow(ctx, id)
	if err != nil {
		return repositories.PlaceWithStatus{}, err
	}
	return s.loadRevisionByRev(ctx, root, uint64(rev))
}
