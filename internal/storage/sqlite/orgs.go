package sqlite

import (
	"context"
	"database/sql"

	"github.com/geoplaces/core/internal/dberrors"
	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/repositories"
	"github.com/geoplaces/core/internal/storage/pool"
)

var _ repositories.OrganizationRepo = (*Store)(nil)
var _ repositories.PlaceClearanceRepo = (*Store)(nil)

func moderationFlagsFromRow(allowAdd, allowRemove, requireClearance int64) entities.TagModerationFlags {
	var f entities.TagModerationFlags
	if allowAdd != 0 {
		f = f.Join(entities.TagModerationAllowAdd)
	}
	if allowRemove != 0 {
		f = f.Join(entities.TagModerationAllowRemove)
	}
	if requireClearance != 0 {
		f = f.Join(entities.TagModerationRequireClearance)
	}
	return f
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// CreateOrg inserts a new organization and its moderated tags.
func (s *Store) CreateOrg(ctx context.Context, org entities.Organization) error {
	return s.pool.Transaction(ctx, func(w pool.Writer) error {
		res, err := w.ExecContext(ctx, `INSERT INTO organization (id, name, api_token) VALUES (?, ?, ?)`,
			string(org.ID), org.Name, org.APIToken)
		if err != nil {
			return dberrors.Wrap("insert organization", err)
		}
		rowid, err := res.LastInsertId()
		if err != nil {
			return dberrors.Wrap("insert organization", err)
		}
		for _, tag := range org.ModeratedTags {
			_, err := w.ExecContext(ctx, `
				INSERT INTO organization_tag (org_rowid, tag_label, allow_add, allow_remove, require_clearance)
				VALUES (?, ?, ?, ?, ?)`,
				rowid, tag.Label, boolToInt(tag.ModerationFlags.AllowsAdding()), boolToInt(tag.ModerationFlags.AllowsRemoval()),
				boolToInt(tag.ModerationFlags.RequiresClearance()))
			if err != nil {
				return dberrors.Wrap("insert organization tag", err)
			}
		}
		return nil
	})
}

func (s *Store) loadOrgModeratedTags(ctx context.Context, orgRowid int64) ([]entities.ModeratedTag, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	rows, err := reader.QueryContext(ctx, `SELECT tag_label, allow_add, allow_remove, require_clearance FROM organization_tag WHERE org_rowid = ? ORDER BY tag_label`, orgRowid)
	if err != nil {
		return nil, dberrors.Wrap("load organization tags", err)
	}
	defer rows.Close()
	var out []entities.ModeratedTag
	for rows.Next() {
		var label string
		var allowAdd, allowRemove, requireClearance int64
		if err := rows.Scan(&label, &allowAdd, &allowRemove, &requireClearance); err != nil {
			return nil, dberrors.Wrap("scan organization tag", err)
		}
		out = append(out, entities.ModeratedTag{Label: label, ModerationFlags: moderationFlagsFromRow(allowAdd, allowRemove, requireClearance)})
	}
	return out, rows.Err()
}

// GetOrgByAPIToken loads an organization and its moderated tags by its
// API token.
func (s *Store) GetOrgByAPIToken(ctx context.Context, token string) (entities.Organization, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return entities.Organization{}, err
	}
	var rowid int64
	var org entities.Organization
	var id string
	err = reader.QueryRowContext(ctx, `SELECT rowid, id, name, api_token FROM organization WHERE api_token = ?`, token).
		Scan(&rowid, &id, &org.Name, &org.APIToken)
	release()
	if err != nil {
		return entities.Organization{}, dberrors.Wrap("load organization", err)
	}
	org.ID = entities.Id(id)
	tags, err := s.loadOrgModeratedTags(ctx, rowid)
	if err != nil {
		return entities.Organization{}, err
	}
	org.ModeratedTags = tags
	return org, nil
}

// MapTagToClearanceOrgID returns the organization id that requires
// clearance on tag, if any.
func (s *Store) MapTagToClearanceOrgID(ctx context.Context, tag string) (*entities.Id, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	var orgID string
	err = reader.QueryRowContext(ctx, `
		SELECT o.id FROM organization_tag t
		JOIN organization o ON o.rowid = t.org_rowid
		WHERE t.tag_label = ? AND t.require_clearance = 1
		LIMIT 1`, tag).Scan(&orgID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, dberrors.Wrap("map tag to clearance org", err)
	}
	id := entities.Id(orgID)
	return &id, nil
}

// GetModeratedTagsByOrg returns every (org, tag) pair, optionally
// excluding one organization.
func (s *Store) GetModeratedTagsByOrg(ctx context.Context, excludedOrgID *entities.Id) ([]repositories.OrgModeratedTag, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	query := `
		SELECT o.id, t.tag_label, t.allow_add, t.allow_remove, t.require_clearance
		FROM organization_tag t
		JOIN organization o ON o.rowid = t.org_rowid`
	var args []any
	if excludedOrgID != nil {
		query += ` WHERE o.id != ?`
		args = append(args, string(*excludedOrgID))
	}
	query += ` ORDER BY o.id, t.tag_label`

	rows, err := reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dberrors.Wrap("list moderated tags", err)
	}
	defer rows.Close()
	var out []repositories.OrgModeratedTag
	for rows.Next() {
		var orgID, label string
		var allowAdd, allowRemove, requireClearance int64
		if err := rows.Scan(&orgID, &label, &allowAdd, &allowRemove, &requireClearance); err != nil {
			return nil, dberrors.Wrap("scan moderated tag", err)
		}
		out = append(out, repositories.OrgModeratedTag{
			OrganizationID: entities.Id(orgID),
			Tag:            entities.ModeratedTag{Label: label, ModerationFlags: moderationFlagsFromRow(allowAdd, allowRemove, requireClearance)},
		})
	}
	return out, rows.Err()
}

func orgRowidByID(ctx context.Context, reader interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, orgID entities.Id) (int64, error) {
	var rowid int64
	err := reader.QueryRowContext(ctx, `SELECT rowid FROM organization WHERE id = ?`, string(orgID)).Scan(&rowid)
	if err != nil {
		return 0, dberrors.Wrap("lookup organization", err)
	}
	return rowid, nil
}

// AddPendingClearanceForPlaces creates a pending-clearance record for
// pending.PlaceID under each listed organization, skipping any that
// already exist, and returns the count actually added.
func (s *Store) AddPendingClearanceForPlaces(ctx context.Context, orgIDs []entities.Id, pending entities.PendingClearanceForPlace) (int, error) {
	added := 0
	err := s.pool.Transaction(ctx, func(w pool.Writer) error {
		placeRoot, err := lookupPlaceRowWith(ctx, w, pending.PlaceID)
		if err != nil {
			return err
		}
		for _, orgID := range orgIDs {
			orgRowid, err := orgRowidByID(ctx, w, orgID)
			if err != nil {
				return err
			}
			var exists int
			err = w.QueryRowContext(ctx, `SELECT COUNT(*) FROM organization_place_clearance WHERE org_rowid = ? AND place_rowid = ?`,
				orgRowid, placeRoot.rowid).Scan(&exists)
			if err != nil {
				return dberrors.Wrap("check pending clearance", err)
			}
			if exists > 0 {
				continue
			}
			_, err = w.ExecContext(ctx, `
				INSERT INTO organization_place_clearance (org_rowid, place_rowid, created_at, last_cleared_revision)
				VALUES (?, ?, ?, NULL)`,
				orgRowid, placeRoot.rowid, int64(pending.CreatedAt))
			if err != nil {
				return dberrors.Wrap("insert pending clearance", err)
			}
			added++
		}
		return nil
	})
	return added, err
}

// CountPendingClearancesForPlaces counts orgID's pending clearance
// records.
func (s *Store) CountPendingClearancesForPlaces(ctx context.Context, orgID entities.Id) (int, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return 0, err
	}
	defer release()
	orgRowid, err := orgRowidByID(ctx, reader, orgID)
	if err != nil {
		return 0, err
	}
	var n int
	err = reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM organization_place_clearance WHERE org_rowid = ?`, orgRowid).Scan(&n)
	if err != nil {
		return 0, dberrors.Wrap("count pending clearances", err)
	}
	return n, nil
}

func scanPendingClearance(row interface{ Scan(dest ...any) error }, orgID entities.Id, placeID string) (entities.PendingClearanceForPlace, error) {
	var createdAt int64
	var lastCleared sql.NullInt64
	if err := row.Scan(&createdAt, &lastCleared); err != nil {
		return entities.PendingClearanceForPlace{}, err
	}
	p := entities.PendingClearanceForPlace{OrganizationID: orgID, PlaceID: entities.Id(placeID), CreatedAt: entities.Timestamp(createdAt)}
	if lastCleared.Valid {
		rev := entities.Revision(lastCleared.Int64)
		p.LastClearedRevision = &rev
	}
	return p, nil
}

// ListPendingClearancesForPlaces lists orgID's pending clearance
// records, paginated, oldest first.
func (s *Store) ListPendingClearancesForPlaces(ctx context.Context, orgID entities.Id, pagination entities.Pagination) ([]entities.PendingClearanceForPlace, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	orgRowid, err := orgRowidByID(ctx, reader, orgID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT p.id, c.created_at, c.last_cleared_revision
		FROM organization_place_clearance c
		JOIN place p ON p.rowid = c.place_rowid
		WHERE c.org_rowid = ?
		ORDER BY c.created_at ASC`
	args := []any{orgRowid}
	if pagination.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, pagination.Limit, pagination.Offset)
	}

	rows, err := reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dberrors.Wrap("list pending clearances", err)
	}
	defer rows.Close()
	var out []entities.PendingClearanceForPlace
	for rows.Next() {
		var placeID string
		var createdAt int64
		var lastCleared sql.NullInt64
		if err := rows.Scan(&placeID, &createdAt, &lastCleared); err != nil {
			return nil, dberrors.Wrap("scan pending clearance", err)
		}
		p := entities.PendingClearanceForPlace{OrganizationID: orgID, PlaceID: entities.Id(placeID), CreatedAt: entities.Timestamp(createdAt)}
		if lastCleared.Valid {
			rev := entities.Revision(lastCleared.Int64)
			p.LastClearedRevision = &rev
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LoadPendingClearancesForPlaces loads orgID's pending clearance
// records for the listed places, skipping places with none.
func (s *Store) LoadPendingClearancesForPlaces(ctx context.Context, orgID entities.Id, placeIDs []entities.Id) ([]entities.PendingClearanceForPlace, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	orgRowid, err := orgRowidByID(ctx, reader, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]entities.PendingClearanceForPlace, 0, len(placeIDs))
	for _, placeID := range placeIDs {
		placeRoot, err := lookupPlaceRowWith(ctx, reader, placeID)
		if err != nil {
			if dberrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		row := reader.QueryRowContext(ctx, `SELECT created_at, last_cleared_revision FROM organization_place_clearance WHERE org_rowid = ? AND place_rowid = ?`,
			orgRowid, placeRoot.rowid)
		p, err := scanPendingClearance(row, orgID, string(placeID))
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, dberrors.Wrap("load pending clearance", err)
		}
		out = append(out, p)
	}
	return out, nil
}

// UpdatePendingClearancesForPlaces applies each clearance's revision
// as orgID's last-cleared revision for that place, returning the count
// actually updated.
func (s *Store) UpdatePendingClearancesForPlaces(ctx context.Context, orgID entities.Id, clearances []entities.ClearanceForPlace) (int, error) {
	updated := 0
	err := s.pool.Transaction(ctx, func(w pool.Writer) error {
		orgRowid, err := orgRowidByID(ctx, w, orgID)
		if err != nil {
			return err
		}
		for _, c := range clearances {
			placeRoot, err := lookupPlaceRowWith(ctx, w, c.PlaceID)
			if err != nil {
				return err
			}
			res, err := w.ExecContext(ctx, `
				UPDATE organization_place_clearance SET last_cleared_revision = ?
				WHERE org_rowid = ? AND place_rowid = ?`,
				uint64(c.Revision), orgRowid, placeRoot.rowid)
			if err != nil {
				return dberrors.Wrap("update pending clearance", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return dberrors.Wrap("update pending clearance", err)
			}
			updated += int(n)
		}
		return nil
	})
	return updated, err
}

// CleanupPendingClearancesForPlaces deletes orgID's pending-clearance
// records that have been cleared up to the place's current revision,
// returning the count removed. A record whose last_cleared_revision
// trails the place's current revision is left in place: the place has
// moved on since it was last cleared and still needs review.
func (s *Store) CleanupPendingClearancesForPlaces(ctx context.Context, orgID entities.Id) (int, error) {
	writer, release, err := s.pool.Exclusive(ctx)
	if err != nil {
		return 0, err
	}
	defer release()
	orgRowid, err := orgRowidByID(ctx, writer, orgID)
	if err != nil {
		return 0, err
	}
	res, err := writer.ExecContext(ctx, `
		DELETE FROM organization_place_clearance
		WHERE org_rowid = ?
		AND place_rowid IN (
			SELECT c.place_rowid FROM organization_place_clearance c
			JOIN place p ON p.rowid = c.place_rowid
			WHERE c.org_rowid = ? AND c.last_cleared_revision = p.current_rev
		)`, orgRowid, orgRowid)
	if err != nil {
		return 0, dberrors.Wrap("cleanup pending clearances", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dberrors.Wrap("cleanup pending clearances", err)
	}
	return int(n), nil
}
