package sqlite

import (
	"context"
	"database/sql"

	"github.com/geoplaces/core/internal/dberrors"
	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/repositories"
	"github.com/geoplaces/core/internal/storage/pool"
)

var _ repositories.RatingRepo = (*Store)(nil)
var _ repositories.CommentRepo = (*Store)(nil)

func scanRating(row interface{ Scan(dest ...any) error }) (entities.Rating, error) {
	var r entities.Rating
	var id, placeID string
	var createdAt int64
	var archivedAt sql.NullInt64
	var value int64
	var ctxStr string
	var source sql.NullString
	err := row.Scan(&id, &placeID, &createdAt, &archivedAt, &r.Title, &value, &ctxStr, &source)
	if err != nil {
		return entities.Rating{}, err
	}
	r.ID = entities.Id(id)
	r.PlaceID = entities.Id(placeID)
	r.CreatedAt = entities.Timestamp(createdAt)
	if archivedAt.Valid {
		at := entities.Timestamp(archivedAt.Int64)
		r.ArchivedAt = &at
	}
	r.Value = entities.RatingValue(value)
	r.Context = ratingContextFromString(ctxStr)
	r.Source = nullableString(source)
	return r, nil
}

func ratingContextToString(c entities.RatingContext) string { return c.String() }

func ratingContextFromString(s string) entities.RatingContext {
	for _, c := range entities.RatingContexts {
		if c.String() == s {
			return c
		}
	}
	return entities.Diversity
}

const ratingColumns = `r.id, p.id, r.created_at, r.archived_at, r.title, r.value, r.context, r.source`

const ratingSelectBase = `SELECT ` + ratingColumns + ` FROM place_rating r JOIN place p ON p.rowid = r.parent_rowid`

// CreateRating inserts a new rating against an existing place.
func (s *Store) CreateRating(ctx context.Context, rating entities.Rating) error {
	return s.pool.Transaction(ctx, func(w pool.Writer) error {
		root, err := lookupPlaceRowWith(ctx, w, rating.PlaceID)
		if err != nil {
			return err
		}
		_, err = w.ExecContext(ctx, `
			INSERT INTO place_rating (parent_rowid, created_at, archived_at, id, title, value, context, source)
			VALUES (?, ?, NULL, ?, ?, ?, ?, ?)`,
			root.rowid, int64(rating.CreatedAt), string(rating.ID), rating.Title, int64(rating.Value),
			ratingContextToString(rating.Context), rating.Source)
		if err != nil {
			return dberrors.Wrap("insert rating", err)
		}
		return nil
	})
}

// LoadRating loads a single rating by id.
func (s *Store) LoadRating(ctx context.Context, id entities.Id) (entities.Rating, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return entities.Rating{}, err
	}
	defer release()
	row := reader.QueryRowContext(ctx, ratingSelectBase+` WHERE r.id = ?`, string(id))
	r, err := scanRating(row)
	if err != nil {
		return entities.Rating{}, dberrors.Wrap("load rating", err)
	}
	return r, nil
}

// LoadRatings loads many ratings by id, skipping missing ones.
func (s *Store) LoadRatings(ctx context.Context, ids []entities.Id) ([]entities.Rating, error) {
	out := make([]entities.Rating, 0, len(ids))
	for _, id := range ids {
		r, err := s.LoadRating(ctx, id)
		if dberrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// LoadRatingsOfPlace loads every rating (including archived) of a place.
func (s *Store) LoadRatingsOfPlace(ctx context.Context, placeID entities.Id) ([]entities.Rating, error) {
	root, err := s.lookupPlaceRow(ctx, placeID)
	if err != nil {
		return nil, err
	}
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	rows, err := reader.QueryContext(ctx, ratingSelectBase+` WHERE r.parent_rowid = ? ORDER BY r.rowid`, root.rowid)
	if err != nil {
		return nil, dberrors.Wrap("load ratings of place", err)
	}
	defer rows.Close()
	var out []entities.Rating
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, dberrors.Wrap("scan rating", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ArchiveRatings soft-archives the listed ratings, returning the count
// actually archived (already-archived ratings are skipped).
func (s *Store) ArchiveRatings(ctx context.Context, ids []entities.Id, activity entities.Activity) (int, error) {
	archived := 0
	err := s.pool.Transaction(ctx, func(w pool.Writer) error {
		for _, id := range ids {
			res, err := w.ExecContext(ctx, `UPDATE place_rating SET archived_at = ? WHERE id = ? AND archived_at IS NULL`,
				int64(activity.At), string(id))
			if err != nil {
				return dberrors.Wrap("archive rating", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return dberrors.Wrap("archive rating", err)
			}
			archived += int(n)
		}
		return nil
	})
	return archived, err
}

// ArchiveRatingsOfPlaces archives every unarchived rating of the
// listed places.
func (s *Store) ArchiveRatingsOfPlaces(ctx context.Context, placeIDs []entities.Id, activity entities.Activity) (int, error) {
	archived := 0
	for _, placeID := range placeIDs {
		ratings, err := s.LoadRatingsOfPlace(ctx, placeID)
		if err != nil {
			return archived, err
		}
		var ids []entities.Id
		for _, r := range ratings {
			if !r.Archived() {
				ids = append(ids, r.ID)
			}
		}
		n, err := s.ArchiveRatings(ctx, ids, activity)
		archived += n
		if err != nil {
			return archived, err
		}
	}
	return archived, nil
}

// LoadPlaceIDsOfRatings resolves each rating id to its owning place id.
func (s *Store) LoadPlaceIDsOfRatings(ctx context.Context, ids []entities.Id) ([]entities.Id, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	out := make([]entities.Id, 0, len(ids))
	for _, id := range ids {
		var placeID string
		err := reader.QueryRowContext(ctx, `
			SELECT p.id FROM place_rating r
			JOIN place p ON p.rowid = r.parent_rowid
			WHERE r.id = ?`, string(id)).Scan(&placeID)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, dberrors.Wrap("load place id of rating", err)
		}
		out = append(out, entities.Id(placeID))
	}
	return out, nil
}

func scanComment(row interface{ Scan(dest ...any) error }) (entities.Comment, error) {
	var c entities.Comment
	var id, ratingID string
	var createdAt int64
	var archivedAt sql.NullInt64
	err := row.Scan(&id, &ratingID, &createdAt, &archivedAt, &c.Text)
	if err != nil {
		return entities.Comment{}, err
	}
	c.ID = entities.Id(id)
	c.RatingID = entities.Id(ratingID)
	c.CreatedAt = entities.Timestamp(createdAt)
	if archivedAt.Valid {
		at := entities.Timestamp(archivedAt.Int64)
		c.ArchivedAt = &at
	}
	return c, nil
}

const commentColumns = `c.id, r.id, c.created_at, c.archived_at, c.text`

const commentSelectBase = `SELECT ` + commentColumns + ` FROM place_rating_comment c JOIN place_rating r ON r.rowid = c.parent_rowid`

// CreateComment inserts a new comment against an existing rating.
func (s *Store) CreateComment(ctx context.Context, comment entities.Comment) error {
	return s.pool.Transaction(ctx, func(w pool.Writer) error {
		ratingRowid, err := lookupRatingRowidWith(ctx, w, comment.RatingID)
		if err != nil {
			return err
		}
		_, err = w.ExecContext(ctx, `
			INSERT INTO place_rating_comment (parent_rowid, created_at, archived_at, id, text)
			VALUES (?, ?, NULL, ?, ?)`,
			ratingRowid, int64(comment.CreatedAt), string(comment.ID), comment.Text)
		if err != nil {
			return dberrors.Wrap("insert comment", err)
		}
		return nil
	})
}

func lookupRatingRowidWith(ctx context.Context, reader interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, id entities.Id) (int64, error) {
	var rowid int64
	err := reader.QueryRowContext(ctx, `SELECT rowid FROM place_rating WHERE id = ?`, string(id)).Scan(&rowid)
	if err != nil {
		return 0, dberrors.Wrap("lookup rating", err)
	}
	return rowid, nil
}

// LoadComment loads a single comment by id.
func (s *Store) LoadComment(ctx context.Context, id entities.Id) (entities.Comment, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return entities.Comment{}, err
	}
	defer release()
	row := reader.QueryRowContext(ctx, commentSelectBase+` WHERE c.id = ?`, string(id))
	c, err := scanComment(row)
	if err != nil {
		return entities.Comment{}, dberrors.Wrap("load comment", err)
	}
	return c, nil
}

// LoadComments loads many comments by id, skipping missing ones.
func (s *Store) LoadComments(ctx context.Context, ids []entities.Id) ([]entities.Comment, error) {
	out := make([]entities.Comment, 0, len(ids))
	for _, id := range ids {
		c, err := s.LoadComment(ctx, id)
		if dberrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// LoadCommentsOfRating loads every unarchived comment of a rating.
func (s *Store) LoadCommentsOfRating(ctx context.Context, ratingID entities.Id) ([]entities.Comment, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	ratingRowid, err := lookupRatingRowidWith(ctx, reader, ratingID)
	if err != nil {
		return nil, err
	}
	rows, err := reader.QueryContext(ctx, commentSelectBase+` WHERE c.parent_rowid = ? AND c.archived_at IS NULL ORDER BY c.rowid`, ratingRowid)
	if err != nil {
		return nil, dberrors.Wrap("load comments of rating", err)
	}
	defer rows.Close()
	var out []entities.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, dberrors.Wrap("scan comment", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ArchiveComments soft-archives the listed comments, returning the
// count actually archived.
func (s *Store) ArchiveComments(ctx context.Context, ids []entities.Id, activity entities.Activity) (int, error) {
	archived := 0
	err := s.pool.Transaction(ctx, func(w pool.Writer) error {
		for _, id := range ids {
			res, err := w.ExecContext(ctx, `UPDATE place_rating_comment SET archived_at = ? WHERE id = ? AND archived_at IS NULL`,
				int64(activity.At), string(id))
			if err != nil {
				return dberrors.Wrap("archive comment", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return dberrors.Wrap("archive comment", err)
			}
			archived += int(n)
		}
		return nil
	})
	return archived, err
}

// ArchiveCommentsOfRatings archives every unarchived comment of the
// listed ratings.
func (s *Store) ArchiveCommentsOfRatings(ctx context.Context, ratingIDs []entities.Id, activity entities.Activity) (int, error) {
	archived := 0
	for _, ratingID := range ratingIDs {
		comments, err := s.LoadCommentsOfRating(ctx, ratingID)
		if err != nil {
			return archived, err
		}
		var ids []entities.Id
		for _, c := range comments {
			ids = append(ids, c.ID)
		}
		n, err := s.ArchiveComments(ctx, ids, activity)
		archived += n
		if err != nil {
			return archived, err
		}
	}
	return archived, nil
}

// ArchiveCommentsOfPlaces archives every unarchived comment of every
// rating of the listed places.
func (s *Store) ArchiveCommentsOfPlaces(ctx context.Context, placeIDs []entities.Id, activity entities.Activity) (int, error) {
	archived := 0
	for _, placeID := range placeIDs {
		ratings, err := s.LoadRatingsOfPlace(ctx, placeID)
		if err != nil {
			return archived, err
		}
		var ratingIDs []entities.Id
		for _, r := range ratings {
			ratingIDs = append(ratingIDs, r.ID)
		}
		n, err := s.ArchiveCommentsOfRatings(ctx, ratingIDs, activity)
		archived += n
		if err != nil {
			return archived, err
		}
	}
	return archived, nil
}
