package sqlite

import (
	"context"

	"github.com/geoplaces/core/internal/dberrors"
	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/repositories"
	"github.com/geoplaces/core/internal/storage/pool"
)

var _ repositories.SubscriptionRepo = (*Store)(nil)
var _ repositories.TagRepo = (*Store)(nil)

func scanBboxSubscription(row interface{ Scan(dest ...any) error }) (entities.BboxSubscription, error) {
	var id, email string
	var swLat, swLng, neLat, neLng int64
	if err := row.Scan(&id, &email, &swLat, &swLng, &neLat, &neLng); err != nil {
		return entities.BboxSubscription{}, err
	}
	return entities.BboxSubscription{
		ID:        entities.Id(id),
		UserEmail: email,
		Southwest: entities.MapPoint{LatMicro: swLat, LngMicro: swLng},
		Northeast: entities.MapPoint{LatMicro: neLat, LngMicro: neLng},
	}, nil
}

const bboxSubscriptionColumns = `bs.id, u.email, bs.south_west_lat, bs.south_west_lng, bs.north_east_lat, bs.north_east_lng`

const bboxSubscriptionSelectBase = `SELECT ` + bboxSubscriptionColumns + ` FROM bbox_subscriptions bs JOIN users u ON u.rowid = bs.user_rowid`

// CreateBboxSubscription inserts a new bbox subscription for an
// existing user.
func (s *Store) CreateBboxSubscription(ctx context.Context, sub entities.BboxSubscription) error {
	return s.pool.Transaction(ctx, func(w pool.Writer) error {
		rowid, err := userRowid(ctx, w, sub.UserEmail)
		if err != nil {
			return err
		}
		_, err = w.ExecContext(ctx, `
			INSERT INTO bbox_subscriptions (id, user_rowid, south_west_lat, south_west_lng, north_east_lat, north_east_lng)
			VALUES (?, ?, ?, ?, ?, ?)`,
			string(sub.ID), rowid, sub.Southwest.LatMicro, sub.Southwest.LngMicro, sub.Northeast.LatMicro, sub.Northeast.LngMicro)
		if err != nil {
			return dberrors.Wrap("insert bbox subscription", err)
		}
		return nil
	})
}

// AllBboxSubscriptions loads every subscription.
func (s *Store) AllBboxSubscriptions(ctx context.Context) ([]entities.BboxSubscription, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	rows, err := reader.QueryContext(ctx, bboxSubscriptionSelectBase+` ORDER BY bs.rowid`)
	if err != nil {
		return nil, dberrors.Wrap("list bbox subscriptions", err)
	}
	defer rows.Close()
	var out []entities.BboxSubscription
	for rows.Next() {
		sub, err := scanBboxSubscription(rows)
		if err != nil {
			return nil, dberrors.Wrap("scan bbox subscription", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// AllBboxSubscriptionsByEmail loads every subscription owned by
// userEmail.
func (s *Store) AllBboxSubscriptionsByEmail(ctx context.Context, userEmail string) ([]entities.BboxSubscription, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	rows, err := reader.QueryContext(ctx, bboxSubscriptionSelectBase+` WHERE u.email = ? ORDER BY bs.rowid`, userEmail)
	if err != nil {
		return nil, dberrors.Wrap("list bbox subscriptions by email", err)
	}
	defer rows.Close()
	var out []entities.BboxSubscription
	for rows.Next() {
		sub, err := scanBboxSubscription(rows)
		if err != nil {
			return nil, dberrors.Wrap("scan bbox subscription", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// DeleteBboxSubscriptionsByEmail removes every subscription owned by
// userEmail.
func (s *Store) DeleteBboxSubscriptionsByEmail(ctx context.Context, userEmail string) error {
	writer, release, err := s.pool.Exclusive(ctx)
	if err != nil {
		return err
	}
	defer release()
	_, err = writer.ExecContext(ctx, `
		DELETE FROM bbox_subscriptions
		WHERE user_rowid IN (SELECT rowid FROM users WHERE email = ?)`, userEmail)
	if err != nil {
		return dberrors.Wrap("delete bbox subscriptions", err)
	}
	return nil
}

// CreateTagIfNotExists adds tag to the global vocabulary if absent.
func (s *Store) CreateTagIfNotExists(ctx context.Context, tag repositories.Tag) error {
	writer, release, err := s.pool.Exclusive(ctx)
	if err != nil {
		return err
	}
	defer release()
	_, err = writer.ExecContext(ctx, `INSERT OR IGNORE INTO tags (id) VALUES (?)`, tag.Label)
	if err != nil {
		return dberrors.Wrap("insert tag", err)
	}
	return nil
}

// AllTags lists every known tag label.
func (s *Store) AllTags(ctx context.Context) ([]repositories.Tag, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	rows, err := reader.QueryContext(ctx, `SELECT id FROM tags ORDER BY id`)
	if err != nil {
		return nil, dberrors.Wrap("list tags", err)
	}
	defer rows.Close()
	var out []repositories.Tag
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, dberrors.Wrap("scan tag", err)
		}
		out = append(out, repositories.Tag{Label: label})
	}
	return out, rows.Err()
}

// CountTags returns the total number of known tags.
func (s *Store) CountTags(ctx context.Context) (int, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return 0, err
	}
	defer release()
	var n int
	if err := reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`).Scan(&n); err != nil {
		return 0, dberrors.Wrap("count tags", err)
	}
	return n, nil
}
