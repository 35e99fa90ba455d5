package sqlite

import (
	"context"
	"database/sql"

	"github.com/geoplaces/core/internal/dberrors"
	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/repositories"
	"github.com/geoplaces/core/internal/storage/pool"
)

var _ repositories.UserRepo = (*Store)(nil)
var _ repositories.UserTokenRepo = (*Store)(nil)
var _ repositories.ReviewTokenRepo = (*Store)(nil)

func roleToString(r entities.Role) string { return r.String() }

func roleFromString(s string) entities.Role {
	switch s {
	case "user":
		return entities.RoleUser
	case "scout":
		return entities.RoleScout
	case "admin":
		return entities.RoleAdmin
	default:
		return entities.RoleGuest
	}
}

func scanUser(row interface{ Scan(dest ...any) error }) (entities.User, error) {
	var u entities.User
	var confirmed int64
	var role string
	if err := row.Scan(&u.Email, &confirmed, &u.PasswordHash, &role); err != nil {
		return entities.User{}, err
	}
	u.EmailConfirmed = confirmed != 0
	u.Role = roleFromString(role)
	return u, nil
}

const userColumns = `email, email_confirmed, password_hash, role`

// CreateUser inserts a new user account.
func (s *Store) CreateUser(ctx context.Context, user entities.User) error {
	writer, release, err := s.pool.Exclusive(ctx)
	if err != nil {
		return err
	}
	defer release()
	confirmed := int64(0)
	if user.EmailConfirmed {
		confirmed = 1
	}
	_, err = writer.ExecContext(ctx, `INSERT INTO users (email, email_confirmed, password_hash, role) VALUES (?, ?, ?, ?)`,
		user.Email, confirmed, user.PasswordHash, roleToString(user.Role))
	if err != nil {
		return dberrors.Wrap("insert user", err)
	}
	return nil
}

// UpdateUser overwrites an existing user account's fields.
func (s *Store) UpdateUser(ctx context.Context, user entities.User) error {
	writer, release, err := s.pool.Exclusive(ctx)
	if err != nil {
		return err
	}
	defer release()
	confirmed := int64(0)
	if user.EmailConfirmed {
		confirmed = 1
	}
	res, err := writer.ExecContext(ctx, `UPDATE users SET email_confirmed = ?, password_hash = ?, role = ? WHERE email = ?`,
		confirmed, user.PasswordHash, roleToString(user.Role), user.Email)
	if err != nil {
		return dberrors.Wrap("update user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dberrors.Wrap("update user", err)
	}
	if n == 0 {
		return dberrors.Wrap("update user", sql.ErrNoRows)
	}
	return nil
}

// DeleteUserByEmail removes a user account.
func (s *Store) DeleteUserByEmail(ctx context.Context, email string) error {
	writer, release, err := s.pool.Exclusive(ctx)
	if err != nil {
		return err
	}
	defer release()
	res, err := writer.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, email)
	if err != nil {
		return dberrors.Wrap("delete user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dberrors.Wrap("delete user", err)
	}
	if n == 0 {
		return dberrors.Wrap("delete user", sql.ErrNoRows)
	}
	return nil
}

// AllUsers loads every user account.
func (s *Store) AllUsers(ctx context.Context) ([]entities.User, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	rows, err := reader.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY rowid`)
	if err != nil {
		return nil, dberrors.Wrap("list users", err)
	}
	defer rows.Close()
	var out []entities.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, dberrors.Wrap("scan user", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountUsers returns the total number of user accounts.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return 0, err
	}
	defer release()
	var n int
	if err := reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, dberrors.Wrap("count users", err)
	}
	return n, nil
}

// GetUserByEmail loads a user account, failing with ErrNotFound if
// absent.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (entities.User, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return entities.User{}, err
	}
	defer release()
	row := reader.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		return entities.User{}, dberrors.Wrap("load user", err)
	}
	return u, nil
}

// TryGetUserByEmail loads a user account, returning (nil, nil) if
// absent rather than ErrNotFound.
func (s *Store) TryGetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	u, err := s.GetUserByEmail(ctx, email)
	if dberrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func userRowid(ctx context.Context, reader interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, email string) (int64, error) {
	var rowid int64
	err := reader.QueryRowContext(ctx, `SELECT rowid FROM users WHERE email = ?`, email).Scan(&rowid)
	if err != nil {
		return 0, dberrors.Wrap("lookup user", err)
	}
	return rowid, nil
}

// ReplaceUserToken upserts the single active token for the user named
// by token.EmailNonce.Email.
func (s *Store) ReplaceUserToken(ctx context.Context, token entities.UserToken) (entities.EmailNonce, error) {
	var result entities.EmailNonce
	err := s.pool.Transaction(ctx, func(w pool.Writer) error {
		rowid, err := userRowid(ctx, w, token.EmailNonce.Email)
		if err != nil {
			return err
		}
		_, err = w.ExecContext(ctx, `
			INSERT INTO user_tokens (user_rowid, expires_at, nonce) VALUES (?, ?, ?)
			ON CONFLICT (user_rowid) DO UPDATE SET expires_at = excluded.expires_at, nonce = excluded.nonce`,
			rowid, int64(token.ExpiresAt), token.EmailNonce.Nonce.String())
		if err != nil {
			return dberrors.Wrap("replace user token", err)
		}
		result = token.EmailNonce
		return nil
	})
	return result, err
}

// ConsumeUserToken atomically deletes and returns the token matching
// emailNonce.
func (s *Store) ConsumeUserToken(ctx context.Context, emailNonce entities.EmailNonce) (entities.UserToken, error) {
	var token entities.UserToken
	err := s.pool.Transaction(ctx, func(w pool.Writer) error {
		rowid, err := userRowid(ctx, w, emailNonce.Email)
		if err != nil {
			return err
		}
		var expiresAt int64
		var nonce string
		err = w.QueryRowContext(ctx, `SELECT expires_at, nonce FROM user_tokens WHERE user_rowid = ? AND nonce = ?`, rowid, emailNonce.Nonce.String()).
			Scan(&expiresAt, &nonce)
		if err != nil {
			return dberrors.Wrap("consume user token", err)
		}
		if _, err := w.ExecContext(ctx, `DELETE FROM user_tokens WHERE user_rowid = ?`, rowid); err != nil {
			return dberrors.Wrap("consume user token", err)
		}
		token = entities.UserToken{
			EmailNonce: entities.EmailNonce{Email: emailNonce.Email, Nonce: entities.Nonce(nonce)},
			ExpiresAt:  entities.Timestamp(expiresAt),
		}
		return nil
	})
	return token, err
}

// DeleteExpiredUserTokens removes every token whose expiry precedes
// expiredBefore.
func (s *Store) DeleteExpiredUserTokens(ctx context.Context, expiredBefore entities.Timestamp) (int, error) {
	writer, release, err := s.pool.Exclusive(ctx)
	if err != nil {
		return 0, err
	}
	defer release()
	res, err := writer.ExecContext(ctx, `DELETE FROM user_tokens WHERE expires_at < ?`, int64(expiredBefore))
	if err != nil {
		return 0, dberrors.Wrap("delete expired user tokens", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dberrors.Wrap("delete expired user tokens", err)
	}
	return int(n), nil
}

// GetUserTokenByEmail loads the active token for email, if any.
func (s *Store) GetUserTokenByEmail(ctx context.Context, email string) (entities.UserToken, error) {
	reader, release, err := s.pool.Shared(ctx)
	if err != nil {
		return entities.UserToken{}, err
	}
	defer release()
	var expiresAt int64
	var nonce string
	err = reader.QueryRowContext(ctx, `
		SELECT t.expires_at, t.nonce FROM user_tokens t
		JOIN users u ON u.rowid = t.user_rowid
		WHERE u.email = ?`, email).Scan(&expiresAt, &nonce)
	if err != nil {
		return entities.UserToken{}, dberrors.Wrap("load user token", err)
	}
	return entities.UserToken{
		EmailNonce: entities.EmailNonce{Email: email, Nonce: entities.Nonce(nonce)},
		ExpiresAt:  entities.Timestamp(expiresAt),
	}, nil
}

// CreateReviewToken inserts a new single-use review token.
func (s *Store) CreateReviewToken(ctx context.Context, token entities.ReviewToken) error {
	return s.pool.Transaction(ctx, func(w pool.Writer) error {
		root, err := lookupPlaceRowWith(ctx, w, token.ReviewNonce.PlaceID)
		if err != nil {
			return err
		}
		_, err = w.ExecContext(ctx, `INSERT INTO review_tokens (place_rowid, revision, expires_at, nonce) VALUES (?, ?, ?, ?)`,
			root.rowid, uint64(token.ReviewNonce.PlaceRevision), int64(token.ExpiresAt), token.ReviewNonce.Nonce.String())
		if err != nil {
			return dberrors.Wrap("insert review token", err)
		}
		return nil
	})
}

// ConsumeReviewToken atomically deletes and returns the token matching
// reviewNonce.
func (s *Store) ConsumeReviewToken(ctx context.Context, reviewNonce entities.ReviewNonce) (entities.ReviewToken, error) {
	var token entities.ReviewToken
	err := s.pool.Transaction(ctx, func(w pool.Writer) error {
		root, err := lookupPlaceRowWith(ctx, w, reviewNonce.PlaceID)
		if err != nil {
			return err
		}
		var rowid int64
		var expiresAt int64
		err = w.QueryRowContext(ctx, `
			SELECT rowid, expires_at FROM review_tokens
			WHERE place_rowid = ? AND revision = ? AND nonce = ?`,
			root.rowid, uint64(reviewNonce.PlaceRevision), reviewNonce.Nonce.String()).Scan(&rowid, &expiresAt)
		if err != nil {
			return dberrors.Wrap("consume review token", err)
		}
		if _, err := w.ExecContext(ctx, `DELETE FROM review_tokens WHERE rowid = ?`, rowid); err != nil {
			return dberrors.Wrap("consume review token", err)
		}
		token = entities.ReviewToken{ReviewNonce: reviewNonce, ExpiresAt: entities.Timestamp(expiresAt)}
		return nil
	})
	return token, err
}

// DeleteExpiredReviewTokens removes every review token whose expiry
// precedes expiredBefore.
func (s *Store) DeleteExpiredReviewTokens(ctx context.Context, expiredBefore entities.Timestamp) (int, error) {
	writer, release, err := s.pool.Exclusive(ctx)
	if err != nil {
		return 0, err
	}
	defer release()
	res, err := writer.ExecContext(ctx, `DELETE FROM review_tokens WHERE expires_at < ?`, int64(expiredBefore))
	if err != nil {
		return 0, dberrors.Wrap("delete expired review tokens", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dberrors.Wrap("delete expired review tokens", err)
	}
	return int(n), nil
}
