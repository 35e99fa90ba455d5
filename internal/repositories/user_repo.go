package repositories

import (
	"context"

	"github.com/geoplaces/core/internal/entities"
)

// UserRepo is the persistence contract for user accounts.
type UserRepo interface {
	CreateUser(ctx context.Context, user entities.User) error
	UpdateUser(ctx context.Context, user entities.User) error
	DeleteUserByEmail(ctx context.Context, email string) error

	AllUsers(ctx context.Context) ([]entities.User, error)
	CountUsers(ctx context.Context) (int, error)

	GetUserByEmail(ctx context.Context, email string) (entities.User, error)
	TryGetUserByEmail(ctx context.Context, email string) (*entities.User, error)
}

// UserTokenRepo is the persistence contract for single-use user
// tokens (email confirmation, password reset).
type UserTokenRepo interface {
	// ReplaceUserToken upserts the single active token for the user
	// named by token.EmailNonce.Email and returns the stored EmailNonce.
	ReplaceUserToken(ctx context.Context, token entities.UserToken) (entities.EmailNonce, error)

	// ConsumeUserToken atomically deletes and returns the token
	// matching emailNonce, or ErrNotFound.
	ConsumeUserToken(ctx context.Context, emailNonce entities.EmailNonce) (entities.UserToken, error)

	DeleteExpiredUserTokens(ctx context.Context, expiredBefore entities.Timestamp) (int, error)

	GetUserTokenByEmail(ctx context.Context, email string) (entities.UserToken, error)
}

// ReviewTokenRepo is the persistence contract for single-use
// place-review tokens.
type ReviewTokenRepo interface {
	CreateReviewToken(ctx context.Context, token entities.ReviewToken) error
	ConsumeReviewToken(ctx context.Context, reviewNonce entities.ReviewNonce) (entities.ReviewToken, error)
	DeleteExpiredReviewTokens(ctx context.Context, expiredBefore entities.Timestamp) (int, error)
}
