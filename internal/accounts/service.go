// Package accounts implements the account lifecycle: password
// hashing, email/confirmation and password-reset tokens, and role
// authorization. Session issuance (JWT, cookies, ...) is explicitly
// out of scope; Service only exposes the SessionIssuer seam so a
// caller can plug in whatever wire format it wants.
package accounts

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/geoplaces/core/internal/dberrors"
	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/repositories"
)

// Sentinel errors for account operations.
var (
	// ErrCredentials indicates a failed login: unknown email or wrong
	// password. Deliberately the same error for both cases, so callers
	// cannot use response shape to enumerate registered emails.
	ErrCredentials = errors.New("invalid credentials")

	// ErrUnauthorized indicates a missing or invalid session credential.
	// Confirmation/reset token failures use ErrTokenExpired/
	// ErrTokenInvalid instead, below.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller's role does not meet the
	// operation's required role.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyConfirmed indicates a confirmation token was consumed
	// for an account that is already confirmed.
	ErrAlreadyConfirmed = errors.New("email already confirmed")

	// ErrEmailNotConfirmed indicates a login attempt before the
	// account's email has been confirmed.
	ErrEmailNotConfirmed = errors.New("email not confirmed")

	// ErrUserExists indicates a registration attempt for an email
	// already on file.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidEmail indicates a registration email that fails basic
	// syntax validation.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidPassword indicates a password that does not meet the
	// minimum strength requirement.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrTokenExpired indicates a confirmation or reset token that was
	// found but has passed its expires_at.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates a confirmation or reset token that does
	// not exist: already consumed, or never issued.
	ErrTokenInvalid = errors.New("token invalid")
)

// MinPasswordLen is the shortest password Register/ResetPassword will
// accept.
const MinPasswordLen = 8

func isValidEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.Contains(email[at+1:], "@") && strings.Contains(email[at+1:], ".")
}

// UserTokenTTL is how long an issued email-confirmation or
// password-reset token remains valid.
const UserTokenTTL = 24 * 60 * 60 * 1000 // 24h in milliseconds

// SessionIssuer mints an opaque session credential for an
// authenticated user. Service does not implement this itself; callers
// wire in whatever format (JWT, signed cookie, ...) fits their
// transport.
type SessionIssuer interface {
	IssueSession(ctx context.Context, user entities.User) (string, error)
}

// Service implements account lifecycle operations over UserRepo and
// UserTokenRepo.
type Service struct {
	users      repositories.UserRepo
	tokens     repositories.UserTokenRepo
	bcryptCost int
}

// NewService wires a Service to its repositories, hashing passwords at
// bcrypt.DefaultCost.
func NewService(users repositories.UserRepo, tokens repositories.UserTokenRepo) *Service {
	return &Service{users: users, tokens: tokens, bcryptCost: bcrypt.DefaultCost}
}

// NewServiceWithCost is NewService with an explicit bcrypt cost,
// for deployments that need to trade off hashing latency against
// brute-force resistance.
func NewServiceWithCost(users repositories.UserRepo, tokens repositories.UserTokenRepo, cost int) *Service {
	return &Service{users: users, tokens: tokens, bcryptCost: cost}
}

// Register validates email/password, checks uniqueness, and creates a
// new account with email_confirmed = false and role = Guest.
func (s *Service) Register(ctx context.Context, email, password string) (entities.User, error) {
	if len(password) < MinPasswordLen {
		return entities.User{}, ErrInvalidPassword
	}
	if !isValidEmail(email) {
		return entities.User{}, ErrInvalidEmail
	}
	existing, err := s.users.TryGetUserByEmail(ctx, email)
	if err != nil {
		return entities.User{}, err
	}
	if existing != nil {
		return entities.User{}, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return entities.User{}, err
	}
	user := entities.User{
		Email:          email,
		EmailConfirmed: false,
		PasswordHash:   string(hash),
		Role:           entities.RoleGuest,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return entities.User{}, err
	}
	return user, nil
}

// Login verifies email/password and returns the account on success.
// Wraps both "no such user" and "wrong password" as ErrCredentials, so
// a caller cannot use response shape to enumerate registered emails;
// an unconfirmed account instead gets the more specific
// ErrEmailNotConfirmed once credentials are known to be correct.
func (s *Service) Login(ctx context.Context, email, password string) (entities.User, error) {
	user, err := s.users.TryGetUserByEmail(ctx, email)
	if err != nil {
		return entities.User{}, err
	}
	if user == nil {
		return entities.User{}, ErrCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return entities.User{}, ErrCredentials
	}
	if !user.EmailConfirmed {
		return entities.User{}, ErrEmailNotConfirmed
	}
	return *user, nil
}

// RequestEmailConfirmation issues a fresh confirmation token for an
// unconfirmed account.
func (s *Service) RequestEmailConfirmation(ctx context.Context, email string, now entities.Timestamp) (entities.EmailNonce, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return entities.EmailNonce{}, err
	}
	if user.EmailConfirmed {
		return entities.EmailNonce{}, ErrAlreadyConfirmed
	}
	token := entities.UserToken{
		EmailNonce: entities.EmailNonce{Email: email, Nonce: entities.NewNonce()},
		ExpiresAt:  entities.Timestamp(int64(now) + UserTokenTTL),
	}
	return s.tokens.ReplaceUserToken(ctx, token)
}

// ConfirmEmail consumes a confirmation token and marks the account
// confirmed.
func (s *Service) ConfirmEmail(ctx context.Context, nonce entities.EmailNonce, now entities.Timestamp) error {
	token, err := s.tokens.ConsumeUserToken(ctx, nonce)
	if err != nil {
		if dberrors.IsNotFound(err) {
			return ErrTokenInvalid
		}
		return err
	}
	if token.Expired(now) {
		return ErrTokenExpired
	}
	user, err := s.users.GetUserByEmail(ctx, token.EmailNonce.Email)
	if err != nil {
		return err
	}
	user.EmailConfirmed = true
	return s.users.UpdateUser(ctx, user)
}

// RequestPasswordReset issues a fresh password-reset token. Uses the
// same UserToken shape as email confirmation; the two are
// distinguished only by the link the gateway sends, not by any field
// here, matching the single active-token-per-user upsert the store
// enforces.
func (s *Service) RequestPasswordReset(ctx context.Context, email string, now entities.Timestamp) (entities.EmailNonce, error) {
	if _, err := s.users.GetUserByEmail(ctx, email); err != nil {
		return entities.EmailNonce{}, err
	}
	token := entities.UserToken{
		EmailNonce: entities.EmailNonce{Email: email, Nonce: entities.NewNonce()},
		ExpiresAt:  entities.Timestamp(int64(now) + UserTokenTTL),
	}
	return s.tokens.ReplaceUserToken(ctx, token)
}

// ResetPassword consumes a password-reset token and sets a new
// password. The token is deleted first and stays deleted even if the
// password update below fails, guaranteeing it is single-use; email
// confirmation is set true in the same update, since a successful
// reset proves control of the mailbox just as confirmation would.
func (s *Service) ResetPassword(ctx context.Context, nonce entities.EmailNonce, newPassword string, now entities.Timestamp) error {
	if len(newPassword) < MinPasswordLen {
		return ErrInvalidPassword
	}
	token, err := s.tokens.ConsumeUserToken(ctx, nonce)
	if err != nil {
		if dberrors.IsNotFound(err) {
			return ErrTokenInvalid
		}
		return err
	}
	if token.Expired(now) {
		return ErrTokenExpired
	}
	user, err := s.users.GetUserByEmail(ctx, token.EmailNonce.Email)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.EmailConfirmed = true
	return s.users.UpdateUser(ctx, user)
}

// Authorize returns ErrForbidden if user's role does not meet
// required.
func Authorize(user entities.User, required entities.Role) error {
	if !user.Role.AtLeast(required) {
		return ErrForbidden
	}
	return nil
}
