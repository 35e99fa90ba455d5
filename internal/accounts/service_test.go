package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/geoplaces/core/internal/dberrors"
	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/repositories"
)

type fakeUserRepo struct {
	repositories.UserRepo
	byEmail map[string]entities.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]entities.User)}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user entities.User) error {
	if _, exists := f.byEmail[user.Email]; exists {
		return dberrors.Wrap("create user", dberrors.ErrAlreadyExists)
	}
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, user entities.User) error {
	if _, exists := f.byEmail[user.Email]; !exists {
		return dberrors.Wrap("update user", dberrors.ErrNotFound)
	}
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (entities.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return entities.User{}, dberrors.Wrap("get user", dberrors.ErrNotFound)
	}
	return u, nil
}

func (f *fakeUserRepo) TryGetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type fakeUserTokenRepo struct {
	repositories.UserTokenRepo
	byEmail map[string]entities.UserToken
}

func newFakeUserTokenRepo() *fakeUserTokenRepo {
	return &fakeUserTokenRepo{byEmail: make(map[string]entities.UserToken)}
}

func (f *fakeUserTokenRepo) ReplaceUserToken(ctx context.Context, token entities.UserToken) (entities.EmailNonce, error) {
	f.byEmail[token.EmailNonce.Email] = token
	return token.EmailNonce, nil
}

func (f *fakeUserTokenRepo) ConsumeUserToken(ctx context.Context, nonce entities.EmailNonce) (entities.UserToken, error) {
	token, ok := f.byEmail[nonce.Email]
	if !ok || token.EmailNonce.Nonce != nonce.Nonce {
		return entities.UserToken{}, dberrors.Wrap("consume user token", dberrors.ErrNotFound)
	}
	delete(f.byEmail, nonce.Email)
	return token, nil
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewService(newFakeUserRepo(), newFakeUserTokenRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "a@example.com", "hunter2x"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(ctx, "a@example.com", "hunter2x"); !errors.Is(err, ErrEmailNotConfirmed) {
		t.Fatalf("Login before confirmation = %v; want ErrEmailNotConfirmed", err)
	}

	nonce, err := svc.RequestEmailConfirmation(ctx, "a@example.com", 1000)
	if err != nil {
		t.Fatalf("RequestEmailConfirmation: %v", err)
	}
	if err := svc.ConfirmEmail(ctx, nonce, 2000); err != nil {
		t.Fatalf("ConfirmEmail: %v", err)
	}

	if _, err := svc.Login(ctx, "a@example.com", "hunter2x"); err != nil {
		t.Fatalf("Login with correct password: %v", err)
	}

	if _, err := svc.Login(ctx, "a@example.com", "wrong"); !errors.Is(err, ErrCredentials) {
		t.Fatalf("Login with wrong password = %v; want ErrCredentials", err)
	}

	if _, err := svc.Login(ctx, "nobody@example.com", "whatever"); !errors.Is(err, ErrCredentials) {
		t.Fatalf("Login with unknown email = %v; want ErrCredentials (not distinguishable from wrong password)", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newFakeUserRepo(), newFakeUserTokenRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "not-an-email", "hunter2x"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("Register(bad email) = %v; want ErrInvalidEmail", err)
	}
	if _, err := svc.Register(ctx, "a@example.com", "short"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("Register(short password) = %v; want ErrInvalidPassword", err)
	}
	if _, err := svc.Register(ctx, "a@example.com", "hunter2x"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, "a@example.com", "hunter2x"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("Register(duplicate email) = %v; want ErrUserExists", err)
	}
}

func TestRegisterDefaultsToGuestRole(t *testing.T) {
	svc := NewService(newFakeUserRepo(), newFakeUserTokenRepo())
	ctx := context.Background()

	user, err := svc.Register(ctx, "a@example.com", "hunter2x")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != entities.RoleGuest {
		t.Fatalf("Register role = %v; want RoleGuest", user.Role)
	}
}

func TestEmailConfirmationFlow(t *testing.T) {
	svc := NewService(newFakeUserRepo(), newFakeUserTokenRepo())
	ctx := context.Background()
	svc.Register(ctx, "a@example.com", "hunter2x")

	nonce, err := svc.RequestEmailConfirmation(ctx, "a@example.com", 1000)
	if err != nil {
		t.Fatalf("RequestEmailConfirmation: %v", err)
	}

	if err := svc.ConfirmEmail(ctx, nonce, 2000); err != nil {
		t.Fatalf("ConfirmEmail: %v", err)
	}

	user, err := svc.users.GetUserByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if !user.EmailConfirmed {
		t.Fatal("user.EmailConfirmed = false after ConfirmEmail")
	}

	if _, err := svc.RequestEmailConfirmation(ctx, "a@example.com", 3000); !errors.Is(err, ErrAlreadyConfirmed) {
		t.Fatalf("RequestEmailConfirmation on confirmed account = %v; want ErrAlreadyConfirmed", err)
	}
}

func TestConfirmEmailRejectsExpiredToken(t *testing.T) {
	svc := NewService(newFakeUserRepo(), newFakeUserTokenRepo())
	ctx := context.Background()
	svc.Register(ctx, "a@example.com", "hunter2x")

	nonce, err := svc.RequestEmailConfirmation(ctx, "a@example.com", 1000)
	if err != nil {
		t.Fatalf("RequestEmailConfirmation: %v", err)
	}

	expiredAt := int64(1000) + UserTokenTTL + 1
	if err := svc.ConfirmEmail(ctx, nonce, entities.Timestamp(expiredAt)); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("ConfirmEmail with expired token = %v; want ErrTokenExpired", err)
	}
}

func TestConfirmEmailRejectsAlreadyConsumedToken(t *testing.T) {
	svc := NewService(newFakeUserRepo(), newFakeUserTokenRepo())
	ctx := context.Background()
	svc.Register(ctx, "a@example.com", "hunter2x")

	nonce, err := svc.RequestEmailConfirmation(ctx, "a@example.com", 1000)
	if err != nil {
		t.Fatalf("RequestEmailConfirmation: %v", err)
	}
	if err := svc.ConfirmEmail(ctx, nonce, 2000); err != nil {
		t.Fatalf("ConfirmEmail: %v", err)
	}

	if err := svc.ConfirmEmail(ctx, nonce, 3000); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("second ConfirmEmail with same token = %v; want ErrTokenInvalid", err)
	}
}

func TestResetPasswordChangesCredentials(t *testing.T) {
	svc := NewService(newFakeUserRepo(), newFakeUserTokenRepo())
	ctx := context.Background()
	svc.Register(ctx, "a@example.com", "hunter2x")

	nonce, err := svc.RequestPasswordReset(ctx, "a@example.com", 1000)
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if err := svc.ResetPassword(ctx, nonce, "newpasswd", 2000); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if _, err := svc.Login(ctx, "a@example.com", "hunter2x"); !errors.Is(err, ErrCredentials) {
		t.Fatalf("Login with old password after reset = %v; want ErrCredentials", err)
	}
	if _, err := svc.Login(ctx, "a@example.com", "newpasswd"); err != nil {
		t.Fatalf("Login with new password after reset: %v", err)
	}

	user, err := svc.users.GetUserByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if !user.EmailConfirmed {
		t.Fatal("user.EmailConfirmed = false after ResetPassword; want true")
	}
}

// TestResetPasswordRejectsReuseOfSameToken walks spec.md §8 scenario
// 5: a second reset attempt with the same (now-consumed) token fails
// with ErrTokenInvalid rather than leaking a repository not-found
// error.
func TestResetPasswordRejectsReuseOfSameToken(t *testing.T) {
	svc := NewService(newFakeUserRepo(), newFakeUserTokenRepo())
	ctx := context.Background()
	svc.Register(ctx, "a@example.com", "hunter2x")

	nonce, err := svc.RequestPasswordReset(ctx, "a@example.com", 1000)
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if err := svc.ResetPassword(ctx, nonce, "newpasswd", 2000); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if err := svc.ResetPassword(ctx, nonce, "anotherpass", 3000); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("second ResetPassword with same token = %v; want ErrTokenInvalid", err)
	}
}

func TestResetPasswordRejectsExpiredToken(t *testing.T) {
	svc := NewService(newFakeUserRepo(), newFakeUserTokenRepo())
	ctx := context.Background()
	svc.Register(ctx, "a@example.com", "hunter2x")

	nonce, err := svc.RequestPasswordReset(ctx, "a@example.com", 1000)
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}

	expiredAt := int64(1000) + UserTokenTTL + 1
	if err := svc.ResetPassword(ctx, nonce, "newpasswd", entities.Timestamp(expiredAt)); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("ResetPassword with expired token = %v; want ErrTokenExpired", err)
	}
}

func TestAuthorizeRequiresRole(t *testing.T) {
	user := entities.User{Email: "a@example.com", Role: entities.RoleUser}
	if err := Authorize(user, entities.RoleAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Authorize(user, admin) = %v; want ErrForbidden", err)
	}
	if err := Authorize(user, entities.RoleUser); err != nil {
		t.Fatalf("Authorize(user, user) = %v; want nil", err)
	}
}
