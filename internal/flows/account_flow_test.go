package flows

import (
	"context"
	"testing"

	"github.com/geoplaces/core/internal/accounts"
	"github.com/geoplaces/core/internal/dberrors"
	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/gateways"
	"github.com/geoplaces/core/internal/repositories"
)

type fakeFlowUserRepo struct {
	repositories.UserRepo
	byEmail map[string]entities.User
}

func newFakeFlowUserRepo() *fakeFlowUserRepo {
	return &fakeFlowUserRepo{byEmail: make(map[string]entities.User)}
}

func (f *fakeFlowUserRepo) CreateUser(ctx context.Context, user entities.User) error {
	if _, exists := f.byEmail[user.Email]; exists {
		return dberrors.Wrap("create user", dberrors.ErrAlreadyExists)
	}
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeFlowUserRepo) UpdateUser(ctx context.Context, user entities.User) error {
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeFlowUserRepo) GetUserByEmail(ctx context.Context, email string) (entities.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return entities.User{}, dberrors.Wrap("get user", dberrors.ErrNotFound)
	}
	return u, nil
}

func (f *fakeFlowUserRepo) TryGetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type fakeFlowUserTokenRepo struct {
	repositories.UserTokenRepo
	byEmail map[string]entities.UserToken
}

func newFakeFlowUserTokenRepo() *fakeFlowUserTokenRepo {
	return &fakeFlowUserTokenRepo{byEmail: make(map[string]entities.UserToken)}
}

func (f *fakeFlowUserTokenRepo) ReplaceUserToken(ctx context.Context, token entities.UserToken) (entities.EmailNonce, error) {
	f.byEmail[token.EmailNonce.Email] = token
	return token.EmailNonce, nil
}

func (f *fakeFlowUserTokenRepo) ConsumeUserToken(ctx context.Context, nonce entities.EmailNonce) (entities.UserToken, error) {
	token, ok := f.byEmail[nonce.Email]
	if !ok || token.EmailNonce.Nonce != nonce.Nonce {
		return entities.UserToken{}, dberrors.Wrap("consume user token", dberrors.ErrNotFound)
	}
	delete(f.byEmail, nonce.Email)
	return token, nil
}

func TestRegisterEmitsUserRegisteredNotification(t *testing.T) {
	users := newFakeFlowUserRepo()
	tokens := newFakeFlowUserTokenRepo()
	gw := &fakeFlowNotifyGateway{}
	a := &Accounts{Service: accounts.NewService(users, tokens), Notify: gw}

	_, err := a.Register(context.Background(), "alice@x.org", "hunter2x", 1000)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(gw.calls) != 1 || gw.calls[0].Kind != gateways.UserRegistered {
		t.Fatalf("calls = %+v; want one UserRegistered notification", gw.calls)
	}
	if gw.calls[0].Data["confirmation_token"] == "" {
		t.Fatal("expected a confirmation token in the notification payload")
	}
}

func TestRequestPasswordResetEmitsNotification(t *testing.T) {
	users := newFakeFlowUserRepo()
	users.byEmail["alice@x.org"] = entities.User{Email: "alice@x.org", EmailConfirmed: true}
	tokens := newFakeFlowUserTokenRepo()
	gw := &fakeFlowNotifyGateway{}
	a := &Accounts{Service: accounts.NewService(users, tokens), Notify: gw}

	_, err := a.RequestPasswordReset(context.Background(), "alice@x.org", 1000)
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if len(gw.calls) != 1 || gw.calls[0].Kind != gateways.UserResetPasswordRequested {
		t.Fatalf("calls = %+v; want one UserResetPasswordRequested notification", gw.calls)
	}
}
