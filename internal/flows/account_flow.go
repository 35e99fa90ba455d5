package flows

import (
	"context"

	"go.uber.org/zap"

	"github.com/geoplaces/core/internal/accounts"
	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/gateways"
)

// Accounts wraps accounts.Service with the post-commit notifications
// spec.md §4.7 requires on registration and password-reset request.
// The service call itself is the transactional step; the notification
// is best-effort, same as the place and event flows.
type Accounts struct {
	Service *accounts.Service
	Notify  gateways.NotificationGateway
	Log     *zap.Logger
}

func (a *Accounts) logger() *zap.Logger {
	if a.Log != nil {
		return a.Log
	}
	return zap.NewNop()
}

// Register creates the account, then best-effort emits UserRegistered
// carrying the confirmation nonce so the caller's transport layer can
// build the confirmation URL.
func (a *Accounts) Register(ctx context.Context, email, password string, now entities.Timestamp) (entities.User, error) {
	user, err := a.Service.Register(ctx, email, password)
	if err != nil {
		return entities.User{}, err
	}

	if a.Notify != nil {
		nonce, nerr := a.Service.RequestEmailConfirmation(ctx, email, now)
		if nerr == nil {
			bestEffort(ctx, a.logger(), "notify.UserRegistered", func() error {
				return a.Notify.Notify(ctx, gateways.Notification{
					Kind:       gateways.UserRegistered,
					Recipients: []string{email},
					Data:       map[string]string{"confirmation_token": nonce.EncodeToString()},
				})
			})
		} else {
			a.logger().Error("failed to issue confirmation token after registration", zap.String("email", email), zap.Error(nerr))
		}
	}

	return user, nil
}

// RequestPasswordReset issues a fresh reset token and best-effort
// emits UserResetPasswordRequested carrying it.
func (a *Accounts) RequestPasswordReset(ctx context.Context, email string, now entities.Timestamp) (entities.EmailNonce, error) {
	nonce, err := a.Service.RequestPasswordReset(ctx, email, now)
	if err != nil {
		return entities.EmailNonce{}, err
	}
	if a.Notify != nil {
		bestEffort(ctx, a.logger(), "notify.UserResetPasswordRequested", func() error {
			return a.Notify.Notify(ctx, gateways.Notification{
				Kind:       gateways.UserResetPasswordRequested,
				Recipients: []string{email},
				Data:       map[string]string{"reset_token": nonce.EncodeToString()},
			})
		})
	}
	return nonce, nil
}
