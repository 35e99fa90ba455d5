package repositories

import (
	"context"

	"github.com/geoplaces/core/internal/entities"
)

// SubscriptionRepo is the persistence contract for bbox subscriptions.
type SubscriptionRepo interface {
	CreateBboxSubscription(ctx context.Context, sub entities.BboxSubscription) error
	AllBboxSubscriptions(ctx context.Context) ([]entities.BboxSubscription, error)
	AllBboxSubscriptionsByEmail(ctx context.Context, userEmail string) ([]entities.BboxSubscription, error)
	DeleteBboxSubscriptionsByEmail(ctx context.Context, userEmail string) error
}

// Tag is a globally known tag label, independent of moderation.
type Tag struct {
	Label string
}

// TagRepo is the persistence contract for the global tag vocabulary.
type TagRepo interface {
	CreateTagIfNotExists(ctx context.Context, tag Tag) error
	AllTags(ctx context.Context) ([]Tag, error)
	CountTags(ctx context.Context) (int, error)
}
