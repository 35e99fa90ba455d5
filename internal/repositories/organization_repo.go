package repositories

import (
	"context"

	"github.com/geoplaces/core/internal/entities"
)

// OrgModeratedTag pairs an organization id with one of its moderated
// tags, as returned by cross-organization tag listings.
type OrgModeratedTag struct {
	OrganizationID entities.Id
	Tag            entities.ModeratedTag
}

// OrganizationRepo is the persistence contract for organizations and
// their moderated tag vocabularies.
type OrganizationRepo interface {
	CreateOrg(ctx context.Context, org entities.Organization) error
	GetOrgByAPIToken(ctx context.Context, token string) (entities.Organization, error)

	// MapTagToClearanceOrgID returns the organization id that has
	// claimed RequireClearance on tag, if any.
	MapTagToClearanceOrgID(ctx context.Context, tag string) (*entities.Id, error)

	// GetModeratedTagsByOrg returns every (org, tag) pair, optionally
	// excluding one organization.
	GetModeratedTagsByOrg(ctx context.Context, excludedOrgID *entities.Id) ([]OrgModeratedTag, error)
}

// PlaceClearanceRepo is the persistence contract for pending
// clearance records.
type PlaceClearanceRepo interface {
	AddPendingClearanceForPlaces(ctx context.Context, orgIDs []entities.Id, pending entities.PendingClearanceForPlace) (int, error)
	CountPendingClearancesForPlaces(ctx context.Context, orgID entities.Id) (int, error)
	ListPendingClearancesForPlaces(ctx context.Context, orgID entities.Id, pagination entities.Pagination) ([]entities.PendingClearanceForPlace, error)
	LoadPendingClearancesForPlaces(ctx context.Context, orgID entities.Id, placeIDs []entities.Id) ([]entities.PendingClearanceForPlace, error)
	UpdatePendingClearancesForPlaces(ctx context.Context, orgID entities.Id, clearances []entities.ClearanceForPlace) (int, error)
	CleanupPendingClearancesForPlaces(ctx context.Context, orgID entities.Id) (int, error)
}
