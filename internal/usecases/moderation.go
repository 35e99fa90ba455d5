package usecases

import (
	"context"

	"github.com/geoplaces/core/internal/entities"
	"github.com/geoplaces/core/internal/repositories"
)

// ValidateTagModeration diffs previousTags against nextTags and checks
// every added or removed tag against its owning organization's
// AllowAdd/AllowRemove bits (spec.md §3.7). A tag nobody has claimed
// is unrestricted; a tag the caller's own organization owns is always
// permitted, regardless of its flags. callerOrgID is nil for a caller
// with no organization affiliation, which can never pass the
// ownership check and so falls back to the flags alone.
func ValidateTagModeration(ctx context.Context, orgs repositories.OrganizationRepo, callerOrgID *entities.Id, previousTags, nextTags []string) error {
	added, removed := diffTags(previousTags, nextTags)
	if len(added) == 0 && len(removed) == 0 {
		return nil
	}

	moderated, err := moderatedTagIndex(ctx, orgs)
	if err != nil {
		return err
	}

	for _, tag := range added {
		mod, ok := moderated[tag]
		if !ok || ownsTag(callerOrgID, mod.OrganizationID) {
			continue
		}
		if !mod.Tag.ModerationFlags.AllowsAdding() {
			return ErrModeratedTag
		}
	}
	for _, tag := range removed {
		mod, ok := moderated[tag]
		if !ok || ownsTag(callerOrgID, mod.OrganizationID) {
			continue
		}
		if !mod.Tag.ModerationFlags.AllowsRemoval() {
			return ErrModeratedTag
		}
	}
	return nil
}

func ownsTag(callerOrgID *entities.Id, owner entities.Id) bool {
	return callerOrgID != nil && *callerOrgID == owner
}

func moderatedTagIndex(ctx context.Context, orgs repositories.OrganizationRepo) (map[string]repositories.OrgModeratedTag, error) {
	all, err := orgs.GetModeratedTagsByOrg(ctx, nil)
	if err != nil {
		return nil, err
	}
	index := make(map[string]repositories.OrgModeratedTag, len(all))
	for _, m := range all {
		index[m.Tag.Label] = m
	}
	return index, nil
}

// diffTags reports which tags in next are not in previous (added) and
// which tags in previous are missing from next (removed).
func diffTags(previous, next []string) (added, removed []string) {
	prevSet := make(map[string]bool, len(previous))
	for _, t := range previous {
		prevSet[t] = true
	}
	nextSet := make(map[string]bool, len(next))
	for _, t := range next {
		nextSet[t] = true
		if !prevSet[t] {
			added = append(added, t)
		}
	}
	for _, t := range previous {
		if !nextSet[t] {
			removed = append(removed, t)
		}
	}
	return added, removed
}
