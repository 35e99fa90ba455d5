package usecases

import "github.com/geoplaces/core/internal/entities"

// ValidateBboxSubscription checks that sub's user email is present
// and its box is a legal, non-degenerate region before it reaches
// the repository.
func ValidateBboxSubscription(sub entities.BboxSubscription) (entities.BboxSubscription, error) {
	if sub.UserEmail == "" {
		return entities.BboxSubscription{}, ErrEmptyEmail
	}
	if !sub.Bbox().IsValid() {
		return entities.BboxSubscription{}, ErrInvalidBbox
	}
	return sub, nil
}
