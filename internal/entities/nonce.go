package entities

import (
	"fmt"
	"strconv"

	"github.com/mr-tron/base58"
)

// EmailNonce pairs an email address with a Nonce; it is carried inside
// registration-confirmation and password-reset links.
type EmailNonce struct {
	Email string
	Nonce Nonce
}

// EncodeToString renders e as base58(email || nonce). The nonce is
// always IDLen characters, so decoding can split the trailing run of
// IDLen bytes off unambiguously regardless of the email's length.
func (e EmailNonce) EncodeToString() string {
	nonce := e.Nonce.String()
	return base58.Encode([]byte(e.Email + nonce))
}

// DecodeEmailNonce reverses EmailNonce.EncodeToString.
func DecodeEmailNonce(encoded string) (EmailNonce, error) {
	raw, err := base58.Decode(encoded)
	if err != nil {
		return EmailNonce{}, fmt.Errorf("decode email nonce: %w", err)
	}
	concat := string(raw)
	if len(concat) < IDLen {
		return EmailNonce{}, fmt.Errorf("decode email nonce: payload too short (%d bytes)", len(concat))
	}
	emailLen := len(concat) - IDLen
	nonceStr := concat[emailLen:]
	if len(nonceStr) != IDLen {
		return EmailNonce{}, fmt.Errorf("decode email nonce: invalid nonce segment")
	}
	return EmailNonce{
		Email: concat[:emailLen],
		Nonce: Nonce(nonceStr),
	}, nil
}

// ReviewNonce pairs a place id and revision with a Nonce; it is carried
// inside review-action email links.
type ReviewNonce struct {
	PlaceID       Id
	PlaceRevision Revision
	Nonce         Nonce
}

// minReviewNonceStrLen is the shortest possible decoded payload:
// place id + nonce + at least one decimal digit of revision.
const minReviewNonceStrLen = IDLen + IDLen + 1

// EncodeToString renders r as base58(place_id[32] || nonce[32] ||
// decimal(revision)).
func (r ReviewNonce) EncodeToString() string {
	concat := string(r.PlaceID) + r.Nonce.String() + strconv.FormatUint(uint64(r.PlaceRevision), 10)
	return base58.Encode([]byte(concat))
}

// DecodeReviewNonce reverses ReviewNonce.EncodeToString.
func DecodeReviewNonce(encoded string) (ReviewNonce, error) {
	raw, err := base58.Decode(encoded)
	if err != nil {
		return ReviewNonce{}, fmt.Errorf("decode review nonce: %w", err)
	}
	concat := string(raw)
	if len(concat) < minReviewNonceStrLen {
		return ReviewNonce{}, fmt.Errorf("decode review nonce: payload too short (%d bytes)", len(concat))
	}
	placeID := concat[0:IDLen]
	nonceStr := concat[IDLen : IDLen+IDLen]
	revisionStr := concat[IDLen+IDLen:]
	revisionValue, err := strconv.ParseUint(revisionStr, 10, 64)
	if err != nil {
		return ReviewNonce{}, fmt.Errorf("decode review nonce: invalid revision: %w", err)
	}
	return ReviewNonce{
		PlaceID:       Id(placeID),
		Nonce:         Nonce(nonceStr),
		PlaceRevision: Revision(revisionValue),
	}, nil
}

// UserToken is a single-use token granting a registered user the
// ability to confirm their email or reset their password.
type UserToken struct {
	EmailNonce EmailNonce
	ExpiresAt  Timestamp
}

// Expired reports whether t has passed its expiry at instant now.
func (t UserToken) Expired(now Timestamp) bool {
	return !now.Before(t.ExpiresAt)
}

// ReviewToken is a single-use token granting email-based review
// actions (confirm/reject) on a specific place revision.
type ReviewToken struct {
	ReviewNonce ReviewNonce
	ExpiresAt   Timestamp
}

// Expired reports whether t has passed its expiry at instant now.
func (t ReviewToken) Expired(now Timestamp) bool {
	return !now.Before(t.ExpiresAt)
}
