package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// IDLen is the fixed length of an Id and a Nonce.
const IDLen = 32

// Id is an opaque 32-character identifier, unique across the system.
type Id string

// NewId generates a fresh Id from a random UUIDv4, hex-encoded without
// dashes (32 chars).
func NewId() Id {
	return Id(compactUUID())
}

// Empty reports whether id is the zero value.
func (id Id) Empty() bool { return id == "" }

func (id Id) String() string { return string(id) }

// Nonce is an opaque 32-character random token carried inside email
// links. Constructed identically to Id but kept as a distinct type so
// the two are never confused at compile time.
type Nonce string

// NewNonce generates a fresh Nonce.
func NewNonce() Nonce {
	return Nonce(compactUUID())
}

func (n Nonce) String() string { return string(n) }

func compactUUID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Revision is a dense, monotonically increasing per-place version
// counter starting at 0.
type Revision uint64

// IsInitial reports whether r is the first revision of a place.
func (r Revision) IsInitial() bool { return r == 0 }

// Timestamp is a millisecond-precision instant, stored as a signed
// 64-bit integer.
type Timestamp int64

// TimestampFromTime converts a time.Time to a Timestamp.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// TimestampFromUnixSeconds converts Unix seconds (external wire
// compatibility) to a Timestamp.
func TimestampFromUnixSeconds(sec int64) Timestamp {
	return Timestamp(sec * 1000)
}

// Time returns the Timestamp as a time.Time in UTC.
func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

// UnixSeconds returns the Timestamp truncated to whole seconds.
func (t Timestamp) UnixSeconds() int64 {
	return int64(t) / 1000
}

// Before reports whether t is strictly before other.
func (t Timestamp) Before(other Timestamp) bool { return t < other }

// After reports whether t is strictly after other.
func (t Timestamp) After(other Timestamp) bool { return t > other }

// Now returns the current time as a Timestamp.
func Now() Timestamp { return TimestampFromTime(time.Now()) }
