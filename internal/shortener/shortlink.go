package shortener

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Code represents a short URL code.
type Code string

// Sentinel values substituted when a best-effort external lookup fails.
const (
	UnknownTitle    = "Unknown Title"
	UnknownLocation = "Unknown"
)

var (
	// ErrNotFound is returned when no short link exists for a code.
	ErrNotFound = errors.New("short link not found")

	// ErrCodeConflict is returned by the repository when an insert loses
	// the race for a code. The service retries generation; callers never
	// see this error.
	ErrCodeConflict = errors.New("short code already in use")

	// ErrAccessDenied is returned when an owner token does not match the
	// link being inspected.
	ErrAccessDenied = errors.New("access denied")
)

// ShortLink maps a generated short code to a target URL.
type ShortLink struct {
	ID         uuid.UUID
	TargetURL  string
	Code       Code
	Title      string
	OwnerToken string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Visit is a single recorded redirect event with derived geolocation.
// The visitor IP is used only to derive the location and is not stored.
type Visit struct {
	ID          uuid.UUID
	ShortLinkID uuid.UUID
	City        string
	Region      string
	Country     string
	CreatedAt   time.Time
}
