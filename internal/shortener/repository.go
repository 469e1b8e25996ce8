package shortener

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for short link storage operations.
type Repository interface {
	// Insert persists a new short link. Returns ErrCodeConflict if the
	// code is already taken by a concurrent insert.
	Insert(ctx context.Context, link *ShortLink) error
	FindByCode(ctx context.Context, code Code) (*ShortLink, error)
	FindByID(ctx context.Context, id uuid.UUID) (*ShortLink, error)
	ExistsByCode(ctx context.Context, code Code) (bool, error)
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) error

	// ListByOwner returns the owner's links, most recently created first.
	ListByOwner(ctx context.Context, ownerToken string) ([]ShortLink, error)
}

// VisitRepository defines the interface for visit storage operations.
type VisitRepository interface {
	InsertVisit(ctx context.Context, visit *Visit) error
	ListVisitsByLink(ctx context.Context, shortLinkID uuid.UUID) ([]Visit, error)
}

// VisitRecorder records a redirect event for a short link. Implementations
// are best-effort: a recording failure must never block the redirect.
type VisitRecorder interface {
	Record(ctx context.Context, link *ShortLink, ip string) error
}
