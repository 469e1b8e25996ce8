package shortener

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TitleFetcher retrieves the title of a target page. Implementations are
// best-effort and return a sentinel instead of failing.
type TitleFetcher interface {
	Fetch(ctx context.Context, url string) string
}

// Location is a best-effort geolocation result. Fields default to the
// UnknownLocation sentinel when the lookup cannot resolve them.
type Location struct {
	City    string
	Region  string
	Country string
}

// Geolocator resolves an IP address to a location.
type Geolocator interface {
	Lookup(ctx context.Context, ip string) Location
}

// Service orchestrates link creation, redirect resolution, and visit
// recording.
type Service struct {
	links        Repository
	visits       VisitRepository
	generateCode CodeGenerator
	titles       TitleFetcher
	geo          Geolocator
	recorder     VisitRecorder
	logger       *zap.Logger
}

// NewService creates the shortener service. The recorder handles visit
// recording on redirects; pass a SyncRecorder for inline persistence or an
// event-backed recorder for async processing.
func NewService(
	links Repository,
	visits VisitRepository,
	generateCode CodeGenerator,
	titles TitleFetcher,
	geo Geolocator,
	recorder VisitRecorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		links:        links,
		visits:       visits,
		generateCode: generateCode,
		titles:       titles,
		geo:          geo,
		recorder:     recorder,
		logger:       logger,
	}
}

// Create validates the raw target URL, mints a unique code, persists the
// link, and best-effort fetches the page title. A title-fetch failure leaves
// the sentinel in place and does not fail the creation.
func (s *Service) Create(ctx context.Context, rawURL, ownerToken string) (*ShortLink, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	link := &ShortLink{
		ID:         uuid.New(),
		TargetURL:  target,
		Title:      UnknownTitle,
		OwnerToken: ownerToken,
	}

	for {
		link.Code, err = GenerateUniqueCode(ctx, s.generateCode, s.links.ExistsByCode)
		if err != nil {
			return nil, err
		}

		err = s.links.Insert(ctx, link)
		if err == nil {
			break
		}

		// Lost the race for this code to a concurrent creator.
		if errors.Is(err, ErrCodeConflict) {
			s.logger.Debug("code conflict, regenerating",
				zap.String("code", string(link.Code)),
			)

			continue
		}

		return nil, err
	}

	if title := s.titles.Fetch(ctx, link.TargetURL); title != UnknownTitle {
		link.Title = title

		if err := s.links.UpdateTitle(ctx, link.ID, title); err != nil {
			s.logger.Warn("failed to store fetched title",
				zap.String("code", string(link.Code)),
				zap.Error(err),
			)
		}
	}

	return link, nil
}

// Resolve looks up the redirect target for a code and records the visit.
// Visit recording is best-effort: its failure is logged and the target is
// still returned.
func (s *Service) Resolve(ctx context.Context, code Code, ip string) (string, error) {
	link, err := s.links.FindByCode(ctx, code)
	if err != nil {
		return "", err
	}

	if err := s.recorder.Record(ctx, link, ip); err != nil {
		s.logger.Error("failed to record visit",
			zap.String("code", string(code)),
			zap.Error(err),
		)
	}

	return link.TargetURL, nil
}

// RecordVisit enriches the visitor IP with geolocation and persists a visit
// for the link. Geolocation failure degrades to Unknown fields; only the
// persistence error is reported.
func (s *Service) RecordVisit(ctx context.Context, shortLinkID uuid.UUID, ip string) (*Visit, error) {
	loc := s.geo.Lookup(ctx, ip)

	visit := &Visit{
		ID:          uuid.New(),
		ShortLinkID: shortLinkID,
		City:        loc.City,
		Region:      loc.Region,
		Country:     loc.Country,
	}

	if err := s.visits.InsertVisit(ctx, visit); err != nil {
		return nil, err
	}

	return visit, nil
}

// ListOwnerLinks returns all links created with the owner token, most
// recently created first.
func (s *Service) ListOwnerLinks(ctx context.Context, ownerToken string) ([]ShortLink, error) {
	return s.links.ListByOwner(ctx, ownerToken)
}

// ListVisits returns the visits of the link identified by code, but only if
// the owner token matches. A mismatch is an access failure, not a not-found,
// so callers cannot probe for code existence with a foreign token.
func (s *Service) ListVisits(ctx context.Context, code Code, ownerToken string) ([]Visit, error) {
	link, err := s.links.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if link.OwnerToken != ownerToken {
		return nil, ErrAccessDenied
	}

	return s.visits.ListVisitsByLink(ctx, link.ID)
}

// SyncRecorder persists enriched visits inline on the request path.
type SyncRecorder struct {
	visits VisitRepository
	geo    Geolocator
}

// NewSyncRecorder creates a recorder that enriches and persists visits
// synchronously.
func NewSyncRecorder(visits VisitRepository, geo Geolocator) *SyncRecorder {
	return &SyncRecorder{visits: visits, geo: geo}
}

func (r *SyncRecorder) Record(ctx context.Context, link *ShortLink, ip string) error {
	loc := r.geo.Lookup(ctx, ip)

	return r.visits.InsertVisit(ctx, &Visit{
		ID:          uuid.New(),
		ShortLinkID: link.ID,
		City:        loc.City,
		Region:      loc.Region,
		Country:     loc.Country,
	})
}
