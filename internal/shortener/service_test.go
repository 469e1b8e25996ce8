package shortener_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/miniurl/miniurl/internal/shortener"
	"github.com/miniurl/miniurl/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const ownerToken = "owner-1"

type stubTitles struct {
	title string
}

func (s stubTitles) Fetch(_ context.Context, _ string) string {
	if s.title == "" {
		return shortener.UnknownTitle
	}

	return s.title
}

type stubGeo struct {
	loc shortener.Location
}

func (s stubGeo) Lookup(_ context.Context, _ string) shortener.Location {
	return s.loc
}

func unknownGeo() stubGeo {
	return stubGeo{loc: shortener.Location{
		City:    shortener.UnknownLocation,
		Region:  shortener.UnknownLocation,
		Country: shortener.UnknownLocation,
	}}
}

type recorderFunc func(ctx context.Context, link *shortener.ShortLink, ip string) error

func (f recorderFunc) Record(ctx context.Context, link *shortener.ShortLink, ip string) error {
	return f(ctx, link, ip)
}

// conflictRepo fails the first n inserts with ErrCodeConflict, simulating a
// concurrent creator winning the race for the same code.
type conflictRepo struct {
	shortener.Repository
	conflicts int
	inserts   int
}

func (c *conflictRepo) Insert(ctx context.Context, link *shortener.ShortLink) error {
	c.inserts++
	if c.inserts <= c.conflicts {
		return shortener.ErrCodeConflict
	}

	return c.Repository.Insert(ctx, link)
}

func newTestService(t *testing.T, mem *store.MemoryStore, titles shortener.TitleFetcher, geo shortener.Geolocator) *shortener.Service {
	t.Helper()

	gen, err := shortener.NewCodeGenerator(8)
	require.NoError(t, err)

	return shortener.NewService(
		mem,
		mem,
		gen,
		titles,
		geo,
		shortener.NewSyncRecorder(mem, geo),
		zap.NewNop(),
	)
}

func TestService_Create(t *testing.T) {
	t.Run("normalizes scheme-less urls", func(t *testing.T) {
		mem := store.NewMemoryStore()
		svc := newTestService(t, mem, stubTitles{}, unknownGeo())

		link, err := svc.Create(context.Background(), "example.com", ownerToken)

		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(link.TargetURL, "http://"))
		assert.Len(t, link.Code, 8)

		stored, err := mem.FindByCode(context.Background(), link.Code)
		require.NoError(t, err)
		assert.Equal(t, "http://example.com", stored.TargetURL)
	})

	t.Run("rejects invalid urls without side effects", func(t *testing.T) {
		mem := store.NewMemoryStore()
		svc := newTestService(t, mem, stubTitles{}, unknownGeo())

		_, err := svc.Create(context.Background(), "invalid-url", ownerToken)

		var invalid *shortener.InvalidURLError
		require.ErrorAs(t, err, &invalid)

		links, err := mem.ListByOwner(context.Background(), ownerToken)
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("stores fetched title", func(t *testing.T) {
		mem := store.NewMemoryStore()
		svc := newTestService(t, mem, stubTitles{title: "Example Domain"}, unknownGeo())

		link, err := svc.Create(context.Background(), "https://example.com", ownerToken)

		require.NoError(t, err)
		assert.Equal(t, "Example Domain", link.Title)

		stored, err := mem.FindByCode(context.Background(), link.Code)
		require.NoError(t, err)
		assert.Equal(t, "Example Domain", stored.Title)
	})

	t.Run("keeps sentinel title when fetch fails", func(t *testing.T) {
		mem := store.NewMemoryStore()
		svc := newTestService(t, mem, stubTitles{}, unknownGeo())

		link, err := svc.Create(context.Background(), "https://example.com", ownerToken)

		require.NoError(t, err)
		assert.Equal(t, shortener.UnknownTitle, link.Title)
	})

	t.Run("retries code generation on insert conflict", func(t *testing.T) {
		mem := store.NewMemoryStore()
		repo := &conflictRepo{Repository: mem, conflicts: 2}

		gen, err := shortener.NewCodeGenerator(8)
		require.NoError(t, err)

		svc := shortener.NewService(
			repo, mem, gen, stubTitles{}, unknownGeo(),
			shortener.NewSyncRecorder(mem, unknownGeo()), zap.NewNop(),
		)

		link, err := svc.Create(context.Background(), "https://example.com", ownerToken)

		require.NoError(t, err)
		assert.Equal(t, 3, repo.inserts)
		assert.Len(t, link.Code, 8)
	})

	t.Run("concurrent creates produce distinct codes", func(t *testing.T) {
		const n = 50

		mem := store.NewMemoryStore()
		svc := newTestService(t, mem, stubTitles{}, unknownGeo())

		var wg sync.WaitGroup

		codes := make(chan shortener.Code, n)

		for i := 0; i < n; i++ {
			wg.Add(1)

			go func() {
				defer wg.Done()

				link, err := svc.Create(context.Background(), "https://example.com", ownerToken)
				assert.NoError(t, err)
				codes <- link.Code
			}()
		}

		wg.Wait()
		close(codes)

		seen := make(map[shortener.Code]bool, n)
		for code := range codes {
			assert.False(t, seen[code], "duplicate code %s", code)
			seen[code] = true
		}

		assert.Len(t, seen, n)
	})
}

func TestService_Resolve(t *testing.T) {
	t.Run("returns target and records visit", func(t *testing.T) {
		mem := store.NewMemoryStore()
		geo := stubGeo{loc: shortener.Location{City: "Lisbon", Region: "Lisboa", Country: "Portugal"}}
		svc := newTestService(t, mem, stubTitles{}, geo)

		link, err := svc.Create(context.Background(), "https://example.com", ownerToken)
		require.NoError(t, err)

		target, err := svc.Resolve(context.Background(), link.Code, "203.0.113.7")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com", target)

		visits, err := mem.ListVisitsByLink(context.Background(), link.ID)
		require.NoError(t, err)
		require.Len(t, visits, 1)
		assert.Equal(t, "Lisbon", visits[0].City)
		assert.Equal(t, "Lisboa", visits[0].Region)
		assert.Equal(t, "Portugal", visits[0].Country)
	})

	t.Run("unknown code fails without recording a visit", func(t *testing.T) {
		mem := store.NewMemoryStore()

		recorded := false
		recorder := recorderFunc(func(_ context.Context, _ *shortener.ShortLink, _ string) error {
			recorded = true

			return nil
		})

		gen, err := shortener.NewCodeGenerator(8)
		require.NoError(t, err)

		svc := shortener.NewService(mem, mem, gen, stubTitles{}, unknownGeo(), recorder, zap.NewNop())

		_, err = svc.Resolve(context.Background(), "nonexistent", "203.0.113.7")

		assert.ErrorIs(t, err, shortener.ErrNotFound)
		assert.False(t, recorded)
	})

	t.Run("redirect survives recorder failure", func(t *testing.T) {
		mem := store.NewMemoryStore()
		recorder := recorderFunc(func(_ context.Context, _ *shortener.ShortLink, _ string) error {
			return errors.New("analytics store down")
		})

		gen, err := shortener.NewCodeGenerator(8)
		require.NoError(t, err)

		svc := shortener.NewService(mem, mem, gen, stubTitles{}, unknownGeo(), recorder, zap.NewNop())

		link, err := svc.Create(context.Background(), "https://example.com", ownerToken)
		require.NoError(t, err)

		target, err := svc.Resolve(context.Background(), link.Code, "203.0.113.7")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com", target)
	})
}

func TestService_RecordVisit(t *testing.T) {
	t.Run("persists enriched visit", func(t *testing.T) {
		mem := store.NewMemoryStore()
		geo := stubGeo{loc: shortener.Location{City: "Berlin", Region: "Berlin", Country: "Germany"}}
		svc := newTestService(t, mem, stubTitles{}, geo)

		link, err := svc.Create(context.Background(), "https://example.com", ownerToken)
		require.NoError(t, err)

		visit, err := svc.RecordVisit(context.Background(), link.ID, "203.0.113.7")

		require.NoError(t, err)
		assert.Equal(t, "Berlin", visit.City)
		assert.Equal(t, "Germany", visit.Country)
	})

	t.Run("falls back to unknown location", func(t *testing.T) {
		mem := store.NewMemoryStore()
		svc := newTestService(t, mem, stubTitles{}, unknownGeo())

		visit, err := svc.RecordVisit(context.Background(), uuid.New(), "203.0.113.7")

		require.NoError(t, err)
		assert.Equal(t, shortener.UnknownLocation, visit.City)
		assert.Equal(t, shortener.UnknownLocation, visit.Region)
		assert.Equal(t, shortener.UnknownLocation, visit.Country)
	})
}

func TestService_ListOwnerLinks(t *testing.T) {
	t.Run("returns only the owner's links, newest first", func(t *testing.T) {
		mem := store.NewMemoryStore()
		svc := newTestService(t, mem, stubTitles{}, unknownGeo())

		first, err := svc.Create(context.Background(), "https://example.com/1", ownerToken)
		require.NoError(t, err)

		second, err := svc.Create(context.Background(), "https://example.com/2", ownerToken)
		require.NoError(t, err)

		_, err = svc.Create(context.Background(), "https://example.com/3", "someone-else")
		require.NoError(t, err)

		links, err := svc.ListOwnerLinks(context.Background(), ownerToken)

		require.NoError(t, err)
		require.Len(t, links, 2)
		assert.Equal(t, second.Code, links[0].Code)
		assert.Equal(t, first.Code, links[1].Code)
	})
}

func TestService_ListVisits(t *testing.T) {
	setup := func(t *testing.T) (*shortener.Service, *store.MemoryStore, *shortener.ShortLink) {
		t.Helper()

		mem := store.NewMemoryStore()
		svc := newTestService(t, mem, stubTitles{}, unknownGeo())

		link, err := svc.Create(context.Background(), "https://example.com", ownerToken)
		require.NoError(t, err)

		_, err = svc.Resolve(context.Background(), link.Code, "203.0.113.7")
		require.NoError(t, err)

		return svc, mem, link
	}

	t.Run("returns visits for the owner", func(t *testing.T) {
		svc, _, link := setup(t)

		visits, err := svc.ListVisits(context.Background(), link.Code, ownerToken)

		require.NoError(t, err)
		assert.Len(t, visits, 1)
	})

	t.Run("denies access with a foreign token", func(t *testing.T) {
		svc, _, link := setup(t)

		_, err := svc.ListVisits(context.Background(), link.Code, "someone-else")

		assert.ErrorIs(t, err, shortener.ErrAccessDenied)
	})

	t.Run("unknown code is not found", func(t *testing.T) {
		svc, _, _ := setup(t)

		_, err := svc.ListVisits(context.Background(), "nonexistent", ownerToken)

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})
}
