package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/miniurl/miniurl/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository and
// shortener.VisitRepository. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	byCode map[shortener.Code]*shortener.ShortLink
	byID   map[uuid.UUID]*shortener.ShortLink
	visits map[uuid.UUID][]shortener.Visit
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byCode: make(map[shortener.Code]*shortener.ShortLink),
		byID:   make(map[uuid.UUID]*shortener.ShortLink),
		visits: make(map[uuid.UUID][]shortener.Visit),
	}
}

func (m *MemoryStore) Insert(_ context.Context, link *shortener.ShortLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byCode[link.Code]; taken {
		return shortener.ErrCodeConflict
	}

	now := time.Now()
	link.CreatedAt = now
	link.UpdatedAt = now

	stored := *link
	m.byCode[link.Code] = &stored
	m.byID[link.ID] = &stored

	return nil
}

func (m *MemoryStore) FindByCode(_ context.Context, code shortener.Code) (*shortener.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.byCode[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	clone := *link

	return &clone, nil
}

func (m *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*shortener.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.byID[id]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	clone := *link

	return &clone, nil
}

func (m *MemoryStore) ExistsByCode(_ context.Context, code shortener.Code) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.byCode[code]

	return ok, nil
}

func (m *MemoryStore) UpdateTitle(_ context.Context, id uuid.UUID, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.byID[id]
	if !ok {
		return shortener.ErrNotFound
	}

	link.Title = title
	link.UpdatedAt = time.Now()

	return nil
}

func (m *MemoryStore) ListByOwner(_ context.Context, ownerToken string) ([]shortener.ShortLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var links []shortener.ShortLink

	for _, link := range m.byCode {
		if link.OwnerToken == ownerToken {
			links = append(links, *link)
		}
	}

	sort.Slice(links, func(i, j int) bool { return links[i].CreatedAt.After(links[j].CreatedAt) })

	return links, nil
}

func (m *MemoryStore) InsertVisit(_ context.Context, visit *shortener.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	visit.CreatedAt = time.Now()
	m.visits[visit.ShortLinkID] = append(m.visits[visit.ShortLinkID], *visit)

	return nil
}

func (m *MemoryStore) ListVisitsByLink(_ context.Context, shortLinkID uuid.UUID) ([]shortener.Visit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	visits := make([]shortener.Visit, len(m.visits[shortLinkID]))
	copy(visits, m.visits[shortLinkID])

	return visits, nil
}
