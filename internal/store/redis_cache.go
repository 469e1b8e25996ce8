package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/miniurl/miniurl/internal/shortener"
	"github.com/redis/go-redis/v9"
)

// RedisCacheRepository wraps a shortener.Repository with Redis caching for
// code lookups, the hot path of every redirect.
type RedisCacheRepository struct {
	store  shortener.Repository
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCacheRepository creates a new Redis-cached repository decorator.
func NewRedisCacheRepository(
	store shortener.Repository, client *redis.Client, ttl time.Duration,
) *RedisCacheRepository {
	return &RedisCacheRepository{
		store:  store,
		client: client,
		prefix: "link:",
		ttl:    ttl,
	}
}

// Insert stores the link in the underlying store and writes through to the
// cache on success.
func (r *RedisCacheRepository) Insert(ctx context.Context, link *shortener.ShortLink) error {
	if err := r.store.Insert(ctx, link); err != nil {
		return err
	}

	r.cacheLink(ctx, link)

	return nil
}

// FindByCode retrieves a link by its code, checking the cache first.
func (r *RedisCacheRepository) FindByCode(ctx context.Context, code shortener.Code) (*shortener.ShortLink, error) {
	if link, err := r.getFromCache(ctx, code); err == nil {
		return link, nil
	}

	link, err := r.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, link)

	return link, nil
}

func (r *RedisCacheRepository) FindByID(ctx context.Context, id uuid.UUID) (*shortener.ShortLink, error) {
	return r.store.FindByID(ctx, id)
}

// ExistsByCode checks the cache before the underlying store. A cache hit is
// authoritative for existence; a miss still needs the store.
func (r *RedisCacheRepository) ExistsByCode(ctx context.Context, code shortener.Code) (bool, error) {
	n, err := r.client.Exists(ctx, r.prefix+string(code)).Result()
	if err == nil && n > 0 {
		return true, nil
	}

	return r.store.ExistsByCode(ctx, code)
}

// UpdateTitle updates the store and invalidates the cached entry so the next
// read repopulates it with the final title.
func (r *RedisCacheRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	if err := r.store.UpdateTitle(ctx, id, title); err != nil {
		return err
	}

	link, err := r.store.FindByID(ctx, id)
	if err == nil {
		r.cacheLink(ctx, link)
	}

	return nil
}

func (r *RedisCacheRepository) ListByOwner(ctx context.Context, ownerToken string) ([]shortener.ShortLink, error) {
	return r.store.ListByOwner(ctx, ownerToken)
}

func (r *RedisCacheRepository) cacheLink(ctx context.Context, link *shortener.ShortLink) {
	payload, err := json.Marshal(link)
	if err != nil {
		return
	}

	// Cache write failures are ignored; the store remains authoritative.
	_ = r.client.Set(ctx, r.prefix+string(link.Code), payload, r.ttl).Err()
}

func (r *RedisCacheRepository) getFromCache(ctx context.Context, code shortener.Code) (*shortener.ShortLink, error) {
	payload, err := r.client.Get(ctx, r.prefix+string(code)).Bytes()
	if err != nil {
		return nil, err
	}

	var link shortener.ShortLink
	if err := json.Unmarshal(payload, &link); err != nil {
		return nil, err
	}

	return &link, nil
}
