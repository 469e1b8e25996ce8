package store_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/miniurl/miniurl/internal/shortener"
	"github.com/miniurl/miniurl/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLink(code shortener.Code, owner string) *shortener.ShortLink {
	return &shortener.ShortLink{
		ID:         uuid.New(),
		TargetURL:  "https://example.com",
		Code:       code,
		Title:      shortener.UnknownTitle,
		OwnerToken: owner,
	}
}

func TestMemoryStore_Links(t *testing.T) {
	ctx := context.Background()

	t.Run("insert and find by code", func(t *testing.T) {
		mem := store.NewMemoryStore()
		link := newLink("abc12345", "owner-1")

		require.NoError(t, mem.Insert(ctx, link))

		got, err := mem.FindByCode(ctx, "abc12345")
		require.NoError(t, err)
		assert.Equal(t, link.ID, got.ID)
		assert.False(t, got.CreatedAt.IsZero())
	})

	t.Run("insert reports code conflicts", func(t *testing.T) {
		mem := store.NewMemoryStore()

		require.NoError(t, mem.Insert(ctx, newLink("abc12345", "owner-1")))

		err := mem.Insert(ctx, newLink("abc12345", "owner-2"))

		assert.ErrorIs(t, err, shortener.ErrCodeConflict)
	})

	t.Run("find unknown code returns not found", func(t *testing.T) {
		mem := store.NewMemoryStore()

		_, err := mem.FindByCode(ctx, "nonexistent")

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("exists by code", func(t *testing.T) {
		mem := store.NewMemoryStore()
		require.NoError(t, mem.Insert(ctx, newLink("abc12345", "owner-1")))

		exists, err := mem.ExistsByCode(ctx, "abc12345")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = mem.ExistsByCode(ctx, "other")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("update title", func(t *testing.T) {
		mem := store.NewMemoryStore()
		link := newLink("abc12345", "owner-1")
		require.NoError(t, mem.Insert(ctx, link))

		require.NoError(t, mem.UpdateTitle(ctx, link.ID, "Example Domain"))

		got, err := mem.FindByID(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, "Example Domain", got.Title)
	})

	t.Run("update title of unknown link returns not found", func(t *testing.T) {
		mem := store.NewMemoryStore()

		err := mem.UpdateTitle(ctx, uuid.New(), "whatever")

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("list by owner is scoped and newest first", func(t *testing.T) {
		mem := store.NewMemoryStore()
		require.NoError(t, mem.Insert(ctx, newLink("first111", "owner-1")))
		require.NoError(t, mem.Insert(ctx, newLink("second22", "owner-1")))
		require.NoError(t, mem.Insert(ctx, newLink("third333", "owner-2")))

		links, err := mem.ListByOwner(ctx, "owner-1")

		require.NoError(t, err)
		require.Len(t, links, 2)
		assert.Equal(t, shortener.Code("second22"), links[0].Code)
		assert.Equal(t, shortener.Code("first111"), links[1].Code)
	})
}

func TestMemoryStore_Visits(t *testing.T) {
	ctx := context.Background()

	t.Run("insert and list visits", func(t *testing.T) {
		mem := store.NewMemoryStore()
		link := newLink("abc12345", "owner-1")
		require.NoError(t, mem.Insert(ctx, link))

		visit := &shortener.Visit{
			ID:          uuid.New(),
			ShortLinkID: link.ID,
			City:        "Lisbon",
			Region:      "Lisboa",
			Country:     "Portugal",
		}
		require.NoError(t, mem.InsertVisit(ctx, visit))

		visits, err := mem.ListVisitsByLink(ctx, link.ID)
		require.NoError(t, err)
		require.Len(t, visits, 1)
		assert.Equal(t, "Lisbon", visits[0].City)
		assert.False(t, visits[0].CreatedAt.IsZero())
	})

	t.Run("listing an unvisited link is empty", func(t *testing.T) {
		mem := store.NewMemoryStore()

		visits, err := mem.ListVisitsByLink(ctx, uuid.New())

		require.NoError(t, err)
		assert.Empty(t, visits)
	})
}
