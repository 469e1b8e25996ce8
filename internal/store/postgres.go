package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miniurl/miniurl/internal/shortener"
)

// uniqueViolation is the postgres error code for unique constraint breaks.
const uniqueViolation = "23505"

// PostgresStore is a PostgreSQL implementation of shortener.Repository and
// shortener.VisitRepository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) Insert(ctx context.Context, link *shortener.ShortLink) error {
	now := time.Now()
	link.CreatedAt = now
	link.UpdatedAt = now

	query := `
		INSERT INTO short_links (id, target_url, code, title, owner_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := p.pool.Exec(ctx, query,
		link.ID,
		link.TargetURL,
		string(link.Code),
		link.Title,
		link.OwnerToken,
		link.CreatedAt,
		link.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return shortener.ErrCodeConflict
		}

		return err
	}

	return nil
}

func (p *PostgresStore) FindByCode(ctx context.Context, code shortener.Code) (*shortener.ShortLink, error) {
	query := `
		SELECT id, target_url, code, title, owner_token, created_at, updated_at
		FROM short_links
		WHERE code = $1
	`

	return p.scanLink(p.pool.QueryRow(ctx, query, string(code)))
}

func (p *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*shortener.ShortLink, error) {
	query := `
		SELECT id, target_url, code, title, owner_token, created_at, updated_at
		FROM short_links
		WHERE id = $1
	`

	return p.scanLink(p.pool.QueryRow(ctx, query, id))
}

func (p *PostgresStore) ExistsByCode(ctx context.Context, code shortener.Code) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM short_links WHERE code = $1)`

	var exists bool

	err := p.pool.QueryRow(ctx, query, string(code)).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (p *PostgresStore) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	query := `UPDATE short_links SET title = $2, updated_at = $3 WHERE id = $1`

	tag, err := p.pool.Exec(ctx, query, id, title, time.Now())
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) ListByOwner(ctx context.Context, ownerToken string) ([]shortener.ShortLink, error) {
	query := `
		SELECT id, target_url, code, title, owner_token, created_at, updated_at
		FROM short_links
		WHERE owner_token = $1
		ORDER BY created_at DESC
	`

	rows, err := p.pool.Query(ctx, query, ownerToken)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []shortener.ShortLink

	for rows.Next() {
		var link shortener.ShortLink

		err = rows.Scan(
			&link.ID,
			&link.TargetURL,
			&link.Code,
			&link.Title,
			&link.OwnerToken,
			&link.CreatedAt,
			&link.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		links = append(links, link)
	}

	return links, rows.Err()
}

func (p *PostgresStore) InsertVisit(ctx context.Context, visit *shortener.Visit) error {
	visit.CreatedAt = time.Now()

	query := `
		INSERT INTO visits (id, short_link_id, city, region, country, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := p.pool.Exec(ctx, query,
		visit.ID,
		visit.ShortLinkID,
		visit.City,
		visit.Region,
		visit.Country,
		visit.CreatedAt,
	)

	return err
}

func (p *PostgresStore) ListVisitsByLink(ctx context.Context, shortLinkID uuid.UUID) ([]shortener.Visit, error) {
	query := `
		SELECT id, short_link_id, city, region, country, created_at
		FROM visits
		WHERE short_link_id = $1
		ORDER BY created_at DESC
	`

	rows, err := p.pool.Query(ctx, query, shortLinkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []shortener.Visit

	for rows.Next() {
		var visit shortener.Visit

		err = rows.Scan(
			&visit.ID,
			&visit.ShortLinkID,
			&visit.City,
			&visit.Region,
			&visit.Country,
			&visit.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		visits = append(visits, visit)
	}

	return visits, rows.Err()
}

func (p *PostgresStore) scanLink(row pgx.Row) (*shortener.ShortLink, error) {
	var link shortener.ShortLink

	err := row.Scan(
		&link.ID,
		&link.TargetURL,
		&link.Code,
		&link.Title,
		&link.OwnerToken,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return &link, nil
}
