package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neexbeast/skycast/internal/favorites"
)

// Querier abstracts the subset of pgxpool.Pool used by Repository.
// This allows injection of a mock in tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Repository persists the favorites list in Postgres. It implements favorites.Persister.
type Repository struct {
	q Querier
}

var _ favorites.Persister = (*Repository)(nil)

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{q: pool}
}

// NewRepositoryWithQuerier constructs a Repository with a custom Querier (for tests).
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{q: q}
}

// Load returns all favorites ordered by their saved position.
func (r *Repository) Load(ctx context.Context) ([]favorites.City, error) {
	const q = `
		SELECT name, country, lat, lon
		FROM favorites
		ORDER BY position
	`

	rows, err := r.q.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying favorites: %w", err)
	}
	defer rows.Close()

	cities := make([]favorites.City, 0)
	for rows.Next() {
		var c favorites.City
		if err := rows.Scan(&c.Name, &c.Country, &c.Lat, &c.Lon); err != nil {
			return nil, fmt.Errorf("scanning favorite row: %w", err)
		}
		cities = append(cities, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating favorite rows: %w", err)
	}

	return cities, nil
}

// Save replaces the stored list with cities inside one transaction.
func (r *Repository) Save(ctx context.Context, cities []favorites.City) error {
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM favorites`); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("clearing favorites: %w", err)
	}

	const insert = `
		INSERT INTO favorites (name, country, lat, lon, position)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i, c := range cities {
		if _, err := tx.Exec(ctx, insert, c.Name, c.Country, c.Lat, c.Lon, i); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("inserting favorite %s: %w", c.ID(), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing favorites: %w", err)
	}

	return nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.q.Ping(ctx)
}
