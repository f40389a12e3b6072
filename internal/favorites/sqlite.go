package favorites

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS favorites (
	position INTEGER NOT NULL,
	name     TEXT    NOT NULL,
	country  TEXT    NOT NULL,
	lat      REAL    NOT NULL,
	lon      REAL    NOT NULL,
	PRIMARY KEY (name, country)
);`

// SQLitePersister keeps favorites in a local SQLite file (pure-Go driver).
type SQLitePersister struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLitePersister, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}

	// One writer at a time; the driver serializes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating favorites schema: %w", err)
	}

	return &SQLitePersister{db: db}, nil
}

// Load returns favorites in their saved order.
func (p *SQLitePersister) Load(ctx context.Context) ([]City, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT name, country, lat, lon FROM favorites ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying favorites: %w", err)
	}
	defer rows.Close()

	cities := make([]City, 0)
	for rows.Next() {
		var c City
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

// Save replaces the stored list in one transaction.
func (p *SQLitePersister) Save(ctx context.Context, cities []City) (err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM favorites`); err != nil {
		return fmt.Errorf("clearing favorites: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO favorites(position, name, country, lat, lon) VALUES(?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range cities {
		if _, err = stmt.ExecContext(ctx, i, c.Name, c.Country, c.Lat, c.Lon); err != nil {
			return fmt.Errorf("inserting favorite %s: %w", c.ID(), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing favorites: %w", err)
	}
	return nil
}

// Ping checks the database handle.
func (p *SQLitePersister) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close releases the database.
func (p *SQLitePersister) Close() error {
	return p.db.Close()
}
