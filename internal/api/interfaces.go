package api

import (
	"context"

	"github.com/neexbeast/skycast/internal/favorites"
	"github.com/neexbeast/skycast/internal/lookup"
	"github.com/neexbeast/skycast/internal/weather"
)

// WeatherLookup defines the lookups needed by handlers.
type WeatherLookup interface {
	ByCity(ctx context.Context, city string) (*lookup.Report, error)
	ByCoords(ctx context.Context, coord weather.Coordinate) (*lookup.Report, error)
}

// FavoritesStore defines the favorites operations needed by handlers.
type FavoritesStore interface {
	List() []favorites.City
	Contains(id string) bool
	Add(ctx context.Context, c favorites.City) error
	Remove(ctx context.Context, id string) error
	Toggle(ctx context.Context, c favorites.City) (bool, error)
}

// pinger is satisfied by every favorites backend.
type pinger interface {
	Ping(ctx context.Context) error
}
