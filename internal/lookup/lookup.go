package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/skycast/internal/forecast"
	"github.com/neexbeast/skycast/internal/weather"
)

// ErrEmptyQuery is returned when a city search has no text.
var ErrEmptyQuery = errors.New("empty city query")

// weatherClient is the interface satisfied by weather.Client.
type weatherClient interface {
	FetchCurrentByName(ctx context.Context, city string) (*weather.CurrentConditions, error)
	FetchCurrentByCoords(ctx context.Context, lat, lon float64) (*weather.CurrentConditions, error)
	FetchForecast(ctx context.Context, lat, lon float64) ([]weather.Sample, error)
}

// Report is the result of one lookup: current conditions plus daily summaries.
type Report struct {
	Current *weather.CurrentConditions `json:"current"`
	Daily   []forecast.DailySummary    `json:"daily"`
}

// Service runs the current-conditions and forecast requests for a query and
// reduces the forecast to daily summaries.
type Service struct {
	client weatherClient
	loc    *time.Location
	log    *slog.Logger
}

// NewService constructs a Service. Days are bucketed by calendar date in loc.
func NewService(client weatherClient, loc *time.Location, log *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{client: client, loc: loc, log: log}
}

// ByCity looks up a city by name. The forecast needs coordinates, so it runs
// after the current-conditions request using the coordinates that came back.
func (s *Service) ByCity(ctx context.Context, city string) (*Report, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, ErrEmptyQuery
	}

	current, err := s.client.FetchCurrentByName(ctx, city)
	if err != nil {
		s.log.Warn("current weather fetch failed", "city", city, "err", err)
		return nil, fmt.Errorf("looking up %s: %w", city, err)
	}

	samples, err := s.client.FetchForecast(ctx, current.Coord.Lat, current.Coord.Lon)
	if err != nil {
		s.log.Warn("forecast fetch failed", "city", city, "err", err)
		return nil, fmt.Errorf("looking up forecast for %s: %w", city, err)
	}

	return &Report{Current: current, Daily: forecast.Aggregate(samples, s.loc)}, nil
}

// ByCoords looks up a coordinate. Both requests are independent and run in parallel;
// if either fails the whole lookup fails.
func (s *Service) ByCoords(ctx context.Context, coord weather.Coordinate) (*Report, error) {
	g, gCtx := errgroup.WithContext(ctx)

	var current *weather.CurrentConditions
	var samples []weather.Sample

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("current weather fetch panicked", "recover", r)
				err = fmt.Errorf("current weather fetch panicked: %v", r)
			}
		}()
		cur, fetchErr := s.client.FetchCurrentByCoords(gCtx, coord.Lat, coord.Lon)
		if fetchErr != nil {
			s.log.Warn("current weather fetch failed", "lat", coord.Lat, "lon", coord.Lon, "err", fetchErr)
			return fetchErr
		}
		current = cur
		return nil
	})

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("forecast fetch panicked", "recover", r)
				err = fmt.Errorf("forecast fetch panicked: %v", r)
			}
		}()
		fs, fetchErr := s.client.FetchForecast(gCtx, coord.Lat, coord.Lon)
		if fetchErr != nil {
			s.log.Warn("forecast fetch failed", "lat", coord.Lat, "lon", coord.Lon, "err", fetchErr)
			return fetchErr
		}
		samples = fs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("looking up %.4f,%.4f: %w", coord.Lat, coord.Lon, err)
	}

	return &Report{Current: current, Daily: forecast.Aggregate(samples, s.loc)}, nil
}
