package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/neexbeast/skycast/internal/display"
	"github.com/neexbeast/skycast/internal/favorites"
	"github.com/neexbeast/skycast/internal/forecast"
	"github.com/neexbeast/skycast/internal/lookup"
	"github.com/neexbeast/skycast/internal/weather"
)

// DefaultForecastDays is how many daily rows the weather endpoint returns unless ?days= says otherwise.
const DefaultForecastDays = 7

const msgTransport = "weather service unreachable, please retry"

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	lookup    WeatherLookup
	favorites FavoritesStore
	log       *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(l WeatherLookup, favs FavoritesStore, log *slog.Logger) *Handlers {
	return &Handlers{
		lookup:    l,
		favorites: favs,
		log:       log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "kind": kind})
}

type currentDisplay struct {
	Temp       float64 `json:"temp"`
	FeelsLike  float64 `json:"feels_like"`
	TempMin    float64 `json:"temp_min"`
	TempMax    float64 `json:"temp_max"`
	Symbol     string  `json:"symbol"`
	Icon       string  `json:"icon"`
	Background string  `json:"background"`
	Visibility string  `json:"visibility"`
}

type currentView struct {
	*weather.CurrentConditions
	ID       string         `json:"id"`
	Favorite bool           `json:"favorite"`
	Display  currentDisplay `json:"display"`
}

type dayDisplay struct {
	TempMin float64 `json:"temp_min"`
	TempMax float64 `json:"temp_max"`
	TempAvg float64 `json:"temp_avg"`
	Icon    string  `json:"icon"`
}

type dayView struct {
	forecast.DailySummary
	Display dayDisplay `json:"display"`
}

type weatherResponse struct {
	Unit    display.Unit `json:"unit"`
	Current currentView  `json:"current"`
	Daily   []dayView    `json:"daily"`
}

// GetWeather handles GET /api/v1/weather?city=… or ?lat=…&lon=…, with optional unit and days.
// Lookup failures clear everything: the body carries only the error.
func (h *Handlers) GetWeather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	unit, err := display.ParseUnit(q.Get("unit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	days := DefaultForecastDays
	if raw := q.Get("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", "days must be a positive integer")
			return
		}
	}

	var report *lookup.Report
	switch {
	case q.Has("city"):
		report, err = h.lookup.ByCity(r.Context(), q.Get("city"))
	case q.Has("lat") || q.Has("lon"):
		coord, perr := parseCoordinate(q.Get("lat"), q.Get("lon"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, "bad_request", perr.Error())
			return
		}
		report, err = h.lookup.ByCoords(r.Context(), coord)
	default:
		writeError(w, http.StatusBadRequest, "bad_request", "city or lat/lon is required")
		return
	}
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.buildResponse(report, unit, days))
}

func (h *Handlers) buildResponse(report *lookup.Report, unit display.Unit, days int) weatherResponse {
	cur := report.Current
	condition := string(cur.Condition)
	id := favorites.City{Name: cur.Name, Country: cur.Country}.ID()

	resp := weatherResponse{
		Unit: unit,
		Current: currentView{
			CurrentConditions: cur,
			ID:                id,
			Favorite:          h.favorites.Contains(id),
			Display: currentDisplay{
				Temp:       display.ConvertTemperature(cur.Temp, unit),
				FeelsLike:  display.ConvertTemperature(cur.FeelsLike, unit),
				TempMin:    display.ConvertTemperature(cur.TempMin, unit),
				TempMax:    display.ConvertTemperature(cur.TempMax, unit),
				Symbol:     unit.Symbol(),
				Icon:       display.IconFor(condition),
				Background: display.BackgroundFor(condition),
				Visibility: display.VisibilityKM(cur.Visibility),
			},
		},
	}

	daily := forecast.Truncate(report.Daily, days)
	resp.Daily = make([]dayView, 0, len(daily))
	for _, d := range daily {
		resp.Daily = append(resp.Daily, dayView{
			DailySummary: d,
			Display: dayDisplay{
				TempMin: display.ConvertTemperature(d.TempMin, unit),
				TempMax: display.ConvertTemperature(d.TempMax, unit),
				TempAvg: display.ConvertTemperature(d.TempAvg, unit),
				Icon:    display.IconFor(string(d.Condition)),
			},
		})
	}

	return resp
}

// writeLookupError maps the weather error kinds onto status codes. The provider's
// message is passed through for not-found and provider errors.
func (h *Handlers) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lookup.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "bad_request", "city must not be empty")
	case errors.Is(err, weather.ErrLocationNotFound):
		writeError(w, http.StatusNotFound, weather.KindLocationNotFound.String(), weather.Message(err))
	case errors.Is(err, weather.ErrProvider):
		h.log.Error("weather provider error", "err", err)
		writeError(w, http.StatusBadGateway, weather.KindProvider.String(), weather.Message(err))
	case errors.Is(err, weather.ErrTransport):
		h.log.Error("weather transport error", "err", err)
		writeError(w, http.StatusServiceUnavailable, weather.KindTransport.String(), msgTransport)
	default:
		h.log.Error("weather lookup failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func parseCoordinate(lat, lon string) (weather.Coordinate, error) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return weather.Coordinate{}, errors.New("lat must be a number")
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return weather.Coordinate{}, errors.New("lon must be a number")
	}
	return weather.Coordinate{Lat: la, Lon: lo}, nil
}

// ListFavorites handles GET /api/v1/favorites.
func (h *Handlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.favorites.List())
}

// AddFavorite handles POST /api/v1/favorites.
func (h *Handlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	city, ok := decodeCity(w, r)
	if !ok {
		return
	}

	err := h.favorites.Add(r.Context(), city)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, city)
	case errors.Is(err, favorites.ErrExists):
		writeError(w, http.StatusConflict, "exists", "city is already a favorite")
	case errors.Is(err, favorites.ErrInvalid):
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		h.log.Error("add favorite failed", "id", city.ID(), "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to store favorite")
	}
}

// ToggleFavorite handles POST /api/v1/favorites/toggle.
func (h *Handlers) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	city, ok := decodeCity(w, r)
	if !ok {
		return
	}

	on, err := h.favorites.Toggle(r.Context(), city)
	if err != nil {
		if errors.Is(err, favorites.ErrInvalid) {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		h.log.Error("toggle favorite failed", "id", city.ID(), "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to store favorite")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": city.ID(), "favorite": on})
}

// RemoveFavorite handles DELETE /api/v1/favorites/{id}, where id is "name-country".
func (h *Handlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "malformed id")
		return
	}

	err = h.favorites.Remove(r.Context(), id)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, favorites.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "favorite not found")
	default:
		h.log.Error("remove favorite failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to store favorite")
	}
}

func decodeCity(w http.ResponseWriter, r *http.Request) (favorites.City, bool) {
	var city favorites.City
	if err := json.NewDecoder(r.Body).Decode(&city); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return favorites.City{}, false
	}
	return city, true
}

// HealthHandlerFunc returns an http.HandlerFunc that checks the favorites backend and
// reports whether a provider API key is configured, so the UI can warn about it.
func HealthHandlerFunc(store pinger, apiKeyConfigured bool, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		code := http.StatusOK
		status := "ok"
		storeStatus := "ok"
		keyStatus := "configured"

		if err := store.Ping(ctx); err != nil {
			log.Error("health check: favorites backend ping failed", "err", err)
			storeStatus = "error"
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		if !apiKeyConfigured {
			keyStatus = "missing"
			status = "degraded"
		}

		writeJSON(w, code, map[string]string{
			"status":    status,
			"favorites": storeStatus,
			"api_key":   keyStatus,
		})
	}
}
