package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the OpenWeatherMap 2.5 API root.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Per-operation messages used when the provider gives no message of its own.
const (
	msgCityNotFound   = "City not found"
	msgWeatherFailed  = "Failed to fetch weather"
	msgForecastFailed = "Failed to fetch forecast"
)

// Client fetches current conditions and forecasts from OpenWeatherMap.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewClient constructs a Client against the production API.
func NewClient(apiKey string) *Client {
	return NewClientWithURL(DefaultBaseURL, apiKey)
}

// NewClientWithURL constructs a Client pointing at a custom base URL (for tests and proxies).
// The client sets no timeout of its own; pass one through WithHTTPClient.
func NewClientWithURL(baseURL, apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		now:     time.Now,
	}
}

// WithHTTPClient swaps the underlying transport and returns c.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.client = hc
	}
	return c
}

type owmMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Humidity  int     `json:"humidity"`
}

type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type owmWind struct {
	Speed float64 `json:"speed"`
}

type owmCurrentResponse struct {
	Name  string      `json:"name"`
	Coord *Coordinate `json:"coord"`
	Sys   struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main       *owmMain       `json:"main"`
	Weather    []owmCondition `json:"weather"`
	Wind       owmWind        `json:"wind"`
	Visibility *int           `json:"visibility"`
}

type owmForecastItem struct {
	Dt      int64          `json:"dt"`
	Main    *owmMain       `json:"main"`
	Weather []owmCondition `json:"weather"`
	Wind    owmWind        `json:"wind"`
}

type owmForecastResponse struct {
	List *[]owmForecastItem `json:"list"`
}

type owmErrorPayload struct {
	Message string `json:"message"`
}

// FetchCurrentByName retrieves current conditions for a free-text city name.
func (c *Client) FetchCurrentByName(ctx context.Context, city string) (*CurrentConditions, error) {
	params := url.Values{}
	params.Set("q", city)
	return c.fetchCurrent(ctx, "fetch current by name", params, msgCityNotFound)
}

// FetchCurrentByCoords retrieves current conditions for a coordinate.
func (c *Client) FetchCurrentByCoords(ctx context.Context, lat, lon float64) (*CurrentConditions, error) {
	return c.fetchCurrent(ctx, "fetch current by coords", coordParams(lat, lon), msgWeatherFailed)
}

// FetchForecast retrieves the raw forecast series for a coordinate, in provider order.
func (c *Client) FetchForecast(ctx context.Context, lat, lon float64) ([]Sample, error) {
	const op = "fetch forecast"

	var raw owmForecastResponse
	if err := c.get(ctx, op, "/forecast", coordParams(lat, lon), msgForecastFailed, &raw); err != nil {
		return nil, err
	}
	if raw.List == nil {
		return nil, shapeError(op, msgForecastFailed, "missing list")
	}

	samples := make([]Sample, 0, len(*raw.List))
	for i, item := range *raw.List {
		if item.Main == nil || len(item.Weather) == 0 {
			return nil, shapeError(op, msgForecastFailed, fmt.Sprintf("list[%d] missing main or weather", i))
		}
		samples = append(samples, Sample{
			Time:        time.Unix(item.Dt, 0).UTC(),
			Temp:        item.Main.Temp,
			TempMin:     item.Main.TempMin,
			TempMax:     item.Main.TempMax,
			Condition:   ParseCondition(item.Weather[0].Main),
			Description: item.Weather[0].Description,
			Humidity:    item.Main.Humidity,
			WindSpeed:   item.Wind.Speed,
		})
	}

	return samples, nil
}

func (c *Client) fetchCurrent(ctx context.Context, op string, params url.Values, fallback string) (*CurrentConditions, error) {
	var raw owmCurrentResponse
	if err := c.get(ctx, op, "/weather", params, fallback, &raw); err != nil {
		return nil, err
	}

	switch {
	case raw.Main == nil:
		return nil, shapeError(op, fallback, "missing main")
	case len(raw.Weather) == 0:
		return nil, shapeError(op, fallback, "empty weather")
	case raw.Coord == nil:
		return nil, shapeError(op, fallback, "missing coord")
	}

	return &CurrentConditions{
		Name:        raw.Name,
		Country:     raw.Sys.Country,
		Coord:       *raw.Coord,
		Condition:   ParseCondition(raw.Weather[0].Main),
		Description: raw.Weather[0].Description,
		Temp:        raw.Main.Temp,
		TempMin:     raw.Main.TempMin,
		TempMax:     raw.Main.TempMax,
		FeelsLike:   raw.Main.FeelsLike,
		Humidity:    raw.Main.Humidity,
		WindSpeed:   raw.Wind.Speed,
		Visibility:  raw.Visibility,
		FetchedAt:   c.now(),
	}, nil
}

// get performs one GET against the provider and decodes a 200 body into dst.
// Every failure comes back as an *Error.
func (c *Client) get(ctx context.Context, op, path string, params url.Values, fallback string, dst any) error {
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	rawURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Message: fallback, Err: fmt.Errorf("creating request: %w", err)}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// The URL carries the API key; keep it out of the message.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return &Error{Kind: KindTransport, Op: op, Message: fallback, Err: fmt.Errorf("GET %s: %w", path, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Status: resp.StatusCode, Message: fallback, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return statusError(op, resp.StatusCode, body, fallback)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &Error{Kind: KindProvider, Op: op, Status: resp.StatusCode, Message: fallback, Err: fmt.Errorf("unexpected response shape: %w", err)}
		}
		return &Error{Kind: KindTransport, Op: op, Status: resp.StatusCode, Message: fallback, Err: fmt.Errorf("decoding response: %w", err)}
	}

	return nil
}

// statusError classifies a non-200 answer. 400 and 404 mean the provider rejected the location;
// anything else (bad key, quota, outage) is a provider error.
func statusError(op string, status int, body []byte, fallback string) *Error {
	msg := fallback
	var payload owmErrorPayload
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		msg = payload.Message
	}

	kind := KindProvider
	if status == http.StatusNotFound || status == http.StatusBadRequest {
		kind = KindLocationNotFound
	}

	return &Error{Kind: kind, Op: op, Status: status, Message: msg}
}

func shapeError(op, fallback, detail string) *Error {
	return &Error{Kind: KindProvider, Op: op, Status: http.StatusOK, Message: fallback, Err: errors.New("unexpected response shape: " + detail)}
}

func coordParams(lat, lon float64) url.Values {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	return params
}
