package weather

import "time"

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Condition is the provider's primary weather category.
type Condition string

const (
	ConditionClear        Condition = "Clear"
	ConditionClouds       Condition = "Clouds"
	ConditionRain         Condition = "Rain"
	ConditionDrizzle      Condition = "Drizzle"
	ConditionSnow         Condition = "Snow"
	ConditionThunderstorm Condition = "Thunderstorm"
	ConditionMist         Condition = "Mist"
	ConditionFog          Condition = "Fog"
	ConditionHaze         Condition = "Haze"
	ConditionSmoke        Condition = "Smoke"
	ConditionDust         Condition = "Dust"
	ConditionSand         Condition = "Sand"
	ConditionTornado      Condition = "Tornado"
	ConditionUnknown      Condition = "Unknown"
)

var knownConditions = map[Condition]struct{}{
	ConditionClear:        {},
	ConditionClouds:       {},
	ConditionRain:         {},
	ConditionDrizzle:      {},
	ConditionSnow:         {},
	ConditionThunderstorm: {},
	ConditionMist:         {},
	ConditionFog:          {},
	ConditionHaze:         {},
	ConditionSmoke:        {},
	ConditionDust:         {},
	ConditionSand:         {},
	ConditionTornado:      {},
}

// ParseCondition maps a provider "main" value onto a Condition.
// Values outside the known set (OWM also sends e.g. "Ash", "Squall") become ConditionUnknown.
func ParseCondition(s string) Condition {
	c := Condition(s)
	if _, ok := knownConditions[c]; ok {
		return c
	}
	return ConditionUnknown
}

// CurrentConditions is a snapshot of the weather at one place at query time.
// Temperatures are degrees Celsius, wind speed m/s, visibility meters.
type CurrentConditions struct {
	Name        string     `json:"name"`
	Country     string     `json:"country"`
	Coord       Coordinate `json:"coord"`
	Condition   Condition  `json:"condition"`
	Description string     `json:"description"`
	Temp        float64    `json:"temp"`
	TempMin     float64    `json:"temp_min"`
	TempMax     float64    `json:"temp_max"`
	FeelsLike   float64    `json:"feels_like"`
	Humidity    int        `json:"humidity"`
	WindSpeed   float64    `json:"wind_speed"`
	Visibility  *int       `json:"visibility,omitempty"`
	FetchedAt   time.Time  `json:"fetched_at"`
}

// Sample is one fine-grained forecast record (OWM delivers them in 3-hour steps).
type Sample struct {
	Time        time.Time `json:"time"`
	Temp        float64   `json:"temp"`
	TempMin     float64   `json:"temp_min"`
	TempMax     float64   `json:"temp_max"`
	Condition   Condition `json:"condition"`
	Description string    `json:"description"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"wind_speed"`
}
