// Package display holds the pure lookup tables the presentation layer renders with:
// temperature units, condition icons and background gradients.
package display

import (
	"fmt"
	"math"
	"strings"
)

// Unit is a temperature display unit.
type Unit string

const (
	Celsius    Unit = "celsius"
	Fahrenheit Unit = "fahrenheit"
)

// ParseUnit accepts "celsius"/"fahrenheit" (and the c/f shorthands), case-insensitively.
// An empty string means Celsius.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "celsius", "c":
		return Celsius, nil
	case "fahrenheit", "f":
		return Fahrenheit, nil
	default:
		return "", fmt.Errorf("unknown temperature unit %q", s)
	}
}

// Symbol returns the unit suffix shown next to a temperature.
func (u Unit) Symbol() string {
	if u == Fahrenheit {
		return "°F"
	}
	return "°C"
}

// Toggle returns the other unit.
func (u Unit) Toggle() Unit {
	if u == Fahrenheit {
		return Celsius
	}
	return Fahrenheit
}

// ConvertTemperature converts a Celsius value to unit and rounds to a whole degree,
// halves rounding up.
func ConvertTemperature(celsius float64, unit Unit) float64 {
	if unit == Fahrenheit {
		return roundHalfUp(celsius*9/5 + 32)
	}
	return roundHalfUp(celsius)
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

const (
	defaultIcon       = "Cloud"
	defaultBackground = "from-blue-400 via-blue-500 to-blue-600"
)

var icons = map[string]string{
	"Clear":        "Sun",
	"Clouds":       "Cloud",
	"Rain":         "CloudRain",
	"Drizzle":      "CloudDrizzle",
	"Snow":         "Snowflake",
	"Thunderstorm": "Zap",
	"Mist":         "CloudFog",
	"Fog":          "CloudFog",
	"Haze":         "CloudFog",
	"Smoke":        "CloudFog",
	"Dust":         "Wind",
	"Sand":         "Wind",
	"Tornado":      "Tornado",
}

var backgrounds = map[string]string{
	"Clear":        "from-blue-400 via-blue-500 to-blue-600",
	"Clouds":       "from-gray-400 via-gray-500 to-gray-600",
	"Rain":         "from-gray-600 via-gray-700 to-gray-800",
	"Drizzle":      "from-gray-500 via-gray-600 to-gray-700",
	"Snow":         "from-blue-100 via-blue-200 to-gray-300",
	"Thunderstorm": "from-gray-700 via-gray-800 to-gray-900",
	"Mist":         "from-gray-300 via-gray-400 to-gray-500",
	"Fog":          "from-gray-300 via-gray-400 to-gray-500",
	"Haze":         "from-gray-300 via-gray-400 to-gray-500",
	"Smoke":        "from-gray-400 via-gray-500 to-gray-600",
	"Dust":         "from-yellow-300 via-yellow-400 to-yellow-500",
	"Sand":         "from-yellow-400 via-yellow-500 to-yellow-600",
	"Tornado":      "from-gray-800 via-gray-900 to-black",
}

// IconFor returns the icon name for a condition category. Unknown categories get "Cloud".
func IconFor(condition string) string {
	if icon, ok := icons[condition]; ok {
		return icon
	}
	return defaultIcon
}

// BackgroundFor returns the gradient classes for a condition category.
func BackgroundFor(condition string) string {
	if bg, ok := backgrounds[condition]; ok {
		return bg
	}
	return defaultBackground
}

// VisibilityKM formats a visibility in meters as kilometers with one decimal.
func VisibilityKM(meters *int) string {
	if meters == nil || *meters == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f km", float64(*meters)/1000)
}
