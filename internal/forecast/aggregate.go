package forecast

import (
	"time"

	"github.com/neexbeast/skycast/internal/weather"
)

// DailySummary is one calendar day reduced from forecast samples.
// Condition, description, humidity and wind come from the day's first sample.
type DailySummary struct {
	Time        time.Time         `json:"time"`
	Date        string            `json:"date"`
	TempMin     float64           `json:"temp_min"`
	TempMax     float64           `json:"temp_max"`
	TempAvg     float64           `json:"temp_avg"`
	Condition   weather.Condition `json:"condition"`
	Description string            `json:"description"`
	Humidity    int               `json:"humidity"`
	WindSpeed   float64           `json:"wind_speed"`
	Samples     int               `json:"samples"`
}

const dateLayout = "2006-01-02"

type bucket struct {
	first weather.Sample
	min   float64
	max   float64
	sum   float64
	count int
}

// Aggregate groups samples by their calendar date in loc (UTC when loc is nil)
// and returns one summary per date, in the order each date first appears.
func Aggregate(samples []weather.Sample, loc *time.Location) []DailySummary {
	if loc == nil {
		loc = time.UTC
	}

	var order []string
	buckets := make(map[string]*bucket)

	for _, s := range samples {
		date := s.Time.In(loc).Format(dateLayout)

		b, ok := buckets[date]
		if !ok {
			b = &bucket{first: s, min: s.TempMin, max: s.TempMax}
			buckets[date] = b
			order = append(order, date)
		}

		if s.TempMin < b.min {
			b.min = s.TempMin
		}
		if s.TempMax > b.max {
			b.max = s.TempMax
		}
		b.sum += s.Temp
		b.count++
	}

	days := make([]DailySummary, 0, len(order))
	for _, date := range order {
		b := buckets[date]
		days = append(days, DailySummary{
			Time:        b.first.Time,
			Date:        date,
			TempMin:     b.min,
			TempMax:     b.max,
			TempAvg:     b.sum / float64(b.count),
			Condition:   b.first.Condition,
			Description: b.first.Description,
			Humidity:    b.first.Humidity,
			WindSpeed:   b.first.WindSpeed,
			Samples:     b.count,
		})
	}

	return days
}

// Truncate returns at most n leading days. n <= 0 returns days unchanged.
func Truncate(days []DailySummary, n int) []DailySummary {
	if n <= 0 || len(days) <= n {
		return days
	}
	return days[:n]
}
