package api

import (
	"fmt"
	"time"

	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
)

// Response represents the top-level Al Adhan API response.
type Response struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   Data   `json:"data"`
}

// Data holds the prayer timings, date info, and metadata.
type Data struct {
	Timings Timings  `json:"timings"`
	Date    DateInfo `json:"date"`
	Meta    Meta     `json:"meta"`
}

// Timings contains the prayer times as HH:MM strings.
// The API may include a timezone suffix like " (BST)" which we strip during parsing.
type Timings struct {
	Fajr    string `json:"Fajr"`
	Sunrise string `json:"Sunrise"`
	Dhuhr   string `json:"Dhuhr"`
	Asr     string `json:"Asr"`
	Sunset  string `json:"Sunset"`
	Maghrib string `json:"Maghrib"`
	Isha    string `json:"Isha"`
}

// PrayerTime places the timings on date's calendar day in date's location.
func (t Timings) PrayerTime(date time.Time) (prayer.PrayerTime, error) {
	pt, err := prayer.ParseFixedTimes(prayer.FixedTimes{
		Fajr:    t.Fajr,
		Sunrise: t.Sunrise,
		Dhuhr:   t.Dhuhr,
		Asr:     t.Asr,
		Maghrib: t.Maghrib,
		Isha:    t.Isha,
	}, date)
	if err != nil {
		return prayer.PrayerTime{}, fmt.Errorf("invalid API timings: %w", err)
	}
	return pt, nil
}

// DateInfo contains date representations.
type DateInfo struct {
	Readable  string `json:"readable"`
	Timestamp string `json:"timestamp"`
}

// Meta contains request metadata returned by the API.
type Meta struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Timezone  string     `json:"timezone"`
	Method    MethodInfo `json:"method"`
	School    string     `json:"school"`
}

// Location loads the IANA zone named by Timezone, falling back to UTC when
// it is empty.
func (m Meta) Location() (*time.Location, error) {
	if m.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(m.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown API timezone %q: %w", m.Timezone, err)
	}
	return loc, nil
}

// MethodInfo identifies the calculation method used.
type MethodInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
