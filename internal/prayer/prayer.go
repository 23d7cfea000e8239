// Package prayer defines the prayer time data model: locations, calculation
// methods and their parameter table, query attributes, and the six-instant
// PrayerTime result with the helpers used to display it.
package prayer

import (
	"fmt"
	"strings"
	"time"
)

// Names lists the six prayer instants in order.
var Names = []string{"Fajr", "Sunrise", "Dhuhr", "Asr", "Maghrib", "Isha"}

// ShortNames maps full prayer names to abbreviations.
var ShortNames = map[string]string{
	"Fajr":    "F",
	"Sunrise": "S",
	"Dhuhr":   "D",
	"Asr":     "A",
	"Maghrib": "M",
	"Isha":    "I",
}

// PrayerTime holds the six daily instants, all on the query's calendar day.
// It is a value: every adjustment returns a new PrayerTime.
type PrayerTime struct {
	Fajr    time.Time
	Sunrise time.Time
	Dhuhr   time.Time
	Asr     time.Time
	Maghrib time.Time
	Isha    time.Time
}

// FromArray builds a PrayerTime from instants in Names order.
func FromArray(t [6]time.Time) PrayerTime {
	return PrayerTime{
		Fajr:    t[IndexFajr],
		Sunrise: t[IndexSunrise],
		Dhuhr:   t[IndexDhuhr],
		Asr:     t[IndexAsr],
		Maghrib: t[IndexMaghrib],
		Isha:    t[IndexIsha],
	}
}

// Array returns the instants in Names order.
func (p PrayerTime) Array() [6]time.Time {
	return [6]time.Time{p.Fajr, p.Sunrise, p.Dhuhr, p.Asr, p.Maghrib, p.Isha}
}

// At returns the instant at index i in Names order. A negative index
// returns Isha, the last prayer of the previous cycle.
func (p PrayerTime) At(i int) time.Time {
	arr := p.Array()
	if i < 0 {
		return arr[IndexIsha]
	}
	return arr[i]
}

// Prayers returns the named instants in order.
func (p PrayerTime) Prayers() []Prayer {
	arr := p.Array()
	out := make([]Prayer, len(arr))
	for i, t := range arr {
		out[i] = Prayer{Name: Names[i], Time: t}
	}
	return out
}

// Shift moves every instant by d.
func (p PrayerTime) Shift(d time.Duration) PrayerTime {
	arr := p.Array()
	for i := range arr {
		arr[i] = arr[i].Add(d)
	}
	return FromArray(arr)
}

// OnDay moves every instant to day's calendar date, keeping its wall clock.
// An Isha pushed past midnight by an offset reads 00:xx of the same day.
func (p PrayerTime) OnDay(day time.Time) PrayerTime {
	y, m, d := day.Date()
	arr := p.Array()
	for i, t := range arr {
		arr[i] = time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	}
	return FromArray(arr)
}

// WithOffsets adds each offset, in minutes, to the matching instant.
// Zero offsets return an identical value.
func (p PrayerTime) WithOffsets(o Offsets) PrayerTime {
	arr := p.Array()
	for i := range arr {
		arr[i] = arr[i].Add(time.Duration(o[i]) * time.Minute)
	}
	return FromArray(arr)
}

// FixedTimes is one row of a stored time-table, as "HH:MM" strings.
type FixedTimes struct {
	Fajr    string `json:"fajr"`
	Sunrise string `json:"sunrise"`
	Dhuhr   string `json:"dhuhr"`
	Asr     string `json:"asr"`
	Maghrib string `json:"maghrib"`
	Isha    string `json:"isha"`
}

// Complete reports whether every field is set.
func (f FixedTimes) Complete() bool {
	for _, s := range f.array() {
		if strings.TrimSpace(s) == "" {
			return false
		}
	}
	return true
}

func (f FixedTimes) array() [6]string {
	return [6]string{f.Fajr, f.Sunrise, f.Dhuhr, f.Asr, f.Maghrib, f.Isha}
}

// ParseFixedTimes places a stored row on date's calendar day, in date's location.
func ParseFixedTimes(f FixedTimes, date time.Time) (PrayerTime, error) {
	var arr [6]time.Time
	for i, raw := range f.array() {
		t, err := parseTimeStr(raw, date, date.Location())
		if err != nil {
			return PrayerTime{}, fmt.Errorf("failed to parse time for %s (%q): %w", Names[i], raw, err)
		}
		arr[i] = t
	}
	return FromArray(arr), nil
}

// Prayer represents a single prayer with its name and time.
type Prayer struct {
	Name string
	Time time.Time
}

// Select filters prayers to the given names, keeping chronological order.
func Select(prayers []Prayer, names []string) ([]Prayer, error) {
	if len(names) == 0 {
		return prayers, nil
	}
	byName := make(map[string]Prayer, len(prayers))
	for _, p := range prayers {
		byName[p.Name] = p
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := byName[n]; !ok {
			return nil, fmt.Errorf("unknown prayer name: %s", n)
		}
		want[n] = true
	}
	var out []Prayer
	for _, p := range prayers {
		if want[p.Name] {
			out = append(out, p)
		}
	}
	return out, nil
}

// NextPrayer finds the next upcoming prayer relative to now.
// If all prayers for today have passed, it returns nil (caller should compute tomorrow's Fajr).
func NextPrayer(prayers []Prayer, now time.Time) *Prayer {
	for i := range prayers {
		if prayers[i].Time.After(now) {
			return &prayers[i]
		}
	}
	return nil
}

// CurrentPrayer returns the latest prayer that has started by now, or nil
// before the first one.
func CurrentPrayer(prayers []Prayer, now time.Time) *Prayer {
	var cur *Prayer
	for i := range prayers {
		if prayers[i].Time.After(now) {
			break
		}
		cur = &prayers[i]
	}
	return cur
}

// TimeRemaining returns the duration until the given prayer time.
func TimeRemaining(prayer Prayer, now time.Time) time.Duration {
	return prayer.Time.Sub(now)
}

// FormatRemaining formats a duration as "Xh Ym" or "Ym" if less than an hour.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// parseTimeStr parses "HH:MM" into a time.Time on the given date in loc.
// Anything after the first space (a zone label such as " (BST)") is ignored.
func parseTimeStr(raw string, date time.Time, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %q", raw)
	}

	var hour, min int
	if _, err := fmt.Sscanf(parts[0], "%d", &hour); err != nil {
		return time.Time{}, fmt.Errorf("invalid hour in %q: %w", raw, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &min); err != nil {
		return time.Time{}, fmt.Errorf("invalid minute in %q: %w", raw, err)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return time.Time{}, fmt.Errorf("time out of range: %q", raw)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, loc), nil
}
