// Package calc computes prayer times from the sun's position.
//
// Solve runs a single relaxation pass over seven sun-angle solves (Fajr,
// Sunrise, Dhuhr, Asr, Sunset, Maghrib, Isha), shifts them to wall-clock
// hours, applies the method's "minutes after" rules and the higher latitude
// bounds, then rounds to whole minutes. Every call carries its own
// solveContext; nothing is shared between calls.
package calc

import (
	"fmt"
	"math"
	"time"

	"github.com/smokyabdulrahman/prayer-times/internal/astro"
	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
)

// Slot indexes of Times.
const (
	Fajr = iota
	Sunrise
	Dhuhr
	Asr
	Sunset
	Maghrib
	Isha
)

// slotNames is used in error messages.
var slotNames = [7]string{"Fajr", "Sunrise", "Dhuhr", "Asr", "Sunset", "Maghrib", "Isha"}

// Times holds fractional hours per slot. NaN marks a slot with no solution.
type Times [7]float64

// seedTimes are the initial day-fraction estimates, in hours.
var seedTimes = Times{5, 6, 12, 13, 18, 18, 18}

// numIterations is a fixed relaxation count, not a convergence loop.
const numIterations = 1

// sunAltitude is the refraction-corrected altitude of the sun's upper limb at
// sunrise and sunset.
const sunAltitude = 0.833

// SolveOption customises Solve.
type SolveOption func(*solveContext)

// WithTimezone overrides the UTC offset, in hours, used to convert solar time
// to wall-clock time. Without it the offset of date's location is used.
func WithTimezone(hours float64) SolveOption {
	return func(c *solveContext) { c.tz = hours }
}

type solveContext struct {
	lat    float64
	lng    float64
	jd     float64
	tz     float64
	params prayer.MethodParams
	attr   prayer.Attribute
}

// Solve computes the six prayer instants for loc on date's calendar day.
// The instants are placed in date's location. If any of them has no solution
// after adjustments the result is an error wrapping prayer.ErrUnsolvable.
func Solve(loc prayer.Location, date time.Time, attr prayer.Attribute, opts ...SolveOption) (prayer.PrayerTime, error) {
	if err := attr.Validate(); err != nil {
		return prayer.PrayerTime{}, err
	}
	ctx := newSolveContext(loc, date, attr, opts)
	return assemble(ctx.dayTimes(), date)
}

func newSolveContext(loc prayer.Location, date time.Time, attr prayer.Attribute, opts []SolveOption) solveContext {
	year, month, day := date.Date()
	ctx := solveContext{
		lat:    loc.Latitude,
		lng:    loc.Longitude,
		jd:     astro.JulianDay(year, month, day) - loc.Longitude/(15*24),
		tz:     zoneHours(date),
		params: attr.Params(),
		attr:   attr,
	}
	for _, opt := range opts {
		opt(&ctx)
	}
	return ctx
}

func (c solveContext) dayTimes() Times {
	times := seedTimes
	for i := 0; i < numIterations; i++ {
		times = c.computeTimes(times)
	}
	return c.adjustTimes(times)
}

// computeTimes re-solves every slot using the previous estimates as day fractions.
func (c solveContext) computeTimes(prev Times) Times {
	var t Times
	for i, h := range prev {
		t[i] = h / 24
	}

	p := c.params
	var out Times
	out[Fajr] = astro.TimeForAngle(180-p.FajrAngle, t[Fajr], c.jd, c.lat)
	out[Sunrise] = astro.TimeForAngle(180-sunAltitude, t[Sunrise], c.jd, c.lat)
	out[Dhuhr] = astro.MidDay(c.jd, t[Dhuhr])
	out[Asr] = astro.TimeForAsr(c.attr.Asr.ShadowFactor(), t[Asr], c.jd, c.lat)
	out[Sunset] = astro.TimeForAngle(sunAltitude, t[Sunset], c.jd, c.lat)
	out[Maghrib] = astro.TimeForAngle(p.Maghrib, t[Maghrib], c.jd, c.lat)
	out[Isha] = astro.TimeForAngle(p.Isha, t[Isha], c.jd, c.lat)
	return out
}

func (c solveContext) adjustTimes(times Times) Times {
	shift := c.tz - c.lng/15
	for i := range times {
		times[i] += shift
	}

	p := c.params
	if p.MaghribIsMinutes {
		times[Maghrib] = times[Sunset] + p.Maghrib/60
	}
	if p.IshaIsMinutes {
		times[Isha] = times[Maghrib] + p.Isha/60
	}
	if c.attr.HigherLatitude != prayer.NoAdjustment {
		times = AdjustHighLatitude(times, c.attr)
	}
	return times
}

// assemble rounds each slot to a minute, drops Sunset and places the
// instants on date's calendar day.
func assemble(times Times, date time.Time) (prayer.PrayerTime, error) {
	var out [6]time.Time
	n := 0
	for slot, h := range times {
		if slot == Sunset {
			continue
		}
		hour, minute, ok := clockTime(h)
		if !ok {
			return prayer.PrayerTime{}, fmt.Errorf("%w: no %s on %s", prayer.ErrUnsolvable, slotNames[slot], date.Format("2006-01-02"))
		}
		out[n] = time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
		n++
	}
	return prayer.FromArray(out), nil
}

// clockTime rounds fractional hours to the nearest minute on a 24h clock.
// ok is false for a slot with no solution.
func clockTime(h float64) (hour, minute int, ok bool) {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0, 0, false
	}
	fixed := astro.FixHour(h + 0.5/60)
	hour = int(math.Floor(fixed))
	minute = int(math.Floor((fixed - float64(hour)) * 60))
	return hour, minute, true
}

// zoneHours returns the UTC offset, in hours, of date's location at local noon.
func zoneHours(date time.Time) float64 {
	noon := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, date.Location())
	_, offset := noon.Zone()
	return float64(offset) / 3600
}
