package calc

import (
	"math"

	"github.com/smokyabdulrahman/prayer-times/internal/astro"
	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
)

// Fallback angles used for night portions when the method defines Maghrib or
// Isha in minutes rather than as an angle.
const (
	fallbackMaghribAngle = 4.0
	fallbackIshaAngle    = 18.0
)

// AdjustHighLatitude bounds Fajr, Isha and Maghrib by a portion of the night
// (sunset to next sunrise). A slot with no solution, or one further from
// sunrise/sunset than its portion allows, is replaced by the bound.
// Applying it twice gives the same result as applying it once.
func AdjustHighLatitude(times Times, attr prayer.Attribute) Times {
	p := attr.Params()
	method := attr.HigherLatitude
	night := timeDiff(times[Sunset], times[Sunrise])

	fajrDiff := method.NightPortion(p.FajrAngle) * night
	if math.IsNaN(times[Fajr]) || timeDiff(times[Fajr], times[Sunrise]) > fajrDiff {
		times[Fajr] = times[Sunrise] - fajrDiff
	}

	ishaAngle := p.Isha
	if p.IshaIsMinutes {
		ishaAngle = fallbackIshaAngle
	}
	ishaDiff := method.NightPortion(ishaAngle) * night
	if math.IsNaN(times[Isha]) || timeDiff(times[Sunset], times[Isha]) > ishaDiff {
		times[Isha] = times[Sunset] + ishaDiff
	}

	maghribAngle := p.Maghrib
	if p.MaghribIsMinutes {
		maghribAngle = fallbackMaghribAngle
	}
	maghribDiff := method.NightPortion(maghribAngle) * night
	if math.IsNaN(times[Maghrib]) || timeDiff(times[Sunset], times[Maghrib]) > maghribDiff {
		times[Maghrib] = times[Sunset] + maghribDiff
	}

	return times
}

// timeDiff returns the hours from a forward to b, wrapping past midnight.
func timeDiff(a, b float64) float64 {
	return astro.FixHour(b - a)
}
