// Package astro holds the solar-position math behind the prayer time solver.
//
// All angles are in degrees and all times are fractional hours. Functions are
// pure: callers pass the Julian date and latitude explicitly, so concurrent
// solves never share state. A solve that has no answer (the sun never reaches
// the requested altitude) yields NaN, which callers must check with math.IsNaN.
package astro

import (
	"math"
	"time"
)

// J2000 is the Julian date of 2000-01-01 12:00 TT.
const J2000 = 2451545.0

// JulianDay converts a proleptic Gregorian calendar date to a Julian Day Number.
// Midnight falls on the .5 boundary, so JulianDay(2000, 1, 1) == 2451544.5.
func JulianDay(year int, month time.Month, day int) float64 {
	y := float64(year)
	m := float64(month)
	if month <= 2 {
		y--
		m += 12
	}
	a := math.Floor(y / 100)
	b := 2 - a + math.Floor(a/4)
	return math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + float64(day) + b - 1524.5
}

// SunPosition returns the sun's declination (degrees) and the equation of
// time (hours) for the given Julian date.
func SunPosition(jd float64) (declination, equationOfTime float64) {
	d := jd - J2000
	g := FixAngle(357.529 + 0.98560028*d)
	q := FixAngle(280.459 + 0.98564736*d)
	l := FixAngle(q + 1.915*dsin(g) + 0.020*dsin(2*g))

	e := 23.439 - 0.00000036*d
	declination = darcsin(dsin(e) * dsin(l))
	ra := FixHour(darctan2(dcos(e)*dsin(l), dcos(l)) / 15)
	equationOfTime = q/15 - ra
	return declination, equationOfTime
}

// MidDay returns solar noon in hours for the day fraction t past jd.
func MidDay(jd, t float64) float64 {
	_, eqt := SunPosition(jd + t)
	return FixHour(12 - eqt)
}

// TimeForAngle returns the hour at which the sun reaches the given angle below
// the horizon. Angles above 90 select the morning side of noon (callers pass
// 180-angle for Fajr and sunrise); anything else selects the evening side.
// The result is NaN when the sun never reaches that angle on this day.
func TimeForAngle(angle, t, jd, lat float64) float64 {
	decl, _ := SunPosition(jd + t)
	z := MidDay(jd, t)
	num := -dsin(angle) - dsin(decl)*dsin(lat)
	den := dcos(decl) * dcos(lat)
	v := darccos(num/den) / 15
	if angle > 90 {
		return z - v
	}
	return z + v
}

// TimeForAsr returns the hour at which an object's shadow reaches
// shadowFactor times its length plus its noon shadow.
func TimeForAsr(shadowFactor, t, jd, lat float64) float64 {
	decl, _ := SunPosition(jd + t)
	g := -darccot(shadowFactor + dtan(math.Abs(lat-decl)))
	return TimeForAngle(g, t, jd, lat)
}

// FixAngle wraps a into [0, 360).
func FixAngle(a float64) float64 {
	return wrap(a, 360)
}

// FixHour wraps a into [0, 24).
func FixHour(a float64) float64 {
	return wrap(a, 24)
}

func wrap(a, n float64) float64 {
	a -= n * math.Floor(a/n)
	if a < 0 {
		a += n
	}
	return a
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }

func dsin(d float64) float64 { return math.Sin(rad(d)) }
func dcos(d float64) float64 { return math.Cos(rad(d)) }
func dtan(d float64) float64 { return math.Tan(rad(d)) }

// darccos returns NaN for |x| > 1; math.Acos already does, and nothing here clamps.
func darcsin(x float64) float64     { return deg(math.Asin(x)) }
func darccos(x float64) float64     { return deg(math.Acos(x)) }
func darctan2(y, x float64) float64 { return deg(math.Atan2(y, x)) }
func darccot(x float64) float64     { return deg(math.Atan2(1, x)) }
