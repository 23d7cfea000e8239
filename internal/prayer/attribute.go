package prayer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Offset indexes, in the fixed prayer order shared by Offsets and PrayerTime.At.
const (
	IndexFajr = iota
	IndexSunrise
	IndexDhuhr
	IndexAsr
	IndexMaghrib
	IndexIsha
)

// Offsets are per-prayer minute adjustments in the order
// Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha. Values may be negative.
type Offsets [6]int

// OffsetsFromSlice converts a slice to Offsets; it must hold exactly six values.
func OffsetsFromSlice(v []int) (Offsets, error) {
	var o Offsets
	if len(v) != len(o) {
		return o, fmt.Errorf("%w: offsets need %d values, got %d", ErrInvalidConfiguration, len(o), len(v))
	}
	copy(o[:], v)
	return o, nil
}

// ParseOffsets parses "0,0,0,0,10,0".
func ParseOffsets(s string) (Offsets, error) {
	parts := strings.Split(s, ",")
	vals := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Offsets{}, fmt.Errorf("%w: offset %q is not an integer", ErrInvalidConfiguration, p)
		}
		vals = append(vals, n)
	}
	return OffsetsFromSlice(vals)
}

func (o Offsets) String() string {
	parts := make([]string, len(o))
	for i, v := range o {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// Attribute is the immutable configuration of a prayer time query.
// Build it with NewAttribute so that bad input fails before any solve.
type Attribute struct {
	Method         CalculationMethod
	Custom         CustomMethod
	Asr            AsrMethod
	HigherLatitude HigherLatitudeMethod
	Offsets        Offsets
}

// AttributeOption customises NewAttribute.
type AttributeOption func(*Attribute)

// WithMethod sets the calculation method.
func WithMethod(m CalculationMethod) AttributeOption {
	return func(a *Attribute) { a.Method = m }
}

// WithCustomAngles selects the Custom method with the given angles.
func WithCustomAngles(fajr, isha float64) AttributeOption {
	return func(a *Attribute) {
		a.Method = Custom
		a.Custom = CustomMethod{FajrAngle: fajr, IshaAngle: isha}
	}
}

// WithAsrMethod sets the Asr shadow convention.
func WithAsrMethod(m AsrMethod) AttributeOption {
	return func(a *Attribute) { a.Asr = m }
}

// WithHigherLatitude sets the higher latitude rule.
func WithHigherLatitude(h HigherLatitudeMethod) AttributeOption {
	return func(a *Attribute) { a.HigherLatitude = h }
}

// WithOffsets sets the per-prayer minute offsets.
func WithOffsets(o Offsets) AttributeOption {
	return func(a *Attribute) { a.Offsets = o }
}

// NewAttribute returns a validated Attribute. Defaults are Makkah, Shafii,
// angle-based higher latitude adjustment, 18°/17° custom angles and zero offsets.
func NewAttribute(opts ...AttributeOption) (Attribute, error) {
	a := Attribute{
		Method:         Makkah,
		Custom:         DefaultCustomMethod(),
		Asr:            Shafii,
		HigherLatitude: AngleBased,
	}
	for _, opt := range opts {
		opt(&a)
	}
	if err := a.Validate(); err != nil {
		return Attribute{}, err
	}
	return a, nil
}

// MustAttribute is NewAttribute for known-good options; it panics on error.
func MustAttribute(opts ...AttributeOption) Attribute {
	a, err := NewAttribute(opts...)
	if err != nil {
		panic(err)
	}
	return a
}

// Validate checks enum membership and the custom angles.
func (a Attribute) Validate() error {
	if !a.Method.Valid() {
		return fmt.Errorf("%w: unknown calculation method %d", ErrInvalidConfiguration, int(a.Method))
	}
	if a.Asr != Shafii && a.Asr != Hanafi {
		return fmt.Errorf("%w: unknown asr method %d", ErrInvalidConfiguration, int(a.Asr))
	}
	if _, ok := highLatNames[a.HigherLatitude]; !ok {
		return fmt.Errorf("%w: unknown higher latitude method %d", ErrInvalidConfiguration, int(a.HigherLatitude))
	}
	if err := validAngle("fajr", a.Custom.FajrAngle); err != nil {
		return err
	}
	return validAngle("isha", a.Custom.IshaAngle)
}

// Params returns the parameter tuple for the configured method.
func (a Attribute) Params() MethodParams {
	return Params(a.Method, a.Custom)
}

func validAngle(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s angle must be finite", ErrInvalidConfiguration, name)
	}
	if v <= 0 || v >= 90 {
		return fmt.Errorf("%w: %s angle %v must be between 0 and 90", ErrInvalidConfiguration, name, v)
	}
	return nil
}
