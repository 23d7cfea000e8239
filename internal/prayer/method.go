package prayer

import (
	"fmt"
	"strings"
)

// CalculationMethod selects the sun angles used for Fajr, Maghrib and Isha.
type CalculationMethod int

const (
	Makkah  CalculationMethod = iota // Umm al-Qura, Makkah
	MWL                              // Muslim World League
	ISNA                             // Islamic Society of North America
	Karachi                          // University of Islamic Sciences, Karachi
	Egypt                            // Egyptian General Authority of Survey
	Jafari                           // Ithna Ashari
	Tehran                           // Institute of Geophysics, University of Tehran
	Custom                           // user supplied Fajr and Isha angles
)

// AllCalculationMethods lists every method in declaration order.
var AllCalculationMethods = []CalculationMethod{Makkah, MWL, ISNA, Karachi, Egypt, Jafari, Tehran, Custom}

var methodNames = map[CalculationMethod]string{
	Makkah:  "makkah",
	MWL:     "mwl",
	ISNA:    "isna",
	Karachi: "karachi",
	Egypt:   "egypt",
	Jafari:  "jafari",
	Tehran:  "tehran",
	Custom:  "custom",
}

var methodDescriptions = map[CalculationMethod]string{
	Makkah:  "Umm Al-Qura University, Makkah",
	MWL:     "Muslim World League (MWL)",
	ISNA:    "Islamic Society of North America (ISNA)",
	Karachi: "University of Islamic Sciences, Karachi",
	Egypt:   "Egyptian General Authority of Survey",
	Jafari:  "Shia Ithna-Ashari (Jafari)",
	Tehran:  "Institute of Geophysics, University of Tehran",
	Custom:  "Custom Fajr and Isha angles",
}

func (m CalculationMethod) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}
	return fmt.Sprintf("CalculationMethod(%d)", int(m))
}

// Description returns the full name of the method.
func (m CalculationMethod) Description() string {
	return methodDescriptions[m]
}

// Valid reports whether m is a known method.
func (m CalculationMethod) Valid() bool {
	_, ok := methodNames[m]
	return ok
}

// ParseCalculationMethod parses a method name such as "mwl" (case-insensitive).
func ParseCalculationMethod(s string) (CalculationMethod, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range methodNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown calculation method %q", ErrInvalidConfiguration, s)
}

// MethodParams is the parameter tuple of a calculation method.
//
// Maghrib and Isha are angles unless the matching IsMinutes flag is set, in
// which case they are minutes after sunset (Maghrib) or after Maghrib (Isha).
type MethodParams struct {
	FajrAngle        float64
	MaghribIsMinutes bool
	Maghrib          float64
	IshaIsMinutes    bool
	Isha             float64
}

var methodParams = map[CalculationMethod]MethodParams{
	Makkah:  {FajrAngle: 18.5, MaghribIsMinutes: true, Maghrib: 0, IshaIsMinutes: true, Isha: 90},
	MWL:     {FajrAngle: 18, MaghribIsMinutes: true, Maghrib: 0, Isha: 17},
	ISNA:    {FajrAngle: 15, MaghribIsMinutes: true, Maghrib: 0, Isha: 15},
	Karachi: {FajrAngle: 18, MaghribIsMinutes: true, Maghrib: 0, Isha: 18},
	Egypt:   {FajrAngle: 19.5, MaghribIsMinutes: true, Maghrib: 0, Isha: 17.5},
	Jafari:  {FajrAngle: 16, Maghrib: 4, Isha: 14},
	Tehran:  {FajrAngle: 17.7, Maghrib: 4.5, Isha: 14},
}

// Params returns the parameter tuple for m. The Custom method takes its
// angles from custom; Maghrib is then zero minutes after sunset.
func Params(m CalculationMethod, custom CustomMethod) MethodParams {
	if m == Custom {
		return MethodParams{
			FajrAngle:        custom.FajrAngle,
			MaghribIsMinutes: true,
			Maghrib:          0,
			Isha:             custom.IshaAngle,
		}
	}
	return methodParams[m]
}

// CustomMethod holds the user-supplied angles of the Custom method.
type CustomMethod struct {
	FajrAngle float64 `json:"fajr_angle" yaml:"fajr_angle"`
	IshaAngle float64 `json:"isha_angle" yaml:"isha_angle"`
}

// DefaultCustomMethod returns 18° Fajr and 17° Isha.
func DefaultCustomMethod() CustomMethod {
	return CustomMethod{FajrAngle: 18, IshaAngle: 17}
}

// AsrMethod selects the shadow-length factor for Asr.
type AsrMethod int

const (
	Shafii AsrMethod = iota // shadow factor 1
	Hanafi                  // shadow factor 2
)

// ShadowFactor returns the multiple of an object's length its shadow must
// reach (on top of the noon shadow) for Asr to begin.
func (a AsrMethod) ShadowFactor() float64 {
	return float64(1 + a)
}

func (a AsrMethod) String() string {
	switch a {
	case Shafii:
		return "shafii"
	case Hanafi:
		return "hanafi"
	default:
		return fmt.Sprintf("AsrMethod(%d)", int(a))
	}
}

// ParseAsrMethod accepts "shafii"/"standard"/"0" and "hanafi"/"1".
func ParseAsrMethod(s string) (AsrMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shafii", "shafi", "standard", "0":
		return Shafii, nil
	case "hanafi", "1":
		return Hanafi, nil
	}
	return 0, fmt.Errorf("%w: unknown asr method %q", ErrInvalidConfiguration, s)
}

// HigherLatitudeMethod controls how Fajr, Maghrib and Isha are bounded when
// the sun-angle solve fails or gives implausible times near the poles.
type HigherLatitudeMethod int

const (
	AngleBased HigherLatitudeMethod = iota // portion = angle/60 of the night
	MidNight                               // portion = half the night
	OneSeventh                             // portion = a seventh of the night
	NoAdjustment
)

var highLatNames = map[HigherLatitudeMethod]string{
	AngleBased:   "angle-based",
	MidNight:     "mid-night",
	OneSeventh:   "one-seventh",
	NoAdjustment: "none",
}

func (h HigherLatitudeMethod) String() string {
	if s, ok := highLatNames[h]; ok {
		return s
	}
	return fmt.Sprintf("HigherLatitudeMethod(%d)", int(h))
}

// ParseHigherLatitudeMethod parses names such as "angle-based" or "none".
func ParseHigherLatitudeMethod(s string) (HigherLatitudeMethod, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for h, name := range highLatNames {
		if name == s {
			return h, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown higher latitude method %q", ErrInvalidConfiguration, s)
}

// NightPortion returns the fraction of the night allotted to an event with
// the given angle.
func (h HigherLatitudeMethod) NightPortion(angle float64) float64 {
	switch h {
	case AngleBased:
		return angle / 60
	case MidNight:
		return 0.5
	default:
		return 0.14286
	}
}
