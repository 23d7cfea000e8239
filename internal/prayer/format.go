package prayer

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Display modes for a single upcoming prayer (status bars, `next`).
const (
	FormatTimeRemaining      = "time-remaining"
	FormatNextPrayerTime     = "next-prayer-time"
	FormatNameAndTime        = "name-and-time"
	FormatNameAndRemaining   = "name-and-remaining"
	FormatShortNameAndTime   = "short-name-and-time"
	FormatShortNameAndRemain = "short-name-and-remaining"
	FormatFull               = "full"
)

var formatModes = []string{
	FormatTimeRemaining, FormatNextPrayerTime, FormatNameAndTime, FormatNameAndRemaining,
	FormatShortNameAndTime, FormatShortNameAndRemain, FormatFull,
}

// FormatData is the data passed to custom Go templates.
type FormatData struct {
	Name      string // "Asr"
	ShortName string // "A"
	Time      string // "15:02" or "3:02 PM"
	Remaining string // "2h 15m"
	Hours     int
	Minutes   int
}

// Format renders one upcoming prayer. Build it with ParseFormat.
type Format struct {
	mode string
	tmpl *template.Template
}

// ParseFormat validates a display mode. A mode containing "{{" is a Go
// template over FormatData, e.g. "{{.Name}} in {{.Remaining}}".
func ParseFormat(mode string) (Format, error) {
	if strings.Contains(mode, "{{") {
		t, err := template.New("format").Option("missingkey=error").Parse(mode)
		if err != nil {
			return Format{}, fmt.Errorf("%w: format template: %v", ErrInvalidConfiguration, err)
		}
		return Format{mode: mode, tmpl: t}, nil
	}
	for _, m := range formatModes {
		if m == mode {
			return Format{mode: mode}, nil
		}
	}
	return Format{}, fmt.Errorf("%w: unknown format %q; valid formats: %s or a Go template",
		ErrInvalidConfiguration, mode, strings.Join(formatModes, ", "))
}

// Render formats p as seen at now. layout is a Go time layout such as
// "15:04" or "3:04 PM".
func (f Format) Render(p Prayer, now time.Time, layout string) (string, error) {
	d := TimeRemaining(p, now)
	data := FormatData{
		Name:      p.Name,
		ShortName: ShortNames[p.Name],
		Time:      p.Time.Format(layout),
		Remaining: FormatRemaining(d),
		Hours:     int(d.Hours()),
		Minutes:   int(d.Minutes()) % 60,
	}

	if f.tmpl != nil {
		var sb strings.Builder
		if err := f.tmpl.Execute(&sb, data); err != nil {
			return "", fmt.Errorf("format template: %w", err)
		}
		return sb.String(), nil
	}

	switch f.mode {
	case FormatTimeRemaining:
		return data.Remaining, nil
	case FormatNextPrayerTime:
		return data.Time, nil
	case FormatNameAndRemaining:
		return data.Name + " " + data.Remaining, nil
	case FormatShortNameAndTime:
		return data.ShortName + " " + data.Time, nil
	case FormatShortNameAndRemain:
		return data.ShortName + " " + data.Remaining, nil
	case FormatFull:
		return fmt.Sprintf("%s %s (%s)", data.Name, data.Time, data.Remaining), nil
	default:
		return data.Name + " " + data.Time, nil
	}
}

// FormatOutput renders p for mode. Unknown modes fall back to name-and-time;
// template failures are rendered as "template-err: ..." so a status bar
// shows them instead of going blank.
func FormatOutput(p Prayer, now time.Time, mode string, layout string) string {
	f, err := ParseFormat(mode)
	switch {
	case err != nil && strings.Contains(mode, "{{"):
		return fmt.Sprintf("template-err: %v", err)
	case err != nil:
		f = Format{mode: FormatNameAndTime}
	}
	out, err := f.Render(p, now, layout)
	if err != nil {
		return fmt.Sprintf("template-err: %v", err)
	}
	return out
}
