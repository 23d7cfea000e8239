package prayer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// maghribAt returns Maghrib at 18:40 and a "now" 2h15m earlier.
func maghribAt() (Prayer, time.Time) {
	pTime := time.Date(2026, 2, 28, 18, 40, 0, 0, time.UTC)
	now := time.Date(2026, 2, 28, 16, 25, 0, 0, time.UTC)
	return Prayer{Name: "Maghrib", Time: pTime}, now
}

func TestFormat_AllBuiltinModes(t *testing.T) {
	p, now := maghribAt()

	tests := []struct {
		mode string
		want string
	}{
		{FormatTimeRemaining, "2h 15m"},
		{FormatNextPrayerTime, "18:40"},
		{FormatNameAndTime, "Maghrib 18:40"},
		{FormatNameAndRemaining, "Maghrib 2h 15m"},
		{FormatShortNameAndTime, "M 18:40"},
		{FormatShortNameAndRemain, "M 2h 15m"},
		{FormatFull, "Maghrib 18:40 (2h 15m)"},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			f, err := ParseFormat(tt.mode)
			require.NoError(t, err)
			got, err := f.Render(p, now, "15:04")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, FormatOutput(p, now, tt.mode, "15:04"))
		})
	}
}

func TestFormat_12HourLayout(t *testing.T) {
	p, now := maghribAt()
	assert.Equal(t, "Maghrib 6:40 PM", FormatOutput(p, now, FormatNameAndTime, "3:04 PM"))
}

func TestFormat_CustomTemplate(t *testing.T) {
	p, now := maghribAt()

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"name and remaining", "{{.Name}} in {{.Remaining}}", "Maghrib in 2h 15m"},
		{"short name and time", "{{.ShortName}} @ {{.Time}}", "M @ 18:40"},
		{"hours and minutes fields", "{{.Hours}}h {{.Minutes}}m until {{.Name}}", "2h 15m until Maghrib"},
		{
			"all fields",
			"{{.Name}}|{{.ShortName}}|{{.Time}}|{{.Remaining}}|{{.Hours}}|{{.Minutes}}",
			"Maghrib|M|18:40|2h 15m|2|15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFormat(tt.tmpl)
			require.NoError(t, err)
			got, err := f.Render(p, now, "15:04")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat_Invalid(t *testing.T) {
	for _, mode := range []string{"", "nonexistent-format", "{{.Invalid"} {
		_, err := ParseFormat(mode)
		assert.ErrorIs(t, err, ErrInvalidConfiguration, mode)
	}
}

func TestFormat_TemplateBadField(t *testing.T) {
	p, now := maghribAt()

	// Parsing succeeds; the missing field fails at execution.
	f, err := ParseFormat("{{.NonExistent}}")
	require.NoError(t, err)
	_, err = f.Render(p, now, "15:04")
	assert.Error(t, err)

	assert.Contains(t, FormatOutput(p, now, "{{.NonExistent}}", "15:04"), "template-err:")
}

func TestFormatOutput_Fallbacks(t *testing.T) {
	p, now := maghribAt()

	assert.Equal(t, "Maghrib 18:40", FormatOutput(p, now, "nonexistent-format", "15:04"))
	assert.Contains(t, FormatOutput(p, now, "{{.Invalid", "15:04"), "template-err:")
}

func TestFormat_Remaining(t *testing.T) {
	f, err := ParseFormat(FormatTimeRemaining)
	require.NoError(t, err)

	pTime := time.Date(2026, 2, 28, 13, 30, 0, 0, time.UTC)
	got, err := f.Render(Prayer{Name: "Dhuhr", Time: pTime}, pTime.Add(-25*time.Minute), "15:04")
	require.NoError(t, err)
	assert.Equal(t, "25m", got)

	got, err = f.Render(Prayer{Name: "Asr", Time: pTime}, pTime, "15:04")
	require.NoError(t, err)
	assert.Equal(t, "0m", got)
}
