package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
)

// TimeLayout maps the configured time_format ("12h" or "24h") to a Go layout.
func TimeLayout(format string) string {
	if format == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}

// Table renders an aligned text table with optional color support.
type Table struct {
	headers []string
	rows    [][]string
	// highlightRow is the 0-based row index to highlight. -1 = none.
	highlightRow int
}

// NewTable creates a new table with the given column headers.
func NewTable(headers []string) *Table {
	return &Table{
		headers:      headers,
		highlightRow: -1,
	}
}

// AddRow appends a row of values. The number of values should match the number of headers.
func (t *Table) AddRow(values []string) {
	t.rows = append(t.rows, values)
}

// SetHighlightRow sets which row index (0-based) should be highlighted.
func (t *Table) SetHighlightRow(idx int) {
	t.highlightRow = idx
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Render produces the formatted table string with leading indent.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visibleLen(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && visibleLen(cell) > widths[i] {
				widths[i] = visibleLen(cell)
			}
		}
	}

	var sb strings.Builder

	sb.WriteString("  " + Bold(formatRow(t.headers, widths)) + "\n")

	sepParts := make([]string, len(widths))
	for i, w := range widths {
		sepParts[i] = strings.Repeat("─", w)
	}
	sb.WriteString(Dim("  "+strings.Join(sepParts, "  ")) + "\n")

	for i, row := range t.rows {
		line := formatRow(row, widths)
		if i == t.highlightRow {
			sb.WriteString("  " + Accent(line) + "\n")
		} else {
			sb.WriteString("  " + line + "\n")
		}
	}

	return sb.String()
}

// formatRow pads each cell to its column width. Padding counts visible
// characters so colored cells still line up.
func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = cell + strings.Repeat(" ", max(0, w-visibleLen(cell)))
	}
	return strings.Join(parts, "  ")
}

// visibleLen counts runes outside ANSI escape sequences.
func visibleLen(s string) int {
	n := 0
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\033':
			inEscape = true
		default:
			n++
		}
	}
	return n
}

// DayTable lists one day's prayers, highlighting next when it is non-nil.
func DayTable(prayers []prayer.Prayer, next *prayer.Prayer, now time.Time, layout string) *Table {
	t := NewTable([]string{"Prayer", "Time", "In"})
	for i, p := range prayers {
		in := ""
		if p.Time.After(now) {
			in = prayer.FormatRemaining(prayer.TimeRemaining(p, now))
		}
		t.AddRow([]string{p.Name, p.Time.Format(layout), in})
		if next != nil && p.Name == next.Name && p.Time.Equal(next.Time) {
			t.SetHighlightRow(i)
		}
	}
	return t
}

// ScheduleTable lists several days, one row per date, highlighting today.
// names picks the prayer columns; empty means all six.
func ScheduleTable(dates []time.Time, times []prayer.PrayerTime, names []string, today time.Time, layout string) (*Table, error) {
	if len(names) == 0 {
		names = prayer.Names
	}
	t := NewTable(append([]string{"Date"}, names...))
	for i, pt := range times {
		selected, err := prayer.Select(pt.Prayers(), names)
		if err != nil {
			return nil, err
		}
		row := []string{dates[i].Format("Mon 02 Jan")}
		for _, p := range selected {
			row = append(row, p.Time.Format(layout))
		}
		t.AddRow(row)
		if sameDay(dates[i], today) {
			t.SetHighlightRow(i)
		}
	}
	return t, nil
}

// CompareTable shows local and reference times side by side with the
// difference in minutes.
func CompareTable(local, reference prayer.PrayerTime, layout string, tolerance int) *Table {
	t := NewTable([]string{"Prayer", "Local", "API", "Δ min"})
	l, r := local.Array(), reference.Array()
	for i, name := range prayer.Names {
		diff := int(l[i].Sub(r[i]).Round(time.Minute) / time.Minute)
		t.AddRow([]string{name, l[i].Format(layout), r[i].Format(layout), Delta(diff, tolerance)})
	}
	return t
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Header renders a bold title line with an optional dim subtitle.
func Header(title, subtitle string) string {
	if subtitle == "" {
		return fmt.Sprintf("  %s\n", Bold(title))
	}
	return fmt.Sprintf("  %s  %s\n", Bold(title), Dim(subtitle))
}
