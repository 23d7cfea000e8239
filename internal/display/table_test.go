package display

import (
	"strings"
	"testing"
	"time"

	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
)

func TestNewTable(t *testing.T) {
	tbl := NewTable([]string{"Name", "Value"})
	if tbl == nil {
		t.Fatal("NewTable returned nil")
	}
	if tbl.highlightRow != -1 {
		t.Errorf("highlightRow = %d, want -1", tbl.highlightRow)
	}
}

func TestTable_EmptyHeaders(t *testing.T) {
	tbl := NewTable([]string{})
	if got := tbl.Render(); got != "" {
		t.Errorf("Render() with empty headers = %q, want empty", got)
	}
}

func TestTable_BasicRender(t *testing.T) {
	SetEnabled(false) // disable colors for predictable output

	tbl := NewTable([]string{"Date", "Fajr", "Isha"})
	tbl.AddRow([]string{"Mon 01 Mar", "05:06", "19:28"})
	tbl.AddRow([]string{"Tue 02 Mar", "05:05", "19:29"})

	got := tbl.Render()
	want := "" +
		"  Date        Fajr   Isha \n" +
		"  ──────────  ─────  ─────\n" +
		"  Mon 01 Mar  05:06  19:28\n" +
		"  Tue 02 Mar  05:05  19:29\n"
	if got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
	if tbl.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tbl.Len())
	}
}

func TestTable_HighlightRow(t *testing.T) {
	SetEnabled(true)
	defer SetEnabled(false)

	tbl := NewTable([]string{"Date", "Time"})
	tbl.AddRow([]string{"Mon", "05:00"})
	tbl.AddRow([]string{"Tue", "05:01"})
	tbl.SetHighlightRow(0)

	lines := strings.Split(tbl.Render(), "\n")
	// Line 0 is header, line 1 is separator, line 2 is first data row (highlighted).
	if len(lines) < 4 {
		t.Fatalf("expected at least 4 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[2], "\033[36m") {
		t.Error("highlighted row should be accented")
	}
	if strings.Contains(lines[3], "\033[") {
		t.Error("other rows should be plain")
	}
}

func TestFormatRow(t *testing.T) {
	got := formatRow([]string{"abc", "de"}, []int{5, 4})
	want := "abc    de  "
	if got != want {
		t.Errorf("formatRow = %q, want %q", got, want)
	}
}

func TestFormatRow_MissingCells(t *testing.T) {
	// "a  " (3) + "  " (sep) + "     " (5)
	got := formatRow([]string{"a"}, []int{3, 5})
	want := "a         "
	if got != want {
		t.Errorf("formatRow = %q, want %q", got, want)
	}
}

func TestFormatRow_IgnoresEscapes(t *testing.T) {
	got := formatRow([]string{"\033[31m+3\033[0m", "x"}, []int{4, 1})
	want := "\033[31m+3\033[0m    x"
	if got != want {
		t.Errorf("formatRow = %q, want %q", got, want)
	}
}

func TestVisibleLen(t *testing.T) {
	tests := map[string]int{
		"":                          0,
		"05:06":                     5,
		"\033[1m\033[36mAsr\033[0m": 3,
		"Δ min":                     5,
	}
	for in, want := range tests {
		if got := visibleLen(in); got != want {
			t.Errorf("visibleLen(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestTimeLayout(t *testing.T) {
	if got := TimeLayout("12h"); got != "3:04 PM" {
		t.Errorf("TimeLayout(12h) = %q", got)
	}
	if got := TimeLayout("24h"); got != "15:04" {
		t.Errorf("TimeLayout(24h) = %q", got)
	}
	if got := TimeLayout(""); got != "15:04" {
		t.Errorf("TimeLayout(\"\") = %q", got)
	}
}

// ---------------------------------------------------------------------------
// Domain tables
// ---------------------------------------------------------------------------

func sampleDay(day int, shift time.Duration) prayer.PrayerTime {
	at := func(h, m int) time.Time {
		return time.Date(2026, 3, day, h, m, 0, 0, time.UTC).Add(shift)
	}
	return prayer.FromArray([6]time.Time{
		at(5, 6), at(6, 30), at(12, 15), at(15, 20), at(18, 1), at(19, 28),
	})
}

func TestDayTable(t *testing.T) {
	SetEnabled(false)

	pt := sampleDay(1, 0)
	prayers := pt.Prayers()
	now := time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)
	next := prayer.NextPrayer(prayers, now)

	tbl := DayTable(prayers, next, now, "15:04")
	if tbl.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", tbl.Len())
	}
	if tbl.highlightRow != prayer.IndexAsr {
		t.Errorf("highlightRow = %d, want Asr", tbl.highlightRow)
	}

	got := tbl.Render()
	if !strings.Contains(got, "Asr      15:20  1h 20m") {
		t.Errorf("missing remaining time for Asr in:\n%s", got)
	}
	for _, line := range strings.Split(got, "\n") {
		if strings.Contains(line, "Dhuhr") && strings.TrimRight(line, " ") != "  Dhuhr    12:15" {
			t.Errorf("past prayers should have no remaining time, got %q", line)
		}
	}
}

func TestScheduleTable(t *testing.T) {
	SetEnabled(false)

	dates := []time.Time{
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}
	times := []prayer.PrayerTime{sampleDay(1, 0), sampleDay(2, -time.Minute)}

	tbl, err := ScheduleTable(dates, times, []string{"Fajr", "Isha"}, dates[1], "15:04")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tbl.highlightRow != 1 {
		t.Errorf("highlightRow = %d, want 1", tbl.highlightRow)
	}

	got := tbl.Render()
	if !strings.Contains(got, "Sun 01 Mar  05:06  19:28") || !strings.Contains(got, "Mon 02 Mar  05:05  19:27") {
		t.Errorf("unexpected rows:\n%s", got)
	}
	if strings.Contains(got, "Dhuhr") {
		t.Errorf("unselected column rendered:\n%s", got)
	}
}

func TestScheduleTable_UnknownPrayer(t *testing.T) {
	dates := []time.Time{time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	if _, err := ScheduleTable(dates, []prayer.PrayerTime{sampleDay(1, 0)}, []string{"Tahajjud"}, dates[0], "15:04"); err == nil {
		t.Fatal("expected error for unknown prayer name")
	}
}

func TestCompareTable(t *testing.T) {
	SetEnabled(false)

	local := sampleDay(1, 0)
	ref := sampleDay(1, -3*time.Minute)

	got := CompareTable(local, ref, "15:04", 2).Render()
	if !strings.Contains(got, "Fajr     05:06  05:03  +3") {
		t.Errorf("unexpected compare output:\n%s", got)
	}
}
