package api

import (
	"testing"
	"time"
)

func TestTimings_PrayerTime(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	date := time.Date(2026, 2, 28, 0, 0, 0, 0, london)

	pt, err := sampleResponse().Data.Timings.PrayerTime(date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"05:17", "06:48", "12:13", "15:02", "17:39", "19:10"}
	for i, p := range pt.Prayers() {
		if got := p.Time.Format("15:04"); got != want[i] {
			t.Errorf("%s = %s, want %s", p.Name, got, want[i])
		}
		if p.Time.Location() != london {
			t.Errorf("%s location = %v, want Europe/London", p.Name, p.Time.Location())
		}
	}
}

func TestTimings_PrayerTime_Invalid(t *testing.T) {
	tm := sampleResponse().Data.Timings
	tm.Dhuhr = "noon"
	if _, err := tm.PrayerTime(time.Now()); err == nil {
		t.Fatal("expected error for malformed timing")
	}
}

func TestMeta_Location(t *testing.T) {
	loc, err := Meta{}.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("empty timezone = %v, %v; want UTC", loc, err)
	}

	if _, err := (Meta{Timezone: "Mars/Olympus"}).Location(); err == nil {
		t.Error("expected error for unknown zone")
	}

	loc, err = Meta{Timezone: "Asia/Riyadh"}.Location()
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	if loc.String() != "Asia/Riyadh" {
		t.Errorf("Location = %s", loc)
	}
}
