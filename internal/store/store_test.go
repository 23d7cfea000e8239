package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
	"github.com/smokyabdulrahman/prayer-times/internal/schedule"
)

var (
	_ schedule.FixedTimeTable = (*Store)(nil)
	_ schedule.LocationSource = (*Store)(nil)
)

func intPtr(i int) *int { return &i }

var seedLocations = []prayer.Location{
	{ID: 1, CountryCode: "GB", CountryName: "United Kingdom", Name: "London", Latitude: 51.5074, Longitude: -0.1278, HasFixedSchedule: true},
	{ID: 2, CountryCode: "GB", CountryName: "United Kingdom", Name: "Londonderry", Latitude: 54.9966, Longitude: -7.3086},
	{ID: 3, CountryCode: "SA", CountryName: "Saudi Arabia", Name: "Makkah", Latitude: 21.4225, Longitude: 39.8262},
	{ID: 4, CountryCode: "GB", CountryName: "United Kingdom", Name: "Croydon", Latitude: 51.3762, Longitude: -0.0982, HasFixedSchedule: true, ParentID: intPtr(1)},
	{ID: 5, CountryCode: "EG", CountryName: "Egypt", Name: "Cairo", Latitude: 30.0444, Longitude: 31.2357},
	{ID: 6, CountryCode: "GB", CountryName: "United Kingdom", Name: "Lon_wild%", Latitude: 0, Longitude: 0},
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "prayer.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	version, err := s.Migrate(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), version)
	return s
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := openTestStore(t)
	require.NoError(t, s.ImportLocations(context.Background(), seedLocations))
	return s
}

func names(locs []prayer.Location) []string {
	out := make([]string, len(locs))
	for i, l := range locs {
		out[i] = l.Name
	}
	return out
}

// ---------------------------------------------------------------------------
// Migrations
// ---------------------------------------------------------------------------

func TestMigrate_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	version, err := s.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	v, err := s.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

// ---------------------------------------------------------------------------
// Locations
// ---------------------------------------------------------------------------

func TestLocationByID(t *testing.T) {
	s := seededStore(t)

	got, err := s.LocationByID(context.Background(), 4)
	require.NoError(t, err)
	if diff := cmp.Diff(seedLocations[3], got); diff != "" {
		t.Errorf("LocationByID mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, got.ScheduleID())

	_, err = s.LocationByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSearch(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	tests := []struct {
		prefix string
		limit  int
		want   []string
	}{
		{"Lon", 0, []string{"Lon_wild%", "London", "Londonderry"}},
		{"lon", 0, []string{"Lon_wild%", "London", "Londonderry"}},
		{"Lond", 1, []string{"London"}},
		{"Lon_", 0, []string{"Lon_wild%"}},
		{"Lon%", 0, []string{}},
		{"Zz", 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got, err := s.Search(ctx, tt.prefix, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestGeocode(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	got, err := s.Geocode(ctx, "gb", "LONDON")
	require.NoError(t, err)
	assert.Equal(t, 1, got.ID)
	assert.Equal(t, "GB", got.CountryCode)
	assert.Equal(t, "United Kingdom", got.CountryName)

	_, err = s.Geocode(ctx, "SA", "London")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReverseGeocode(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	got, err := s.ReverseGeocode(ctx, 21.4, 39.9)
	require.NoError(t, err)
	assert.Equal(t, "Makkah", got.Name)

	got, err = s.ReverseGeocode(ctx, 51.38, -0.1)
	require.NoError(t, err)
	assert.Equal(t, "Croydon", got.Name)
}

func TestReverseGeocode_Empty(t *testing.T) {
	s := openTestStore(t)
	_, err := s.ReverseGeocode(context.Background(), 0, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFixedScheduleLocations(t *testing.T) {
	s := seededStore(t)
	got, err := s.FixedScheduleLocations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Croydon", "London"}, names(got))
}

func TestImportLocations_UpdatesExisting(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	moved := seedLocations[2]
	moved.Name = "Makkah al-Mukarramah"
	moved.CountryName = ""
	require.NoError(t, s.ImportLocations(ctx, []prayer.Location{moved}))

	got, err := s.LocationByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Makkah al-Mukarramah", got.Name)
	assert.Equal(t, "Saudi Arabia", got.CountryName, "empty country name keeps the stored one")
}

func TestImportLocations_RejectsMissingCountry(t *testing.T) {
	s := openTestStore(t)
	err := s.ImportLocations(context.Background(), []prayer.Location{{ID: 1, Name: "Nowhere"}})
	assert.Error(t, err)

	got, err := s.Search(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// ---------------------------------------------------------------------------
// Fixed time-tables
// ---------------------------------------------------------------------------

var londonMarch1 = prayer.FixedTimes{
	Fajr: "05:00", Sunrise: "06:10", Dhuhr: "12:05",
	Asr: "15:20", Maghrib: "18:30", Isha: "19:45",
}

func TestLookupFixedTimes(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	n, err := s.ImportFixedTimes(ctx, []FixedRow{
		{LocationID: 1, Day: "03-01", Times: londonMarch1},
		{LocationID: 1, Day: "02-29", Times: londonMarch1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, ok, err := s.LookupFixedTimes(ctx, 1, time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, londonMarch1, got)

	_, ok, err = s.LookupFixedTimes(ctx, 1, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.LookupFixedTimes(ctx, 2, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.LookupFixedTimes(ctx, 1, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestImportFixedTimes_Replaces(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	_, err := s.ImportFixedTimes(ctx, []FixedRow{{LocationID: 1, Day: "03-01", Times: londonMarch1}})
	require.NoError(t, err)

	updated := londonMarch1
	updated.Isha = "19:50"
	_, err = s.ImportFixedTimes(ctx, []FixedRow{{LocationID: 1, Day: "03-01", Times: updated}})
	require.NoError(t, err)

	got, ok, err := s.LookupFixedTimes(ctx, 1, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "19:50", got.Isha)
}

func TestImportFixedTimes_Validation(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()

	partial := londonMarch1
	partial.Asr = ""
	_, err := s.ImportFixedTimes(ctx, []FixedRow{
		{LocationID: 1, Day: "03-02", Times: londonMarch1},
		{LocationID: 1, Day: "03-03", Times: partial},
	})
	assert.ErrorContains(t, err, "incomplete")

	_, err = s.ImportFixedTimes(ctx, []FixedRow{{LocationID: 1, Day: "13-01", Times: londonMarch1}})
	assert.ErrorContains(t, err, "MM-DD")

	// Unknown location violates the foreign key; nothing is written.
	_, err = s.ImportFixedTimes(ctx, []FixedRow{
		{LocationID: 1, Day: "03-04", Times: londonMarch1},
		{LocationID: 99, Day: "03-04", Times: londonMarch1},
	})
	assert.Error(t, err)

	for _, day := range []int{2, 3, 4} {
		_, ok, err := s.LookupFixedTimes(ctx, 1, time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.False(t, ok, "03-%02d", day)
	}
}

func TestStore_WithScheduleService(t *testing.T) {
	s := seededStore(t)
	ctx := context.Background()
	_, err := s.ImportFixedTimes(ctx, []FixedRow{{LocationID: 1, Day: "03-01", Times: londonMarch1}})
	require.NoError(t, err)

	croydon, err := s.LocationByID(ctx, 4)
	require.NoError(t, err)

	svc := schedule.New(s, schedule.WithDST(schedule.NoDST{}))
	attr := prayer.MustAttribute(prayer.WithOffsets(prayer.Offsets{0, 0, 0, 0, 10, 0}))

	pt, err := svc.GetPrayerTimes(ctx, croydon, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), attr)
	require.NoError(t, err)
	assert.Equal(t, "18:40", pt.Maghrib.Format("15:04"))
	assert.Equal(t, "05:00", pt.Fajr.Format("15:04"))

	_, err = svc.GetPrayerTimes(ctx, croydon, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), attr)
	assert.ErrorIs(t, err, prayer.ErrMissingFixedSchedule)
}

// ---------------------------------------------------------------------------
// CSV
// ---------------------------------------------------------------------------

func TestReadFixedTimesCSV(t *testing.T) {
	in := `location_id,date,fajr,sunrise,dhuhr,asr,maghrib,isha
# comment lines are skipped
1,03-01,05:00,06:10,12:05,15:20,18:30,19:45
1, 2024-03-02 ,04:58,06:08,12:05,15:21,18:32,19:47
`
	rows, err := ReadFixedTimesCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, FixedRow{LocationID: 1, Day: "03-01", Times: londonMarch1}, rows[0])
	assert.Equal(t, "03-02", rows[1].Day)
	assert.Equal(t, "19:47", rows[1].Times.Isha)
}

func TestReadFixedTimesCSV_Errors(t *testing.T) {
	tests := map[string]string{
		"bad id":        "h,h,h,h,h,h,h,h\nx,03-01,a,b,c,d,e,f\n",
		"bad date":      "h,h,h,h,h,h,h,h\n1,March 1,a,b,c,d,e,f\n",
		"missing field": "h,h,h,h,h,h,h,h\n1,03-01,a,b,c\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadFixedTimesCSV(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestReadLocationsCSV(t *testing.T) {
	in := `id,country_code,country_name,name,latitude,longitude,has_fixed,parent_id
1,GB,United Kingdom,London,51.5074,-0.1278,true,
4,GB,United Kingdom,Croydon,51.3762,-0.0982,1,1
`
	locs, err := ReadLocationsCSV(strings.NewReader(in))
	require.NoError(t, err)
	if diff := cmp.Diff([]prayer.Location{seedLocations[0], seedLocations[3]}, locs); diff != "" {
		t.Errorf("ReadLocationsCSV mismatch (-want +got):\n%s", diff)
	}

	_, err = ReadLocationsCSV(strings.NewReader("h,h,h,h,h,h,h,h\n1,GB,UK,X,91,0,false,\n"))
	assert.ErrorContains(t, err, "latitude")
}

func TestDayKey(t *testing.T) {
	assert.Equal(t, "01-05", DayKey(time.Date(2024, 1, 5, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, "12-31", DayKey(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
}
