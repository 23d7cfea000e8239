package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smokyabdulrahman/prayer-times/internal/api"
	"github.com/smokyabdulrahman/prayer-times/internal/geo"
	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
)

func sampleAPIResponse() *api.Response {
	return &api.Response{
		Code:   200,
		Status: "OK",
		Data: api.Data{
			Timings: api.Timings{
				Fajr:    "05:17",
				Sunrise: "06:48",
				Dhuhr:   "12:13",
				Asr:     "15:02",
				Sunset:  "17:39",
				Maghrib: "17:39",
				Isha:    "19:10",
			},
			Meta: api.Meta{
				Latitude:  51.5074,
				Longitude: -0.1278,
				Timezone:  "Europe/London",
				Method:    api.MethodInfo{ID: 2, Name: "ISNA"},
				School:    "STANDARD",
			},
		},
	}
}

var (
	feb28 = time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	isna  = prayer.MustAttribute(prayer.WithMethod(prayer.ISNA))
)

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "subdir", "cache")
	c, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, c.Dir())

	_, err = os.Stat(dir)
	assert.NoError(t, err, "directory was not created")
}

func TestNew_DefaultDir(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	c, err := New("")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(c.Dir(), filepath.Join(".cache", "prayer-times")), c.Dir())
}

// ---------------------------------------------------------------------------
// SaveTimings / LoadTimings
// ---------------------------------------------------------------------------

func TestTimings_RoundTrip(t *testing.T) {
	c, _ := New(t.TempDir())

	require.NoError(t, c.SaveTimings(feb28, 51.5074, -0.1278, "", "", isna, sampleAPIResponse()))

	entry := c.LoadTimings(feb28, 51.5074, -0.1278, "", "", isna)
	require.NotNil(t, entry, "LoadTimings returned nil after save")
	assert.Equal(t, "05:17", entry.Timings.Fajr)
	assert.Equal(t, "19:10", entry.Timings.Isha)
	assert.Equal(t, "Europe/London", entry.Meta.Timezone)
	assert.Contains(t, entry.Query, "method=2")
}

func TestTimings_CacheMiss(t *testing.T) {
	c, _ := New(t.TempDir())
	assert.Nil(t, c.LoadTimings(feb28, 51.5, -0.1, "", "", isna))
}

func TestTimings_StaleDate(t *testing.T) {
	c, _ := New(t.TempDir())
	_ = c.SaveTimings(feb28, 51.5, -0.1, "", "", isna, sampleAPIResponse())

	assert.Nil(t, c.LoadTimings(feb28.AddDate(0, 0, 1), 51.5, -0.1, "", "", isna))
}

func TestTimings_DifferentAttribute(t *testing.T) {
	c, _ := New(t.TempDir())
	_ = c.SaveTimings(feb28, 51.5, -0.1, "", "", isna, sampleAPIResponse())

	others := []prayer.Attribute{
		prayer.MustAttribute(prayer.WithMethod(prayer.MWL)),
		prayer.MustAttribute(prayer.WithMethod(prayer.ISNA), prayer.WithAsrMethod(prayer.Hanafi)),
		prayer.MustAttribute(prayer.WithMethod(prayer.ISNA), prayer.WithHigherLatitude(prayer.MidNight)),
		prayer.MustAttribute(prayer.WithMethod(prayer.ISNA), prayer.WithOffsets(prayer.Offsets{0, 0, 1})),
	}
	for _, attr := range others {
		assert.Nil(t, c.LoadTimings(feb28, 51.5, -0.1, "", "", attr), "method=%s asr=%s", attr.Method, attr.Asr)
	}
}

func TestTimings_CityKey(t *testing.T) {
	c, _ := New(t.TempDir())
	_ = c.SaveTimings(feb28, 0, 0, "London", "UK", isna, sampleAPIResponse())

	assert.NotNil(t, c.LoadTimings(feb28, 0, 0, "London", "UK", isna))
	assert.Nil(t, c.LoadTimings(feb28, 0, 0, "Paris", "FR", isna))
}

func TestTimings_InvalidAttribute(t *testing.T) {
	c, _ := New(t.TempDir())
	bad := prayer.Attribute{Method: prayer.CalculationMethod(42)}

	assert.Error(t, c.SaveTimings(feb28, 0, 0, "", "", bad, sampleAPIResponse()))
	assert.Nil(t, c.LoadTimings(feb28, 0, 0, "", "", bad))
}

func TestTimings_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir)
	_ = c.SaveTimings(feb28, 51.5, -0.1, "", "", isna, sampleAPIResponse())

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "timings_") {
			os.WriteFile(filepath.Join(dir, e.Name()), []byte("not-json"), 0o644)
		}
	}

	assert.Nil(t, c.LoadTimings(feb28, 51.5, -0.1, "", "", isna))
}

// ---------------------------------------------------------------------------
// SaveGeo / LoadGeo
// ---------------------------------------------------------------------------

func londonGeo() geo.Location {
	return geo.Location{
		Latitude:  51.5074,
		Longitude: -0.1278,
		City:      "London",
		Country:   "United Kingdom",
		Timezone:  "Europe/London",
	}
}

func TestGeo_RoundTrip(t *testing.T) {
	c, _ := New(t.TempDir())
	loc := londonGeo()
	require.NoError(t, c.SaveGeo(&loc))

	got := c.LoadGeo()
	require.NotNil(t, got)
	assert.Equal(t, loc, *got)
}

func TestGeo_CacheMiss(t *testing.T) {
	c, _ := New(t.TempDir())
	assert.Nil(t, c.LoadGeo())
}

func TestGeo_ExpiredTTL(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir)

	// 25 hours ago is past the 24h TTL.
	data, _ := json.Marshal(GeoCacheEntry{
		Location: londonGeo(),
		CachedAt: time.Now().Add(-25 * time.Hour),
	})
	os.WriteFile(filepath.Join(dir, "geolocation.json"), data, 0o644)

	assert.Nil(t, c.LoadGeo())
}

func TestGeo_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir)
	os.WriteFile(filepath.Join(dir, "geolocation.json"), []byte("{bad json"), 0o644)

	assert.Nil(t, c.LoadGeo())
}

// ---------------------------------------------------------------------------
// cacheKey
// ---------------------------------------------------------------------------

func TestCacheKey_Deterministic(t *testing.T) {
	k1 := cacheKey("2026-02-28", 51.5, -0.1, "", "", "method=2")
	k2 := cacheKey("2026-02-28", 51.5, -0.1, "", "", "method=2")
	assert.Equal(t, k1, k2)
	assert.Len(t, k1, 16)
}

func TestCacheKey_DifferentInputs(t *testing.T) {
	keys := []string{
		cacheKey("2026-02-28", 51.5, -0.1, "", "", "method=2"),
		cacheKey("2026-02-28", 51.5, -0.1, "", "", "method=3"),  // different method
		cacheKey("2026-03-01", 51.5, -0.1, "", "", "method=2"),  // different date
		cacheKey("2026-02-28", 40.7, -74.0, "", "", "method=2"), // different coords
	}
	seen := make(map[string]bool)
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate cache key %q", k)
		seen[k] = true
	}
}
