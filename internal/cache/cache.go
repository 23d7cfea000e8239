// Package cache keeps Al Adhan responses and IP geolocation results on disk
// so repeated `compare` runs and location detection stay offline.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smokyabdulrahman/prayer-times/internal/api"
	"github.com/smokyabdulrahman/prayer-times/internal/geo"
	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
)

const (
	timingsCacheFile = "timings_%s.json" // keyed by hash
	geoCacheFile     = "geolocation.json"
	geoTTL           = 24 * time.Hour
)

// Cache provides file-based caching for API timings and geolocation data.
type Cache struct {
	dir string
}

// TimingsEntry stores one day of API timings along with the request that
// produced them.
type TimingsEntry struct {
	Date    string      `json:"date"` // YYYY-MM-DD
	Query   string      `json:"query"`
	Timings api.Timings `json:"timings"`
	Meta    api.Meta    `json:"meta"`
}

// GeoCacheEntry stores a cached geolocation result with a timestamp.
type GeoCacheEntry struct {
	Location geo.Location `json:"location"`
	CachedAt time.Time    `json:"cached_at"`
}

// DefaultDir returns ~/.cache/prayer-times.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "prayer-times"), nil
}

// New creates a Cache rooted at the given directory.
// If dir is empty, DefaultDir is used.
func New(dir string) (*Cache, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %s: %w", dir, err)
	}

	return &Cache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string { return c.dir }

// requestQuery renders the API parameters that attr maps to. Two attributes
// with the same rendering produce the same API answer.
func requestQuery(attr prayer.Attribute) (string, error) {
	params, err := api.QueryParams(attr)
	if err != nil {
		return "", err
	}
	return params.Encode(), nil
}

// cacheKey builds a deterministic hash from the parameters that affect the
// API's timings, so different places and methods get separate files.
func cacheKey(date string, lat, lon float64, city, country, query string) string {
	raw := fmt.Sprintf("%s|%.6f|%.6f|%s|%s|%s", date, lat, lon, city, country, query)
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h[:8])
}

func (c *Cache) timingsPath(key string) string {
	return filepath.Join(c.dir, fmt.Sprintf(timingsCacheFile, key))
}

// LoadTimings reads cached API timings for the given request. It returns nil
// if the cache is missing, unreadable, or was written for another request.
func (c *Cache) LoadTimings(date time.Time, lat, lon float64, city, country string, attr prayer.Attribute) *TimingsEntry {
	query, err := requestQuery(attr)
	if err != nil {
		return nil
	}
	dateStr := date.Format("2006-01-02")

	data, err := os.ReadFile(c.timingsPath(cacheKey(dateStr, lat, lon, city, country, query)))
	if err != nil {
		return nil
	}

	var entry TimingsEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}

	// Guard against hash collisions and hand-edited files.
	if entry.Date != dateStr || entry.Query != query {
		return nil
	}

	return &entry
}

// SaveTimings writes an API response to the cache.
func (c *Cache) SaveTimings(date time.Time, lat, lon float64, city, country string, attr prayer.Attribute, resp *api.Response) error {
	query, err := requestQuery(attr)
	if err != nil {
		return err
	}
	dateStr := date.Format("2006-01-02")

	entry := TimingsEntry{
		Date:    dateStr,
		Query:   query,
		Timings: resp.Data.Timings,
		Meta:    resp.Data.Meta,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := os.WriteFile(c.timingsPath(cacheKey(dateStr, lat, lon, city, country, query)), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// LoadGeo attempts to read a cached geolocation result.
// Returns nil if the cache is missing or older than the TTL (24 hours).
func (c *Cache) LoadGeo() *geo.Location {
	data, err := os.ReadFile(filepath.Join(c.dir, geoCacheFile))
	if err != nil {
		return nil
	}

	var entry GeoCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil
	}

	if time.Since(entry.CachedAt) > geoTTL {
		return nil
	}

	return &entry.Location
}

// SaveGeo writes a geolocation result to the cache.
func (c *Cache) SaveGeo(loc *geo.Location) error {
	entry := GeoCacheEntry{
		Location: *loc,
		CachedAt: time.Now(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal geo cache: %w", err)
	}

	if err := os.WriteFile(filepath.Join(c.dir, geoCacheFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write geo cache: %w", err)
	}

	return nil
}
