// Package config provides persistent configuration for the prayer-times CLI.
//
// Configuration is stored as YAML at ~/.config/prayer-times/config.yaml
// (XDG-compliant), or at $PRAYER_TIMES_CONFIG when set. The merge priority
// is: CLI flags > config file > defaults.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
)

const (
	configDirName  = "prayer-times"
	configFileName = "config.yaml"
	dbFileName     = "locations.db"

	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "PRAYER_TIMES_CONFIG"
	// EnvDBPath overrides the location database path.
	EnvDBPath = "PRAYER_TIMES_DB"
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"city", "country",
	"latitude", "longitude",
	"location_id",
	"timezone",
	"method", "fajr_angle", "isha_angle",
	"asr_method", "high_lat_method",
	"offsets",
	"use_fixed",
	"time_format",
	"prayers",
	"db_path",
	"cache_dir",
}

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults or auto-detect).
type Config struct {
	City          string   `yaml:"city,omitempty"`
	Country       string   `yaml:"country,omitempty"` // ISO country code
	Latitude      *float64 `yaml:"latitude,omitempty"`
	Longitude     *float64 `yaml:"longitude,omitempty"`
	LocationID    int      `yaml:"location_id,omitempty"`
	Timezone      *float64 `yaml:"timezone,omitempty"` // hours east of UTC
	Method        string   `yaml:"method,omitempty"`
	FajrAngle     *float64 `yaml:"fajr_angle,omitempty"` // custom method only
	IshaAngle     *float64 `yaml:"isha_angle,omitempty"` // custom method only
	AsrMethod     string   `yaml:"asr_method,omitempty"`
	HighLatMethod string   `yaml:"high_lat_method,omitempty"`
	Offsets       []int    `yaml:"offsets,omitempty,flow"`
	UseFixed      *bool    `yaml:"use_fixed,omitempty"`   // pointer so we can distinguish "not set" from false
	TimeFormat    string   `yaml:"time_format,omitempty"` // "12h" or "24h"
	Prayers       string   `yaml:"prayers,omitempty"`     // comma-separated list
	DBPath        string   `yaml:"db_path,omitempty"`
	CacheDir      string   `yaml:"cache_dir,omitempty"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	useFixed := true
	return Config{
		Method:        prayer.Makkah.String(),
		AsrMethod:     prayer.Shafii.String(),
		HighLatMethod: prayer.AngleBased.String(),
		UseFixed:      &useFixed,
		TimeFormat:    "24h",
	}
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// DefaultDBPath returns $PRAYER_TIMES_DB, or locations.db in the config directory.
func DefaultDBPath() (string, error) {
	if p := os.Getenv(EnvDBPath); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dbFileName), nil
}

// Load reads the config file from disk.
// If the file does not exist, it returns an empty Config (not an error).
// If the file exists but is invalid YAML, it returns an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	return LoadFrom(path)
}

// LoadFrom reads the config from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Config{}
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "city":
		c.City = value
	case "country":
		c.Country = strings.ToUpper(strings.TrimSpace(value))
	case "latitude":
		v, err := parseRange(key, value, -90, 90)
		if err != nil {
			return err
		}
		c.Latitude = &v
	case "longitude":
		v, err := parseRange(key, value, -180, 180)
		if err != nil {
			return err
		}
		c.Longitude = &v
	case "location_id":
		v, err := strconv.Atoi(value)
		if err != nil || v < 0 {
			return fmt.Errorf("invalid location_id %q: must be a non-negative integer", value)
		}
		c.LocationID = v
	case "timezone":
		v, err := parseRange(key, value, -12, 14)
		if err != nil {
			return err
		}
		c.Timezone = &v
	case "method":
		m, err := prayer.ParseCalculationMethod(value)
		if err != nil {
			return err
		}
		c.Method = m.String()
	case "fajr_angle", "isha_angle":
		v, err := parseRange(key, value, 0, 90)
		if err != nil {
			return err
		}
		if v == 0 || v == 90 {
			return fmt.Errorf("invalid %s %q: must be strictly between 0 and 90", key, value)
		}
		if key == "fajr_angle" {
			c.FajrAngle = &v
		} else {
			c.IshaAngle = &v
		}
	case "asr_method":
		m, err := prayer.ParseAsrMethod(value)
		if err != nil {
			return err
		}
		c.AsrMethod = m.String()
	case "high_lat_method":
		m, err := prayer.ParseHigherLatitudeMethod(value)
		if err != nil {
			return err
		}
		c.HighLatMethod = m.String()
	case "offsets":
		o, err := prayer.ParseOffsets(value)
		if err != nil {
			return err
		}
		c.Offsets = o[:]
	case "use_fixed":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid use_fixed %q: must be true or false", value)
		}
		c.UseFixed = &v
	case "time_format":
		if value != "12h" && value != "24h" {
			return fmt.Errorf("invalid time_format %q: must be \"12h\" or \"24h\"", value)
		}
		c.TimeFormat = value
	case "prayers":
		// Validate each prayer name.
		names := strings.Split(value, ",")
		for _, n := range names {
			n = strings.TrimSpace(n)
			if !isValidPrayerName(n) {
				return fmt.Errorf("invalid prayer name %q in prayers list", n)
			}
		}
		c.Prayers = value
	case "db_path":
		c.DBPath = value
	case "cache_dir":
		c.CacheDir = value
	default:
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}

	return nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "city":
		return c.City, nil
	case "country":
		return c.Country, nil
	case "latitude":
		return formatFloatPtr(c.Latitude), nil
	case "longitude":
		return formatFloatPtr(c.Longitude), nil
	case "location_id":
		if c.LocationID == 0 {
			return "", nil
		}
		return strconv.Itoa(c.LocationID), nil
	case "timezone":
		return formatFloatPtr(c.Timezone), nil
	case "method":
		return c.Method, nil
	case "fajr_angle":
		return formatFloatPtr(c.FajrAngle), nil
	case "isha_angle":
		return formatFloatPtr(c.IshaAngle), nil
	case "asr_method":
		return c.AsrMethod, nil
	case "high_lat_method":
		return c.HighLatMethod, nil
	case "offsets":
		if len(c.Offsets) == 0 {
			return "", nil
		}
		o, err := prayer.OffsetsFromSlice(c.Offsets)
		if err != nil {
			return "", err
		}
		return o.String(), nil
	case "use_fixed":
		if c.UseFixed == nil {
			return "", nil
		}
		return strconv.FormatBool(*c.UseFixed), nil
	case "time_format":
		return c.TimeFormat, nil
	case "prayers":
		return c.Prayers, nil
	case "db_path":
		return c.DBPath, nil
	case "cache_dir":
		return c.CacheDir, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Attribute builds the validated prayer attribute described by c. Unset
// fields take the defaults.
func (c *Config) Attribute() (prayer.Attribute, error) {
	var opts []prayer.AttributeOption

	if c.Method != "" {
		m, err := prayer.ParseCalculationMethod(c.Method)
		if err != nil {
			return prayer.Attribute{}, err
		}
		opts = append(opts, prayer.WithMethod(m))
	}
	if c.FajrAngle != nil || c.IshaAngle != nil {
		custom := prayer.DefaultCustomMethod()
		if c.FajrAngle != nil {
			custom.FajrAngle = *c.FajrAngle
		}
		if c.IshaAngle != nil {
			custom.IshaAngle = *c.IshaAngle
		}
		opts = append(opts, prayer.WithCustomAngles(custom.FajrAngle, custom.IshaAngle))
	}
	if c.AsrMethod != "" {
		m, err := prayer.ParseAsrMethod(c.AsrMethod)
		if err != nil {
			return prayer.Attribute{}, err
		}
		opts = append(opts, prayer.WithAsrMethod(m))
	}
	if c.HighLatMethod != "" {
		m, err := prayer.ParseHigherLatitudeMethod(c.HighLatMethod)
		if err != nil {
			return prayer.Attribute{}, err
		}
		opts = append(opts, prayer.WithHigherLatitude(m))
	}
	if len(c.Offsets) > 0 {
		o, err := prayer.OffsetsFromSlice(c.Offsets)
		if err != nil {
			return prayer.Attribute{}, err
		}
		opts = append(opts, prayer.WithOffsets(o))
	}

	return prayer.NewAttribute(opts...)
}

// Coordinates returns the configured position. ok is false when neither
// latitude nor longitude is set; a missing half reads as 0.
func (c *Config) Coordinates() (lat, lng float64, ok bool) {
	if c.Latitude == nil && c.Longitude == nil {
		return 0, 0, false
	}
	if c.Latitude != nil {
		lat = *c.Latitude
	}
	if c.Longitude != nil {
		lng = *c.Longitude
	}
	return lat, lng, true
}

// UseFixedOrDefault returns use_fixed, falling back to the given default.
func (c *Config) UseFixedOrDefault(def bool) bool {
	if c.UseFixed != nil {
		return *c.UseFixed
	}
	return def
}

// validPrayerNames are the names the prayers filter accepts.
var validPrayerNames = map[string]bool{
	"Fajr": true, "Sunrise": true, "Dhuhr": true,
	"Asr": true, "Maghrib": true, "Isha": true,
}

func isValidPrayerName(name string) bool {
	return validPrayerNames[name]
}

func parseRange(key, value string, lo, hi float64) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("invalid %s %q: must be a number", key, value)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("invalid %s %q: must be between %g and %g", key, value, lo, hi)
	}
	return v, nil
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
