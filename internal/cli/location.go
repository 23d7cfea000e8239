package cli

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/smokyabdulrahman/prayer-times/internal/cache"
	"github.com/smokyabdulrahman/prayer-times/internal/config"
	"github.com/smokyabdulrahman/prayer-times/internal/geo"
	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
	"github.com/smokyabdulrahman/prayer-times/internal/store"
)

// nearbyDegrees bounds how far (|Δlat|+|Δlng|) an auto-detected position may
// be from a database location for that location to be used instead.
const nearbyDegrees = 0.5

// resolvedPlace is where and in which zone a command computes times.
type resolvedPlace struct {
	Loc  prayer.Location
	Zone *time.Location
	// Detected marks places found by IP geolocation.
	Detected bool
}

// Label is "Name, Country", or the coordinates for ad-hoc places.
func (p resolvedPlace) Label() string {
	switch {
	case p.Loc.Name != "" && p.Loc.CountryName != "":
		return p.Loc.Name + ", " + p.Loc.CountryName
	case p.Loc.Name != "":
		return p.Loc.Name
	default:
		return fmt.Sprintf("%.4f, %.4f", p.Loc.Latitude, p.Loc.Longitude)
	}
}

// ZoneLabel names the zone, e.g. "Europe/London" or "UTC+03:30".
func (p resolvedPlace) ZoneLabel() string {
	return p.Zone.String()
}

// resolvePlace determines the effective location.
// Priority: location id > coordinates > city lookup > cached geolocation > IP auto-detect.
func (a *app) resolvePlace(ctx context.Context, cfg *config.Config) (resolvedPlace, error) {
	place, err := a.lookupPlace(ctx, cfg)
	if err != nil {
		return resolvedPlace{}, err
	}
	if cfg.Timezone != nil {
		place.Zone = fixedZone(*cfg.Timezone)
	}
	if place.Zone == nil {
		place.Zone = time.Local
	}
	a.logger.Debug("resolved location",
		zap.Int("id", place.Loc.ID),
		zap.String("name", place.Label()),
		zap.Bool("fixed", place.Loc.HasFixedSchedule),
		zap.String("zone", place.ZoneLabel()),
	)
	return place, nil
}

func (a *app) lookupPlace(ctx context.Context, cfg *config.Config) (resolvedPlace, error) {
	lat, lng, hasCoords := cfg.Coordinates()
	switch {
	case cfg.LocationID != 0:
		s, err := a.openStore(ctx, cfg)
		if err != nil {
			return resolvedPlace{}, err
		}
		loc, err := s.LocationByID(ctx, cfg.LocationID)
		if err != nil {
			return resolvedPlace{}, fmt.Errorf("location %d: %w", cfg.LocationID, err)
		}
		return resolvedPlace{Loc: loc}, nil

	case hasCoords:
		return resolvedPlace{Loc: prayer.Location{Latitude: lat, Longitude: lng}}, nil

	case cfg.City != "":
		if cfg.Country == "" {
			return resolvedPlace{}, fmt.Errorf("--country is required when using --city")
		}
		s, err := a.openStore(ctx, cfg)
		if err != nil {
			return resolvedPlace{}, err
		}
		loc, err := s.Geocode(ctx, cfg.Country, cfg.City)
		if err != nil {
			return resolvedPlace{}, fmt.Errorf("%s, %s: %w", cfg.City, cfg.Country, err)
		}
		return resolvedPlace{Loc: loc}, nil

	default:
		return a.detectPlace(ctx, cfg)
	}
}

// detectPlace falls back to IP geolocation, preferring a nearby database
// location so fixed time-tables still apply.
func (a *app) detectPlace(ctx context.Context, cfg *config.Config) (resolvedPlace, error) {
	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		// Cache init failure is non-fatal; we just skip caching.
		c = nil
		a.logger.Warn("cache disabled", zap.Error(err))
	}

	var detected *geo.Location
	if c != nil {
		detected = c.LoadGeo()
	}
	if detected == nil {
		detected, err = a.detectGeo(ctx)
		if err != nil {
			return resolvedPlace{}, fmt.Errorf("no location specified and auto-detection failed: %w", err)
		}
		if c != nil {
			if err := c.SaveGeo(detected); err != nil {
				a.logger.Warn("failed to cache geolocation", zap.Error(err))
			}
		}
	}

	place := resolvedPlace{Loc: detected.Prayer(), Zone: detected.Zone(), Detected: true}

	s, err := a.storeIfExists(ctx, cfg)
	if err != nil || s == nil {
		return place, err
	}
	near, err := s.ReverseGeocode(ctx, detected.Latitude, detected.Longitude)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return place, nil
	case err != nil:
		return resolvedPlace{}, err
	}
	if math.Abs(near.Latitude-detected.Latitude)+math.Abs(near.Longitude-detected.Longitude) <= nearbyDegrees {
		place.Loc = near
	}
	return place, nil
}

// fixedZone names a zone by its offset, e.g. UTC+03:30.
func fixedZone(hours float64) *time.Location {
	secs := int(math.Round(hours * 3600))
	sign := '+'
	abs := secs
	if secs < 0 {
		sign = '-'
		abs = -secs
	}
	name := fmt.Sprintf("UTC%c%02d:%02d", sign, abs/3600, abs%3600/60)
	return time.FixedZone(name, secs)
}

func formatFlagFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
