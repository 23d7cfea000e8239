package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
)

const selectLocation = `
SELECT location._id, country.code, country.name, location.name,
       latitude, longitude, has_fixed_prayer_time, prayer_dependent_id
FROM location
INNER JOIN country ON country._id = location.country_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner) (prayer.Location, error) {
	var (
		loc    prayer.Location
		parent sql.NullInt64
	)
	err := row.Scan(&loc.ID, &loc.CountryCode, &loc.CountryName, &loc.Name,
		&loc.Latitude, &loc.Longitude, &loc.HasFixedSchedule, &parent)
	if err != nil {
		return prayer.Location{}, err
	}
	if parent.Valid {
		id := int(parent.Int64)
		loc.ParentID = &id
	}
	return loc, nil
}

func (s *Store) queryLocations(ctx context.Context, query string, args ...any) ([]prayer.Location, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []prayer.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (s *Store) queryLocation(ctx context.Context, what, query string, args ...any) (prayer.Location, error) {
	loc, err := scanLocation(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return prayer.Location{}, fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	if err != nil {
		return prayer.Location{}, fmt.Errorf("failed to query location %s: %w", what, err)
	}
	return loc, nil
}

// LocationByID returns the location with the given id.
func (s *Store) LocationByID(ctx context.Context, id int) (prayer.Location, error) {
	return s.queryLocation(ctx, fmt.Sprintf("id %d", id),
		selectLocation+` WHERE location._id = ?`, id)
}

// Search returns locations whose name starts with prefix, case-insensitively,
// ordered by name. limit <= 0 means no limit.
func (s *Store) Search(ctx context.Context, prefix string, limit int) ([]prayer.Location, error) {
	if limit <= 0 {
		limit = -1
	}
	locs, err := s.queryLocations(ctx,
		selectLocation+` WHERE location.name LIKE ? ESCAPE '\' ORDER BY location.name, location._id LIMIT ?`,
		escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search locations %q: %w", prefix, err)
	}
	return locs, nil
}

// Geocode finds a location by country code and exact name, both compared
// case-insensitively.
func (s *Store) Geocode(ctx context.Context, countryCode, name string) (prayer.Location, error) {
	return s.queryLocation(ctx, fmt.Sprintf("%s/%s", countryCode, name),
		selectLocation+` WHERE country.code = ? COLLATE NOCASE AND location.name = ? COLLATE NOCASE LIMIT 1`,
		countryCode, name)
}

// ReverseGeocode returns the location closest to (lat, lng) by the sum of
// absolute latitude and longitude differences.
func (s *Store) ReverseGeocode(ctx context.Context, lat, lng float64) (prayer.Location, error) {
	return s.queryLocation(ctx, fmt.Sprintf("near %.4f,%.4f", lat, lng),
		selectLocation+` ORDER BY abs(latitude - ?) + abs(longitude - ?), location._id LIMIT 1`,
		lat, lng)
}

// FixedScheduleLocations lists every location that follows a fixed time-table.
func (s *Store) FixedScheduleLocations(ctx context.Context) ([]prayer.Location, error) {
	locs, err := s.queryLocations(ctx,
		selectLocation+` WHERE has_fixed_prayer_time = 1 ORDER BY country.code, location.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list fixed-schedule locations: %w", err)
	}
	return locs, nil
}

// ImportLocations inserts or updates locations, creating their countries as
// needed, in one transaction.
func (s *Store) ImportLocations(ctx context.Context, locs []prayer.Location) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	for _, loc := range locs {
		if loc.CountryCode == "" {
			return fmt.Errorf("location %d (%s): missing country code", loc.ID, loc.Name)
		}
		var countryID int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO country (code, name) VALUES (?, ?)
			 ON CONFLICT(code) DO UPDATE SET name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE country.name END
			 RETURNING _id`,
			strings.ToUpper(loc.CountryCode), loc.CountryName).Scan(&countryID)
		if err != nil {
			return fmt.Errorf("failed to save country %s: %w", loc.CountryCode, err)
		}

		var parent any
		if loc.HasFixedSchedule && loc.ParentID != nil {
			parent = *loc.ParentID
		}
		var id any
		if loc.ID > 0 {
			id = loc.ID
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO location
			 (_id, country_id, name, latitude, longitude, has_fixed_prayer_time, prayer_dependent_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(_id) DO UPDATE SET
			   country_id = excluded.country_id,
			   name = excluded.name,
			   latitude = excluded.latitude,
			   longitude = excluded.longitude,
			   has_fixed_prayer_time = excluded.has_fixed_prayer_time,
			   prayer_dependent_id = excluded.prayer_dependent_id`,
			id, countryID, loc.Name, loc.Latitude, loc.Longitude, loc.HasFixedSchedule, parent)
		if err != nil {
			return fmt.Errorf("failed to save location %s: %w", loc.Name, err)
		}
	}

	return tx.Commit()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
