package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
)

// dayKeyLayout formats the prayer_time.date column.
const dayKeyLayout = "01-02"

// FixedRow is one stored day of a location's fixed time-table.
type FixedRow struct {
	LocationID int
	Day        string // "MM-DD"
	Times      prayer.FixedTimes
}

// DayKey returns the prayer_time.date key for date's calendar day.
func DayKey(date time.Time) string {
	return date.Format(dayKeyLayout)
}

// LookupFixedTimes returns the stored row for locationID on date's calendar
// day. ok is false when there is none.
func (s *Store) LookupFixedTimes(ctx context.Context, locationID int, date time.Time) (prayer.FixedTimes, bool, error) {
	var ft prayer.FixedTimes
	err := s.db.QueryRowContext(ctx,
		`SELECT fajr, sunrise, dhuhr, asr, maghrib, isha FROM prayer_time WHERE location_id = ? AND date = ?`,
		locationID, DayKey(date),
	).Scan(&ft.Fajr, &ft.Sunrise, &ft.Dhuhr, &ft.Asr, &ft.Maghrib, &ft.Isha)
	if errors.Is(err, sql.ErrNoRows) {
		return prayer.FixedTimes{}, false, nil
	}
	if err != nil {
		return prayer.FixedTimes{}, false, fmt.Errorf("failed to read fixed times: %w", err)
	}
	return ft, true, nil
}

// ImportFixedTimes inserts or replaces rows in one transaction and returns
// how many were written. Incomplete rows are rejected before anything is written.
func (s *Store) ImportFixedTimes(ctx context.Context, rows []FixedRow) (int, error) {
	for i, r := range rows {
		if !r.Times.Complete() {
			return 0, fmt.Errorf("row %d (location %d, %s): incomplete times", i+1, r.LocationID, r.Day)
		}
		if _, err := time.Parse(dayKeyLayout, r.Day); err != nil {
			return 0, fmt.Errorf("row %d: invalid day %q, want MM-DD", i+1, r.Day)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO prayer_time (location_id, date, fajr, sunrise, dhuhr, asr, maghrib, isha)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare import: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		t := r.Times
		if _, err := stmt.ExecContext(ctx, r.LocationID, r.Day, t.Fajr, t.Sunrise, t.Dhuhr, t.Asr, t.Maghrib, t.Isha); err != nil {
			return 0, fmt.Errorf("failed to save fixed times for location %d on %s: %w", r.LocationID, r.Day, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return len(rows), nil
}

// ReadFixedTimesCSV reads rows of
//
//	location_id,date,fajr,sunrise,dhuhr,asr,maghrib,isha
//
// with a header line. date may be "MM-DD" or "YYYY-MM-DD".
func ReadFixedTimesCSV(r io.Reader) ([]FixedRow, error) {
	records, err := readCSV(r, 8)
	if err != nil {
		return nil, err
	}

	out := make([]FixedRow, 0, len(records))
	for i, rec := range records {
		id, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid location_id %q", i+2, rec[0])
		}
		day, err := normalizeDay(rec[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		out = append(out, FixedRow{
			LocationID: id,
			Day:        day,
			Times: prayer.FixedTimes{
				Fajr:    strings.TrimSpace(rec[2]),
				Sunrise: strings.TrimSpace(rec[3]),
				Dhuhr:   strings.TrimSpace(rec[4]),
				Asr:     strings.TrimSpace(rec[5]),
				Maghrib: strings.TrimSpace(rec[6]),
				Isha:    strings.TrimSpace(rec[7]),
			},
		})
	}
	return out, nil
}

// ReadLocationsCSV reads rows of
//
//	id,country_code,country_name,name,latitude,longitude,has_fixed,parent_id
//
// with a header line. parent_id may be empty.
func ReadLocationsCSV(r io.Reader) ([]prayer.Location, error) {
	records, err := readCSV(r, 8)
	if err != nil {
		return nil, err
	}

	out := make([]prayer.Location, 0, len(records))
	for i, rec := range records {
		line := i + 2
		for j := range rec {
			rec[j] = strings.TrimSpace(rec[j])
		}

		id, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid id %q", line, rec[0])
		}
		lat, err := strconv.ParseFloat(rec[4], 64)
		if err != nil || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("line %d: invalid latitude %q", line, rec[4])
		}
		lng, err := strconv.ParseFloat(rec[5], 64)
		if err != nil || lng < -180 || lng > 180 {
			return nil, fmt.Errorf("line %d: invalid longitude %q", line, rec[5])
		}
		fixed, err := strconv.ParseBool(rec[6])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid has_fixed %q", line, rec[6])
		}

		loc := prayer.Location{
			ID:               id,
			CountryCode:      rec[1],
			CountryName:      rec[2],
			Name:             rec[3],
			Latitude:         lat,
			Longitude:        lng,
			HasFixedSchedule: fixed,
		}
		if rec[7] != "" {
			parent, err := strconv.Atoi(rec[7])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid parent_id %q", line, rec[7])
			}
			loc.ParentID = &parent
		}
		out = append(out, loc)
	}
	return out, nil
}

func readCSV(r io.Reader, fields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields
	cr.Comment = '#'

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

func normalizeDay(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{dayKeyLayout, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dayKeyLayout), nil
		}
	}
	return "", fmt.Errorf("invalid date %q, want MM-DD or YYYY-MM-DD", s)
}
