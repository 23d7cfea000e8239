// Package schedule selects between stored fixed time-tables and the solver,
// then applies daylight saving and per-prayer offsets.
package schedule

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/smokyabdulrahman/prayer-times/internal/calc"
	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
)

// FixedTimeTable looks up a stored day of prayer times. ok is false when no
// row exists for the location and date.
type FixedTimeTable interface {
	LookupFixedTimes(ctx context.Context, locationID int, date time.Time) (times prayer.FixedTimes, ok bool, err error)
}

// LocationSource supplies locations by id or by search.
type LocationSource interface {
	LocationByID(ctx context.Context, id int) (prayer.Location, error)
	Search(ctx context.Context, prefix string, limit int) ([]prayer.Location, error)
	Geocode(ctx context.Context, countryCode, name string) (prayer.Location, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (prayer.Location, error)
	FixedScheduleLocations(ctx context.Context) ([]prayer.Location, error)
}

// dstShift is added to fixed-table results while daylight saving is active.
const dstShift = 60 * time.Minute

// defaultWorkers bounds Range's concurrent days.
const defaultWorkers = 4

// Service computes prayer times. It holds only immutable collaborators and
// is safe for concurrent use.
type Service struct {
	table     FixedTimeTable
	dst       DSTDetector
	logger    *zap.Logger
	solveOpts []calc.SolveOption
	workers   int
}

// Option configures a Service.
type Option func(*Service)

// WithDST sets the daylight saving detector. The default is LocalDST on time.Local.
func WithDST(d DSTDetector) Option {
	return func(s *Service) { s.dst = d }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTimezone fixes the UTC offset, in hours, used by the solver instead of
// the offset of the query date's location.
func WithTimezone(hours float64) Option {
	return func(s *Service) { s.solveOpts = append(s.solveOpts, calc.WithTimezone(hours)) }
}

// WithConcurrency bounds how many days Range computes at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New returns a Service. table may be nil when no fixed schedules are available;
// fixed-schedule locations then report prayer.ErrMissingFixedSchedule.
func New(table FixedTimeTable, opts ...Option) *Service {
	s := &Service{
		table:   table,
		dst:     LocalDST{},
		logger:  zap.NewNop(),
		workers: defaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetPrayerTimes is PrayerTimes with fixed schedules used where available.
func (s *Service) GetPrayerTimes(ctx context.Context, loc prayer.Location, date time.Time, attr prayer.Attribute) (prayer.PrayerTime, error) {
	return s.PrayerTimes(ctx, loc, date, attr, true)
}

// PrayerTimes returns the prayer times for loc on date's calendar day.
//
// A location with a fixed schedule reads its table (or its parent's) when
// useFixed is set; a missing row is an error, never a fallback to the solver.
// Daylight saving is added to table results only. Offsets apply to both.
// Every result is dated on date's calendar day, even when a shift or an
// offset crosses midnight.
func (s *Service) PrayerTimes(ctx context.Context, loc prayer.Location, date time.Time, attr prayer.Attribute, useFixed bool) (prayer.PrayerTime, error) {
	var (
		pt  prayer.PrayerTime
		err error
	)
	if loc.HasFixedSchedule && useFixed {
		pt, err = s.fixedTimes(ctx, loc, date)
	} else {
		s.logger.Debug("computing prayer times",
			zap.Int("location_id", loc.ID),
			zap.String("date", date.Format(time.DateOnly)),
			zap.Stringer("method", attr.Method))
		pt, err = calc.Solve(loc, date, attr, s.solveOpts...)
	}
	if err != nil {
		return prayer.PrayerTime{}, err
	}
	return pt.WithOffsets(attr.Offsets).OnDay(date), nil
}

func (s *Service) fixedTimes(ctx context.Context, loc prayer.Location, date time.Time) (prayer.PrayerTime, error) {
	id := loc.ScheduleID()
	day := date.Format(time.DateOnly)
	if s.table == nil {
		return prayer.PrayerTime{}, fmt.Errorf("%w: location %d on %s: no time-table configured", prayer.ErrMissingFixedSchedule, id, day)
	}

	row, ok, err := s.table.LookupFixedTimes(ctx, id, date)
	if err != nil {
		return prayer.PrayerTime{}, fmt.Errorf("failed to look up fixed times for location %d: %w", id, err)
	}
	if !ok || !row.Complete() {
		return prayer.PrayerTime{}, fmt.Errorf("%w: location %d on %s", prayer.ErrMissingFixedSchedule, id, day)
	}

	pt, err := prayer.ParseFixedTimes(row, date)
	if err != nil {
		return prayer.PrayerTime{}, fmt.Errorf("%w: location %d on %s: %v", prayer.ErrMissingFixedSchedule, id, day, err)
	}

	dst := s.dst.IsActive(date)
	s.logger.Debug("using fixed schedule",
		zap.Int("location_id", loc.ID),
		zap.Int("schedule_id", id),
		zap.String("date", day),
		zap.Bool("dst", dst))
	if dst {
		pt = pt.Shift(dstShift)
	}
	return pt, nil
}

// Day is one entry of a Range result.
type Day struct {
	Date  time.Time
	Times prayer.PrayerTime
}

// Range returns prayer times for days consecutive calendar days starting at
// start, in date order. Days are computed concurrently; the first error
// cancels the rest.
func (s *Service) Range(ctx context.Context, loc prayer.Location, start time.Time, days int, attr prayer.Attribute, useFixed bool) ([]Day, error) {
	if days <= 0 {
		return nil, nil
	}

	out := make([]Day, days)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pt, err := s.PrayerTimes(gctx, loc, date, attr, useFixed)
			if err != nil {
				return fmt.Errorf("%s: %w", date.Format(time.DateOnly), err)
			}
			out[i] = Day{Date: date, Times: pt}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
