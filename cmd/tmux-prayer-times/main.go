package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/smokyabdulrahman/prayer-times/internal/cache"
	"github.com/smokyabdulrahman/prayer-times/internal/config"
	"github.com/smokyabdulrahman/prayer-times/internal/geo"
	"github.com/smokyabdulrahman/prayer-times/internal/logging"
	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
	"github.com/smokyabdulrahman/prayer-times/internal/schedule"
	"github.com/smokyabdulrahman/prayer-times/internal/store"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=v1.0.0"
var version = "dev"

// detectLocation is replaced in tests.
var detectLocation = geo.DetectLocation

// options are the command-line settings of one status-bar refresh.
type options struct {
	latitude    float64
	longitude   float64
	locationID  int
	timezone    float64
	hasTimezone bool
	hasCoords   bool

	method  string
	asr     string
	highLat string
	noFixed bool

	format     string
	timeFormat string
	prayers    string

	cacheDir string
	dbPath   string
}

func main() {
	_ = godotenv.Load()

	var o options
	// Location flags
	flag.Float64Var(&o.latitude, "latitude", 0, "Latitude for prayer time calculation")
	flag.Float64Var(&o.longitude, "longitude", 0, "Longitude for prayer time calculation")
	flag.IntVar(&o.locationID, "location-id", 0, "Location id from the location database (uses its fixed time-table if any)")
	flag.Float64Var(&o.timezone, "timezone", 0, "UTC offset in hours (default: the local zone)")

	// Calculation flags
	flag.StringVar(&o.method, "method", "", "Calculation method name (see --list-methods). Default: makkah")
	flag.StringVar(&o.asr, "asr", "", "Asr juristic method: shafii or hanafi")
	flag.StringVar(&o.highLat, "high-lat", "", "Higher latitude rule: angle-based, mid-night, one-seventh or none")
	flag.BoolVar(&o.noFixed, "no-fixed", false, "Always calculate, even where a fixed time-table exists")

	// Display flags
	flag.StringVar(&o.format, "format", prayer.FormatNameAndTime, "Display format: time-remaining, next-prayer-time, name-and-time, name-and-remaining, short-name-and-time, short-name-and-remaining, full, or a custom Go template (e.g. '{{.Name}} in {{.Remaining}}'). Template fields: .Name, .ShortName, .Time, .Remaining, .Hours, .Minutes")
	flag.StringVar(&o.timeFormat, "time-format", "24h", "Time format: 12h or 24h")
	flag.StringVar(&o.prayers, "prayers", "", "Comma-separated list of prayers to track (default: Fajr,Sunrise,Dhuhr,Asr,Maghrib,Isha)")

	// Storage flags
	flag.StringVar(&o.cacheDir, "cache-dir", "", "Cache directory for the detected location (default: ~/.cache/prayer-times/)")
	flag.StringVar(&o.dbPath, "db", "", "Location database path (default: $PRAYER_TIMES_DB or the config dir)")

	// Info flags
	showVersion := flag.Bool("version", false, "Print version and exit")
	listMethods := flag.Bool("list-methods", false, "Print supported calculation methods and exit")

	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "timezone":
			o.hasTimezone = true
		case "latitude", "longitude":
			o.hasCoords = true
		}
	})

	if *showVersion {
		fmt.Printf("tmux-prayer-times %s\n", version)
		return
	}
	if *listMethods {
		printMethods(os.Stdout)
		return
	}

	logger, err := logging.New(os.Getenv("PRAYER_TIMES_ENV"), "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdout, o, time.Now(), logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// printMethods prints the table of supported calculation methods.
func printMethods(w io.Writer) {
	fmt.Fprintln(w, "Supported calculation methods:")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-8s %s\n", "Name", "Description")
	fmt.Fprintf(w, "  %-8s %s\n", "────", "───────────")
	for _, m := range prayer.AllCalculationMethods {
		fmt.Fprintf(w, "  %-8s %s\n", m, m.Description())
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Use --method <name> to select a calculation method.")
}

// attribute validates the calculation flags the same way the config file is.
func (o options) attribute() (prayer.Attribute, error) {
	var cfg config.Config
	for _, kv := range [][2]string{
		{"method", o.method},
		{"asr_method", o.asr},
		{"high_lat_method", o.highLat},
	} {
		if kv[1] == "" {
			continue
		}
		if err := cfg.Set(kv[0], kv[1]); err != nil {
			return prayer.Attribute{}, err
		}
	}
	return cfg.Attribute()
}

func (o options) prayerNames() []string {
	if o.prayers == "" {
		return prayer.Names
	}
	names := strings.Split(o.prayers, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	return names
}

func (o options) layout() string {
	if o.timeFormat == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}

// run prints the next prayer of the day for the status bar.
func run(ctx context.Context, w io.Writer, o options, now time.Time, logger *zap.Logger) error {
	attr, err := o.attribute()
	if err != nil {
		return err
	}

	loc, zone, s, err := resolveLocation(ctx, o, logger)
	if err != nil {
		return err
	}
	if s != nil {
		defer s.Close()
	}
	if o.hasTimezone {
		secs := int(math.Round(o.timezone * 3600))
		zone = time.FixedZone("", secs)
	}

	opts := []schedule.Option{
		schedule.WithLogger(logger.Named("schedule")),
		schedule.WithDST(schedule.LocalDST{Location: zone}),
	}
	if o.hasTimezone {
		opts = append(opts, schedule.WithTimezone(o.timezone))
	}
	var table schedule.FixedTimeTable
	if s != nil {
		table = s
	}
	svc := schedule.New(table, opts...)

	// Re-anchor "now" to the location's zone so the day boundary matches.
	now = now.In(zone)
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, zone)
	names := o.prayerNames()

	pt, err := svc.PrayerTimes(ctx, loc, today, attr, !o.noFixed)
	if err != nil {
		return err
	}
	prayers, err := prayer.Select(pt.Prayers(), names)
	if err != nil {
		return err
	}

	next := prayer.NextPrayer(prayers, now)
	if next == nil {
		tomorrow, err := svc.PrayerTimes(ctx, loc, today.AddDate(0, 0, 1), attr, !o.noFixed)
		if err != nil {
			// Show the last prayer with a "done" marker rather than
			// breaking the status bar.
			logger.Warn("tomorrow's prayer times unavailable", zap.Error(err))
			if len(prayers) > 0 {
				fmt.Fprintf(w, "%s --:--", prayers[len(prayers)-1].Name)
				return nil
			}
			return err
		}
		tomorrowPrayers, err := prayer.Select(tomorrow.Prayers(), names)
		if err != nil {
			return err
		}
		if len(tomorrowPrayers) > 0 {
			next = &tomorrowPrayers[0]
		}
	}
	if next == nil {
		return fmt.Errorf("could not determine next prayer")
	}

	fmt.Fprint(w, prayer.FormatOutput(*next, now, o.format, o.layout()))
	return nil
}

// resolveLocation returns the location, its zone and, for database
// locations, the open store. Priority: location id > coordinates > detection.
func resolveLocation(ctx context.Context, o options, logger *zap.Logger) (prayer.Location, *time.Location, *store.Store, error) {
	switch {
	case o.locationID != 0:
		path := o.dbPath
		if path == "" {
			p, err := config.DefaultDBPath()
			if err != nil {
				return prayer.Location{}, nil, nil, err
			}
			path = p
		}
		s, err := store.Open(path, logger.Named("store"))
		if err != nil {
			return prayer.Location{}, nil, nil, err
		}
		if _, err := s.Migrate(ctx); err != nil {
			s.Close()
			return prayer.Location{}, nil, nil, err
		}
		loc, err := s.LocationByID(ctx, o.locationID)
		if err != nil {
			s.Close()
			return prayer.Location{}, nil, nil, fmt.Errorf("location %d: %w", o.locationID, err)
		}
		return loc, time.Local, s, nil

	case o.hasCoords:
		return prayer.Location{Latitude: o.latitude, Longitude: o.longitude}, time.Local, nil, nil

	default:
		c, err := cache.New(o.cacheDir)
		if err != nil {
			// Cache init failure is non-fatal; we just skip caching.
			c = nil
			logger.Warn("cache disabled", zap.Error(err))
		}

		var detected *geo.Location
		if c != nil {
			detected = c.LoadGeo()
		}
		if detected == nil {
			detected, err = detectLocation(ctx)
			if err != nil {
				return prayer.Location{}, nil, nil, fmt.Errorf("no location specified and auto-detection failed: %w", err)
			}
			if c != nil {
				if err := c.SaveGeo(detected); err != nil {
					logger.Warn("failed to cache geolocation", zap.Error(err))
				}
			}
		}
		return detected.Prayer(), detected.Zone(), nil, nil
	}
}
