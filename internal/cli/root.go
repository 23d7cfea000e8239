// Package cli wires the prayer-times commands: the schedule service, the
// location database, the config file and the terminal renderers.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/smokyabdulrahman/prayer-times/internal/api"
	"github.com/smokyabdulrahman/prayer-times/internal/config"
	"github.com/smokyabdulrahman/prayer-times/internal/display"
	"github.com/smokyabdulrahman/prayer-times/internal/geo"
	"github.com/smokyabdulrahman/prayer-times/internal/logging"
	"github.com/smokyabdulrahman/prayer-times/internal/schedule"
	"github.com/smokyabdulrahman/prayer-times/internal/store"
)

// EnvLogEnv selects the logger flavour ("production" for JSON).
const EnvLogEnv = "PRAYER_TIMES_ENV"

// flags holds the global persistent flags.
type flags struct {
	locationID int
	city       string
	country    string
	latitude   float64
	longitude  float64
	timezone   float64
	method     string
	fajrAngle  float64
	ishaAngle  float64
	asrMethod  string
	highLat    string
	offsets    string
	noFixed    bool
	json       bool
	timeFormat string
	cacheDir   string
	dbPath     string
	dstZone    string
	verbose    bool
}

// app carries everything a command needs. Collaborators that touch the
// outside world are fields so tests can replace them.
type app struct {
	flags  flags
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store

	now       func() time.Time
	detectGeo func(ctx context.Context) (*geo.Location, error)
	apiClient *api.Client
}

func newApp() *app {
	return &app{
		logger:    zap.NewNop(),
		now:       time.Now,
		detectGeo: geo.DetectLocation,
		apiClient: api.NewClient(),
	}
}

// NewRootCmd creates the root command for the prayer-times CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	return newRootCmd(newApp(), version)
}

func newRootCmd(a *app, version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "prayer-times",
		Short: "Islamic prayer times CLI",
		Long: "Compute Islamic prayer times offline, from sun-angle calculation or from\n" +
			"the fixed time-tables stored in the location database.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
		// Default action: show today's prayer schedule.
		RunE:          a.runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	f := &a.flags
	pf.IntVar(&f.locationID, "location-id", 0, "Location id from the location database")
	pf.StringVar(&f.city, "city", "", "City name, looked up in the location database (needs --country)")
	pf.StringVar(&f.country, "country", "", "ISO country code used with --city")
	pf.Float64Var(&f.latitude, "latitude", 0, "Latitude in degrees north")
	pf.Float64Var(&f.longitude, "longitude", 0, "Longitude in degrees east")
	pf.Float64Var(&f.timezone, "timezone", 0, "UTC offset in hours (default: the location's zone)")
	pf.StringVar(&f.method, "method", "", "Calculation method (see 'methods')")
	pf.Float64Var(&f.fajrAngle, "fajr-angle", 0, "Fajr angle for the custom method")
	pf.Float64Var(&f.ishaAngle, "isha-angle", 0, "Isha angle for the custom method")
	pf.StringVar(&f.asrMethod, "asr", "", "Asr juristic method: shafii or hanafi")
	pf.StringVar(&f.highLat, "high-lat", "", "Higher latitude rule: angle-based, mid-night, one-seventh or none")
	pf.StringVar(&f.offsets, "offsets", "", "Minute offsets for Fajr,Sunrise,Dhuhr,Asr,Maghrib,Isha")
	pf.BoolVar(&f.noFixed, "no-fixed", false, "Always calculate, even where a fixed time-table exists")
	pf.BoolVar(&f.json, "json", false, "Output as JSON (where supported)")
	pf.StringVar(&f.timeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.StringVar(&f.cacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/prayer-times/)")
	pf.StringVar(&f.dbPath, "db", "", "Location database path (default: $PRAYER_TIMES_DB or the config dir)")
	pf.StringVar(&f.dstZone, "dst-zone", dstZoneLocation, "Zone whose daylight saving shifts fixed time-tables: location or local")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(a.newNextCmd())
	rootCmd.AddCommand(a.newListCmd())
	rootCmd.AddCommand(a.newWeekCmd())
	rootCmd.AddCommand(a.newMonthCmd())
	rootCmd.AddCommand(a.newQueryCmd())
	rootCmd.AddCommand(a.newConfigCmd())
	rootCmd.AddCommand(a.newMethodsCmd())
	rootCmd.AddCommand(a.newLocationsCmd())
	rootCmd.AddCommand(a.newDBCmd())
	rootCmd.AddCommand(a.newCompareCmd())

	return rootCmd
}

// Values of --dst-zone.
const (
	dstZoneLocation = "location"
	dstZoneLocal    = "local"
)

func (a *app) setup() error {
	if a.flags.dstZone != dstZoneLocation && a.flags.dstZone != dstZoneLocal {
		return fmt.Errorf("--dst-zone: invalid value %q: must be %s or %s", a.flags.dstZone, dstZoneLocation, dstZoneLocal)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg

	level := ""
	if a.flags.verbose {
		level = "debug"
	}
	logger, err := logging.New(os.Getenv(EnvLogEnv), level)
	if err != nil {
		return err
	}
	a.logger = logger

	if a.flags.json {
		display.SetEnabled(false)
	}
	return nil
}

func (a *app) teardown() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	// Sync fails on stderr for some terminals; it carries no data loss.
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

// effectiveConfig returns the merged configuration values,
// applying the priority: CLI flags > config file > defaults.
// It uses pflag's Changed to detect whether a flag was explicitly set.
func (a *app) effectiveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Config{}
	if a.cfg != nil {
		cfg = *a.cfg
	}
	defaults := config.Defaults()

	local := cmd.Flags()
	root := cmd.Root().PersistentFlags()
	set := func(name string) bool { return flagWasSet(local, root, name) }
	f := a.flags

	// A place given on the command line replaces the configured one as a
	// whole, so a stale location_id cannot shadow --latitude.
	if set("location-id") || set("city") || set("latitude") || set("longitude") {
		cfg.LocationID, cfg.City, cfg.Country, cfg.Latitude, cfg.Longitude = 0, "", "", nil, nil
	}
	if set("location-id") {
		cfg.LocationID = f.locationID
	}
	if set("city") {
		cfg.City = f.city
	}
	if set("country") {
		if err := cfg.Set("country", f.country); err != nil {
			return nil, err
		}
	}
	if set("latitude") {
		if err := cfg.Set("latitude", formatFlagFloat(f.latitude)); err != nil {
			return nil, err
		}
	}
	if set("longitude") {
		if err := cfg.Set("longitude", formatFlagFloat(f.longitude)); err != nil {
			return nil, err
		}
	}

	// The remaining flags go through Set so they get the same validation as
	// the config file.
	stringFlags := []struct{ flag, key, value string }{
		{"method", "method", f.method},
		{"asr", "asr_method", f.asrMethod},
		{"high-lat", "high_lat_method", f.highLat},
		{"offsets", "offsets", f.offsets},
		{"time-format", "time_format", f.timeFormat},
		{"timezone", "timezone", formatFlagFloat(f.timezone)},
		{"fajr-angle", "fajr_angle", formatFlagFloat(f.fajrAngle)},
		{"isha-angle", "isha_angle", formatFlagFloat(f.ishaAngle)},
		{"cache-dir", "cache_dir", f.cacheDir},
		{"db", "db_path", f.dbPath},
	}
	for _, sf := range stringFlags {
		if !set(sf.flag) {
			continue
		}
		if err := cfg.Set(sf.key, sf.value); err != nil {
			return nil, fmt.Errorf("--%s: %w", sf.flag, err)
		}
	}
	if set("no-fixed") {
		useFixed := !f.noFixed
		cfg.UseFixed = &useFixed
	}

	if cfg.TimeFormat == "" {
		cfg.TimeFormat = defaults.TimeFormat
	}
	return &cfg, nil
}

// flagWasSet checks if a flag was explicitly set on either the local or persistent flag set.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}

// dbPath returns the configured database path or the default one.
func dbPath(cfg *config.Config) (string, error) {
	if cfg.DBPath != "" {
		return cfg.DBPath, nil
	}
	return config.DefaultDBPath()
}

// openStore opens and migrates the location database once per command.
func (a *app) openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	path, err := dbPath(cfg)
	if err != nil {
		return nil, err
	}
	s, err := store.Open(path, a.logger.Named("store"))
	if err != nil {
		return nil, err
	}
	if _, err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	a.store = s
	return s, nil
}

// storeIfExists opens the database only when the file is already there, so
// plain coordinate queries never create one.
func (a *app) storeIfExists(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	path, err := dbPath(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return a.openStore(ctx, cfg)
}

// service builds the schedule service for a resolved place.
func (a *app) service(cfg *config.Config, place resolvedPlace) *schedule.Service {
	opts := []schedule.Option{
		schedule.WithLogger(a.logger.Named("schedule")),
		schedule.WithDST(a.dstDetector(place)),
	}
	if cfg.Timezone != nil {
		opts = append(opts, schedule.WithTimezone(*cfg.Timezone))
	}

	// A nil *store.Store must not become a non-nil interface.
	var table schedule.FixedTimeTable
	if a.store != nil {
		table = a.store
	}
	return schedule.New(table, opts...)
}

// dstDetector checks daylight saving in the place's zone, or in the process
// zone with --dst-zone local.
func (a *app) dstDetector(place resolvedPlace) schedule.LocalDST {
	if a.flags.dstZone == dstZoneLocal {
		return schedule.LocalDST{Location: time.Local}
	}
	return schedule.LocalDST{Location: place.Zone}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
