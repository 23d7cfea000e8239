package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-times/internal/config"
	"github.com/smokyabdulrahman/prayer-times/internal/display"
	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
	"github.com/smokyabdulrahman/prayer-times/internal/schedule"
)

// query bundles what every schedule command resolves before computing.
type query struct {
	cfg      *config.Config
	place    resolvedPlace
	attr     prayer.Attribute
	useFixed bool
	svc      *schedule.Service
	now      time.Time
	layout   string
}

// today is midnight of the current day in the place's zone.
func (q query) today() time.Time {
	return startOfDay(q.now)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// prepare merges the configuration, resolves the place and builds the
// schedule service.
func (a *app) prepare(cmd *cobra.Command) (query, error) {
	cfg, err := a.effectiveConfig(cmd)
	if err != nil {
		return query{}, err
	}
	attr, err := cfg.Attribute()
	if err != nil {
		return query{}, err
	}
	place, err := a.resolvePlace(cmd.Context(), cfg)
	if err != nil {
		return query{}, err
	}
	return query{
		cfg:      cfg,
		place:    place,
		attr:     attr,
		useFixed: cfg.UseFixedOrDefault(true),
		svc:      a.service(cfg, place),
		now:      a.now().In(place.Zone),
		layout:   display.TimeLayout(cfg.TimeFormat),
	}, nil
}

// day computes the prayer times of date for the query's place.
func (q query) day(ctx context.Context, date time.Time) (prayer.PrayerTime, error) {
	pt, err := q.svc.PrayerTimes(ctx, q.place.Loc, date, q.attr, q.useFixed)
	if err != nil {
		return prayer.PrayerTime{}, fmt.Errorf("%s on %s: %w", q.place.Label(), date.Format("2006-01-02"), err)
	}
	return pt, nil
}

// selectedPrayers parses a comma-separated prayer list, defaulting to all six.
func selectedPrayers(list string) []string {
	if list == "" {
		return prayer.Names
	}
	names := strings.Split(list, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	return names
}

func (a *app) runToday(cmd *cobra.Command, args []string) error {
	q, err := a.prepare(cmd)
	if err != nil {
		return err
	}

	pt, err := q.day(cmd.Context(), q.today())
	if err != nil {
		return err
	}
	prayers, err := prayer.Select(pt.Prayers(), selectedPrayers(q.cfg.Prayers))
	if err != nil {
		return err
	}

	current := prayer.CurrentPrayer(prayers, q.now)
	next := prayer.NextPrayer(prayers, q.now)

	if a.flags.json {
		return printTodayJSON(cmd.OutOrStdout(), q, prayers, current, next)
	}
	printTodayRich(cmd.OutOrStdout(), q, prayers, next)
	return nil
}

// source describes where the times came from.
func (q query) source() string {
	if q.useFixed && q.place.Loc.HasFixedSchedule {
		return "fixed time-table"
	}
	return fmt.Sprintf("%s, %s Asr", q.attr.Method.Description(), q.attr.Asr)
}

// printTodayRich renders the colored terminal output for today's prayer schedule.
func printTodayRich(w io.Writer, q query, prayers []prayer.Prayer, next *prayer.Prayer) {
	fmt.Fprintln(w)
	fmt.Fprint(w, display.Header("Prayer Times", q.now.Format("Monday 02 January 2006")))
	fmt.Fprintln(w)

	label := q.place.Label()
	if q.place.Detected {
		label += display.Dim(" (detected)")
	}
	fmt.Fprintf(w, "  %s\n", label)
	fmt.Fprintf(w, "  %s\n", display.Gray(q.place.ZoneLabel()+" · "+q.source()))
	fmt.Fprintln(w)

	fmt.Fprint(w, display.DayTable(prayers, next, q.now, q.layout).Render())
	fmt.Fprintln(w)
}

// todayJSON is the JSON output structure for the root command.
type todayJSON struct {
	Location locationJSON      `json:"location"`
	Date     string            `json:"date"`
	Source   string            `json:"source"`
	Timings  map[string]string `json:"timings"`
	Current  string            `json:"current"`
	Next     *nextJSON         `json:"next"`
}

type locationJSON struct {
	ID        int     `json:"id,omitempty"`
	Name      string  `json:"name"`
	Timezone  string  `json:"timezone"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Fixed     bool    `json:"fixed"`
}

type nextJSON struct {
	Prayer    string `json:"prayer"`
	Time      string `json:"time"`
	Remaining string `json:"remaining"`
}

func newLocationJSON(p resolvedPlace) locationJSON {
	return locationJSON{
		ID:        p.Loc.ID,
		Name:      p.Label(),
		Timezone:  p.ZoneLabel(),
		Latitude:  p.Loc.Latitude,
		Longitude: p.Loc.Longitude,
		Fixed:     p.Loc.HasFixedSchedule,
	}
}

// timingsMap keys formatted times by lower-case prayer name.
func timingsMap(prayers []prayer.Prayer, layout string) map[string]string {
	m := make(map[string]string, len(prayers))
	for _, p := range prayers {
		m[strings.ToLower(p.Name)] = p.Time.Format(layout)
	}
	return m
}

func printTodayJSON(w io.Writer, q query, prayers []prayer.Prayer, current, next *prayer.Prayer) error {
	out := todayJSON{
		Location: newLocationJSON(q.place),
		Date:     q.now.Format("2006-01-02"),
		Source:   q.source(),
		Timings:  timingsMap(prayers, q.layout),
	}
	if current != nil {
		out.Current = strings.ToLower(current.Name)
	}
	if next != nil {
		out.Next = &nextJSON{
			Prayer:    strings.ToLower(next.Name),
			Time:      next.Time.Format(q.layout),
			Remaining: prayer.FormatRemaining(prayer.TimeRemaining(*next, q.now)),
		}
	}
	return printJSON(w, out)
}
