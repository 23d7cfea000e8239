package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-times/internal/display"
	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
	"github.com/smokyabdulrahman/prayer-times/internal/schedule"
)

// maxDays caps list and query ranges at roughly a year.
const maxDays = 366

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [days]",
		Short: "Show prayer times for multiple days",
		Long:  "Display a grid of prayer times for N days (default: 7).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days := 7
			if len(args) > 0 {
				n, err := parseDays(args[0])
				if err != nil {
					return err
				}
				days = n
			}
			return a.runList(cmd, days)
		},
	}
}

func (a *app) newWeekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show prayer times for the next 7 days",
		Long:  "Alias for 'list 7'. Display a grid of prayer times for 7 days.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, 7)
		},
	}
}

func (a *app) newMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month",
		Short: "Show prayer times for the next 30 days",
		Long:  "Alias for 'list 30'. Display a grid of prayer times for 30 days.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, 30)
		},
	}
}

// parseDays accepts a positive day count, "week" or "month".
func parseDays(s string) (int, error) {
	switch s {
	case "week":
		return 7, nil
	case "month":
		return 30, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxDays {
		return 0, fmt.Errorf("invalid number of days: %q (must be 1-%d, 'week' or 'month')", s, maxDays)
	}
	return n, nil
}

// schedule computes days consecutive days starting today.
func (q query) schedule(cmd *cobra.Command, days int) ([]schedule.Day, error) {
	out, err := q.svc.Range(cmd.Context(), q.place.Loc, q.today(), days, q.attr, q.useFixed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", q.place.Label(), err)
	}
	return out, nil
}

func (a *app) runList(cmd *cobra.Command, days int) error {
	q, err := a.prepare(cmd)
	if err != nil {
		return err
	}
	names := selectedPrayers(q.cfg.Prayers)

	result, err := q.schedule(cmd, days)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if a.flags.json {
		return printListJSON(w, q, result, names)
	}

	dates := make([]time.Time, len(result))
	times := make([]prayer.PrayerTime, len(result))
	for i, d := range result {
		dates[i], times[i] = d.Date, d.Times
	}
	tbl, err := display.ScheduleTable(dates, times, names, q.today(), q.layout)
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprint(w, display.Header(fmt.Sprintf("Prayer Times: %d Days", days), q.place.Label()))
	fmt.Fprintf(w, "  %s\n", display.Gray(q.place.ZoneLabel()+" · "+q.source()))
	fmt.Fprintln(w)
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
	return nil
}

// listJSONOutput is the JSON structure for the list command.
type listJSONOutput struct {
	Location locationJSON  `json:"location"`
	Source   string        `json:"source"`
	Days     []listJSONDay `json:"days"`
}

type listJSONDay struct {
	Date    string            `json:"date"`
	Timings map[string]string `json:"timings"`
}

func printListJSON(w io.Writer, q query, days []schedule.Day, names []string) error {
	out := listJSONOutput{
		Location: newLocationJSON(q.place),
		Source:   q.source(),
		Days:     make([]listJSONDay, 0, len(days)),
	}
	for _, d := range days {
		prayers, err := prayer.Select(d.Times.Prayers(), names)
		if err != nil {
			return err
		}
		out.Days = append(out.Days, listJSONDay{
			Date:    d.Date.Format("2006-01-02"),
			Timings: timingsMap(prayers, q.layout),
		})
	}
	return printJSON(w, out)
}

// canonicalPrayer normalizes the case of a prayer name.
func canonicalPrayer(name string) (string, error) {
	for _, n := range prayer.Names {
		if strings.EqualFold(n, name) {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown prayer %q; valid names: %s", name, strings.Join(prayer.Names, ", "))
}
