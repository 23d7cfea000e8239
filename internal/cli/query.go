package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-times/internal/display"
	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
)

func (a *app) newQueryCmd() *cobra.Command {
	var daysFlag string

	cmd := &cobra.Command{
		Use:   "query <prayer>",
		Short: "Query a specific prayer time",
		Long:  "Query a specific prayer time for today, or across multiple days with --days.\n\nValid prayer names: Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := canonicalPrayer(args[0])
			if err != nil {
				return err
			}
			days := 1
			if daysFlag != "" {
				if days, err = parseDays(daysFlag); err != nil {
					return fmt.Errorf("invalid --days value: %w", err)
				}
			}
			return a.runQuery(cmd, name, days)
		},
	}

	cmd.Flags().StringVar(&daysFlag, "days", "", "Number of days to show (or 'week'/'month')")

	return cmd
}

type queryJSONDay struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

type queryJSONOutput struct {
	Location locationJSON   `json:"location"`
	Prayer   string         `json:"prayer"`
	Days     []queryJSONDay `json:"days"`
}

func (a *app) runQuery(cmd *cobra.Command, name string, days int) error {
	q, err := a.prepare(cmd)
	if err != nil {
		return err
	}

	result, err := q.schedule(cmd, days)
	if err != nil {
		return err
	}

	times := make([]time.Time, len(result))
	for i, d := range result {
		selected, err := prayer.Select(d.Times.Prayers(), []string{name})
		if err != nil {
			return err
		}
		times[i] = selected[0].Time
	}

	w := cmd.OutOrStdout()
	if a.flags.json {
		out := queryJSONOutput{Location: newLocationJSON(q.place), Prayer: name}
		for i, d := range result {
			out.Days = append(out.Days, queryJSONDay{
				Date: d.Date.Format("2006-01-02"),
				Time: times[i].Format(q.layout),
			})
		}
		return printJSON(w, out)
	}

	if days == 1 {
		fmt.Fprintf(w, "%s %s\n", name, times[0].Format(q.layout))
		return nil
	}

	today := q.today()
	tbl := display.NewTable([]string{"Date", name})
	for i, d := range result {
		tbl.AddRow([]string{d.Date.Format("Mon 02 Jan"), times[i].Format(q.layout)})
		if d.Date.Equal(today) {
			tbl.SetHighlightRow(i)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprint(w, display.Header(fmt.Sprintf("%s Times: %d Days", name, days), q.place.Label()))
	fmt.Fprintln(w)
	fmt.Fprint(w, tbl.Render())
	fmt.Fprintln(w)
	return nil
}
