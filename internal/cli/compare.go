package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smokyabdulrahman/prayer-times/internal/api"
	"github.com/smokyabdulrahman/prayer-times/internal/cache"
	"github.com/smokyabdulrahman/prayer-times/internal/display"
	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
)

func (a *app) newCompareCmd() *cobra.Command {
	var (
		tolerance int
		strict    bool
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare today's times with the Al Adhan API",
		Long: "Calculate today's times locally and fetch the same day from the Al Adhan API\n" +
			"with the same method, Asr rule, higher latitude rule and offsets, then show\n" +
			"the difference per prayer in minutes. Fixed time-tables are not used.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.prepare(cmd)
			if err != nil {
				return err
			}
			q.useFixed = false

			date := q.today()
			local, err := q.day(cmd.Context(), date)
			if err != nil {
				return err
			}

			var c *cache.Cache
			if !noCache {
				if c, err = cache.New(q.cfg.CacheDir); err != nil {
					c = nil
					a.logger.Warn("cache disabled", zap.Error(err))
				}
			}
			ref, err := a.referenceTimes(cmd, q, date, c)
			if err != nil {
				return err
			}

			diffs := minuteDiffs(local, ref)
			beyond := 0
			for _, d := range diffs {
				if abs(d) > tolerance {
					beyond++
				}
			}

			w := cmd.OutOrStdout()
			if a.flags.json {
				if err := printCompareJSON(w, q, local, ref, diffs); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(w)
				fmt.Fprint(w, display.Header("Local vs Al Adhan", date.Format("Monday 02 January 2006")))
				fmt.Fprintf(w, "  %s\n", display.Gray(q.place.Label()+" · "+q.place.ZoneLabel()+" · "+q.attr.Method.Description()))
				fmt.Fprintln(w)
				fmt.Fprint(w, display.CompareTable(local, ref, q.layout, tolerance).Render())
				fmt.Fprintln(w)
			}

			if strict && beyond > 0 {
				return fmt.Errorf("%d prayer times differ by more than %d minutes", beyond, tolerance)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&tolerance, "tolerance", 2, "Allowed difference in minutes")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit with an error when a difference exceeds the tolerance")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Always query the API")

	return cmd
}

// referenceTimes fetches date's timings from the API (through the cache when
// given) and converts them into the place's zone.
func (a *app) referenceTimes(cmd *cobra.Command, q query, date time.Time, c *cache.Cache) (prayer.PrayerTime, error) {
	lat, lng := q.place.Loc.Latitude, q.place.Loc.Longitude

	var (
		timings api.Timings
		meta    api.Meta
	)
	if entry := loadCached(c, date, lat, lng, q.attr); entry != nil {
		a.logger.Debug("api cache hit", zap.String("date", entry.Date))
		timings, meta = entry.Timings, entry.Meta
	} else {
		resp, err := a.apiClient.FetchByCoordinates(cmd.Context(), date, lat, lng, q.attr)
		if err != nil {
			return prayer.PrayerTime{}, err
		}
		if c != nil {
			if err := c.SaveTimings(date, lat, lng, "", "", q.attr, resp); err != nil {
				a.logger.Warn("failed to cache API response", zap.Error(err))
			}
		}
		timings, meta = resp.Data.Timings, resp.Data.Meta
	}

	zone, err := meta.Location()
	if err != nil {
		return prayer.PrayerTime{}, err
	}
	y, m, d := date.Date()
	pt, err := timings.PrayerTime(time.Date(y, m, d, 0, 0, 0, 0, zone))
	if err != nil {
		return prayer.PrayerTime{}, err
	}

	arr := pt.Array()
	for i := range arr {
		arr[i] = arr[i].In(q.place.Zone)
	}
	return prayer.FromArray(arr), nil
}

func loadCached(c *cache.Cache, date time.Time, lat, lng float64, attr prayer.Attribute) *cache.TimingsEntry {
	if c == nil {
		return nil
	}
	return c.LoadTimings(date, lat, lng, "", "", attr)
}

// minuteDiffs is local minus reference per prayer, rounded to minutes.
func minuteDiffs(local, ref prayer.PrayerTime) [6]int {
	var out [6]int
	l, r := local.Array(), ref.Array()
	for i := range out {
		out[i] = int(l[i].Sub(r[i]).Round(time.Minute) / time.Minute)
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

type compareJSONRow struct {
	Prayer string `json:"prayer"`
	Local  string `json:"local"`
	API    string `json:"api"`
	Diff   int    `json:"diff_minutes"`
}

type compareJSONOutput struct {
	Location locationJSON     `json:"location"`
	Date     string           `json:"date"`
	Method   string           `json:"method"`
	Prayers  []compareJSONRow `json:"prayers"`
}

func printCompareJSON(w io.Writer, q query, local, ref prayer.PrayerTime, diffs [6]int) error {
	out := compareJSONOutput{
		Location: newLocationJSON(q.place),
		Date:     q.today().Format("2006-01-02"),
		Method:   q.attr.Method.String(),
	}
	l, r := local.Array(), ref.Array()
	for i, name := range prayer.Names {
		out.Prayers = append(out.Prayers, compareJSONRow{
			Prayer: strings.ToLower(name),
			Local:  l[i].Format(q.layout),
			API:    r[i].Format(q.layout),
			Diff:   diffs[i],
		})
	}
	return printJSON(w, out)
}
