package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-times/internal/display"
	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
	"github.com/smokyabdulrahman/prayer-times/internal/schedule"
)

func (a *app) newLocationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locations",
		Short: "Search the location database",
		Long:  "Look up locations by name, by coordinates, or list those with a fixed time-table.\nUse the id with --location-id or 'config set location_id'.",
	}

	var limit int
	search := &cobra.Command{
		Use:   "search <name-prefix>",
		Short: "Find locations whose name starts with a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.locationSource(cmd)
			if err != nil {
				return err
			}
			locs, err := src.Search(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return a.printLocations(cmd.OutOrStdout(), locs)
		},
	}
	search.Flags().IntVar(&limit, "limit", 20, "Maximum number of results (-1 for all)")

	near := &cobra.Command{
		Use:   "near <latitude> <longitude>",
		Short: "Find the location closest to a coordinate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := parseCoordinate("latitude", args[0], 90)
			if err != nil {
				return err
			}
			lng, err := parseCoordinate("longitude", args[1], 180)
			if err != nil {
				return err
			}
			src, err := a.locationSource(cmd)
			if err != nil {
				return err
			}
			loc, err := src.ReverseGeocode(cmd.Context(), lat, lng)
			if err != nil {
				return err
			}
			return a.printLocations(cmd.OutOrStdout(), []prayer.Location{loc})
		},
	}

	fixed := &cobra.Command{
		Use:   "fixed",
		Short: "List locations that use a fixed time-table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := a.locationSource(cmd)
			if err != nil {
				return err
			}
			locs, err := src.FixedScheduleLocations(cmd.Context())
			if err != nil {
				return err
			}
			return a.printLocations(cmd.OutOrStdout(), locs)
		},
	}

	cmd.AddCommand(search, near, fixed)
	return cmd
}

// locationSource opens the configured location database.
func (a *app) locationSource(cmd *cobra.Command) (schedule.LocationSource, error) {
	cfg, err := a.effectiveConfig(cmd)
	if err != nil {
		return nil, err
	}
	return a.openStore(cmd.Context(), cfg)
}

func parseCoordinate(name, s string, bound float64) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || v < -bound || v > bound {
		return 0, fmt.Errorf("invalid %s %q: must be between %g and %g", name, s, -bound, bound)
	}
	return v, nil
}

func (a *app) printLocations(w io.Writer, locs []prayer.Location) error {
	if a.flags.json {
		if locs == nil {
			locs = []prayer.Location{}
		}
		return printJSON(w, locs)
	}
	if len(locs) == 0 {
		fmt.Fprintln(w, "No locations found.")
		return nil
	}

	tbl := display.NewTable([]string{"ID", "Name", "Country", "Latitude", "Longitude", "Fixed"})
	for _, l := range locs {
		fixed := ""
		if l.HasFixedSchedule {
			fixed = "yes"
			if l.ScheduleID() != l.ID {
				fixed = fmt.Sprintf("via %d", l.ScheduleID())
			}
		}
		tbl.AddRow([]string{
			strconv.Itoa(l.ID), l.Name, l.CountryCode,
			strconv.FormatFloat(l.Latitude, 'f', 4, 64),
			strconv.FormatFloat(l.Longitude, 'f', 4, 64),
			fixed,
		})
	}
	fmt.Fprint(w, tbl.Render())
	return nil
}
