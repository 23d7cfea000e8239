package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-times/internal/store"
)

func (a *app) newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the location database",
		Long:  "Create the location database and load locations and fixed time-tables into it.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.storeFor(cmd)
			if err != nil {
				return err
			}
			version, err := s.Version(cmd.Context())
			if err != nil {
				return err
			}
			path, _ := a.dbPathFor(cmd)
			fmt.Fprintf(cmd.OutOrStdout(), "Database %s at schema version %d\n", path, version)
			return nil
		},
	})

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import CSV data",
	}
	importCmd.AddCommand(&cobra.Command{
		Use:   "locations <file.csv>",
		Short: "Import locations",
		Long: "Import locations from CSV with the header\n\n" +
			"  id,country_code,country_name,name,latitude,longitude,has_fixed,parent_id\n\n" +
			"Existing ids are updated in place.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			locs, err := store.ReadLocationsCSV(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			s, err := a.storeFor(cmd)
			if err != nil {
				return err
			}
			if err := s.ImportLocations(cmd.Context(), locs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d locations\n", len(locs))
			return nil
		},
	})
	importCmd.AddCommand(&cobra.Command{
		Use:   "times <file.csv>",
		Short: "Import fixed prayer time-tables",
		Long: "Import fixed prayer times from CSV with the header\n\n" +
			"  location_id,date,fajr,sunrise,dhuhr,asr,maghrib,isha\n\n" +
			"date is MM-DD (or YYYY-MM-DD, whose year is ignored) and times are HH:MM.\n" +
			"The rows repeat every year. Existing rows for the same day are replaced.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := store.ReadFixedTimesCSV(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			s, err := a.storeFor(cmd)
			if err != nil {
				return err
			}
			n, err := s.ImportFixedTimes(cmd.Context(), rows)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d fixed prayer time rows\n", n)
			return nil
		},
	})
	cmd.AddCommand(importCmd)

	return cmd
}

func (a *app) storeFor(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := a.effectiveConfig(cmd)
	if err != nil {
		return nil, err
	}
	return a.openStore(cmd.Context(), cfg)
}

func (a *app) dbPathFor(cmd *cobra.Command) (string, error) {
	cfg, err := a.effectiveConfig(cmd)
	if err != nil {
		return "", err
	}
	return dbPath(cfg)
}
