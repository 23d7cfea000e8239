package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
)

func (a *app) newNextCmd() *cobra.Command {
	var format, prayers string

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer with countdown",
		Long:  "Display the next upcoming prayer time with a countdown.\nSuitable for status bars such as tmux.",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := prayer.ParseFormat(format)
			if err != nil {
				return fmt.Errorf("--format: %w", err)
			}
			q, err := a.prepare(cmd)
			if err != nil {
				return err
			}

			// Priority: --prayers flag > config > defaults.
			list := q.cfg.Prayers
			if cmd.Flags().Changed("prayers") {
				list = prayers
			}

			next, err := nextPrayer(cmd, q, selectedPrayers(list))
			if err != nil {
				return err
			}

			if a.flags.json {
				return printJSON(cmd.OutOrStdout(), nextJSON{
					Prayer:    next.Name,
					Time:      next.Time.Format(q.layout),
					Remaining: prayer.FormatRemaining(prayer.TimeRemaining(*next, q.now)),
				})
			}
			out, err := f.Render(*next, q.now, q.layout)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", prayer.FormatFull, "Display format: time-remaining, next-prayer-time, name-and-time, name-and-remaining, short-name-and-time, short-name-and-remaining, full, or a custom Go template")
	cmd.Flags().StringVar(&prayers, "prayers", "", "Comma-separated list of prayers to track (overrides config)")

	return cmd
}

// nextPrayer finds the next of names after q.now, rolling over to
// tomorrow's first prayer once today's have all passed.
func nextPrayer(cmd *cobra.Command, q query, names []string) (*prayer.Prayer, error) {
	for offset := 0; offset < 2; offset++ {
		pt, err := q.day(cmd.Context(), q.today().AddDate(0, 0, offset))
		if err != nil {
			return nil, err
		}
		prayers, err := prayer.Select(pt.Prayers(), names)
		if err != nil {
			return nil, err
		}
		if next := prayer.NextPrayer(prayers, q.now); next != nil {
			return next, nil
		}
	}
	return nil, fmt.Errorf("could not determine next prayer")
}
