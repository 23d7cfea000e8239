package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/prayer-times/internal/api"
	"github.com/smokyabdulrahman/prayer-times/internal/config"
	"github.com/smokyabdulrahman/prayer-times/internal/prayer"
)

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or modify configuration",
		Long:  "Display current configuration, or use subcommands to modify it.\nWhen run without subcommands, shows the current configuration.",
		RunE:  a.runConfigShow,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value",
		Long: fmt.Sprintf("Set a configuration value. Valid keys: %s\n\nExamples:\n  prayer-times config set latitude 21.4225\n  prayer-times config set method isna\n  prayer-times config set asr_method hanafi\n  prayer-times config set offsets 0,0,2,0,3,0\n  prayer-times config set time_format 12h\n  prayer-times config set prayers Fajr,Dhuhr,Asr,Maghrib,Isha",
			strings.Join(config.ValidKeys, ", ")),
		Args: cobra.ExactArgs(2),
		RunE: a.runConfigSet,
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset config to defaults",
		Long:  "Delete the config file and restore all settings to defaults.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Path()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	return cmd
}

// runConfigShow displays the stored configuration, marking defaults.
func (a *app) runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := config.Path()
	if err != nil {
		return err
	}
	cfg := a.cfg
	if cfg == nil {
		cfg = &config.Config{}
	}
	defaults := config.Defaults()

	if a.flags.json {
		values := make(map[string]string)
		for _, key := range config.ValidKeys {
			if val, _ := cfg.Get(key); val != "" {
				values[key] = val
			}
		}
		return printJSON(cmd.OutOrStdout(), values)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "  Configuration (%s)\n\n", path)
	for _, key := range config.ValidKeys {
		val, _ := cfg.Get(key)
		shown := val
		if shown == "" {
			if def, _ := defaults.Get(key); def != "" {
				shown = def + " (default)"
			} else {
				shown = "(not set)"
			}
		}
		if key == "method" {
			shown = describeMethod(val, shown)
		}
		fmt.Fprintf(w, "  %-16s %s\n", key, shown)
	}
	return nil
}

// describeMethod appends the method's full name to its shown value.
func describeMethod(val, shown string) string {
	if val == "" {
		val = config.Defaults().Method
	}
	m, err := prayer.ParseCalculationMethod(val)
	if err != nil {
		return shown
	}
	return fmt.Sprintf("%s (%s)", shown, m.Description())
}

// runConfigSet sets a config key to the given value.
func (a *app) runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	// Reject combinations that would make every later query fail.
	if _, err := cfg.Attribute(); err != nil {
		return err
	}
	if err := cfg.Save(); err != nil {
		return err
	}

	stored, _ := cfg.Get(key)
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, stored)
	return nil
}

func (a *app) newMethodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List all calculation methods",
		Long:  "Print the supported calculation methods with their sun angles.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Supported calculation methods:")
			fmt.Fprintln(w)
			fmt.Fprintf(w, "  %-8s %-6s %-10s %-10s %s\n", "Name", "Fajr", "Maghrib", "Isha", "Description")
			fmt.Fprintf(w, "  %-8s %-6s %-10s %-10s %s\n", "────", "────", "───────", "────", "───────────")
			for _, m := range prayer.AllCalculationMethods {
				p := prayer.Params(m, prayer.DefaultCustomMethod())
				desc := m.Description()
				if id, ok := api.MethodID(m); ok {
					desc = fmt.Sprintf("%s [api %d]", desc, id)
				}
				fmt.Fprintf(w, "  %-8s %-6s %-10s %-10s %s\n",
					m, fmt.Sprintf("%g°", p.FajrAngle),
					paramString(p.MaghribIsMinutes, p.Maghrib, "sunset"),
					paramString(p.IshaIsMinutes, p.Isha, "maghrib"),
					desc)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Use --method <name> or 'config set method <name>' to select one.")
			fmt.Fprintln(w, "The custom method takes --fajr-angle and --isha-angle (default 18° and 17°).")
			return nil
		},
	}
}

// paramString renders an angle or "+N min" after the given event.
func paramString(isMinutes bool, v float64, after string) string {
	if !isMinutes {
		return fmt.Sprintf("%g°", v)
	}
	if v == 0 {
		return after
	}
	return fmt.Sprintf("+%gm", v)
}
