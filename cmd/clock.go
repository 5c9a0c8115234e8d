package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// Layouts accepted by set-clock --value.
var clockLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02.01.2006 15:04:05",
}

var getClockCmd = &cobra.Command{
	Use:          "get-clock",
	Short:        "Get the value of the logger's internal real-time clock",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()
		clock, err := s.Clock(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(clock.Format(time.ANSIC))
		return nil
	},
}

var setClockCmd = &cobra.Command{
	Use: "set-clock",
	Short: "Set the logger's internal real-time clock. Configuring the logger " +
		"also sets the clock, so this is rarely needed on its own",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := cmd.Flags().GetString("value")
		if err != nil {
			return err
		}
		stamp := time.Now()
		if value != "" {
			stamp, err = parseClock(value)
			if err != nil {
				return err
			}
		}
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()
		return s.SetClock(cmd.Context(), stamp)
	},
}

func parseClock(value string) (time.Time, error) {
	for _, layout := range clockLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time value %q", value)
}

func init() {
	setClockCmd.Flags().String("value", "", "time to set; defaults to the current date and time")
	rootCmd.AddCommand(getClockCmd)
	rootCmd.AddCommand(setClockCmd)
}
