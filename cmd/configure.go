package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tfd500-tools/tfd500ctl/internal/device"
)

var configureCmd = &cobra.Command{
	Use:          "configure",
	Short:        "Configure the logger's recording interval and humidity mode",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		intervalName, err := cmd.Flags().GetString("interval")
		if err != nil {
			return err
		}
		humidity, err := cmd.Flags().GetBool("humidity")
		if err != nil {
			return err
		}
		interval, err := device.ParseInterval(intervalName)
		if err != nil {
			return err
		}
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()
		ctx := cmd.Context()
		status, err := s.Status(ctx)
		if err != nil {
			return err
		}
		if status == device.StatusRecording {
			return fmt.Errorf("%w; stop it before reconfiguring", device.ErrBusy)
		}
		return s.Configure(ctx, device.Configuration{Interval: interval, Humidity: humidity})
	},
}

func init() {
	configureCmd.Flags().StringP("interval", "i", "5m", "recording interval (10s, 60s, 1m, 300s or 5m)")
	configureCmd.Flags().BoolP("humidity", "u", false, "record humidity in addition to the temperature")
	rootCmd.AddCommand(configureCmd)
}
