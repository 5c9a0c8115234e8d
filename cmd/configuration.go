package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tfd500-tools/tfd500ctl/internal/device"
)

var configurationCmd = &cobra.Command{
	Use:          "configuration",
	Short:        "Print the logger's current configuration",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
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
		cfg, err := s.Configuration(ctx)
		if err != nil {
			return err
		}
		info, err := s.Recording(ctx)
		if err != nil {
			return err
		}
		mode := "temperature only"
		if cfg.Humidity {
			mode = "temperature plus humidity"
		}
		// The stored count is unreliable while a recording is running.
		count := fmt.Sprintf("%d", info.Count)
		recording := "NOT recording"
		if status == device.StatusRecording {
			count = "unknown"
			recording = "recording"
		}
		fmt.Printf("Status:       %s\n", recording)
		fmt.Printf("Start:        %s\n", info.Start.Format(time.ANSIC))
		fmt.Printf("Interval:     %s\n", cfg.Interval)
		fmt.Printf("Mode:         %s\n", mode)
		fmt.Printf("# of records: %s\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configurationCmd)
}
