package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tfd500-tools/tfd500ctl/internal/device"
)

var statusCmd = &cobra.Command{
	Use: "status",
	Short: "Print and return the logger's status; the exit code is 0 when " +
		"the logger is idle and 1 while it is recording",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		silent, err := cmd.Flags().GetBool("silent")
		if err != nil {
			return err
		}
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()
		status, err := s.Status(cmd.Context())
		if err != nil {
			return err
		}
		if status == device.StatusRecording {
			exitCode = 1
		}
		if !silent {
			if status == device.StatusIdle {
				fmt.Println("IDLE")
			} else {
				fmt.Println("RECORDING")
			}
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolP("silent", "s", false, "print nothing; report the status through the exit code only")
	rootCmd.AddCommand(statusCmd)
}
