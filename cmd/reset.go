package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var clearFlashCmd = &cobra.Command{
	Use:          "clear-flash",
	Short:        "Clear the flash memory, removing all data records",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		keepSettings, _ := cmd.Flags().GetBool("keep-settings")
		if !yes && !confirm("This removes all data records from the logger.") {
			return nil
		}
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()
		ctx := cmd.Context()
		if !keepSettings {
			return s.ClearFlash(ctx)
		}
		// The device's clear command also wipes settings and clock, so
		// read the configuration first and write it back afterwards.
		cfg, err := s.Configuration(ctx)
		if err != nil {
			return err
		}
		if err := s.ClearFlash(ctx); err != nil {
			return err
		}
		return s.Configure(ctx, cfg)
	},
}

var factoryResetCmd = &cobra.Command{
	Use:          "factory-reset",
	Short:        "Restore factory defaults; all data records and settings will be lost",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm("This restores factory defaults and erases all data records.") {
			return nil
		}
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()
		return s.FactoryReset(cmd.Context())
	},
}

func confirm(warning string) bool {
	fmt.Printf("%s Continue? [y/N] ", warning)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}

func init() {
	clearFlashCmd.Flags().BoolP("keep-settings", "k", false, "keep the recording settings and clock")
	clearFlashCmd.Flags().Bool("yes", false, "do not ask for confirmation")
	factoryResetCmd.Flags().Bool("yes", false, "do not ask for confirmation")
	rootCmd.AddCommand(clearFlashCmd)
	rootCmd.AddCommand(factoryResetCmd)
}
