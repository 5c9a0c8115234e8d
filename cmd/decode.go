package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tfd500-tools/tfd500ctl/pkg/record"
)

var decodeCmd = &cobra.Command{
	Use:          "decode <image>",
	Short:        "Render a saved raw dump image without a device attached",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeFormat, _ := cmd.Flags().GetString("time-format")
		dataFormat, _ := cmd.Flags().GetString("data-format")
		buf, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		dump, err := record.DecodeImage(buf)
		if err != nil {
			return err
		}
		return renderDump(os.Stdout, dump, dataFormat, timeFormat)
	},
}

func init() {
	decodeCmd.Flags().StringP("time-format", "t", defaultTimeFormat, "Go time layout used for the %d directive")
	decodeCmd.Flags().String("data-format", "", "record template; directives: %p %c %d %t %h %f %a %w %o (default depends on the humidity mode)")
	rootCmd.AddCommand(decodeCmd)
}
