package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/tfd500-tools/tfd500ctl/internal/device"
	"github.com/tfd500-tools/tfd500ctl/pkg/format"
	"github.com/tfd500-tools/tfd500ctl/pkg/record"
)

const defaultTimeFormat = "02.01.2006 15:04:05"

var dumpCmd = &cobra.Command{
	Use:          "dump",
	Short:        "Dump the recorded data into a file or to stdout",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			output, _     = cmd.Flags().GetString("output")
			force, _      = cmd.Flags().GetBool("force")
			noProgress, _ = cmd.Flags().GetBool("no-progress")
			timeFormat, _ = cmd.Flags().GetString("time-format")
			dataFormat, _ = cmd.Flags().GetString("data-format")
			rawPath, _    = cmd.Flags().GetString("raw")
		)
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
			return device.ErrBusy
		}
		info, err := s.Recording(ctx)
		if err != nil {
			return err
		}
		if info.Count == 0 {
			fmt.Println("No records available (nothing has been logged).")
			return nil
		}

		out, isStdout, err := openOutput(output, force, info.Start)
		if err != nil {
			return err
		}
		if !isStdout {
			defer out.Close()
		}

		var progress func(done, total int)
		if !noProgress && !isStdout {
			bar := progressbar.NewOptions(info.Count,
				progressbar.OptionSetDescription("dumping"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			progress = func(done, total int) {
				_ = bar.Set(done)
			}
		}
		dump, err := s.Dump(ctx, progress)
		if err != nil {
			return err
		}
		if rawPath != "" {
			if err := os.WriteFile(rawPath, dump.EncodeImage(), 0o644); err != nil {
				return err
			}
		}
		return renderDump(out, dump, dataFormat, timeFormat)
	},
}

// openOutput resolves the dump destination: "-" for stdout, an explicit
// path, or a file name derived from the recording start date. Existing
// files are not overwritten unless forced.
func openOutput(output string, force bool, start time.Time) (io.WriteCloser, bool, error) {
	if output == "-" {
		return os.Stdout, true, nil
	}
	filename := output
	if filename == "" {
		filename = fmt.Sprintf("tfd500-%s.csv", start.Format("20060102"))
		fmt.Printf("Data will be written to file '%s'\n", filename)
	}
	if !force {
		if _, err := os.Stat(filename); err == nil {
			return nil, false, fmt.Errorf("'%s' already exists; use --force to overwrite", filename)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, false, err
		}
	}
	f, err := os.Create(filename)
	if err != nil {
		return nil, false, err
	}
	return f, false, nil
}

func renderDump(out io.Writer, dump *record.Dump, dataFormat, timeFormat string) error {
	template := dataFormat
	if template == "" {
		template = format.DefaultTemplate(dump.Header.Humidity)
	}
	formatTime := func(t time.Time) string {
		return t.Format(timeFormat)
	}
	w := bufio.NewWriter(out)
	for _, p := range dump.Points() {
		line, err := format.Render(template, p, formatTime)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return w.Flush()
}

func init() {
	dumpCmd.Flags().StringP("output", "o", "", "output file; '-' dumps to stdout, the default derives a name from the recording start date")
	dumpCmd.Flags().BoolP("force", "f", false, "overwrite an existing output file")
	dumpCmd.Flags().Bool("no-progress", false, "suppress the progress bar (implied when dumping to stdout)")
	dumpCmd.Flags().StringP("time-format", "t", defaultTimeFormat, "Go time layout used for the %d directive")
	dumpCmd.Flags().String("data-format", "", "record template; directives: %p %c %d %t %h %f %a %w %o (default depends on the humidity mode)")
	dumpCmd.Flags().String("raw", "", "additionally write the raw dump image to this file for offline decoding")
	rootCmd.AddCommand(dumpCmd)
}
