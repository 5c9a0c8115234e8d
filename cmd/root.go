package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tfd500-tools/tfd500ctl/internal/device"
)

var (
	cfgFile string
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:          "tfd500ctl",
	Short:        "Control tool for the ELV TFD500 temperature/humidity data logger",
	SilenceUsage: true,
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitCode
}

// exitCode lets commands report a non-zero exit without an error message,
// the way the status command signals "recording".
var exitCode int

func init() {
	logger = slog.Default()
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tfd500ctl.toml)")
	rootCmd.PersistentFlags().StringP("device", "d", "/dev/ttyUSB0", "path to the serial device")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	cobra.CheckErr(viper.BindPFlag("device.path", rootCmd.PersistentFlags().Lookup("device")))
	cobra.CheckErr(viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose")))

	viper.SetDefault("device.baud_rate", 115200)
	viper.SetDefault("device.timeout", "5s")
	viper.SetDefault("device.retries", 3)
}

func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("/etc/tfd500ctl")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".tfd500ctl")
		viper.SetConfigType("toml")
	}
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if viper.GetBool("verbose") {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	if err := viper.ReadInConfig(); err == nil {
		logger.LogAttrs(nil, slog.LevelInfo, "Using config file", slog.String("config", viper.ConfigFileUsed()))
	}
}

// openSession connects to the configured serial device.
func openSession() (*device.Session, error) {
	return device.Open(device.Config{
		Path:     viper.GetString("device.path"),
		BaudRate: viper.GetInt("device.baud_rate"),
		Timeout:  viper.GetDuration("device.timeout"),
		Retries:  viper.GetInt("device.retries"),
		Logger:   logger,
	})
}
