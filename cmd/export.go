package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tfd500-tools/tfd500ctl/pkg/psql"
	"github.com/tfd500-tools/tfd500ctl/pkg/record"
)

var exportCmd = &cobra.Command{
	Use:          "export",
	Short:        "Dump the recorded data into a PostgreSQL/TimescaleDB table",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			psqlHost     = viper.GetString("postgres.host")
			psqlPort     = viper.GetInt("postgres.port")
			psqlUsername = viper.GetString("postgres.username")
			psqlPassword = viper.GetString("postgres.password")
			psqlDatabase = viper.GetString("postgres.database")
			psqlTable    = viper.GetString("postgres.table")
		)
		name, _ := cmd.Flags().GetString("name")
		input, _ := cmd.Flags().GetString("input")
		psqlInfo := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			psqlHost,
			psqlPort,
			psqlUsername,
			psqlPassword,
			psqlDatabase,
		)
		logger.LogAttrs(
			nil,
			slog.LevelInfo,
			"Connecting to TimescaleDB",
			slog.String("host", psqlHost),
			slog.Int("port", psqlPort),
			slog.String("database", psqlDatabase),
			slog.String("table", psqlTable),
		)
		svc, err := psql.New(psql.Config{
			PsqlInfo: psqlInfo,
			Table:    psqlTable,
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		defer svc.Close()
		ctx := cmd.Context()
		if err := svc.Ping(ctx); err != nil {
			return err
		}

		var dump *record.Dump
		if input != "" {
			buf, err := os.ReadFile(input)
			if err != nil {
				return err
			}
			dump, err = record.DecodeImage(buf)
			if err != nil {
				return err
			}
		} else {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()
			dump, err = s.Dump(ctx, nil)
			if err != nil {
				return err
			}
		}
		return svc.InsertDump(ctx, name, dump)
	},
}

func init() {
	exportCmd.Flags().String("postgres.host", "", "host")
	exportCmd.Flags().Int("postgres.port", 0, "port")
	exportCmd.Flags().String("postgres.username", "", "username")
	exportCmd.Flags().String("postgres.password", "", "password")
	exportCmd.Flags().String("postgres.database", "", "database name")
	exportCmd.Flags().String("postgres.table", "", "table name")
	exportCmd.Flags().String("name", "tfd500", "logger name stored with each data point")
	exportCmd.Flags().String("input", "", "read a saved raw dump image instead of the device")

	cobra.CheckErr(viper.BindPFlags(exportCmd.Flags()))

	viper.SetDefault("postgres.port", 5432)
	viper.SetDefault("postgres.table", "measurements")

	rootCmd.AddCommand(exportCmd)
}
