package main

import (
	"auditstat/internal"
	"auditstat/internal/di"
	"auditstat/internal/models"
	"auditstat/internal/structures"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var (
	flags   structures.CliFlags
	rootCmd = &cobra.Command{
		Use:           "auditstat",
		Short:         "Usage analytics over exported audit data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func initApp() (*internal.App, error) {
	app, err := di.InitApp(&flags)
	if err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	return app, nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", "", "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&flags.DebugMode, "debug", "d", false, "Mirror logs to stderr")

	// report
	var asJSON, noExport bool
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Compute a snapshot from the input directory and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := initApp()
			if err != nil {
				return err
			}
			defer app.Close()

			m, err := app.Report(!noExport)
			if m == nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if encErr := enc.Encode(m); encErr != nil {
					return encErr
				}
				return err
			}
			if renderErr := renderReport(cmd.OutOrStdout(), m); renderErr != nil {
				return renderErr
			}
			return err
		},
	}
	reportCmd.Flags().BoolVar(&asJSON, "json", false, "Print the full snapshot as JSON")
	reportCmd.Flags().BoolVar(&noExport, "no-export", false, "Do not write the snapshot export")
	rootCmd.AddCommand(reportCmd)

	// drill
	var day, week string
	var fromExport bool
	drillCmd := &cobra.Command{
		Use:   "drill",
		Short: "List who created conversations on a day or in a week",
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := periodFromFlags(day, week)
			if err != nil {
				return err
			}
			app, err := initApp()
			if err != nil {
				return err
			}
			defer app.Close()

			participants, err := app.Drill(period, fromExport)
			if err != nil {
				return err
			}
			return renderParticipants(cmd.OutOrStdout(), period, participants)
		},
	}
	drillCmd.Flags().StringVar(&day, "day", "", "Calendar day (YYYY-MM-DD)")
	drillCmd.Flags().StringVar(&week, "week", "", "Week start Sunday (YYYY-MM-DD)")
	drillCmd.Flags().BoolVar(&fromExport, "from-export", false, "Answer from the last export instead of recomputing")
	drillCmd.MarkFlagsMutuallyExclusive("day", "week")
	drillCmd.MarkFlagsOneRequired("day", "week")
	rootCmd.AddCommand(drillCmd)

	// users
	var realOnly bool
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "List resolved user profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := initApp()
			if err != nil {
				return err
			}
			defer app.Close()

			m, err := app.Report(false)
			if err != nil {
				return err
			}
			users := m.Users
			if realOnly {
				users = m.RealUsers
			}
			return renderUsers(cmd.OutOrStdout(), users)
		},
	}
	usersCmd.Flags().BoolVar(&realOnly, "real", false, "Hide the service account")
	rootCmd.AddCommand(usersCmd)

	// watch
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompute and re-export whenever the input changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := initApp()
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Watch(ctx)
		},
	}
	rootCmd.AddCommand(watchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func periodFromFlags(day, week string) (models.Period, error) {
	var p models.Period
	switch {
	case day != "" && week != "":
		return p, errors.New("--day and --week are mutually exclusive")
	case day != "":
		p = models.DayPeriod(day)
	case week != "":
		p = models.WeekPeriod(week)
	default:
		return p, errors.New("one of --day or --week is required")
	}
	return p, p.Validate()
}
