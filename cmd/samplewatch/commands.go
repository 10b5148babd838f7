package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"samplewatch/internal/app"
	"samplewatch/internal/config"
	"samplewatch/internal/metrics"
	"samplewatch/internal/run"
)

func rootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "samplewatch",
		Short:         "Keeps QA sampling schedules current and notifies about due checks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "./samplewatch.yaml", "path to the config file (json or yaml)")

	root.AddCommand(runCmd(&cfgPath))
	root.AddCommand(daemonCmd(&cfgPath))
	root.AddCommand(checkConfigCmd(&cfgPath))
	root.AddCommand(versionCmd())
	return root
}

func runCmd(cfgPath *string) *cobra.Command {
	var dryRun bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one reconciliation run and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(*cfgPath, app.Options{DryRun: dryRun})
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.RunOnce(ctx)
			if rep != nil {
				printReport(rep, asJSON)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run against an empty in-memory store instead of the configured one")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full run report as JSON")
	return cmd
}

func daemonCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run continuously: scheduled runs, hot config reload, status server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			met := metrics.New(registry)

			a, err := app.New(*cfgPath, app.Options{Metrics: met})
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Daemon(ctx, registry)
		},
	}
}

func checkConfigCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Load and validate the config, then print the effective settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := config.NewConfigManager(*cfgPath)
			cfg, err := m.Load()
			if err != nil {
				return err
			}
			if err := app.Validate(context.Background(), cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			redactConfig(cfg)
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			color.Green("config ok: %s", *cfgPath)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(*cobra.Command, []string) {
			fmt.Printf("samplewatch %s\n", version)
		},
	}
}

// redactConfig blanks secret material before printing.
func redactConfig(cfg *config.Config) {
	if tg := cfg.Notify.Telegram; tg != nil && tg.Token != "" {
		tg.Token = "<redacted>"
	}
}

func printReport(rep *run.Report, asJSON bool) {
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(rep)
		return
	}

	bold := color.New(color.Bold)
	if rep.OK() {
		bold.Print("run ")
		color.Green("done")
	} else {
		bold.Print("run ")
		color.Red("failed")
		if rep.Err != "" {
			fmt.Printf("  %s\n", rep.Err)
		}
	}

	for _, sh := range rep.Sheets {
		name := sh.Sheet
		if sh.Label != "" {
			name += " (" + sh.Label + ")"
		}
		fmt.Printf("  %-30s rows=%d computed=%d due=%d skipped=%d\n",
			name, sh.Rows, sh.Computed, sh.Due, sh.Skipped)
	}
	fmt.Printf("  due: %d  history appended: %d  notification sent: %v\n",
		rep.RowsDue, rep.HistoryAppended, rep.NotificationSent)
	for _, d := range rep.Degradations {
		color.Yellow("  degraded: %s", d)
	}
}
