package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	// withApp loads the config and runs fn with a ready app.
	withApp := func(fn func(cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, verbose, out)
			if err != nil {
				return err
			}
			err = fn(cmd, a)
			if cerr := a.close(); err == nil {
				err = cerr
			}
			return err
		}
	}

	rootCmd := &cobra.Command{
		Use:   "breakout",
		Short: "Builds a dataset of NBA player seasons labeled as breakouts",
		Long: `breakout collects per-season player statistics from stats.nba.com, derives
efficiency and year-over-year features, and labels a season as a breakout when
the estimated net rating improves by at least the configured threshold.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults apply when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	collectCmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch every configured season into the progress file",
		Long:  `Seasons already in the progress file are skipped, so an interrupted run picks up where it stopped.`,
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			res, err := a.collect(cmd.Context())
			if res != nil {
				renderCollection(out, res)
			}
			return err
		}),
	}

	var deriveInput string
	deriveCmd := &cobra.Command{
		Use:   "derive",
		Short: "Add features and breakout labels to a collected table",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			in := deriveInput
			if in == "" {
				in = a.cfg.Path(a.cfg.Paths.Progress)
			}
			recs, err := a.loadTable(in)
			if err != nil {
				return err
			}
			if _, err := a.derive(recs); err != nil {
				return err
			}
			renderSummary(out, summarize(recs, a.cfg.Breakout.Metric))
			return nil
		}),
	}
	deriveCmd.Flags().StringVarP(&deriveInput, "input", "i", "", "collected CSV (default: the progress file)")

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Collect, derive, label and report in one run",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			return a.build(cmd.Context())
		}),
	}

	var summaryInput string
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Print a summary of a labeled dataset",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			recs, err := a.loadTable(outputOr(a, summaryInput))
			if err != nil {
				return err
			}
			renderSummary(out, summarize(recs, a.cfg.Breakout.Metric))
			return nil
		}),
	}
	summaryCmd.Flags().StringVarP(&summaryInput, "input", "i", "", "labeled CSV (default: the output file)")

	var reportInput string
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Render the HTML report of a labeled dataset",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			if a.cfg.Paths.Report == "" {
				return fmt.Errorf("paths.report is empty")
			}
			recs, err := a.loadTable(outputOr(a, reportInput))
			if err != nil {
				return err
			}
			if err := a.writeReport(cmd.Context(), summarize(recs, a.cfg.Breakout.Metric)); err != nil {
				return err
			}
			fmt.Fprintln(out, a.cfg.Path(a.cfg.Paths.Report))
			return nil
		}),
	}
	reportCmd.Flags().StringVarP(&reportInput, "input", "i", "", "labeled CSV (default: the output file)")

	rootCmd.AddCommand(collectCmd, deriveCmd, buildCmd, summaryCmd, reportCmd)
	return rootCmd
}

func outputOr(a *app, input string) string {
	if input != "" {
		return input
	}
	return a.cfg.Path(a.cfg.Paths.Output)
}
