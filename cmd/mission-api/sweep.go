package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/servicemarket/missions/internal/notification"
	"github.com/servicemarket/missions/internal/sweep"
	"github.com/servicemarket/missions/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sweepCmd = &cobra.Command{
	Use:       "sweep <name>",
	Short:     "Run one sweep now and print its counts",
	Long:      "Run one of contact-release, review-solicitation or review-publication once. Meant for external schedulers such as a cron job.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{sweep.ContactReleaseName, sweep.ReviewSolicitationName, sweep.ReviewPublicationName},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, s, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		producer, err := notification.NewGateway(cfg.Service.Notification)
		if err != nil {
			return fmt.Errorf("creating notification gateway: %w", err)
		}

		sw, err := sweep.NewDefaultSet(s, producer, util.RealClock(), *cfg.Policy).Get(args[0])
		if err != nil {
			_ = producer.Close()
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		outcome, runErr := sw.Run(ctx)
		// flush queued notifications before reporting
		if err := producer.Close(); err != nil {
			zap.S().Errorw("failed to flush notifications", "error", err)
		}
		if runErr != nil {
			return runErr
		}

		return printOutcome(cmd.OutOrStdout(), outcome, sweepOutput)
	},
}

var sweepOutput string

func init() {
	sweepCmd.Flags().StringVarP(&sweepOutput, "output", "o", "table", "Output format: table or json")
}

func printOutcome(w io.Writer, outcome sweep.Outcome, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	case "table":
		counters := make([]string, 0, len(outcome.Counts))
		for name := range outcome.Counts {
			counters = append(counters, name)
		}
		sort.Strings(counters)

		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"Sweep", "Counter", "Rows"})
		for _, name := range counters {
			tw.AppendRow(table.Row{outcome.Sweep, name, outcome.Counts[name]})
		}
		tw.Render()
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
