// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule <topic>",
	Short: "Produce a digest for a topic on a cron schedule",
	Long: `Schedule keeps running and produces a fresh digest for the topic every
time the cron expression fires. Each tick is an independent pipeline run;
a failed run is logged and the schedule continues. Reports are rendered and
archived exactly as with "run".

  research-digest schedule --cron "0 7 * * *" graph neural networks`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: bindPipelineFlags,
	RunE:    runSchedule,
}

func runSchedule(cmd *cobra.Command, args []string) error {
	topic := strings.Join(args, " ")
	expr, _ := cmd.Flags().GetString("cron")
	runNow, _ := cmd.Flags().GetBool("run-now")

	cfg, err := loadConfig(viper.GetViper(), loadedSecrets)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		a.serveMetrics(ctx, addr)
	}

	tick := func() {
		report, paths, err := a.digest(ctx, topic)
		if report == nil {
			logger.Error("scheduled run failed", zap.String("topic", topic), zap.Error(err))
			return
		}
		if err != nil {
			logger.Warn("scheduled run produced output errors", zap.Error(err))
		}
		logger.Info("scheduled run complete",
			zap.String("run_id", report.RunID),
			zap.Int("papers", len(report.SummarizedPapers)),
			zap.Strings("files", paths))
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(expr, tick); err != nil {
		return fmt.Errorf("parsing cron schedule %q: %w", expr, err)
	}

	if runNow {
		tick()
	}
	c.Start()
	logger.Info("digest scheduled", zap.String("cron", expr), zap.String("topic", topic))

	<-ctx.Done()
	logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	return nil
}

func init() {
	addPipelineFlags(scheduleCmd)
	scheduleCmd.Flags().String("cron", "0 7 * * *", "cron expression (minute hour day month weekday)")
	scheduleCmd.Flags().Bool("run-now", false, "run once immediately before waiting for the schedule")
	rootCmd.AddCommand(scheduleCmd)
}
