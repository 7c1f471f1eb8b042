package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	srv "github.com/juhapellotsalo/agentic-content-scout/internal/server"
	"github.com/spf13/cobra"
)

func (a *app) scheduler(ctx context.Context) (*srv.Scheduler, error) {
	rdb, err := a.redisClient(ctx)
	if err != nil {
		return nil, err
	}
	return &srv.Scheduler{
		Topics:   a.topics,
		Runner:   a.orch,
		Rdb:      rdb,
		Cron:     a.cfg.Scheduler.Cron,
		Task:     a.cfg.Scheduler.Task,
		Interval: a.cfg.Scheduler.Interval,
		Logger:   log.New(log.Writer(), "[SCHED] ", log.LstdFlags),
	}, nil
}

func scheduleCMD(cfgPath *string) *cobra.Command {
	var once bool
	var schedule = &cobra.Command{
		Use:   "schedule",
		Short: "Scout every topic on the configured cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a, err := buildApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			sched, err := a.scheduler(ctx)
			if err != nil {
				return err
			}
			if once {
				n := sched.Tick(ctx)
				fmt.Fprintf(cmd.OutOrStdout(), "scouted %d topic(s)\n", n)
				return nil
			}
			sched.Start(ctx)
			return nil
		},
	}
	schedule.Flags().BoolVar(&once, "once", false, "run due topics once and exit")
	return schedule
}
