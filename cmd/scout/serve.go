package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	srv "github.com/juhapellotsalo/agentic-content-scout/internal/server"
	"github.com/spf13/cobra"
)

func serveCMD(cfgPath *string) *cobra.Command {
	var serveAddr string
	var withScheduler bool
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a, err := buildApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			if withScheduler {
				sched, err := a.scheduler(ctx)
				if err != nil {
					return err
				}
				go sched.Start(ctx)
			}

			e := srv.New(srv.Options{
				Assistant:    a.orch,
				Topics:       a.topics,
				Telemetry:    a.telemetry,
				JWTSecret:    a.cfg.Server.JWTSecret,
				PasswordHash: a.cfg.Server.PasswordHash,
				TokenTTL:     a.cfg.Server.TokenTTL,
				Logger:       log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
			})
			addr := serveAddr
			if addr == "" {
				addr = a.cfg.Server.Address
			}
			return srv.Run(ctx, e, addr)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (default server.address)")
	serve.Flags().BoolVar(&withScheduler, "scheduler", false, "also run the scouting scheduler")
	return serve
}
