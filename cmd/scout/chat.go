package main

import (
	"os"
	"os/signal"

	"github.com/juhapellotsalo/agentic-content-scout/internal/repl"
	"github.com/spf13/cobra"
)

func chatCMD(cfgPath *string) *cobra.Command {
	var threadID string
	var noSpinner bool
	var chat = &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			a, err := buildApp(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			r := &repl.REPL{
				Assistant: a.orch,
				Topics:    a.topics,
				In:        os.Stdin,
				Out:       os.Stdout,
				ThreadID:  threadID,
				Spinner:   !noSpinner,
			}
			return r.Run(ctx)
		},
	}
	chat.Flags().StringVar(&threadID, "thread", "", "resume an existing conversation")
	chat.Flags().BoolVar(&noSpinner, "no-spinner", false, "disable the progress spinner")
	return chat
}
